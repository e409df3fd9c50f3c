package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/hirelane/hirelane-identity/internal/models"
	"github.com/hirelane/hirelane-identity/internal/security"
	"github.com/hirelane/hirelane-identity/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MFAHandler manages authenticator app and passkey enrollment for the signed in admin.
type MFAHandler struct {
	db       *gorm.DB
	passkeys *Passkeys
}

// NewMFAHandler constructs an MFAHandler.
func NewMFAHandler(db *gorm.DB, passkeys *Passkeys) *MFAHandler {
	return &MFAHandler{db: db, passkeys: passkeys}
}

// loadAdmin fetches the caller's admin row, writing an error response on failure.
func (h *MFAHandler) loadAdmin(c *gin.Context) (*models.Admin, bool) {
	identity, ok := currentAdmin(c)
	if !ok {
		return nil, false
	}
	var admin models.Admin
	errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", identity.OwnerEmail).Take(&admin).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return nil, false
		}
		log.WithError(errFind).Error("admin mfa: load admin failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, false
	}
	return &admin, true
}

// Status reports which second factors are enabled.
func (h *MFAHandler) Status(c *gin.Context) {
	admin, ok := h.loadAdmin(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totp_enabled":    admin.TOTPSecret != "",
		"totp_pending":    admin.PendingTOTPSecret != "",
		"passkey_enabled": hasPasskey(admin),
	})
}

// TOTPPrepare creates a pending secret and returns it for the authenticator app.
func (h *MFAHandler) TOTPPrepare(c *gin.Context) {
	admin, ok := h.loadAdmin(c)
	if !ok {
		return
	}
	if admin.TOTPSecret != "" {
		c.JSON(http.StatusConflict, gin.H{"error": "totp already enabled"})
		return
	}
	key, errKey := security.GenerateTOTPKey(settings.SiteName(), admin.Email)
	if errKey != nil {
		log.WithError(errKey).Error("admin mfa: generate totp failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).Model(admin).
		Update("pending_totp_secret", key.Secret).Error; errUpdate != nil {
		log.WithError(errUpdate).Error("admin mfa: store pending secret failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"secret":      key.Secret,
		"otpauth_url": key.URL,
		"qr_image":    key.QRImage,
	})
}

// totpCodeRequest carries an authenticator code.
type totpCodeRequest struct {
	Code string `json:"code" binding:"required,len=6,numeric"`
}

// TOTPConfirm activates the pending secret once the admin proves a code from it.
func (h *MFAHandler) TOTPConfirm(c *gin.Context) {
	var body totpCodeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	admin, ok := h.loadAdmin(c)
	if !ok {
		return
	}
	if admin.PendingTOTPSecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no pending totp enrollment"})
		return
	}
	if !security.ValidateTOTP(body.Code, admin.PendingTOTPSecret) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
		return
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).Model(admin).Updates(map[string]any{
		"totp_secret":         admin.PendingTOTPSecret,
		"pending_totp_secret": "",
	}).Error; errUpdate != nil {
		log.WithError(errUpdate).Error("admin mfa: enable totp failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"totp_enabled": true})
}

// TOTPDisable removes TOTP after checking a current code.
func (h *MFAHandler) TOTPDisable(c *gin.Context) {
	var body totpCodeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	admin, ok := h.loadAdmin(c)
	if !ok {
		return
	}
	if admin.TOTPSecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "totp not enabled"})
		return
	}
	if !security.ValidateTOTP(body.Code, admin.TOTPSecret) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
		return
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).Model(admin).Updates(map[string]any{
		"totp_secret":         "",
		"pending_totp_secret": "",
	}).Error; errUpdate != nil {
		log.WithError(errUpdate).Error("admin mfa: disable totp failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"totp_enabled": false})
}

// PasskeyRegisterBegin starts a passkey registration ceremony.
func (h *MFAHandler) PasskeyRegisterBegin(c *gin.Context) {
	rp, errRP := h.passkeys.relyingParty()
	if errRP != nil {
		writePasskeyUnavailable(c, errRP)
		return
	}
	admin, ok := h.loadAdmin(c)
	if !ok {
		return
	}

	user := newAdminWebAuthnUser(admin)
	options := []webauthn.RegistrationOption{
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
		webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
			UserVerification: protocol.VerificationPreferred,
		}),
	}
	if len(user.WebAuthnCredentials()) > 0 {
		options = append(options, webauthn.WithExclusions(webauthn.Credentials(user.WebAuthnCredentials()).CredentialDescriptors()))
	}
	creation, ceremony, errBegin := rp.BeginRegistration(user, options...)
	if errBegin != nil {
		log.WithError(errBegin).Error("admin mfa: begin passkey registration failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if errPut := h.passkeys.store.Put(c.Request.Context(), registrationCeremonyKey(admin.ID), *ceremony); errPut != nil {
		log.WithError(errPut).Error("admin mfa: store passkey ceremony failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, creation)
}

// PasskeyRegisterFinish verifies the authenticator's attestation and stores the credential.
// The request body is the credential JSON produced by navigator.credentials.create.
func (h *MFAHandler) PasskeyRegisterFinish(c *gin.Context) {
	rp, errRP := h.passkeys.relyingParty()
	if errRP != nil {
		writePasskeyUnavailable(c, errRP)
		return
	}
	admin, ok := h.loadAdmin(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	ceremony, found, errTake := h.passkeys.store.Take(ctx, registrationCeremonyKey(admin.ID))
	if errTake != nil {
		log.WithError(errTake).Error("admin mfa: load passkey ceremony failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !found {
		c.JSON(http.StatusBadRequest, gin.H{"error": "registration expired"})
		return
	}

	credential, errFinish := rp.FinishRegistration(newAdminWebAuthnUser(admin), ceremony, c.Request)
	if errFinish != nil {
		log.WithError(errFinish).Warn("admin mfa: passkey registration rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": "registration failed"})
		return
	}
	columns := passkeyCounterColumns(credential)
	columns["passkey_id"] = credential.ID
	columns["passkey_public_key"] = credential.PublicKey
	if errUpdate := h.db.WithContext(ctx).Model(admin).Updates(columns).Error; errUpdate != nil {
		log.WithError(errUpdate).Error("admin mfa: store passkey failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"passkey_enabled": true})
}

// PasskeyDisable removes the admin's passkey.
func (h *MFAHandler) PasskeyDisable(c *gin.Context) {
	admin, ok := h.loadAdmin(c)
	if !ok {
		return
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).Model(admin).Updates(map[string]any{
		"passkey_id":              nil,
		"passkey_public_key":      nil,
		"passkey_sign_count":      nil,
		"passkey_backup_eligible": nil,
		"passkey_backup_state":    nil,
	}).Error; errUpdate != nil {
		log.WithError(errUpdate).Error("admin mfa: disable passkey failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"passkey_enabled": false})
}
