package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/hirelane/hirelane-identity/internal/admins"
	frontHandlers "github.com/hirelane/hirelane-identity/internal/http/api/front/handlers"
	"github.com/hirelane/hirelane-identity/internal/models"
	"github.com/hirelane/hirelane-identity/internal/otp"
	"github.com/hirelane/hirelane-identity/internal/security"
	"github.com/hirelane/hirelane-identity/internal/session"
	"github.com/hirelane/hirelane-identity/internal/util"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthHandler handles admin sign in and sign out.
type AuthHandler struct {
	db       *gorm.DB
	codes    *otp.Service
	sessions *session.Manager
	cookie   CookieConfig
	passkeys *Passkeys
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, codes *otp.Service, sessions *session.Manager, cookie CookieConfig, passkeys *Passkeys) *AuthHandler {
	return &AuthHandler{db: db, codes: codes, sessions: sessions, cookie: cookie, passkeys: passkeys}
}

// prepareRequest defines the request body for requesting a login code.
type prepareRequest struct {
	Email    string `json:"email" binding:"required,email,max=320"`
	Password string `json:"password"`
}

// Prepare sends a login code to a known admin. The response is the same whether or not
// the email belongs to an active admin.
func (h *AuthHandler) Prepare(c *gin.Context) {
	var body prepareRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()
	admin, errFind := admins.FindActive(ctx, h.db, body.Email)
	if errFind != nil {
		log.WithError(errFind).Error("admin login: lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if admin == nil || !security.CheckPassword(admin.Password, strings.TrimSpace(body.Password)) {
		log.WithField("email", util.MaskIdentifier(body.Email)).Debug("admin login: prepare skipped")
		c.JSON(http.StatusAccepted, gin.H{"status": "code_sent"})
		return
	}

	if _, errGenerate := h.codes.Generate(ctx, string(otp.PurposeLogin), admin.Email); errGenerate != nil {
		frontHandlers.WriteGenerateError(c, errGenerate)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "code_sent"})
}

// verifyRequest defines the request body for completing a login. Admins with a second factor
// send either totp_code or a passkey assertion obtained from /login/passkey/options.
type verifyRequest struct {
	Email    string          `json:"email" binding:"required,email,max=320"`
	Code     string          `json:"code" binding:"required,len=6,numeric"`
	TOTPCode string          `json:"totp_code"`
	Passkey  json.RawMessage `json:"passkey"`
}

// Verify checks the emailed code, and the second factor when enrolled, then issues a session.
func (h *AuthHandler) Verify(c *gin.Context) {
	var body verifyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()
	result, errVerify := h.codes.Verify(ctx, admins.NormalizeEmail(body.Email), string(otp.PurposeLogin), body.Code)
	if errVerify != nil {
		if errors.Is(errVerify, otp.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		log.WithError(errVerify).Error("admin login: verify failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !result.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired code"})
		return
	}

	admin, errFind := admins.FindActive(ctx, h.db, body.Email)
	if errFind != nil {
		log.WithError(errFind).Error("admin login: lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if admin == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired code"})
		return
	}
	if !h.checkSecondFactor(ctx, admin, body) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "mfa required"})
		return
	}

	issued, errIssue := h.sessions.Issue(ctx, admin.Email, clientInfo(c))
	if errIssue != nil {
		log.WithError(errIssue).Error("admin login: issue session failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	setSessionCookie(c, h.cookie, issued.Token, h.sessions.TTL())
	c.JSON(http.StatusOK, gin.H{
		"user":       gin.H{"email": admin.Email, "role": admin.Role},
		"expires_at": issued.ExpiresAt,
	})
}

// checkSecondFactor passes admins without TOTP or a passkey. Others need a valid TOTP code
// or a valid passkey assertion.
func (h *AuthHandler) checkSecondFactor(ctx context.Context, admin *models.Admin, body verifyRequest) bool {
	totpEnabled := admin.TOTPSecret != ""
	passkeyEnabled := hasPasskey(admin)
	if !totpEnabled && !passkeyEnabled {
		return true
	}
	if totpEnabled && body.TOTPCode != "" && security.ValidateTOTP(body.TOTPCode, admin.TOTPSecret) {
		return true
	}
	if !passkeyEnabled || !hasPayload(body.Passkey) {
		return false
	}

	credential, errAssert := h.passkeys.verifyAssertion(ctx, admin, body.Passkey)
	if errAssert != nil {
		log.WithError(errAssert).WithField("email", util.MaskIdentifier(admin.Email)).Warn("admin login: passkey not accepted")
		return false
	}
	if errUpdate := h.db.WithContext(ctx).Model(admin).Updates(passkeyCounterColumns(credential)).Error; errUpdate != nil {
		log.WithError(errUpdate).Warn("admin login: update passkey counter failed")
	}
	return true
}

// PasskeyOptions starts a discoverable passkey assertion. The options name no account, so
// the response is identical for every caller.
func (h *AuthHandler) PasskeyOptions(c *gin.Context) {
	rp, errRP := h.passkeys.relyingParty()
	if errRP != nil {
		writePasskeyUnavailable(c, errRP)
		return
	}
	assertion, ceremony, errBegin := rp.BeginDiscoverableLogin(webauthn.WithUserVerification(protocol.VerificationPreferred))
	if errBegin != nil {
		log.WithError(errBegin).Error("admin login: begin passkey assertion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if errPut := h.passkeys.store.Put(c.Request.Context(), loginCeremonyKey(ceremony.Challenge), *ceremony); errPut != nil {
		log.WithError(errPut).Error("admin login: store passkey ceremony failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, assertion)
}

// Logout revokes the current session, if any. The cookie is cleared even when the revoke fails.
func (h *AuthHandler) Logout(c *gin.Context) {
	clearSessionCookie(c, h.cookie)
	if token, errCookie := c.Cookie(h.cookie.Name); errCookie == nil {
		if errRevoke := h.sessions.Revoke(c.Request.Context(), token); errRevoke != nil {
			log.WithError(errRevoke).Error("admin logout: revoke failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns the signed in admin. The dashboard gate's HTTP resolver reads this shape.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := currentAdmin(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{"email": identity.OwnerEmail, "role": identity.Role},
		"session": gin.H{
			"id":         identity.SessionID,
			"expires_at": identity.ExpiresAt,
		},
	})
}
