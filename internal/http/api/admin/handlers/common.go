// Package handlers implements the admin JSON API.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	internalhttp "github.com/hirelane/hirelane-identity/internal/http"
	"github.com/hirelane/hirelane-identity/internal/models"
	"github.com/hirelane/hirelane-identity/internal/session"
)

// CookieConfig describes the admin session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// setSessionCookie writes the session cookie. It is HttpOnly and SameSite=Lax.
func setSessionCookie(c *gin.Context, cfg CookieConfig, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Name, token, int(ttl.Seconds()), "/", "", cfg.Secure, true)
}

func clearSessionCookie(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Name, "", -1, "/", "", cfg.Secure, true)
}

// currentAdmin returns the identity set by the session middleware, aborting with 401 when absent.
func currentAdmin(c *gin.Context) (session.Identity, bool) {
	identity, ok := internalhttp.AdminFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return session.Identity{}, false
	}
	return identity, true
}

func clientInfo(c *gin.Context) session.ClientInfo {
	return session.ClientInfo{UserAgent: c.Request.UserAgent(), IP: c.ClientIP()}
}

// adminView is the JSON shape of an admin account.
type adminView struct {
	ID             uint64    `json:"id"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Active         bool      `json:"active"`
	HasPassword    bool      `json:"has_password"`
	TOTPEnabled    bool      `json:"totp_enabled"`
	PasskeyEnabled bool      `json:"passkey_enabled"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toAdminView(a *models.Admin) adminView {
	return adminView{
		ID:             a.ID,
		Email:          a.Email,
		Role:           a.Role,
		Active:         a.Active,
		HasPassword:    a.Password != "",
		TOTPEnabled:    a.TOTPSecret != "",
		PasskeyEnabled: hasPasskey(a),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
