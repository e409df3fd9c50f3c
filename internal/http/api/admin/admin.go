// Package admin registers the admin JSON API and the gated dashboard.
package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/hirelane/hirelane-identity/internal/admins"
	"github.com/hirelane/hirelane-identity/internal/config"
	internalhttp "github.com/hirelane/hirelane-identity/internal/http"
	"github.com/hirelane/hirelane-identity/internal/http/api/admin/handlers"
	"github.com/hirelane/hirelane-identity/internal/http/gate"
	"github.com/hirelane/hirelane-identity/internal/otp"
	"github.com/hirelane/hirelane-identity/internal/session"
	"github.com/hirelane/hirelane-identity/internal/webui"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies holds what the admin API needs. Redis is optional.
type Dependencies struct {
	DB       *gorm.DB
	Codes    *otp.Service
	Sessions *session.Manager
	Cookie   handlers.CookieConfig
	Redis    redis.UniversalClient
	WebAuthn config.WebAuthnConfig
}

// RegisterAdminRoutes registers /healthz and the /v0/admin endpoints.
func RegisterAdminRoutes(r *gin.Engine, deps Dependencies) {
	if r == nil || deps.DB == nil || deps.Codes == nil || deps.Sessions == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis)
	r.GET("/healthz", healthHandler.Healthz)

	passkeys := handlers.NewPasskeys(deps.WebAuthn, deps.Redis)
	authHandler := handlers.NewAuthHandler(deps.DB, deps.Codes, deps.Sessions, deps.Cookie, passkeys)
	api := r.Group("/v0/admin")
	api.POST("/login/prepare", authHandler.Prepare)
	api.POST("/login/passkey/options", authHandler.PasskeyOptions)
	api.POST("/login/verify", authHandler.Verify)
	api.POST("/logout", authHandler.Logout)

	authed := api.Group("")
	authed.Use(internalhttp.AdminSessionMiddleware(deps.Sessions, deps.Cookie.Name))
	authed.GET("/me", authHandler.Me)

	sessionsHandler := handlers.NewSessionsHandler(deps.Sessions, deps.Cookie)
	authed.GET("/sessions", sessionsHandler.List)
	authed.POST("/sessions/:id/revoke", sessionsHandler.Revoke)
	authed.POST("/sessions/revoke-all", sessionsHandler.RevokeAll)

	mfaHandler := handlers.NewMFAHandler(deps.DB, passkeys)
	authed.GET("/mfa/status", mfaHandler.Status)
	authed.POST("/mfa/totp/prepare", mfaHandler.TOTPPrepare)
	authed.POST("/mfa/totp/confirm", mfaHandler.TOTPConfirm)
	authed.POST("/mfa/totp/disable", mfaHandler.TOTPDisable)
	authed.POST("/mfa/passkey/register/begin", mfaHandler.PasskeyRegisterBegin)
	authed.POST("/mfa/passkey/register/finish", mfaHandler.PasskeyRegisterFinish)
	authed.POST("/mfa/passkey/disable", mfaHandler.PasskeyDisable)

	settingsHandler := handlers.NewSettingsHandler(deps.DB)
	authed.GET("/settings", settingsHandler.List)
	authed.PUT("/settings/:key", settingsHandler.Put)

	privileged := authed.Group("")
	privileged.Use(requireRole(admins.RoleAdmin))
	adminsHandler := handlers.NewAdminsHandler(deps.DB, deps.Sessions)
	privileged.GET("/admins", adminsHandler.List)
	privileged.POST("/admins", adminsHandler.Create)
	privileged.PUT("/admins/:id", adminsHandler.Update)
}

// RegisterDashboard serves the dashboard bundle under the gate's protected prefix.
func RegisterDashboard(r *gin.Engine, cfg gate.Config, resolver gate.Resolver, bundle webui.Bundle) {
	if r == nil || resolver == nil {
		return
	}
	dashboard := r.Group(cfg.ProtectedPrefix)
	dashboard.Use(gate.Middleware(cfg, resolver))
	serve := bundle.Handler(cfg.ProtectedPrefix)
	dashboard.GET("", serve)
	dashboard.GET("/*path", serve)
}
