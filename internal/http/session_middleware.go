package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hirelane/hirelane-identity/internal/session"
	log "github.com/sirupsen/logrus"
)

// adminIdentityKey stores the validated session.Identity on the gin context.
const adminIdentityKey = "adminIdentity"

// SessionValidator validates admin session tokens.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (session.Identity, error)
}

// AdminSessionMiddleware requires a valid admin session cookie and injects the identity.
// Unlike the dashboard gate it fails closed.
func AdminSessionMiddleware(sessions SessionValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, errCookie := c.Cookie(cookieName)
		if errCookie != nil || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		identity, errValidate := sessions.Validate(c.Request.Context(), token)
		switch {
		case errValidate == nil:
			c.Set(adminIdentityKey, identity)
			c.Next()
		case errors.Is(errValidate, session.ErrInvalid),
			errors.Is(errValidate, session.ErrRevoked),
			errors.Is(errValidate, session.ErrExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		default:
			log.WithError(errValidate).Error("admin session middleware error")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication service error"})
		}
	}
}

// AdminFromContext returns the identity injected by AdminSessionMiddleware.
func AdminFromContext(c *gin.Context) (session.Identity, bool) {
	value, ok := c.Get(adminIdentityKey)
	if !ok {
		return session.Identity{}, false
	}
	identity, ok := value.(session.Identity)
	return identity, ok
}
