// Package gate restricts dashboard pages by admin role.
//
// The gate never sends anyone to the login page. Requests without a session
// cookie, and requests whose role lookup fails for any reason, pass through
// unchanged and the page itself decides what to render. Only a resolved
// restricted role is redirected, to its single allowed path.
package gate

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hirelane/hirelane-identity/internal/session"
	log "github.com/sirupsen/logrus"
)

// Context keys set by the gate.
const (
	StateKey = "gateState"
	EmailKey = "gateAdminEmail"
	RoleKey  = "gateAdminRole"
)

// State is the gate's classification of a request.
type State string

// Gate states.
const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthCheckFailed State = "auth_check_failed"
	StateRestrictedRole  State = "restricted_role"
	StateAuthenticated   State = "authenticated"
)

// Principal is the resolved caller.
type Principal struct {
	Email string
	Role  string
}

// Resolver maps a session cookie value to its principal.
type Resolver interface {
	Resolve(ctx context.Context, token string) (Principal, error)
}

// Config holds the static gate rules.
type Config struct {
	ProtectedPrefix string // e.g. "/admin".
	RestrictedRole  string // e.g. "support".
	AllowedPath     string // The one page the restricted role may open.
	CookieName      string // Session cookie name.
}

// Middleware enforces cfg using resolver.
func Middleware(cfg Config, resolver Resolver) gin.HandlerFunc {
	prefix := normalizePath(cfg.ProtectedPrefix)
	allowed := normalizePath(cfg.AllowedPath)

	return func(c *gin.Context) {
		requestPath := normalizePath(c.Request.URL.Path)
		if requestPath != prefix && !strings.HasPrefix(requestPath, prefix+"/") {
			c.Next()
			return
		}

		token, errCookie := c.Cookie(cfg.CookieName)
		if errCookie != nil || strings.TrimSpace(token) == "" {
			c.Set(StateKey, StateUnauthenticated)
			c.Next()
			return
		}

		principal, errResolve := resolver.Resolve(c.Request.Context(), token)
		if errResolve != nil {
			entry := log.WithError(errResolve).WithField("path", requestPath)
			if isSessionRejection(errResolve) {
				entry.Debug("gate: session rejected, passing through")
			} else {
				entry.Warn("gate: role check failed, passing through")
			}
			c.Set(StateKey, StateAuthCheckFailed)
			c.Next()
			return
		}

		c.Set(EmailKey, principal.Email)
		c.Set(RoleKey, principal.Role)
		if principal.Role == cfg.RestrictedRole && requestPath != allowed {
			c.Set(StateKey, StateRestrictedRole)
			c.Redirect(http.StatusTemporaryRedirect, allowed)
			c.Abort()
			return
		}
		c.Set(StateKey, StateAuthenticated)
		c.Next()
	}
}

// normalizePath drops a trailing slash so "/admin/settings/" matches "/admin/settings".
func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			return "/"
		}
	}
	return p
}

func isSessionRejection(err error) bool {
	return errors.Is(err, session.ErrInvalid) ||
		errors.Is(err, session.ErrRevoked) ||
		errors.Is(err, session.ErrExpired) ||
		errors.Is(err, ErrNotSignedIn)
}
