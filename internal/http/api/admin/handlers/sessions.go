package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hirelane/hirelane-identity/internal/admins"
	"github.com/hirelane/hirelane-identity/internal/session"
	log "github.com/sirupsen/logrus"
)

// SessionsHandler lists and revokes admin sessions.
type SessionsHandler struct {
	sessions *session.Manager
	cookie   CookieConfig
}

// NewSessionsHandler constructs a SessionsHandler.
func NewSessionsHandler(sessions *session.Manager, cookie CookieConfig) *SessionsHandler {
	return &SessionsHandler{sessions: sessions, cookie: cookie}
}

// List returns the caller's active sessions. Admins may pass ?owner= to list another account.
func (h *SessionsHandler) List(c *gin.Context) {
	identity, ok := currentAdmin(c)
	if !ok {
		return
	}
	owner := identity.OwnerEmail
	if requested := strings.TrimSpace(c.Query("owner")); requested != "" && admins.NormalizeEmail(requested) != owner {
		if identity.Role != admins.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		owner = admins.NormalizeEmail(requested)
	}

	list, errList := h.sessions.List(c.Request.Context(), owner)
	if errList != nil {
		log.WithError(errList).Error("admin sessions: list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": list, "current": identity.SessionID})
}

// Revoke ends one session. Callers may revoke their own sessions; admins may revoke any.
func (h *SessionsHandler) Revoke(c *gin.Context) {
	identity, ok := currentAdmin(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	id := strings.TrimSpace(c.Param("id"))

	target, errLookup := h.sessions.Lookup(ctx, id)
	if errLookup != nil {
		if errors.Is(errLookup, session.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		log.WithError(errLookup).Error("admin sessions: lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if target.OwnerEmail != identity.OwnerEmail && identity.Role != admins.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}

	if id == identity.SessionID {
		clearSessionCookie(c, h.cookie)
	}
	if errRevoke := h.sessions.RevokeByID(ctx, id); errRevoke != nil {
		if errors.Is(errRevoke, session.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		log.WithError(errRevoke).Error("admin sessions: revoke failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RevokeAll signs the caller out everywhere, including the current session.
func (h *SessionsHandler) RevokeAll(c *gin.Context) {
	identity, ok := currentAdmin(c)
	if !ok {
		return
	}
	clearSessionCookie(c, h.cookie)
	n, errRevoke := h.sessions.RevokeAllForOwner(c.Request.Context(), identity.OwnerEmail)
	if errRevoke != nil {
		log.WithError(errRevoke).Error("admin sessions: revoke all failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": n})
}
