package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	internalhttp "github.com/hirelane/hirelane-identity/internal/http"
)

// requireRole limits a route group to admins holding one of roles.
// It must run after internalhttp.AdminSessionMiddleware.
func requireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		identity, ok := internalhttp.AdminFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if _, okRole := allowed[identity.Role]; !okRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}
