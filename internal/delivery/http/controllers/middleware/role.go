package middleware

import (
	"DormBiz/internal/app_errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRoles lets the request through when the client holds any of the
// given roles. It must run after AuthMiddleware.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		roleSet[r] = struct{}{}
	}
	return func(c *gin.Context) {
		roles, ok := c.Get(ClientRolesCtx)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": app_errors.ErrUnauthenticated.Error()})
			return
		}
		list, ok := roles.([]string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "invalid roles format"})
			return
		}

		for _, role := range list {
			if _, allowed := roleSet[role]; allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": app_errors.ErrForbidden.Error()})
	}
}
