package middleware

import (
	"net/http"

	"MarsAI_Festival/internal/model"

	"github.com/gin-gonic/gin"
)

// RequireRoles 持有任一角色即放行，必须挂在 Auth 之后
func RequireRoles(roles ...model.RoleName) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "unauthorized"})
			return
		}
		if !id.HasAnyRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"msg": "insufficient permissions"})
			return
		}
		c.Next()
	}
}
