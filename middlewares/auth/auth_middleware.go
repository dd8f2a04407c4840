package auth

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/utils"
	"github.com/joy095/ledger/utils/jwt_parse"
)

// AuthMiddleware authenticates the request with the bearer JWT and requires a known role.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !jwt_parse.Authenticate(c, secret) {
			return
		}

		if _, err := utils.GetUserIDFromContext(c); err != nil {
			logger.WarnLogger.Warnf("Token carries an unusable user id: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "INVALID_TOKEN_UID", "error": "Invalid user ID in token."})
			return
		}
		if role := utils.GetRoleFromContext(c); !utils.ValidRole(role) {
			logger.WarnLogger.Warnf("Token carries unknown role %q", role)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "ACCESS_DENIED", "error": "Forbidden: unknown role."})
			return
		}
		c.Next()
	}
}

// RequireRole lets the request through only for the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := utils.GetRoleFromContext(c)
		if !slices.Contains(roles, role) {
			logger.WarnLogger.Warnf("Role %q denied on %s", role, c.FullPath())
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "ACCESS_DENIED", "error": utils.ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}
