package authorization

import (
	"github.com/gin-gonic/gin"

	"github.com/trellis-inc/trellis/internal/shared/constants"
)

// RequireAdmin rejects requests whose authenticated role is not admin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := ParseRole(c.GetString(constants.ContextKeyRole))
		if !role.IsAdmin() {
			c.JSON(403, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CanActForPartner reports whether the caller may operate on resources
// held by the given partner. Admins may act for anyone; partners only for
// themselves.
func CanActForPartner(callerPartnerID uint, role Role, targetPartnerID uint) bool {
	if role.IsAdmin() {
		return true
	}
	return callerPartnerID == targetPartnerID
}
