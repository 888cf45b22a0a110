package middleware

import (
	"net/http"

	"github.com/franciscosanchezn/gin-chat-auth/internal/models"
	"github.com/gin-gonic/gin"
)

// RequireRole is a middleware that checks if the user has the required role.
// It must run after BearerAuth.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(ContextUserID)
		if !exists {
			c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "User not authenticated"))
			c.Abort()
			return
		}

		userRole := c.GetString(ContextUserRole)
		if userRole == "" {
			c.JSON(http.StatusForbidden, models.NewAPIError(models.ErrForbidden, "User role not found"))
			c.Abort()
			return
		}

		if userRole != requiredRole {
			c.JSON(http.StatusForbidden, models.NewAPIError(models.ErrForbidden, "Insufficient permissions", map[string]interface{}{
				"required_role": requiredRole,
				"user_role":     userRole,
				"user_id":       userID,
			}))
			c.Abort()
			return
		}

		c.Next()
	}
}
