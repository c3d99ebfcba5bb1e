package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"worship_management/internal/apperr"
	"worship_management/internal/repository"
)

// AdminMiddleware must run after JWTMiddleware. The role is read from the
// database so a demoted admin loses access before their token expires.
func AdminMiddleware(userRepo repository.UserRepository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			unauthorized(c, "Authorization header required")
			return
		}

		user, err := userRepo.FindUserByID(c.Request.Context(), userID)
		if err != nil {
			if apperr.ErrNotFound.Has(err) {
				unauthorized(c, "User not found")
				return
			}
			log.Error("admin check failed", zap.String("user_id", userID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "Internal server error",
			})
			return
		}

		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": "Admin access required",
			})
			return
		}

		c.Set(RoleKey, string(user.Role))
		c.Next()
	}
}
