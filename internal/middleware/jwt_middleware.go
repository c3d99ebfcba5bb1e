package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Context keys set by JWTMiddleware.
const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// UserID is the authenticated user's id, or "" on unauthenticated routes.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status":  "error",
		"message": message,
	})
}

// JWTMiddleware requires a valid HS256 bearer token signed with secret
// and stores its user id and role in the context.
func JWTMiddleware(secret string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "Invalid authorization format")
			return
		}

		tokenString := parts[1]
		if tokenString == "" {
			unauthorized(c, "Token is empty")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			if secret == "" {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				unauthorized(c, "Token has expired")
			case errors.Is(err, jwt.ErrTokenNotValidYet):
				unauthorized(c, "Token not valid yet")
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				unauthorized(c, "Invalid token signature")
			case errors.Is(err, jwt.ErrTokenMalformed):
				unauthorized(c, "Token is malformed")
			default:
				log.Debug("token validation failed", zap.Error(err))
				unauthorized(c, "Token validation failed")
			}
			return
		}

		if !token.Valid {
			unauthorized(c, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(c, "Invalid token claims")
			return
		}
		userID, ok := claims[UserIDKey].(string)
		if !ok || userID == "" {
			unauthorized(c, "Invalid token claims: user_id not found")
			return
		}
		role, _ := claims[RoleKey].(string)

		c.Set(UserIDKey, userID)
		c.Set(RoleKey, role)
		c.Next()
	}
}
