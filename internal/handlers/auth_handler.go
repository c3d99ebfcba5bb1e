package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"worship_management/internal/middleware"
	"worship_management/internal/models"
	"worship_management/internal/services"
)

type AuthHandler struct {
	users     *services.UserService
	jwtSecret string
	jwtTTL    time.Duration
	log       *zap.Logger
}

func NewAuthHandler(users *services.UserService, jwtSecret string, jwtTTL time.Duration, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:     users,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		log:       log,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.UserLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondError(c, h.log, err)
		return
	}

	token, err := h.generateJWT(user)
	if err != nil {
		h.log.Error("failed to sign token", zap.String("user_id", user.ID), zap.Error(err))
		fail(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	h.log.Info("user logged in", zap.String("user_id", user.ID))
	success(c, http.StatusOK, "Login successful", models.AuthResponse{
		Token: token,
		User:  *user,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	success(c, http.StatusOK, "User fetched successfully", user)
}

func (h *AuthHandler) generateJWT(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		middleware.UserIDKey: user.ID,
		middleware.RoleKey:   string(user.Role),
		"exp":                now.Add(h.jwtTTL).Unix(),
		"iat":                now.Unix(),
	})

	return token.SignedString([]byte(h.jwtSecret))
}
