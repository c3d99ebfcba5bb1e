package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"worship_management/internal/apperr"
	"worship_management/internal/middleware"
	"worship_management/internal/models"
	"worship_management/internal/services"
)

// AdaptationHandler manages per-singer keys. Admins may edit anyone's;
// singers only their own.
type AdaptationHandler struct {
	songs *services.SongService
	users *services.UserService
	log   *zap.Logger
}

func NewAdaptationHandler(songs *services.SongService, users *services.UserService, log *zap.Logger) *AdaptationHandler {
	return &AdaptationHandler{songs: songs, users: users, log: log}
}

func (h *AdaptationHandler) authorize(c *gin.Context, singerID string) bool {
	userID := middleware.UserID(c)
	if userID != "" && userID == singerID {
		return true
	}
	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		if apperr.ErrNotFound.Has(err) {
			fail(c, http.StatusUnauthorized, "User not found")
			return false
		}
		respondError(c, h.log, err)
		return false
	}
	if !user.IsAdmin() {
		fail(c, http.StatusForbidden, "You can only manage your own adaptations")
		return false
	}
	return true
}

func (h *AdaptationHandler) ListAdaptations(c *gin.Context) {
	adaptations, err := h.songs.ListAdaptations(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusOK, "Adaptations fetched successfully", adaptations)
}

func (h *AdaptationHandler) CreateAdaptation(c *gin.Context) {
	var req models.AdaptationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if !h.authorize(c, req.SingerID) {
		return
	}

	adaptation, err := h.songs.CreateAdaptation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusCreated, "Adaptation created successfully", adaptation)
}

func (h *AdaptationHandler) UpdateAdaptation(c *gin.Context) {
	var req struct {
		Key string `json:"key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	singerID := c.Param("singerId")
	if !h.authorize(c, singerID) {
		return
	}

	adaptation, err := h.songs.UpdateAdaptation(c.Request.Context(), c.Param("id"), singerID, req.Key)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusOK, "Adaptation updated successfully", adaptation)
}

func (h *AdaptationHandler) DeleteAdaptation(c *gin.Context) {
	singerID := c.Param("singerId")
	if !h.authorize(c, singerID) {
		return
	}

	if err := h.songs.DeleteAdaptation(c.Request.Context(), c.Param("id"), singerID); err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusOK, "Adaptation deleted successfully", nil)
}
