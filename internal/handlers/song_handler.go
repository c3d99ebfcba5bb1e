package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"worship_management/internal/models"
	"worship_management/internal/query"
	"worship_management/internal/services"
)

type SongHandler struct {
	songs          *services.SongService
	maxUploadBytes int64
	log            *zap.Logger
}

func NewSongHandler(songs *services.SongService, maxUploadBytes int64, log *zap.Logger) *SongHandler {
	return &SongHandler{
		songs:          songs,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

// GetAllSongs serves one filtered, sorted page of the library.
func (h *SongHandler) GetAllSongs(c *gin.Context) {
	state := query.ParseListState(c.Request.URL.Query())

	list, err := h.songs.ListSongs(c.Request.Context(), state)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	links := gin.H{}
	if list.Pagination.HasNextPage {
		links["next"] = c.Request.URL.Path + "?" + state.WithPage(state.Page+1).Values().Encode()
	}
	if list.Pagination.HasPrevPage {
		links["prev"] = c.Request.URL.Path + "?" + state.WithPage(state.Page-1).Values().Encode()
	}

	success(c, http.StatusOK, "Songs fetched successfully", gin.H{
		"songs":      list.Songs,
		"pagination": list.Pagination,
		"filters":    list.Filters,
		"links":      links,
	})
}

func (h *SongHandler) GetSongByID(c *gin.Context) {
	song, err := h.songs.GetSong(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusOK, "Song fetched successfully", song)
}

func (h *SongHandler) CreateSong(c *gin.Context) {
	var req models.SongInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	song, err := h.songs.CreateSong(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusCreated, "Song created successfully", song)
}

func (h *SongHandler) UpdateSong(c *gin.Context) {
	var req models.SongInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	song, err := h.songs.UpdateSong(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusOK, "Song updated successfully", song)
}

func (h *SongHandler) DeleteSong(c *gin.Context) {
	if err := h.songs.DeleteSong(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusOK, "Song deleted successfully", nil)
}

// UploadFile attaches a PDF or audio file, read from the multipart field
// "file", to a song.
func (h *SongHandler) UploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		badRequest(c, "File is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "Failed to open file")
		return
	}
	defer file.Close()

	song, err := h.songs.AttachFile(c.Request.Context(), c.Param("id"), c.Param("kind"), file)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusOK, "File uploaded successfully", song)
}

func (h *SongHandler) DeleteFile(c *gin.Context) {
	song, err := h.songs.DetachFile(c.Request.Context(), c.Param("id"), c.Param("kind"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusOK, "File deleted successfully", song)
}
