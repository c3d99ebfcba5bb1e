package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"worship_management/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ImportHandler struct {
	imports        *services.ImportService
	maxUploadBytes int64
	log            *zap.Logger
}

func NewImportHandler(imports *services.ImportService, maxUploadBytes int64, log *zap.Logger) *ImportHandler {
	return &ImportHandler{imports: imports, maxUploadBytes: maxUploadBytes, log: log}
}

// ImportSongs reads an .xlsx upload from the multipart field "file".
// Row problems come back inside the 200 results; only file-level
// problems fail the request.
func (h *ImportHandler) ImportSongs(c *gin.Context) {
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
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".xlsx") {
		badRequest(c, "Unsupported file type: only .xlsx spreadsheets can be imported")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "Failed to open file")
		return
	}
	defer file.Close()

	// OOXML detection scans past the first zip entry, so sniff more than
	// the usual 261 bytes. Workbooks whose parts are ordered unusually
	// only sniff as zip; excelize rejects anything that is not a workbook.
	head := make([]byte, 8<<10)
	n, _ := io.ReadFull(file, head)
	if kind, _ := filetype.Match(head[:n]); kind.Extension != "xlsx" && kind.Extension != "zip" {
		badRequest(c, "Unsupported file type: only .xlsx spreadsheets can be imported")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		respondError(c, h.log, err)
		return
	}

	result, err := h.imports.ImportSongs(c.Request.Context(), file)
	if err != nil {
		var missing *services.MissingColumnsError
		if errors.As(err, &missing) {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":          "error",
				"message":         missing.Error(),
				"error":           missing.Error(),
				"missingColumns":  missing.Missing,
				"expectedColumns": missing.Expected,
			})
			return
		}
		respondError(c, h.log, err)
		return
	}

	success(c, http.StatusOK, "Import finished", gin.H{"results": result})
}

func (h *ImportHandler) DownloadTemplate(c *gin.Context) {
	data, err := services.ImportTemplate()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="songs-template.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
