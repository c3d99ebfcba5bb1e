package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"worship_management/internal/apperr"
)

func success(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{
		"status":  "success",
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"status":  "error",
		"message": message,
	})
}

// respondError writes err with the status of its class. Unclassified
// errors are logged and reported as a generic 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
	}
	fail(c, status, apperr.Message(err))
}

func badRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, message)
}
