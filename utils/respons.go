package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DebugMode exposes internal error detail in 500 responses.
var DebugMode bool

type JSONResponse struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondValidation writes a 422 with per-field messages.
func RespondValidation(c *gin.Context, message string, fields map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, JSONResponse{
		Status:  false,
		Message: message,
		Errors:  fields,
	})
}

// RespondInternalError logs err with request context and hides it from the
// client unless DebugMode is on.
func RespondInternalError(c *gin.Context, message string, err error) {
	ErrorLogger.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"ip":     c.ClientIP(),
	}).WithError(err).Error(message)

	if !DebugMode {
		err = errors.New("internal server error")
	}
	c.JSON(http.StatusInternalServerError, JSONResponse{
		Status:  false,
		Message: message,
		Data:    gin.H{"error": err.Error()},
	})
}
