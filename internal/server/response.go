package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/studyapp/internal/excel"
	"github.com/example/studyapp/internal/localdate"
	"github.com/example/studyapp/internal/progress"
	"github.com/example/studyapp/internal/settings"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func respondNotFound(c *gin.Context, what string) {
	RespondError(c, http.StatusNotFound, "not_found", errors.New(what+" not found"))
}

// respondFailure maps service errors onto status codes: validation problems
// are the caller's fault, everything else is a store failure.
func respondFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, progress.ErrMissingID),
		errors.Is(err, localdate.ErrInvalidDay),
		errors.Is(err, settings.ErrInvalidSetting),
		errors.Is(err, excel.ErrInvalidImport):
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
