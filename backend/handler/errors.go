package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promociones-residenciales/reservas/backend/model"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// statusFor maps the error taxonomy to an HTTP status.
func statusFor(err error) int {
	var verr *model.ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: http.StatusText(status)}

	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		resp.Error = "validation failed"
		resp.Details = verr.Problems
	case status == http.StatusNotFound:
		resp.Error = "not found"
		resp.Details = err.Error()
	case status == http.StatusInternalServerError:
		// internal causes stay in the logs
		resp.Error = "internal error"
	default:
		resp.Details = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}
