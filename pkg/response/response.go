package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

// Success writes the envelope with the given status and payload.
func Success[T any](ctx *gin.Context, status int, data T, message string) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
	})
}

// Error writes the envelope with a machine-readable error payload.
func Error(ctx *gin.Context, status int, message string, err interface{}) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	ctx.JSON(status, APIResponse[any]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	})
}

// AbortError writes the envelope and stops the handler chain. Used by
// middleware.
func AbortError(ctx *gin.Context, status int, message string, err interface{}) {
	ctx.AbortWithStatusJSON(status, APIResponse[any]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	})
}
