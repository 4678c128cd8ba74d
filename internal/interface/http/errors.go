package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nabilmamin/mern-auth-portal/internal/application"
	"github.com/nabilmamin/mern-auth-portal/internal/domain/repository"
	"github.com/nabilmamin/mern-auth-portal/pkg/response"
)

// writeError maps service errors onto the stable {status, kind} taxonomy.
// Anything unmapped is logged and surfaced as an opaque 500.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, repository.ErrValidation):
		response.Error(c, http.StatusBadRequest, err.Error(), gin.H{"kind": "validation_error"})
	case errors.Is(err, repository.ErrDuplicateEmail):
		response.Error(c, http.StatusBadRequest, "email already exists", gin.H{"kind": "duplicate_email"})
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "invalid credentials", gin.H{"kind": "invalid_credential"})
	case errors.Is(err, application.ErrNotVerified):
		response.Error(c, http.StatusUnauthorized, "please verify your email to log in", gin.H{"kind": "not_verified"})
	case errors.Is(err, application.ErrInvalidOrExpiredToken):
		response.Error(c, http.StatusBadRequest, "invalid or expired token", gin.H{"kind": "invalid_or_expired_token"})
	case errors.Is(err, application.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		response.Error(c, http.StatusNotFound, "account not found", gin.H{"kind": "not_found"})
	case errors.Is(err, application.ErrDeliveryFailed):
		response.Error(c, http.StatusInternalServerError, "email could not be sent", gin.H{"kind": "delivery_failed"})
	default:
		if logger != nil {
			logger.WithError(err).Error("unhandled service error")
		}
		response.Error(c, http.StatusInternalServerError, "server error", gin.H{"kind": "internal"})
	}
}
