package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nabilmamin/mern-auth-portal/internal/application"
	"github.com/nabilmamin/mern-auth-portal/internal/interface/middleware"
	"github.com/nabilmamin/mern-auth-portal/pkg/response"
	"github.com/nabilmamin/mern-auth-portal/pkg/validation"
)

type UserHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"omitempty,email"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,pwd"`
}

// UpdateProfile PUT /users/profile (auth required)
// Changing the email drops the account back to unverified and triggers a
// fresh verification cycle; the session credential stays valid.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, application.UpdateProfileInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u.Public()}, "profile updated")
}

// UpdatePassword PUT /users/password (auth required)
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), uid, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true}, "password updated successfully")
}
