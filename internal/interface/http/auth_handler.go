package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nabilmamin/mern-auth-portal/internal/application"
	"github.com/nabilmamin/mern-auth-portal/internal/interface/middleware"
	"github.com/nabilmamin/mern-auth-portal/pkg/helpers"
	"github.com/nabilmamin/mern-auth-portal/pkg/response"
	"github.com/nabilmamin/mern-auth-portal/pkg/validation"
)

type AuthHandler struct {
	Svc     *application.Service
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Password string `json:"password" binding:"required,pwd"`
}

// Register POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user": u.Public()}, "user registered, verification email sent")
}

// VerifyEmail GET /auth/verify-email/:token
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	u, err := h.Svc.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u.Public()}, "email verified successfully, you can now log in")
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, token, exp, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	// The credential goes out both ways: cookie for browsers, body token
	// for bearer-header clients.
	h.Cookies.Set(c, token, exp)
	response.Success(c, http.StatusOK, gin.H{"token": token, "user": u.Public()}, "login successful")
}

// Me GET /auth/me (auth required)
func (h *AuthHandler) Me(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u.Public()}, "current user")
}

// Logout GET /auth/logout (auth required)
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true}, "user logged out")
}

// ForgotPassword POST /auth/forgot-password
// Always answers success-shaped so the endpoint cannot enumerate accounts.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sent": true}, "if the address is registered, a reset email has been sent")
}

// ResetPassword PUT /auth/reset-password/:token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reset": true}, "password reset successful, you can now log in with your new password")
}

// ResendVerification POST /auth/resend-verification
// Success-shaped like ForgotPassword; only unverified accounts get a fresh
// token.
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResendVerification(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sent": true}, "if the address is registered and unverified, a verification email has been sent")
}
