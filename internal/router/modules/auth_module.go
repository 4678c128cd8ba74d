package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nabilmamin/mern-auth-portal/internal/container"
	"github.com/nabilmamin/mern-auth-portal/internal/domain/repository"
	handlers "github.com/nabilmamin/mern-auth-portal/internal/interface/http"
	"github.com/nabilmamin/mern-auth-portal/internal/interface/middleware"
	"github.com/nabilmamin/mern-auth-portal/pkg/helpers"
)

// AuthModule wires the registration, verification, login and recovery
// endpoints.
// Public: POST /auth/register, GET /auth/verify-email/:token,
//         POST /auth/login, POST /auth/forgot-password,
//         PUT /auth/reset-password/:token, POST /auth/resend-verification
// Protected: GET /auth/me, GET /auth/logout
type AuthModule struct {
	Handler *handlers.AuthHandler
	Repo    repository.UserRepository
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, repo repository.UserRepository, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, Repo: repo, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	registerLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)
	forgotLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resendLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	tokenLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.GET("/auth/verify-email/:token", tokenLimiter, m.Handler.VerifyEmail)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/forgot-password", forgotLimiter, m.Handler.ForgotPassword)
	rg.PUT("/auth/reset-password/:token", tokenLimiter, m.Handler.ResetPassword)
	rg.POST("/auth/resend-verification", resendLimiter, m.Handler.ResendVerification)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Repo, m.JWT))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/auth/me", m.Handler.Me)
		auth.GET("/auth/logout", m.Handler.Logout)
	}
}
