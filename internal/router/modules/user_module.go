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

// UserModule wires the authenticated profile mutation endpoints.
// Protected: PUT /users/profile, PUT /users/password
type UserModule struct {
	Handler *handlers.UserHandler
	Repo    repository.UserRepository
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, repo repository.UserRepository, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, Repo: repo, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Repo, m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.PUT("/users/profile", m.Handler.UpdateProfile)
		auth.PUT("/users/password", m.Handler.UpdatePassword)
	}
}
