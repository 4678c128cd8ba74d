package router

import (
	"github.com/nabilmamin/mern-auth-portal/internal/application"
	"github.com/nabilmamin/mern-auth-portal/internal/container"
	pginfra "github.com/nabilmamin/mern-auth-portal/internal/infrastructure/postgres"
	handlers "github.com/nabilmamin/mern-auth-portal/internal/interface/http"
	"github.com/nabilmamin/mern-auth-portal/internal/router/modules"
)

// InitModules builds the dependency graph from the container singletons and
// registers all feature modules. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())

	svc := application.NewService(
		repo,
		container.GetJWT(),
		container.GetDelivery(),
		container.GetLogger(),
		cfg.VerifyEmailURL,
		cfg.ResetPasswordURL,
	)

	authHandler := handlers.NewAuthHandler(svc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	userHandler := handlers.NewUserHandler(svc, container.GetLogger())

	r.Add(modules.NewAuthModule(authHandler, repo, container.GetJWT()))
	r.Add(modules.NewUserModule(userHandler, repo, container.GetJWT()))
	r.Add(modules.NewDebugModule())
}
