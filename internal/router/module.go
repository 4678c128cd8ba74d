package router

import "github.com/gin-gonic/gin"

// Module is a feature unit that registers its own routes, middleware and
// per-route rate limits on the shared root group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
