package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nabilmamin/mern-auth-portal/internal/domain/repository"
	"github.com/nabilmamin/mern-auth-portal/pkg/helpers"
	"github.com/nabilmamin/mern-auth-portal/pkg/response"
)

const (
	CtxUserIDKey  = "userID"
	CtxAccountKey = "account"
)

// Auth resolves the caller identity for protected routes: it extracts the
// session credential (cookie first, then Authorization: Bearer), validates
// it, and resolves the account so deleted accounts fail closed. The account
// is attached to the Gin context for downstream handlers.
func Auth(repo repository.UserRepository, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractCredential(c)
		if token == "" {
			response.AbortError(c, http.StatusUnauthorized, "not authorized to access this route", gin.H{"kind": "unauthenticated"})
			return
		}
		claims, err := jwt.Parse(token)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "not authorized to access this route", gin.H{"kind": "unauthenticated"})
			return
		}
		u, err := repo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "not authorized to access this route", gin.H{"kind": "unauthenticated"})
			return
		}
		c.Set(CtxUserIDKey, u.ID)
		c.Set(CtxAccountKey, u)
		c.Next()
	}
}

func extractCredential(c *gin.Context) string {
	if cookie, err := c.Cookie(helpers.SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
