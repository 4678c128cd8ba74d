package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie carrying the signed session credential.
// The same credential is also returned in the login response body so that
// non-browser clients can send it as a bearer header instead.
const SessionCookieName = "token"

type Manager struct {
	Domain string
	Secure bool
}

func NewCookie(domain string, secure bool) *Manager {
	return &Manager{Domain: domain, Secure: secure}
}

// Set writes the http-only session cookie with Max-Age matching the
// credential's expiry.
func (m *Manager) Set(c *gin.Context, token string, exp time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, maxAgeFrom(exp), "/", m.Domain, m.Secure, true)
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", m.Domain, m.Secure, true)
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
