package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabilmamin/mern-auth-portal/internal/application"
	"github.com/nabilmamin/mern-auth-portal/internal/infrastructure/memory"
	"github.com/nabilmamin/mern-auth-portal/internal/interface/middleware"
	"github.com/nabilmamin/mern-auth-portal/pkg/helpers"
	"github.com/nabilmamin/mern-auth-portal/pkg/validation"
)

type mailRecorder struct {
	sent []string // html bodies
}

func (d *mailRecorder) Send(_ context.Context, _, _, html string) error {
	d.sent = append(d.sent, html)
	return nil
}

var tokenRe = regexp.MustCompile(`/(?:verify-email|reset-password)/([0-9a-f]{40})`)

func (d *mailRecorder) lastToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, d.sent)
	m := tokenRe.FindStringSubmatch(d.sent[len(d.sent)-1])
	require.Len(t, m, 2)
	return m[1]
}

type envelope struct {
	Status  int            `json:"status"`
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
	Error   any            `json:"error"`
}

// newTestRouter wires the handlers against the in-memory store with the
// same route layout as the modules, minus the redis rate limiter.
func newTestRouter(t *testing.T) (*gin.Engine, *memory.UserRepository, *mailRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	repo := memory.NewUserRepository()
	delivery := &mailRecorder{}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	jwt := helpers.NewJWTManager("test-secret", time.Hour)

	svc := application.NewService(repo, jwt, delivery, logger,
		"http://app.local/verify-email", "http://app.local/reset-password")

	authHandler := NewAuthHandler(svc, logger, "localhost", false)
	userHandler := NewUserHandler(svc, logger)

	r := gin.New()
	r.POST("/auth/register", authHandler.Register)
	r.GET("/auth/verify-email/:token", authHandler.VerifyEmail)
	r.POST("/auth/login", authHandler.Login)
	r.POST("/auth/forgot-password", authHandler.ForgotPassword)
	r.PUT("/auth/reset-password/:token", authHandler.ResetPassword)
	r.POST("/auth/resend-verification", authHandler.ResendVerification)

	auth := r.Group("/", middleware.Auth(repo, jwt))
	auth.GET("/auth/me", authHandler.Me)
	auth.GET("/auth/logout", authHandler.Logout)
	auth.PUT("/users/profile", userHandler.UpdateProfile)
	auth.PUT("/users/password", userHandler.UpdatePassword)

	return r, repo, delivery
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, mutate ...func(*http.Request)) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, m := range mutate {
		m(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func registerAndVerify(t *testing.T, r *gin.Engine, d *mailRecorder, email string) {
	t.Helper()
	w, _ := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"name": "Jane Doe", "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = doJSON(t, r, http.MethodGet, "/auth/verify-email/"+d.lastToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func login(t *testing.T, r *gin.Engine, email, password string) (string, []*http.Cookie) {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := env.Data["token"].(string)
	require.NotEmpty(t, token)
	return token, w.Result().Cookies()
}

func TestRegisterEndpoint(t *testing.T) {
	r, _, d := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"name": "Jane Doe", "email": "jane@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)

	user, ok := env.Data["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", user["email"])
	assert.Equal(t, false, user["is_verified"])
	assert.Len(t, d.sent, 1)
}

func TestRegisterEndpointValidation(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"name": "Jane", "email": "jane@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)

	details, ok := env.Error.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "password")
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	r, _, d := newTestRouter(t)
	registerAndVerify(t, r, d, "jane@example.com")

	w, env := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"name": "Other", "email": "jane@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestVerifyEmailEndpoint(t *testing.T) {
	r, _, d := newTestRouter(t)
	w, _ := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"name": "Jane", "email": "jane@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	token := d.lastToken(t)

	w, env := doJSON(t, r, http.MethodGet, "/auth/verify-email/"+token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := env.Data["user"].(map[string]any)
	assert.Equal(t, true, user["is_verified"])

	// Reuse is rejected.
	w, _ = doJSON(t, r, http.MethodGet, "/auth/verify-email/"+token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginEndpoint(t *testing.T) {
	r, _, d := newTestRouter(t)
	registerAndVerify(t, r, d, "jane@example.com")

	token, cookies := login(t, r, "jane@example.com", "password123")

	var sessionCookie *http.Cookie
	for _, ck := range cookies {
		if ck.Name == helpers.SessionCookieName {
			sessionCookie = ck
		}
	}
	require.NotNil(t, sessionCookie, "login sets the session cookie")
	assert.Equal(t, token, sessionCookie.Value)
	assert.True(t, sessionCookie.HttpOnly)
}

func TestLoginEndpointUnverified(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w, _ := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"name": "Jane", "email": "jane@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email": "jane@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	r, _, d := newTestRouter(t)
	registerAndVerify(t, r, d, "jane@example.com")

	w, _ := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email": "jane@example.com", "password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email": "nobody@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "unknown email is indistinguishable from a bad password")
}

func TestMeEndpoint(t *testing.T) {
	r, _, d := newTestRouter(t)
	registerAndVerify(t, r, d, "jane@example.com")
	token, cookies := login(t, r, "jane@example.com", "password123")

	// Bearer header.
	w, env := doJSON(t, r, http.MethodGet, "/auth/me", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(t, http.StatusOK, w.Code)
	user := env.Data["user"].(map[string]any)
	assert.Equal(t, "jane@example.com", user["email"])

	// Cookie.
	w, _ = doJSON(t, r, http.MethodGet, "/auth/me", nil, func(req *http.Request) {
		for _, ck := range cookies {
			req.AddCookie(ck)
		}
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMeEndpointUnauthenticated(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)

	w, _ = doJSON(t, r, http.MethodGet, "/auth/me", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer not-a-valid-token")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	r, _, d := newTestRouter(t)
	registerAndVerify(t, r, d, "jane@example.com")
	token, _ := login(t, r, "jane@example.com", "password123")

	w, _ := doJSON(t, r, http.MethodGet, "/auth/logout", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(t, http.StatusOK, w.Code)

	var cleared *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == helpers.SessionCookieName {
			cleared = ck
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge, "logout expires the cookie")
}

func TestForgotAndResetPasswordEndpoints(t *testing.T) {
	r, _, d := newTestRouter(t)
	registerAndVerify(t, r, d, "jane@example.com")

	w, env := doJSON(t, r, http.MethodPost, "/auth/forgot-password", gin.H{"email": "jane@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	token := d.lastToken(t)

	w, _ = doJSON(t, r, http.MethodPut, "/auth/reset-password/"+token, gin.H{"password": "newpassword456"})
	require.Equal(t, http.StatusOK, w.Code)

	login(t, r, "jane@example.com", "newpassword456")
}

func TestForgotPasswordUnknownEmailEndpoint(t *testing.T) {
	r, _, d := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodPost, "/auth/forgot-password", gin.H{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusOK, w.Code, "response shape does not reveal whether the address exists")
	assert.True(t, env.Success)
	assert.Empty(t, d.sent)
}

func TestResetPasswordEndpointBadToken(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodPut,
		"/auth/reset-password/deadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
		gin.H{"password": "newpassword456"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestResendVerificationEndpoint(t *testing.T) {
	r, _, d := newTestRouter(t)
	w, _ := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"name": "Jane", "email": "jane@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := doJSON(t, r, http.MethodPost, "/auth/resend-verification", gin.H{"email": "jane@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	require.Len(t, d.sent, 2)

	w, _ = doJSON(t, r, http.MethodGet, "/auth/verify-email/"+d.lastToken(t), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateProfileEndpoint(t *testing.T) {
	r, _, d := newTestRouter(t)
	registerAndVerify(t, r, d, "jane@example.com")
	token, _ := login(t, r, "jane@example.com", "password123")
	bearer := func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }

	w, env := doJSON(t, r, http.MethodPut, "/users/profile", gin.H{"name": "Jane Renamed"}, bearer)
	require.Equal(t, http.StatusOK, w.Code)
	user := env.Data["user"].(map[string]any)
	assert.Equal(t, "Jane Renamed", user["name"])
	assert.Equal(t, true, user["is_verified"])
}

func TestUpdateProfileEmailChangeKeepsSession(t *testing.T) {
	r, _, d := newTestRouter(t)
	registerAndVerify(t, r, d, "jane@example.com")
	token, _ := login(t, r, "jane@example.com", "password123")
	bearer := func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }

	w, env := doJSON(t, r, http.MethodPut, "/users/profile", gin.H{"email": "new@example.com"}, bearer)
	require.Equal(t, http.StatusOK, w.Code)
	user := env.Data["user"].(map[string]any)
	assert.Equal(t, "new@example.com", user["email"])
	assert.Equal(t, false, user["is_verified"])

	// The session credential survives the email change.
	w, _ = doJSON(t, r, http.MethodGet, "/auth/me", nil, bearer)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdatePasswordEndpoint(t *testing.T) {
	r, _, d := newTestRouter(t)
	registerAndVerify(t, r, d, "jane@example.com")
	token, _ := login(t, r, "jane@example.com", "password123")
	bearer := func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }

	w, _ := doJSON(t, r, http.MethodPut, "/users/password",
		gin.H{"currentPassword": "wrongpassword", "newPassword": "newpassword456"}, bearer)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(t, r, http.MethodPut, "/users/password",
		gin.H{"currentPassword": "password123", "newPassword": "newpassword456"}, bearer)
	require.Equal(t, http.StatusOK, w.Code)

	login(t, r, "jane@example.com", "newpassword456")
}
