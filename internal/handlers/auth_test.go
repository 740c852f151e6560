package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/craftkart/identity/internal/models"
)

func setupAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group(models.ActorUser.Prefix(), ActorContext(models.ActorUser))
	group.POST("/auth/:channel/send-code", SendCode)
	group.POST("/auth/:channel/verify-code", VerifyCode)
	group.POST("/auth/:channel/register", Register)
	group.POST("/login", PasswordLogin)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSendCode_BadChannel(t *testing.T) {
	r := setupAuthRouter()
	w := postJSON(r, "/user/auth/fax/send-code?action=login", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "channel")
}

func TestSendCode_BadAction(t *testing.T) {
	r := setupAuthRouter()

	w := postJSON(r, "/user/auth/email/send-code?action=renew", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/user/auth/email/send-code", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendCode_InvalidIdentifier(t *testing.T) {
	r := setupAuthRouter()

	tests := []struct {
		name string
		path string
		body string
	}{
		{"short phone", "/user/auth/phone/send-code?action=login", `{"phoneNumber":"123"}`},
		{"nine digit phone", "/user/auth/phone/send-code?action=signup", `{"phoneNumber":"987654321"}`},
		{"empty phone", "/user/auth/phone/send-code?action=verify", `{}`},
		{"malformed email", "/user/auth/email/send-code?action=login", `{"email":"not-an-email"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid identifier")
		})
	}
}

func TestSendCode_MalformedJSON(t *testing.T) {
	r := setupAuthRouter()
	w := postJSON(r, "/user/auth/email/send-code?action=login", "not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyCode_MissingCode(t *testing.T) {
	r := setupAuthRouter()
	w := postJSON(r, "/user/auth/phone/verify-code?action=login", `{"phoneNumber":"9876543210"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyCode_InvalidIdentifier(t *testing.T) {
	r := setupAuthRouter()
	w := postJSON(r, "/user/auth/phone/verify-code?action=login", `{"phoneNumber":"123","code":"123456"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid identifier")
}

func TestRegister_Validation(t *testing.T) {
	r := setupAuthRouter()

	// Missing name
	w := postJSON(r, "/user/auth/email/register", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bad gender value
	w = postJSON(r, "/user/auth/email/register", `{"name":"Asha","email":"a@b.com","gender":"unknown"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bad channel
	w = postJSON(r, "/user/auth/fax/register", `{"name":"Asha","email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPasswordLogin_Validation(t *testing.T) {
	r := setupAuthRouter()

	// Missing password
	w := postJSON(r, "/user/login", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Malformed email rejected by binding
	w = postJSON(r, "/user/login", `{"email":"nope","password":"secret"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", HealthCheck)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
