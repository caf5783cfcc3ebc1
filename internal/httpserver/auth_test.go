package httpserver

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_admin/internal/models"
	"github.com/Skotchmaster/shop_admin/internal/transport"
)

func countUsers(t *testing.T, env *testEnv) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.DB.Model(&models.User{}).Count(&n).Error)
	return n
}

func TestRegister_MissingPassword(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.doJSON(http.MethodPost, "/api/register", map[string]any{"email": "a@b.com"}, "")
	requireFailed(t, rec, http.StatusUnprocessableEntity, "Password is required")
	assert.Zero(t, countUsers(t, env))
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t, true)

	tests := []struct {
		name string
		body map[string]any
		msg  string
	}{
		{"bad email", map[string]any{"email": "nope", "password": "pw"}, "Email must be a valid email"},
		{"missing email", map[string]any{"password": "pw"}, "Email is required"},
		{"admin role", map[string]any{"email": "x@y.com", "password": "pw", "role": "admin"}, "Role must be one of: customer, seller"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.doJSON(http.MethodPost, "/api/register", tc.body, "")
			requireFailed(t, rec, http.StatusUnprocessableEntity, tc.msg)
		})
	}
	assert.Zero(t, countUsers(t, env))
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.doJSON(http.MethodPost, "/api/register", map[string]any{
		"email":    "Ann@Example.com",
		"password": "secret",
		"name":     "Ann",
		"role":     "seller",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user models.User
	res := decode(t, rec, &user)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "User registered successfully", res.Message)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, models.RoleSeller, user.Role)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.doJSON(http.MethodPost, "/api/register", map[string]any{"email": "ann@example.com", "password": "x"}, "")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.doJSON(http.MethodPost, "/api/login", map[string]any{"email": "ann@example.com", "password": "wrong"}, "")
	requireFailed(t, rec, http.StatusUnauthorized, "Invalid credentials")

	rec = env.doJSON(http.MethodPost, "/api/login", map[string]any{"email": "ghost@example.com", "password": "secret"}, "")
	requireFailed(t, rec, http.StatusUnauthorized, "Invalid credentials")

	rec = env.doJSON(http.MethodPost, "/api/login", map[string]any{"email": "ann@example.com", "password": "secret"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login transport.LoginResponse
	decode(t, rec, &login)
	require.NotEmpty(t, login.Token)

	claims, err := env.Tokens.Verify(login.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.ID)
	assert.Equal(t, models.RoleSeller, claims.Role)

	rec = env.do(http.MethodGet, "/api/me", nil, "", login.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	decode(t, rec, &me)
	assert.Equal(t, user.ID, me.ID)

	requireFailed(t, env.do(http.MethodGet, "/api/me", nil, "", ""), http.StatusUnauthorized, "Unauthorized")
}

func TestLogin_MalformedBody(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(http.MethodPost, "/api/login", strings.NewReader("{"), "application/json", "")
	requireFailed(t, rec, http.StatusUnprocessableEntity, "Invalid body")
}
