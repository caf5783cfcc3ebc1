package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_admin/internal/hash"
	"github.com/Skotchmaster/shop_admin/internal/middleware/auth"
	"github.com/Skotchmaster/shop_admin/internal/models"
	"github.com/Skotchmaster/shop_admin/internal/repo"
	"github.com/Skotchmaster/shop_admin/internal/service"
	"github.com/Skotchmaster/shop_admin/internal/storage"
	"github.com/Skotchmaster/shop_admin/internal/testutil"
	"github.com/Skotchmaster/shop_admin/internal/tokens"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type testEnv struct {
	t      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Tokens *tokens.Issuer
	Files  *storage.DiskStorage
	nextID int
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestEnv(t *testing.T, soft bool) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	files, err := storage.NewDiskStorage(t.TempDir())
	require.NoError(t, err)

	r := repo.New(db)
	issuer := tokens.NewIssuer([]byte("http-test-secret"))

	e := NewEcho()
	Register(e, &Deps{
		AuthHandler:    &AuthHTTP{Svc: &service.AuthService{Repo: r, Tokens: issuer}},
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Files: files, SoftDelete: soft}, Files: files},
		Gate:           auth.NewGate(issuer),
		UploadDir:      files.Dir,
		SoftDelete:     soft,
	})

	return &testEnv{t: t, E: e, DB: db, Tokens: issuer, Files: files}
}

// tokenFor stores a user with the given role and returns a bearer token for it.
func (env *testEnv) tokenFor(role models.Role) string {
	env.t.Helper()
	env.nextID++
	pw, err := hash.HashPassword("secret")
	require.NoError(env.t, err)
	u := models.User{Email: fmt.Sprintf("%s%d@example.com", role, env.nextID), Password: pw, Role: role}
	require.NoError(env.t, env.DB.Create(&u).Error)
	tok, err := env.Tokens.Issue(u.ID, u.Role)
	require.NoError(env.t, err)
	return tok
}

func (env *testEnv) do(method, path string, body io.Reader, contentType, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) doJSON(method, path string, payload any, token string) *httptest.ResponseRecorder {
	env.t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(env.t, err)
		body = bytes.NewReader(b)
	}
	return env.do(method, path, body, echo.MIMEApplicationJSON, token)
}

type upload struct {
	name    string
	content []byte
}

func (env *testEnv) doMultipart(method, path string, fields map[string]string, files []upload, token string) *httptest.ResponseRecorder {
	env.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(env.t, w.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(imagesField, f.name)
		require.NoError(env.t, err)
		_, err = fw.Write(f.content)
		require.NoError(env.t, err)
	}
	require.NoError(env.t, w.Close())
	return env.do(method, path, &buf, w.FormDataContentType(), token)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func requireFailed(t *testing.T, rec *httptest.ResponseRecorder, code int, msg string) {
	t.Helper()
	require.Equal(t, code, rec.Code, rec.Body.String())
	env := decode(t, rec, nil)
	require.Equal(t, "failed", env.Status)
	if msg != "" {
		require.Equal(t, msg, env.Message)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, true)

	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health/live", nil, "", "").Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health/ready", nil, "", "").Code)
}

func TestHealthReadyFailing(t *testing.T) {
	e := NewEcho()
	issuer := tokens.NewIssuer([]byte("x"))
	Register(e, &Deps{
		AuthHandler:    &AuthHTTP{},
		CatalogHandler: &CatalogHTTP{},
		Gate:           auth.NewGate(issuer),
		Ready:          func(context.Context) error { return fmt.Errorf("db down") },
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	requireFailed(t, rec, http.StatusServiceUnavailable, "Service unavailable")
}

func TestNotFoundRouteUsesEnvelope(t *testing.T) {
	env := newTestEnv(t, true)
	rec := env.do(http.MethodGet, "/api/nope", nil, "", "")
	requireFailed(t, rec, http.StatusNotFound, "")
	require.True(t, strings.Contains(rec.Header().Get(echo.HeaderContentType), "application/json"))
}
