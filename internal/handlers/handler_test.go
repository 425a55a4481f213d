package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"jobtracker/internal/auth"
	"jobtracker/internal/config"
	"jobtracker/internal/models"
	"jobtracker/internal/services"
	"jobtracker/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubProvider hands out a fixed profile per authorization code.
type stubProvider struct {
	profiles map[string]auth.Profile
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://idp.example.com/authorize?state=" + url.QueryEscape(state)
}

func (p *stubProvider) Exchange(_ context.Context, code string) (*auth.Profile, error) {
	profile, ok := p.profiles[code]
	if !ok {
		return nil, errors.New("oauth2: invalid_grant")
	}
	return &profile, nil
}

type testEnv struct {
	h        *Handler
	db       *gorm.DB
	store    *storage.LocalStore
	provider *stubProvider
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		AppEnv:           config.EnvDevelopment,
		SecretKey:        "test-secret-12345678901234567890123456789012",
		CORSOrigin:       "http://localhost:8080",
		FrontendURL:      "/",
		UploadFolder:     filepath.Join(t.TempDir(), "uploads"),
		MaxContentLength: 1 << 20,
	}
}

func setupTestHandler(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig(t)
	for _, m := range mutate {
		m(&cfg)
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.JobApplication{}))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := storage.NewLocalStore(cfg.UploadFolder)
	require.NoError(t, err)

	provider := &stubProvider{profiles: map[string]auth.Profile{}}
	h := NewHandler(
		cfg,
		log,
		services.NewApplicationService(db, store, log),
		services.NewDocumentService(db, store, log),
		services.NewUserService(db, log),
		provider,
	)
	return &testEnv{h: h, db: db, store: store, provider: provider}
}

func setupTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return h.SetupRouter(nil, nil)
}

// testClient replays cookies between requests the way a browser would.
type testClient struct {
	r       *gin.Engine
	cookies map[string]*http.Cookie
}

func newTestClient(r *gin.Engine) *testClient {
	return &testClient{r: r, cookies: map[string]*http.Cookie{}}
}

func (tc *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range tc.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	tc.r.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(tc.cookies, c.Name)
			continue
		}
		tc.cookies[c.Name] = c
	}
	return w
}

func (tc *testClient) get(path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	return tc.do(req)
}

func (tc *testClient) sendJSON(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

func (tc *testClient) upload(path, field, filename string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, _ := mw.CreateFormFile(field, filename)
		_, _ = part.Write(content)
	}
	_ = mw.Close()

	req, _ := http.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return tc.do(req)
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func createApplication(t *testing.T, tc *testClient, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	w := tc.sendJSON("POST", "/api/applications", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeMap(t, w)
}

func idPath(app map[string]interface{}, suffix string) string {
	return fmt.Sprintf("/api/applications/%v%s", app["id"], suffix)
}
