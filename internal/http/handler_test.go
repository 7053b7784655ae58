package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"duty-tracker.com/duty-tracker/internal/limiter"
	repository "duty-tracker.com/duty-tracker/internal/repositories"
	"duty-tracker.com/duty-tracker/internal/services"
	model "duty-tracker.com/duty-tracker/pkg/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&model.Duty{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func newTestRouter(t *testing.T, repo repository.DutyRepository, opts RouterOptions) http.Handler {
	if repo == nil {
		repo = repository.NewGormDutyRepository(setupTestDB(t))
	}
	h := NewHandler(services.NewDutyService(repo), opts.Logger)
	return NewRouter(h, opts)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestDutyAPI_FullCRUDFlow(t *testing.T) {
	router := newTestRouter(t, nil, RouterOptions{})

	rec := do(t, router, http.MethodPost, "/api/duties", `{"name":"Test Duty"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created, err := model.ParseDuty(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Test Duty", created.Name)

	rec = do(t, router, http.MethodGet, "/api/duties", "")
	require.Equal(t, http.StatusOK, rec.Code)
	duties, err := model.ParseDuties(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, duties, 1)
	assert.Equal(t, created.ID, duties[0].ID)

	rec = do(t, router, http.MethodPut, fmt.Sprintf("/api/duties/%d", created.ID), `{"name":"Updated"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated, err := model.ParseDuty(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Name)
	assert.Equal(t, created.ID, updated.ID)

	rec = do(t, router, http.MethodDelete, fmt.Sprintf("/api/duties/%d", created.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/duties", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestDutyAPI_ValidationErrors(t *testing.T) {
	router := newTestRouter(t, nil, RouterOptions{})

	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		wantMessage string
	}{
		{name: "empty name", method: http.MethodPost, path: "/api/duties", body: `{"name":""}`},
		{name: "missing name", method: http.MethodPost, path: "/api/duties", body: `{}`},
		{name: "wrong type", method: http.MethodPost, path: "/api/duties", body: `{"name":42}`},
		{name: "malformed json", method: http.MethodPost, path: "/api/duties", body: `{"name":`},
		{
			name:        "too long",
			method:      http.MethodPost,
			path:        "/api/duties",
			body:        `{"name":"` + strings.Repeat("a", 256) + `"}`,
			wantMessage: "Name cannot be longer than 255 characters",
		},
		{name: "update empty name", method: http.MethodPut, path: "/api/duties/1", body: `{"name":""}`},
		{name: "non numeric id", method: http.MethodPut, path: "/api/duties/abc", body: `{"name":"x"}`, wantMessage: "invalid duty id"},
		{name: "non numeric delete id", method: http.MethodDelete, path: "/api/duties/abc", wantMessage: "invalid duty id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			resp := decodeError(t, rec)
			assert.Equal(t, statusFail, resp.Status)
			if tt.wantMessage != "" {
				assert.Contains(t, resp.Message, tt.wantMessage)
			}
		})
	}

	rec := do(t, router, http.MethodGet, "/api/duties", "")
	assert.JSONEq(t, `[]`, rec.Body.String(), "rejected payloads must never reach storage")
}

func TestDutyAPI_NotFound(t *testing.T) {
	router := newTestRouter(t, nil, RouterOptions{})

	rec := do(t, router, http.MethodPost, "/api/duties", `{"name":"Keep me"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	kept, err := model.ParseDuty(rec.Body.Bytes())
	require.NoError(t, err)
	require.NotEqual(t, int64(9999), kept.ID)

	rec = do(t, router, http.MethodPut, "/api/duties/9999", `{"name":"Non-existent Duty"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errorResponse{Status: statusFail, Message: "Duty not found"}, decodeError(t, rec))

	rec = do(t, router, http.MethodGet, "/api/duties", "")
	require.Equal(t, http.StatusOK, rec.Code)
	duties, err := model.ParseDuties(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, duties, 1, "a failed update must not create a row")
	assert.Equal(t, kept.ID, duties[0].ID)
	assert.Equal(t, "Keep me", duties[0].Name)

	rec = do(t, router, http.MethodDelete, "/api/duties/9999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Duty not found", decodeError(t, rec).Message)

	rec = do(t, router, http.MethodGet, "/api/nothing-here", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, statusFail, decodeError(t, rec).Status)
}

func TestDutyAPI_OversizedBody(t *testing.T) {
	router := newTestRouter(t, nil, RouterOptions{})
	body := `{"name":"` + strings.Repeat("a", 70*1024) + `"}`

	tests := []struct {
		name          string
		contentLength int64
	}{
		{name: "with content length", contentLength: int64(len(body))},
		{name: "chunked", contentLength: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/duties", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.ContentLength = tt.contentLength
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
			assert.Equal(t, statusFail, decodeError(t, rec).Status)
		})
	}

	rec := do(t, router, http.MethodGet, "/api/duties", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

type brokenRepository struct{}

var errConnRefused = errors.New("dial tcp 10.0.0.5:5432: connection refused")

func (brokenRepository) List(context.Context) ([]model.Duty, error) { return nil, errConnRefused }
func (brokenRepository) Create(context.Context, string) (*model.Duty, error) {
	return nil, errConnRefused
}
func (brokenRepository) Update(context.Context, int64, string) (*model.Duty, error) {
	return nil, errConnRefused
}
func (brokenRepository) Delete(context.Context, int64) error { return errConnRefused }
func (brokenRepository) Ping(context.Context) error         { return errConnRefused }

func TestDutyAPI_InternalErrorsAreLoggedNotEchoed(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	router := newTestRouter(t, brokenRepository{}, RouterOptions{Logger: zap.New(core)})

	rec := do(t, router, http.MethodGet, "/api/duties", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	resp := decodeError(t, rec)
	assert.Equal(t, statusError, resp.Status)
	assert.NotContains(t, resp.Message, "connection refused")

	entries := logs.FilterMessage("unexpected error").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "connection refused")

	rec = do(t, router, http.MethodPost, "/api/duties", `{"name":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDutyAPI_Health(t *testing.T) {
	router := newTestRouter(t, nil, RouterOptions{})

	rec := do(t, router, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestDutyAPI_CORS(t *testing.T) {
	router := newTestRouter(t, nil, RouterOptions{})

	preflights := []struct {
		name    string
		path    string
		headers map[string]string
	}{
		{name: "no headers", path: "/api/duties"},
		{name: "origin only", path: "/api/duties", headers: map[string]string{
			"Origin": "http://localhost:3000",
		}},
		{name: "unlisted method", path: "/api/duties/1", headers: map[string]string{
			"Origin":                        "http://localhost:3000",
			"Access-Control-Request-Method": http.MethodPatch,
		}},
		{name: "unlisted header", path: "/api/duties/1", headers: map[string]string{
			"Origin":                         "http://localhost:3000",
			"Access-Control-Request-Method":  http.MethodPut,
			"Access-Control-Request-Headers": "X-Custom",
		}},
		{name: "listed method and header", path: "/api/duties/1", headers: map[string]string{
			"Origin":                         "http://localhost:3000",
			"Access-Control-Request-Method":  http.MethodPut,
			"Access-Control-Request-Headers": "Content-Type",
		}},
	}

	for _, tt := range preflights {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
			assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/duties", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestDutyAPI_RateLimit(t *testing.T) {
	l, err := limiter.NewMemoryLimiter(2, time.Minute)
	require.NoError(t, err)
	router := newTestRouter(t, nil, RouterOptions{Limiter: l})

	for i := 0; i < 2; i++ {
		rec := do(t, router, http.MethodGet, "/api/duties", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, router, http.MethodGet, "/api/duties", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, errorResponse{Status: statusFail, Message: "rate limit exceeded"}, decodeError(t, rec))
}

func TestDutyAPI_RequestID(t *testing.T) {
	router := newTestRouter(t, nil, RouterOptions{})

	rec := do(t, router, http.MethodGet, "/api/duties", "")
	assert.Len(t, rec.Header().Get("X-Request-Id"), 36)
}

func TestDutyAPI_ConcurrentCreates(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t, nil, RouterOptions{}))
	defer srv.Close()

	const concurrentCount = 10
	var g errgroup.Group

	for i := 0; i < concurrentCount; i++ {
		g.Go(func() error {
			resp, err := srv.Client().Post(srv.URL+"/api/duties", "application/json", strings.NewReader(`{"name":"Concurrent Duty"}`))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("unexpected status %d", resp.StatusCode)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	resp, err := srv.Client().Get(srv.URL + "/api/duties")
	require.NoError(t, err)
	defer resp.Body.Close()

	var duties []model.Duty
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&duties))
	assert.Len(t, duties, concurrentCount)
}
