package server

import (
	"bytes"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/desertthunder/foodgram/internal/repositories"
	"github.com/desertthunder/foodgram/internal/shared"
	tu "github.com/desertthunder/foodgram/internal/testing"
)

type apiFixture struct {
	t        *testing.T
	db       *sql.DB
	store    *repositories.Store
	media    *shared.MediaStore
	registry *prometheus.Registry
	api      http.Handler
}

func newFixture(t *testing.T) *apiFixture {
	t.Helper()

	db := tu.NewDB(t)
	store := repositories.NewStore(db)
	media := shared.NewMediaStore(t.TempDir(), "/media/")
	registry := prometheus.NewRegistry()

	api := NewAPI(Options{
		Store:    store,
		Media:    media,
		Logger:   log.New(io.Discard),
		Registry: registry,
		Server:   shared.ServerConfig{PageSize: 6},
		Auth:     shared.AuthConfig{BcryptCost: 4, LoginRate: 1, LoginBurst: 3},
	})

	return &apiFixture{t: t, db: db, store: store, media: media, registry: registry, api: api}
}

// user inserts a user and returns its id and an API token.
func (f *apiFixture) user(username string) (int64, string) {
	f.t.Helper()
	id := tu.InsertUser(f.t, f.db, username)
	token, err := f.store.Tokens.GetOrCreate(id)
	if err != nil {
		f.t.Fatalf("failed to create token: %v", err)
	}
	return id, token.Key
}

func (f *apiFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			f.t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	rec := httptest.NewRecorder()
	f.api.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectField(t *testing.T, rec *httptest.ResponseRecorder, field string) {
	t.Helper()
	expectStatus(t, rec, http.StatusBadRequest)
	body := decode[map[string]any](t, rec)
	if _, ok := body[field]; !ok {
		t.Errorf("expected error for field %q, got %s", field, rec.Body.String())
	}
}

func TestAPI(t *testing.T) {
	t.Run("Unknown Route Answers JSON 404", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodGet, "/api/nothing", "", nil)
		expectStatus(t, rec, http.StatusNotFound)

		body := decode[map[string]string](t, rec)
		if body["detail"] != "Not found." {
			t.Errorf("expected detail 'Not found.', got %q", body["detail"])
		}
	})

	t.Run("Unsupported Method Answers 405", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPut, "/api/tags", "", nil)
		expectStatus(t, rec, http.StatusMethodNotAllowed)
	})

	t.Run("Trailing Slash Reaches The Same Route", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodGet, "/api/tags/", "", nil)
		expectStatus(t, rec, http.StatusOK)

		tags := decode[[]tagView](t, rec)
		if len(tags) != 3 {
			t.Errorf("expected 3 seeded tags, got %d", len(tags))
		}
	})

	t.Run("Invalid Token Is Rejected", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodGet, "/api/tags", "not-a-token", nil)
		expectStatus(t, rec, http.StatusUnauthorized)

		body := decode[map[string]string](t, rec)
		if body["detail"] != "Invalid token." {
			t.Errorf("expected 'Invalid token.', got %q", body["detail"])
		}
	})

	t.Run("Malformed JSON Is A Bad Request", func(t *testing.T) {
		f := newFixture(t)
		req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		f.api.ServeHTTP(rec, req)
		expectStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("Health", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodGet, "/api/health", "", nil)
		expectStatus(t, rec, http.StatusOK)

		body := decode[map[string]string](t, rec)
		if body["status"] != "ok" || body["database"] != "ok" {
			t.Errorf("unexpected health body: %v", body)
		}
	})

	t.Run("Health Reports Closed Database", func(t *testing.T) {
		f := newFixture(t)
		f.db.Close()
		rec := f.do(http.MethodGet, "/api/health", "", nil)
		expectStatus(t, rec, http.StatusServiceUnavailable)
	})

	t.Run("Metrics Endpoint", func(t *testing.T) {
		f := newFixture(t)
		f.do(http.MethodGet, "/api/tags", "", nil)

		rec := f.do(http.MethodGet, "/metrics", "", nil)
		expectStatus(t, rec, http.StatusOK)
		if !strings.Contains(rec.Body.String(), "foodgram_http_requests_total") {
			t.Errorf("expected request counter in metrics output")
		}
	})

	t.Run("Rate Limit", func(t *testing.T) {
		db := tu.NewDB(t)
		api := NewAPI(Options{
			Store:  repositories.NewStore(db),
			Media:  shared.NewMediaStore(t.TempDir(), "/media/"),
			Logger: log.New(io.Discard),
			Server: shared.ServerConfig{PageSize: 6, RateLimitRequests: 2},
		})

		var last int
		for range 3 {
			rec := httptest.NewRecorder()
			api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tags", nil))
			last = rec.Code
		}
		if last != http.StatusTooManyRequests {
			t.Errorf("expected third request to be throttled, got %d", last)
		}
	})
}

// expectMetric checks that the /metrics exposition contains line.
func expectMetric(t *testing.T, f *apiFixture, line string) {
	t.Helper()
	rec := f.do(http.MethodGet, "/metrics", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), line) {
		t.Errorf("expected metrics to contain %q", line)
	}
}
