package serverapp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"talawa-graphql/internal/config"
	"talawa-graphql/internal/dbexec"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockDB(t *testing.T) (*dbexec.StandardExecutor, sqlmock.Sqlmock, func(context.Context) error) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return dbexec.NewStandardExecutor(db), mock, db.PingContext
}

func chainConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			GraphQLMaxDepth:  3,
			RateLimitEnabled: true,
			RateLimitRPS:     1,
			RateLimitBurst:   2,
		},
		Auth: config.AuthConfig{Mode: "none"},
	}
}

func postGraphQL(h http.Handler, query string) *httptest.ResponseRecorder {
	body := `{"query":` + quoteJSON(query) + `}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func quoteJSON(s string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
}

func TestBuildGraphQLHandler_AnonymousCurrentUser(t *testing.T) {
	executor, mock, _ := newMockDB(t)
	h, err := buildGraphQLHandler(context.Background(), chainConfig(), testLogger(), executor, nil, nil)
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}

	rec := postGraphQL(h, `{ currentUser { id } }`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "unauthenticated") {
		t.Fatalf("expected unauthenticated error, got %s", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database use: %v", err)
	}
}

func TestBuildGraphQLHandler_RejectsDeepQueries(t *testing.T) {
	executor, mock, _ := newMockDB(t)
	cfg := chainConfig()
	cfg.Server.GraphQLMaxDepth = 1
	h, err := buildGraphQLHandler(context.Background(), cfg, testLogger(), executor, nil, nil)
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}

	rec := postGraphQL(h, `{ post(input: {id: "p1"}) { id } }`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "exceeds the maximum allowed depth") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database use: %v", err)
	}
}

func TestBuildGraphQLHandler_RateLimitsPerClient(t *testing.T) {
	executor, _, _ := newMockDB(t)
	h, err := buildGraphQLHandler(context.Background(), chainConfig(), testLogger(), executor, nil, nil)
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = postGraphQL(h, `{ __typename }`)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", last.Code)
	}
}

func TestBuildGraphQLHandler_RejectsUnknownAuthMode(t *testing.T) {
	executor, _, _ := newMockDB(t)
	cfg := chainConfig()
	cfg.Auth.Mode = "basic"
	if _, err := buildGraphQLHandler(context.Background(), cfg, testLogger(), executor, nil, nil); err == nil {
		t.Fatalf("expected unsupported auth mode error")
	}
}

func TestBuildRouter(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	graphqlHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	mux := buildRouter(&config.Config{}, testLogger(), db, graphqlHandler, nil)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "graphql", path: "/graphql", status: http.StatusTeapot},
		{name: "root redirects", path: "/", status: http.StatusFound},
		{name: "unknown", path: "/nope", status: http.StatusNotFound},
		{name: "metrics disabled", path: "/metrics", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.status {
				t.Fatalf("GET %s = %d, want %d", tt.path, rec.Code, tt.status)
			}
		})
	}

	mock.ExpectPing()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthy, got %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ping not observed: %v", err)
	}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		ping   func(context.Context) error
		status int
		body   string
	}{
		{
			name:   "healthy",
			ping:   func(context.Context) error { return nil },
			status: http.StatusOK,
			body:   `"status":"healthy"`,
		},
		{
			name:   "database down",
			ping:   func(context.Context) error { return errors.New("connection refused") },
			status: http.StatusServiceUnavailable,
			body:   `"database":"failed"`,
		},
		{
			name: "ping honours timeout",
			ping: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
			status: http.StatusServiceUnavailable,
			body:   `"status":"unhealthy"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			healthHandler(tt.ping, 20*time.Millisecond)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if !strings.Contains(rec.Body.String(), tt.body) {
				t.Fatalf("body %q does not contain %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestWaitForDatabase(t *testing.T) {
	t.Run("single attempt without timeout", func(t *testing.T) {
		calls := 0
		err := waitForDatabase(context.Background(), 0, time.Millisecond, testLogger(), func(context.Context) error {
			calls++
			return errors.New("down")
		})
		if err == nil || calls != 1 {
			t.Fatalf("expected one failed attempt, got calls=%d err=%v", calls, err)
		}
	})

	t.Run("retries until ready", func(t *testing.T) {
		calls := 0
		err := waitForDatabase(context.Background(), time.Second, time.Millisecond, testLogger(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("down")
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Fatalf("expected success on third attempt, got calls=%d err=%v", calls, err)
		}
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := waitForDatabase(ctx, time.Minute, time.Second, testLogger(), func(context.Context) error {
			return errors.New("down")
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}
