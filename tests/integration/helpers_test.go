//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"talawa-graphql/internal/config"
	"talawa-graphql/internal/logging"
	"talawa-graphql/internal/serverapp"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "integration-secret"

// testDSN returns the MySQL DSN of a disposable database, e.g.
// root:secret@tcp(127.0.0.1:3306)/talawa_test
func testDSN(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	dsn := os.Getenv("TALAWA_TEST_DSN")
	if dsn == "" {
		t.Skip("TALAWA_TEST_DSN not set")
	}
	return dsn
}

type testEnv struct {
	db     *sql.DB
	server *httptest.Server
}

func startTestApp(t *testing.T) *testEnv {
	t.Helper()
	dsn := testDSN(t)

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			ConnectionString:  dsn,
			TLS:               config.DatabaseTLSConfig{Mode: "off"},
			Pool:              config.PoolConfig{MaxOpen: 5, MaxIdle: 5, MaxLifetime: time.Minute},
			ConnectionTimeout: 5 * time.Second,
			AutoMigrate:       true,
		},
		Server: config.ServerConfig{
			GraphQLMaxDepth:    10,
			HealthCheckTimeout: time.Second,
			ShutdownTimeout:    5 * time.Second,
		},
		Auth: config.AuthConfig{
			Mode:        "jwt",
			UserIDClaim: "sub",
			JWTSecret:   testSecret,
		},
		Observability: config.ObservabilityConfig{
			ServiceName: "talawa-graphql",
			Logging:     config.LoggingConfig{Level: "error", Format: "text"},
		},
	}
	logger := logging.NewLogger(logging.Config{Level: "error", Format: "text"})

	app, err := serverapp.New(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, app.Init(context.Background()))
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	server := httptest.NewServer(app.Handler())
	t.Cleanup(server.Close)

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &testEnv{db: db, server: server}
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string                 `json:"message"`
		Extensions map[string]interface{} `json:"extensions"`
	} `json:"errors"`
}

func (r gqlResponse) firstCode() string {
	if len(r.Errors) == 0 {
		return ""
	}
	code, _ := r.Errors[0].Extensions["code"].(string)
	return code
}

func (e *testEnv) do(t *testing.T, authorization, query string, variables map[string]interface{}) (int, gqlResponse) {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": variables})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/graphql", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out gqlResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

type fixture struct {
	orgID    string
	postID   string
	memberID string
	adminID  string
	outsider string
}

// seed inserts an organization with one post, a regular member, a global
// administrator and a regular user outside the organization.
func (e *testEnv) seed(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		orgID:    uuid.NewString(),
		postID:   uuid.NewString(),
		memberID: uuid.NewString(),
		adminID:  uuid.NewString(),
		outsider: uuid.NewString(),
	}
	ctx := context.Background()

	insertUser := func(id, role string) {
		_, err := e.db.ExecContext(ctx,
			"INSERT INTO users (id, email_address, is_email_address_verified, name, password_hash, role) VALUES (?, ?, false, ?, 'x', ?)",
			id, id+"@example.com", "user "+id[:8], role)
		require.NoError(t, err)
	}
	insertUser(f.memberID, "regular")
	insertUser(f.adminID, "administrator")
	insertUser(f.outsider, "regular")

	_, err := e.db.ExecContext(ctx, "INSERT INTO organizations (id, name) VALUES (?, ?)", f.orgID, "org "+f.orgID)
	require.NoError(t, err)
	_, err = e.db.ExecContext(ctx, "INSERT INTO organization_memberships (member_id, organization_id, role) VALUES (?, ?, 'regular')", f.memberID, f.orgID)
	require.NoError(t, err)
	_, err = e.db.ExecContext(ctx, "INSERT INTO posts (id, caption, organization_id) VALUES (?, 'hello', ?)", f.postID, f.orgID)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = e.db.ExecContext(ctx, "DELETE FROM organizations WHERE id = ?", f.orgID)
		_, _ = e.db.ExecContext(ctx, "DELETE FROM users WHERE id IN (?, ?, ?)", f.memberID, f.adminID, f.outsider)
	})
	return f
}

func (e *testEnv) voteType(t *testing.T, creatorID, postID string) string {
	t.Helper()
	var voteType string
	err := e.db.QueryRowContext(context.Background(),
		"SELECT type FROM post_votes WHERE creator_id = ? AND post_id = ?", creatorID, postID).Scan(&voteType)
	if err == sql.ErrNoRows {
		return ""
	}
	require.NoError(t, err)
	return voteType
}
