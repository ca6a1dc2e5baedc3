package middleware

import (
	"context"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"talawa-graphql/internal/currentclient"
	"talawa-graphql/internal/observability"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func mintToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub": "01890f3c-8d1e-7c4b-9a2f-1b2c3d4e5f60",
		"iss": "talawa-api",
		"aud": "talawa-graphql",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
}

// serveWithToken runs one request through the auth layer and returns the
// client seen by the next handler.
func serveWithToken(t *testing.T, mw func(http.Handler) http.Handler, authorization string) currentclient.Client {
	t.Helper()
	var seen currentclient.Client
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = currentclient.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, "auth never rejects at the HTTP layer")
	return seen
}

func jwtMiddleware(t *testing.T, cfg AuthConfig) func(http.Handler) http.Handler {
	t.Helper()
	cfg.Mode = AuthModeJWT
	if cfg.JWTSecret == nil {
		cfg.JWTSecret = testSecret
	}
	mw, err := AuthMiddleware(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	return mw
}

func TestAuthMiddleware_JWT(t *testing.T) {
	mw := jwtMiddleware(t, AuthConfig{JWTIssuer: "talawa-api", JWTAudience: "talawa-graphql"})

	t.Run("valid token", func(t *testing.T) {
		client := serveWithToken(t, mw, "Bearer "+mintToken(t, testSecret, validClaims()))
		assert.True(t, client.IsAuthenticated)
		assert.Equal(t, "01890f3c-8d1e-7c4b-9a2f-1b2c3d4e5f60", client.UserID)
	})

	t.Run("scheme is case insensitive", func(t *testing.T) {
		client := serveWithToken(t, mw, "bearer "+mintToken(t, testSecret, validClaims()))
		assert.True(t, client.IsAuthenticated)
	})

	t.Run("missing header", func(t *testing.T) {
		assert.False(t, serveWithToken(t, mw, "").IsAuthenticated)
	})

	t.Run("basic auth", func(t *testing.T) {
		assert.False(t, serveWithToken(t, mw, "Basic dXNlcjpwYXNz").IsAuthenticated)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := mintToken(t, []byte("another-secret-another-secret-xx"), validClaims())
		assert.False(t, serveWithToken(t, mw, "Bearer "+token).IsAuthenticated)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := validClaims()
		claims["iss"] = "someone-else"
		assert.False(t, serveWithToken(t, mw, "Bearer "+mintToken(t, testSecret, claims)).IsAuthenticated)
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := validClaims()
		claims["aud"] = "other-service"
		assert.False(t, serveWithToken(t, mw, "Bearer "+mintToken(t, testSecret, claims)).IsAuthenticated)
	})

	t.Run("no expiry", func(t *testing.T) {
		claims := validClaims()
		delete(claims, "exp")
		assert.False(t, serveWithToken(t, mw, "Bearer "+mintToken(t, testSecret, claims)).IsAuthenticated)
	})

	t.Run("missing user claim", func(t *testing.T) {
		claims := validClaims()
		delete(claims, "sub")
		assert.False(t, serveWithToken(t, mw, "Bearer "+mintToken(t, testSecret, claims)).IsAuthenticated)
	})

	t.Run("other algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, validClaims()).SignedString(testSecret)
		require.NoError(t, err)
		assert.False(t, serveWithToken(t, mw, "Bearer "+token).IsAuthenticated)
	})
}

func TestAuthMiddleware_JWTClockSkew(t *testing.T) {
	claims := validClaims()
	claims["exp"] = time.Now().Add(-30 * time.Second).Unix()
	token := "Bearer " + mintToken(t, testSecret, claims)

	assert.False(t, serveWithToken(t, jwtMiddleware(t, AuthConfig{}), token).IsAuthenticated)
	assert.True(t, serveWithToken(t, jwtMiddleware(t, AuthConfig{ClockSkew: time.Minute}), token).IsAuthenticated)
}

func TestAuthMiddleware_CustomUserIDClaim(t *testing.T) {
	mw := jwtMiddleware(t, AuthConfig{UserIDClaim: "userId"})
	claims := validClaims()
	claims["userId"] = "01890f3c-0000-7000-8000-000000000001"

	client := serveWithToken(t, mw, "Bearer "+mintToken(t, testSecret, claims))
	assert.Equal(t, "01890f3c-0000-7000-8000-000000000001", client.UserID)
}

func TestAuthMiddleware_Modes(t *testing.T) {
	mw, err := AuthMiddleware(context.Background(), AuthConfig{Mode: AuthModeNone}, nil, nil)
	require.NoError(t, err)
	assert.False(t, serveWithToken(t, mw, "Bearer "+mintToken(t, testSecret, validClaims())).IsAuthenticated)

	_, err = AuthMiddleware(context.Background(), AuthConfig{Mode: "basic"}, nil, nil)
	assert.ErrorContains(t, err, "unsupported auth mode")

	_, err = AuthMiddleware(context.Background(), AuthConfig{Mode: AuthModeJWT}, nil, nil)
	assert.ErrorContains(t, err, "no secret")

	_, err = AuthMiddleware(context.Background(), AuthConfig{Mode: AuthModeOIDC, OIDCIssuerURL: "http://issuer.example", OIDCAudience: "talawa"}, nil, nil)
	assert.ErrorContains(t, err, "https")

	_, err = AuthMiddleware(context.Background(), AuthConfig{Mode: AuthModeOIDC}, nil, nil)
	assert.ErrorContains(t, err, "issuer/audience")
}

func TestAuthMiddleware_RecordsMetrics(t *testing.T) {
	reader := installMeterReader(t)
	metrics, err := observability.InitAuthMetrics()
	require.NoError(t, err)
	mw, err := AuthMiddleware(context.Background(), AuthConfig{Mode: AuthModeJWT, JWTSecret: testSecret}, nil, metrics)
	require.NoError(t, err)

	serveWithToken(t, mw, "Bearer "+mintToken(t, testSecret, validClaims()))
	serveWithToken(t, mw, "Bearer not-a-jwt")
	serveWithToken(t, mw, "")

	rm := collect(t, reader)
	assert.Equal(t, int64(2), counterTotal(rm, "auth.attempts.total", nil))
	assert.Equal(t, int64(1), counterTotal(rm, "auth.successes.total", nil))
	assert.Equal(t, int64(1), counterTotal(rm, "auth.failures.total", map[string]string{"reason": "verification_failed"}))
	assert.Equal(t, int64(1), counterTotal(rm, "auth.anonymous.total", map[string]string{"reason": "invalid_token"}))
	assert.Equal(t, int64(2), counterTotal(rm, "auth.anonymous.total", nil))
}

func TestValidateTimeClaims(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	assert.NoError(t, validateTimeClaims(map[string]interface{}{"exp": float64(now.Unix() + 60)}, now, 0))
	assert.ErrorContains(t, validateTimeClaims(map[string]interface{}{"exp": float64(now.Unix() - 60)}, now, 0), "expired")
	assert.NoError(t, validateTimeClaims(map[string]interface{}{"exp": float64(now.Unix() - 60)}, now, 2*time.Minute))
	assert.ErrorContains(t, validateTimeClaims(map[string]interface{}{}, now, time.Minute), "no expiry")
	assert.ErrorContains(t, validateTimeClaims(map[string]interface{}{
		"exp": "1700000600",
		"nbf": float64(now.Unix() + 300),
	}, now, time.Minute), "not valid yet")
}

func TestNewOIDCHTTPClient_TrustsProvidedCA(t *testing.T) {
	server := httptest.NewTLSServer(okHandler())
	defer server.Close()

	caPath := filepath.Join(t.TempDir(), "issuer_ca.crt")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: server.Certificate().Raw})
	require.NoError(t, os.WriteFile(caPath, certPEM, 0o600))

	client, err := newOIDCHTTPClient(AuthConfig{OIDCCAFile: caPath})
	require.NoError(t, err)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
}

func TestNewOIDCHTTPClient_RejectsSelfSignedWithoutCA(t *testing.T) {
	server := httptest.NewTLSServer(okHandler())
	defer server.Close()

	client, err := newOIDCHTTPClient(AuthConfig{})
	require.NoError(t, err)
	_, err = client.Get(server.URL)
	assert.Error(t, err)
}

func TestNewOIDCHTTPClient_InvalidCAFile(t *testing.T) {
	caPath := filepath.Join(t.TempDir(), "bad.crt")
	require.NoError(t, os.WriteFile(caPath, []byte("not a certificate"), 0o600))

	_, err := newOIDCHTTPClient(AuthConfig{OIDCCAFile: caPath})
	assert.Error(t, err)
}
