package middleware

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"talawa-graphql/internal/currentclient"
	"talawa-graphql/internal/logging"
	"talawa-graphql/internal/observability"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

// Authentication modes.
const (
	AuthModeNone = "none"
	AuthModeJWT  = "jwt"
	AuthModeOIDC = "oidc"
)

// AuthConfig controls how bearer tokens become the current client.
type AuthConfig struct {
	Mode string

	// UserIDClaim names the claim holding the user id. Defaults to sub.
	UserIDClaim string
	ClockSkew   time.Duration

	JWTSecret   []byte
	JWTIssuer   string
	JWTAudience string

	OIDCIssuerURL string
	OIDCAudience  string
	OIDCCAFile    string
}

// claimsVerifier checks a raw token and returns its claims.
type claimsVerifier interface {
	Verify(ctx context.Context, rawToken string) (map[string]interface{}, error)
}

// AuthMiddleware resolves the bearer token of each request into a
// currentclient.Client. Requests without a usable token continue as
// anonymous clients; resolvers decide whether that is acceptable.
func AuthMiddleware(ctx context.Context, cfg AuthConfig, logger *logging.Logger, metrics *observability.AuthMetrics) (func(http.Handler) http.Handler, error) {
	if cfg.UserIDClaim == "" {
		cfg.UserIDClaim = "sub"
	}

	var verifier claimsVerifier
	switch cfg.Mode {
	case "", AuthModeNone:
		return func(next http.Handler) http.Handler { return next }, nil
	case AuthModeJWT:
		v, err := newJWTVerifier(cfg)
		if err != nil {
			return nil, err
		}
		verifier = v
	case AuthModeOIDC:
		v, err := newOIDCVerifier(ctx, cfg)
		if err != nil {
			return nil, err
		}
		verifier = v
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}

	if logger != nil {
		logger.Info("bearer authentication enabled",
			slog.String("mode", cfg.Mode),
			slog.String("user_id_claim", cfg.UserIDClaim),
		)
	}
	return authenticate(cfg.Mode, cfg.UserIDClaim, verifier, metrics), nil
}

func authenticate(mode, userIDClaim string, verifier claimsVerifier, metrics *observability.AuthMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reqLogger := logging.FromContext(ctx)

			rawToken := bearerToken(r.Header.Get("Authorization"))
			if rawToken == "" {
				metrics.RecordAnonymous(ctx, "missing_token")
				next.ServeHTTP(w, r)
				return
			}
			metrics.RecordAttempt(ctx, mode)

			claims, err := verifier.Verify(ctx, rawToken)
			if err != nil {
				metrics.RecordFailure(ctx, mode, "verification_failed")
				metrics.RecordAnonymous(ctx, "invalid_token")
				reqLogger.Warn("bearer token rejected",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				next.ServeHTTP(w, r)
				return
			}

			userID := claimString(claims, userIDClaim)
			if userID == "" {
				metrics.RecordFailure(ctx, mode, "missing_user_claim")
				metrics.RecordAnonymous(ctx, "invalid_token")
				reqLogger.Warn("bearer token has no user id claim",
					slog.String("claim", userIDClaim),
					slog.String("remote_addr", r.RemoteAddr),
				)
				next.ServeHTTP(w, r)
				return
			}

			metrics.RecordSuccess(ctx, mode)
			if span := trace.SpanFromContext(ctx); span.IsRecording() {
				span.SetAttributes(
					attribute.String("talawa.client.user_id", userID),
					attribute.Bool("auth.authenticated", true),
				)
			}

			ctx = currentclient.WithClient(ctx, currentclient.Client{IsAuthenticated: true, UserID: userID})
			ctx = logging.WithLogger(ctx, reqLogger.WithFields(slog.String("user_id", userID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// jwtVerifier checks HS256 tokens signed with a shared secret.
type jwtVerifier struct {
	secret []byte
	opts   []jwt.ParserOption
}

func newJWTVerifier(cfg AuthConfig) (*jwtVerifier, error) {
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("jwt auth enabled but no secret configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.ClockSkew),
	}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	if cfg.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.JWTAudience))
	}
	return &jwtVerifier{secret: cfg.JWTSecret, opts: opts}, nil
}

func (v *jwtVerifier) Verify(_ context.Context, rawToken string) (map[string]interface{}, error) {
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(rawToken, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, v.opts...); err != nil {
		return nil, err
	}
	return claims, nil
}

// oidcVerifier checks ID tokens against the issuer's published keys.
type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
	skew     time.Duration
	now      func() time.Time
}

func newOIDCVerifier(ctx context.Context, cfg AuthConfig) (*oidcVerifier, error) {
	if cfg.OIDCIssuerURL == "" || cfg.OIDCAudience == "" {
		return nil, errors.New("oidc auth enabled but issuer/audience not configured")
	}
	issuerURL, err := url.Parse(cfg.OIDCIssuerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid oidc issuer url: %w", err)
	}
	if issuerURL.Scheme != "https" {
		return nil, errors.New("oidc issuer url must use https")
	}

	httpClient, err := newOIDCHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)

	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize oidc provider: %w", err)
	}

	// Expiry is checked by validateTimeClaims so the configured skew applies.
	verifier := provider.Verifier(&oidc.Config{
		ClientID:        cfg.OIDCAudience,
		SkipExpiryCheck: true,
	})
	return &oidcVerifier{verifier: verifier, skew: cfg.ClockSkew, now: time.Now}, nil
}

func (v *oidcVerifier) Verify(ctx context.Context, rawToken string) (map[string]interface{}, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	claims := map[string]interface{}{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}
	if err := validateTimeClaims(claims, v.now(), v.skew); err != nil {
		return nil, err
	}
	return claims, nil
}

func newOIDCHTTPClient(cfg AuthConfig) (*http.Client, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.OIDCCAFile != "" {
		pem, err := os.ReadFile(cfg.OIDCCAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read oidc ca file: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("failed to parse oidc ca file")
		}
		tlsConfig.RootCAs = pool
	}

	return &http.Client{
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: tlsConfig,
		},
		Timeout: 10 * time.Second,
	}, nil
}

func bearerToken(value string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// claimString returns a string or numeric claim as text.
func claimString(claims map[string]interface{}, name string) string {
	switch v := claims[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func validateTimeClaims(claims map[string]interface{}, now time.Time, skew time.Duration) error {
	if skew < 0 {
		skew = 0
	}
	exp, ok := numericDate(claims["exp"])
	if !ok {
		return errors.New("token has no expiry")
	}
	if now.After(exp.Add(skew)) {
		return errors.New("token expired")
	}
	if nbf, ok := numericDate(claims["nbf"]); ok && now.Add(skew).Before(nbf) {
		return errors.New("token not valid yet")
	}
	return nil
}

func numericDate(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	case int:
		return time.Unix(int64(v), 0), true
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(parsed, 0), true
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(parsed, 0), true
	default:
		return time.Time{}, false
	}
}
