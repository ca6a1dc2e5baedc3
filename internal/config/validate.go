package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	Field   string
	Message string
	Hint    string
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (hint: %s)", e.Field, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Field   string
	Message string
	Hint    string
}

// ValidationResult contains the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns a combined error message if there are validation errors.
func (r *ValidationResult) Error() string {
	if !r.HasErrors() {
		return ""
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (r *ValidationResult) fail(field, message, hint string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message, Hint: hint})
}

func (r *ValidationResult) warn(field, message, hint string) {
	r.Warnings = append(r.Warnings, ValidationWarning{Field: field, Message: message, Hint: hint})
}

// Validate checks the configuration and returns fatal errors and warnings.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}
	c.Database.validate(result)
	c.Server.validate(result)
	c.Auth.validate(result)
	c.Observability.validate(result)
	return result
}

func (d *DatabaseConfig) validate(result *ValidationResult) {
	if d.ConnectionString != "" {
		if _, err := mysql.ParseDSN(d.ConnectionString); err != nil {
			result.fail("database.dsn", fmt.Sprintf("invalid DSN: %v", err), "use user:password@tcp(host:port)/database")
		}
	} else {
		if d.Port < 1 || d.Port > 65535 {
			result.fail("database.port", fmt.Sprintf("port %d is out of valid range (1-65535)", d.Port), "")
		}
		if strings.TrimSpace(d.Database) == "" {
			result.fail("database.database", "database name is required", "set database.database or database.dsn")
		}
	}

	switch d.TLS.Mode {
	case "", "off", "skip-verify", "verify-ca", "verify-full":
	default:
		result.fail("database.tls.mode", fmt.Sprintf("invalid TLS mode %q", d.TLS.Mode), "valid values are: off, skip-verify, verify-ca, verify-full")
	}
	if (d.TLS.Mode == "verify-ca" || d.TLS.Mode == "verify-full") && d.TLS.CAFile == "" {
		result.warn("database.tls.ca_file", "no CA file configured", "the system trust store will be used")
	}
	if d.TLS.Mode == "skip-verify" {
		result.warn("database.tls.mode", "server certificate is not verified", "use verify-full in production")
	}

	if d.Pool.MaxOpen < 0 {
		result.fail("database.pool.max_open", "max_open cannot be negative", "")
	}
	if d.Pool.MaxIdle < 0 {
		result.fail("database.pool.max_idle", "max_idle cannot be negative", "")
	}
	if d.Pool.MaxIdle > d.Pool.MaxOpen && d.Pool.MaxOpen > 0 {
		result.warn("database.pool.max_idle", "max_idle is greater than max_open", "idle connections will be limited to max_open")
	}
}

func (s *ServerConfig) validate(result *ValidationResult) {
	if s.Port < 1 || s.Port > 65535 {
		result.fail("server.port", fmt.Sprintf("port %d is out of valid range (1-65535)", s.Port), "")
	}
	if s.GraphQLMaxDepth < 0 {
		result.fail("server.graphql_max_depth", "graphql_max_depth cannot be negative", "")
	}

	if s.RateLimitEnabled {
		if s.RateLimitRPS <= 0 {
			result.fail("server.rate_limit_rps", "rate_limit_rps must be greater than 0 when rate limiting is enabled", "")
		}
		if s.RateLimitBurst <= 0 {
			result.fail("server.rate_limit_burst", "rate_limit_burst must be greater than 0 when rate limiting is enabled", "")
		}
	} else if s.RateLimitRPS > 0 || s.RateLimitBurst > 0 {
		result.warn("server.rate_limit_enabled", "rate limit values are set but rate limiting is disabled", "enable server.rate_limit_enabled to apply rate limits")
	}

	if s.CORSEnabled {
		if len(s.CORSAllowedOrigins) == 0 {
			result.fail("server.cors_allowed_origins", "CORS enabled but no allowed origins configured", "set cors_allowed_origins or disable CORS")
		}
		for _, origin := range s.CORSAllowedOrigins {
			if strings.TrimSpace(origin) != "*" {
				continue
			}
			if s.CORSAllowCredentials {
				result.fail("server.cors_allowed_origins", "wildcard origin (*) cannot be used with credentials", "use specific origins with credentials")
			} else {
				result.warn("server.cors_allowed_origins", "CORS wildcard origin enabled", "use specific origins in production")
			}
			break
		}
	}
}

func (a *AuthConfig) validate(result *ValidationResult) {
	if strings.TrimSpace(a.UserIDClaim) == "" {
		result.fail("auth.user_id_claim", "user id claim cannot be empty", "the usual value is sub")
	}
	if a.ClockSkew < 0 {
		result.fail("auth.clock_skew", "clock_skew cannot be negative", "")
	}

	switch a.Mode {
	case AuthModeNone:
		result.warn("auth.mode", "authentication is disabled", "every request is served as an anonymous client")
	case AuthModeJWT:
		if a.JWTSecret == "" {
			result.fail("auth.jwt_secret", "a shared secret is required in jwt mode", "set auth.jwt_secret_file")
		} else if len(a.JWTSecret) < 32 {
			result.warn("auth.jwt_secret", "shared secret is shorter than 32 bytes", "")
		}
	case AuthModeOIDC:
		if a.OIDCIssuerURL == "" {
			result.fail("auth.oidc_issuer_url", "issuer URL is required in oidc mode", "")
		} else if u, err := url.Parse(a.OIDCIssuerURL); err != nil || u.Scheme != "https" {
			result.fail("auth.oidc_issuer_url", fmt.Sprintf("issuer URL %q must be an https URL", a.OIDCIssuerURL), "")
		}
		if a.OIDCAudience == "" {
			result.fail("auth.oidc_audience", "audience is required in oidc mode", "")
		}
	default:
		result.fail("auth.mode", fmt.Sprintf("invalid auth mode %q", a.Mode), "valid values are: none, jwt, oidc")
	}
}

func (o *ObservabilityConfig) validate(result *ValidationResult) {
	switch o.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		result.fail("observability.logging.level", fmt.Sprintf("invalid log level %q", o.Logging.Level), "valid values are: debug, info, warn, error")
	}
	switch o.Logging.Format {
	case "json", "text":
	default:
		result.fail("observability.logging.format", fmt.Sprintf("invalid log format %q", o.Logging.Format), "valid values are: json, text")
	}
	if o.TraceSampleRatio < 0 || o.TraceSampleRatio > 1 {
		result.fail("observability.trace_sample_ratio", "trace_sample_ratio must be between 0 and 1", "")
	}

	o.OTLP.validate("observability.otlp", result)
	if o.Traces != nil {
		o.Traces.validate("observability.traces", result)
	}
	if o.Logs != nil {
		o.Logs.validate("observability.logs", result)
	}
}

func (o *OTLPConfig) validate(prefix string, result *ValidationResult) {
	switch o.Protocol {
	case "", "grpc":
	case "http/protobuf":
		if !validOTLPEndpoint(o.Endpoint) {
			result.fail(prefix+".endpoint", fmt.Sprintf("invalid OTLP endpoint %q for http/protobuf", o.Endpoint), "use host:port or a full URL")
		}
	default:
		result.fail(prefix+".protocol", fmt.Sprintf("invalid OTLP protocol %q", o.Protocol), "valid values are: grpc, http/protobuf")
	}

	switch o.Compression {
	case "", "none", "gzip":
	default:
		result.fail(prefix+".compression", fmt.Sprintf("invalid OTLP compression %q", o.Compression), "valid values are: none, gzip")
	}
	if o.RetryMaxAttempts < 0 {
		result.fail(prefix+".retry_max_attempts", "retry_max_attempts cannot be negative", "")
	}
}

func validOTLPEndpoint(endpoint string) bool {
	if endpoint == "" {
		return false
	}
	if strings.Contains(endpoint, "://") {
		parsed, err := url.Parse(endpoint)
		return err == nil && parsed.Host != ""
	}
	_, _, err := net.SplitHostPort(endpoint)
	return err == nil
}
