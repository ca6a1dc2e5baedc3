package config

import "time"

// Config holds the application configuration.
type Config struct {
	Database      DatabaseConfig      `mapstructure:"database"`
	Server        ServerConfig        `mapstructure:"server"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// PoolConfig holds connection pool parameters.
type PoolConfig struct {
	MaxOpen     int           `mapstructure:"max_open"`
	MaxIdle     int           `mapstructure:"max_idle"`
	MaxLifetime time.Duration `mapstructure:"max_lifetime"`
}

// DatabaseTLSConfig holds TLS settings for the MySQL connection.
type DatabaseTLSConfig struct {
	// Mode is one of off, skip-verify, verify-ca or verify-full.
	Mode       string `mapstructure:"mode"`
	CAFile     string `mapstructure:"ca_file"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
	ServerName string `mapstructure:"server_name"`
}

// DatabaseConfig holds database connection parameters.
type DatabaseConfig struct {
	// ConnectionString is a complete go-sql-driver/mysql DSN. When set it
	// overrides the discrete fields below.
	ConnectionString     string `mapstructure:"dsn"`
	ConnectionStringFile string `mapstructure:"dsn_file"`

	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	PasswordFile   string `mapstructure:"password_file"`
	PasswordPrompt bool   `mapstructure:"password_prompt"`
	Database       string `mapstructure:"database"`

	TLS  DatabaseTLSConfig `mapstructure:"tls"`
	Pool PoolConfig        `mapstructure:"pool"`

	// ConnectionTimeout is the max time to wait for the database on startup.
	ConnectionTimeout       time.Duration `mapstructure:"connection_timeout"`
	ConnectionRetryInterval time.Duration `mapstructure:"connection_retry_interval"`

	// AutoMigrate creates missing tables on startup.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port                 int           `mapstructure:"port"`
	GraphiQLEnabled      bool          `mapstructure:"graphiql_enabled"`
	GraphQLMaxDepth      int           `mapstructure:"graphql_max_depth"`
	RateLimitEnabled     bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRPS         float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst       int           `mapstructure:"rate_limit_burst"`
	CORSEnabled          bool          `mapstructure:"cors_enabled"`
	CORSAllowedOrigins   []string      `mapstructure:"cors_allowed_origins"`
	CORSAllowedMethods   []string      `mapstructure:"cors_allowed_methods"`
	CORSAllowedHeaders   []string      `mapstructure:"cors_allowed_headers"`
	CORSAllowCredentials bool          `mapstructure:"cors_allow_credentials"`
	CORSMaxAge           int           `mapstructure:"cors_max_age"`
	ReadTimeout          time.Duration `mapstructure:"read_timeout"`
	WriteTimeout         time.Duration `mapstructure:"write_timeout"`
	IdleTimeout          time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout      time.Duration `mapstructure:"shutdown_timeout"`
	HealthCheckTimeout   time.Duration `mapstructure:"health_check_timeout"`
}

// Auth modes.
const (
	AuthModeNone = "none"
	AuthModeJWT  = "jwt"
	AuthModeOIDC = "oidc"
)

// AuthConfig controls how bearer tokens are turned into a current client.
type AuthConfig struct {
	Mode string `mapstructure:"mode"`

	// UserIDClaim names the claim that carries the user id.
	UserIDClaim string        `mapstructure:"user_id_claim"`
	ClockSkew   time.Duration `mapstructure:"clock_skew"`

	// JWT mode verifies HS256 tokens signed with a shared secret.
	JWTSecret     string `mapstructure:"jwt_secret"`
	JWTSecretFile string `mapstructure:"jwt_secret_file"`
	JWTIssuer     string `mapstructure:"jwt_issuer"`
	JWTAudience   string `mapstructure:"jwt_audience"`

	OIDCIssuerURL string `mapstructure:"oidc_issuer_url"`
	OIDCAudience  string `mapstructure:"oidc_audience"`
	OIDCCAFile    string `mapstructure:"oidc_ca_file"`
}

// LoggingConfig holds logging parameters.
type LoggingConfig struct {
	Level          string `mapstructure:"level"`  // debug, info, warn, error
	Format         string `mapstructure:"format"` // json, text
	ExportsEnabled bool   `mapstructure:"exports_enabled"`
}

// ObservabilityConfig holds observability parameters.
type ObservabilityConfig struct {
	ServiceName      string        `mapstructure:"service_name"`
	ServiceVersion   string        `mapstructure:"service_version"`
	Environment      string        `mapstructure:"environment"`
	MetricsEnabled   bool          `mapstructure:"metrics_enabled"`
	TracingEnabled   bool          `mapstructure:"tracing_enabled"`
	TraceSampleRatio float64       `mapstructure:"trace_sample_ratio"`
	Logging          LoggingConfig `mapstructure:"logging"`

	// OTLP holds defaults shared by every signal.
	OTLP OTLPConfig `mapstructure:"otlp"`

	Traces *OTLPConfig `mapstructure:"traces,omitempty"`
	Logs   *OTLPConfig `mapstructure:"logs,omitempty"`
}

// OTLPConfig holds OTLP exporter configuration.
type OTLPConfig struct {
	Endpoint          string            `mapstructure:"endpoint"`
	Protocol          string            `mapstructure:"protocol"` // grpc, http/protobuf
	Insecure          bool              `mapstructure:"insecure"`
	TLSCertFile       string            `mapstructure:"tls_cert_file"`
	TLSClientCertFile string            `mapstructure:"tls_client_cert_file"`
	TLSClientKeyFile  string            `mapstructure:"tls_client_key_file"`
	Headers           map[string]string `mapstructure:"headers"`
	Timeout           time.Duration     `mapstructure:"timeout"`
	Compression       string            `mapstructure:"compression"` // none, gzip
	RetryEnabled      bool              `mapstructure:"retry_enabled"`
	RetryMaxAttempts  int               `mapstructure:"retry_max_attempts"`
}

// TracesOTLP returns the effective OTLP settings for traces.
func (c *ObservabilityConfig) TracesOTLP() OTLPConfig {
	if c.Traces != nil {
		return mergeOTLP(c.OTLP, *c.Traces)
	}
	return c.OTLP
}

// LogsOTLP returns the effective OTLP settings for logs.
func (c *ObservabilityConfig) LogsOTLP() OTLPConfig {
	if c.Logs != nil {
		return mergeOTLP(c.OTLP, *c.Logs)
	}
	return c.OTLP
}

// mergeOTLP lays the non-zero fields of override over base. Insecure is
// always taken from override because false cannot be told apart from unset.
func mergeOTLP(base, override OTLPConfig) OTLPConfig {
	out := base
	if override.Endpoint != "" {
		out.Endpoint = override.Endpoint
	}
	if override.Protocol != "" {
		out.Protocol = override.Protocol
	}
	out.Insecure = override.Insecure
	if override.TLSCertFile != "" {
		out.TLSCertFile = override.TLSCertFile
	}
	if override.TLSClientCertFile != "" {
		out.TLSClientCertFile = override.TLSClientCertFile
	}
	if override.TLSClientKeyFile != "" {
		out.TLSClientKeyFile = override.TLSClientKeyFile
	}
	if override.Headers != nil {
		out.Headers = make(map[string]string, len(base.Headers)+len(override.Headers))
		for k, v := range base.Headers {
			out.Headers[k] = v
		}
		for k, v := range override.Headers {
			out.Headers[k] = v
		}
	}
	if override.Timeout != 0 {
		out.Timeout = override.Timeout
	}
	if override.Compression != "" {
		out.Compression = override.Compression
	}
	if override.RetryMaxAttempts != 0 {
		out.RetryEnabled = override.RetryEnabled
		out.RetryMaxAttempts = override.RetryMaxAttempts
	}
	return out
}
