package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	defineFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDatabaseConfig_DSN_DiscreteFields(t *testing.T) {
	d := DatabaseConfig{Host: "db.example.com", Port: 3307, User: "talawa", Password: "p@ss:w0rd!", Database: "talawa"}

	dsn, err := d.DSN()
	require.NoError(t, err)

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db.example.com:3307", parsed.Addr)
	assert.Equal(t, "p@ss:w0rd!", parsed.Passwd)
	assert.Equal(t, "talawa", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.True(t, parsed.ClientFoundRows)
	assert.Equal(t, time.UTC, parsed.Loc)
}

func TestDatabaseConfig_DSN_ConnectionStringForcesFoundRows(t *testing.T) {
	d := DatabaseConfig{ConnectionString: "root:secret@tcp(127.0.0.1:4000)/talawa?clientFoundRows=false", TLS: DatabaseTLSConfig{Mode: "skip-verify"}}

	cfg, err := d.DriverConfig()
	require.NoError(t, err)
	assert.True(t, cfg.ClientFoundRows)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "skip-verify", cfg.TLSConfig)
	assert.Equal(t, "127.0.0.1:4000", cfg.Addr)
}

func TestDatabaseConfig_DSN_Invalid(t *testing.T) {
	d := DatabaseConfig{ConnectionString: "not a dsn"}
	_, err := d.DSN()
	require.Error(t, err)
}

func TestDatabaseConfig_RegisterTLS_NoopWithoutVerifyMode(t *testing.T) {
	for _, mode := range []string{"", "off", "skip-verify"} {
		d := DatabaseConfig{TLS: DatabaseTLSConfig{Mode: mode, CAFile: "/does/not/exist"}}
		assert.NoError(t, d.RegisterTLS(), mode)
	}

	d := DatabaseConfig{TLS: DatabaseTLSConfig{Mode: "verify-full", CAFile: "/does/not/exist"}}
	assert.Error(t, d.RegisterTLS())
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := load(viper.New(), newFlagSet(t))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.Pool.MaxOpen)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, AuthModeNone, cfg.Auth.Mode)
	assert.Equal(t, "sub", cfg.Auth.UserIDClaim)
	assert.Equal(t, "talawa-graphql", cfg.Observability.ServiceName)
	assert.False(t, cfg.Validate().HasErrors())
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "talawa-graphql.yaml", `
database:
  host: filehost
  port: 4000
server:
  port: 9000
  cors_allowed_origins: https://admin.example.org
observability:
  logging:
    level: debug
`)
	t.Setenv("TALAWA_DATABASE_HOST", "envhost")
	t.Setenv("TALAWA_SERVER_PORT", "9100")

	cfg, err := load(viper.New(), newFlagSet(t, "--config", path, "--server.port", "9200"))
	require.NoError(t, err)

	assert.Equal(t, "envhost", cfg.Database.Host, "env beats file")
	assert.Equal(t, 4000, cfg.Database.Port, "file beats default")
	assert.Equal(t, 9200, cfg.Server.Port, "flag beats env")
	assert.Equal(t, []string{"https://admin.example.org"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "talawa-graphql.yaml", `
server:
  schema_refresh_min_interval: 30s
`)
	_, err := load(viper.New(), newFlagSet(t, "--config", path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema_refresh_min_interval")
}

func TestLoad_SecretsFromFiles(t *testing.T) {
	passwordPath := writeFile(t, "password", "  s3cret\n")
	secretPath := writeFile(t, "jwt", "0123456789abcdef0123456789abcdef\n")
	path := writeFile(t, "talawa-graphql.yaml", "database:\n  password_file: "+passwordPath+"\nauth:\n  mode: jwt\n  jwt_secret_file: "+secretPath+"\n")

	cfg, err := load(viper.New(), newFlagSet(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.Auth.JWTSecret)
	assert.False(t, cfg.Validate().HasErrors())
}

func TestLoad_EmptySecretFile(t *testing.T) {
	secretPath := writeFile(t, "jwt", "\n")
	_, err := load(viper.New(), newFlagSet(t, "--auth.jwt_secret_file", secretPath))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := load(viper.New(), newFlagSet(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
}

func TestValidateSingleStdinFileSource(t *testing.T) {
	v := viper.New()
	v.Set("database.password_file", "@-")
	require.NoError(t, validateSingleStdinFileSource(v))

	v.Set("auth.jwt_secret_file", " @- ")
	err := validateSingleStdinFileSource(v)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "database.password_file") && strings.Contains(err.Error(), "auth.jwt_secret_file"))
}

func validConfig() Config {
	return Config{
		Database: DatabaseConfig{Host: "localhost", Port: 3306, Database: "talawa", Pool: PoolConfig{MaxOpen: 10, MaxIdle: 2}},
		Server:   ServerConfig{Port: 8080},
		Auth:     AuthConfig{Mode: AuthModeOIDC, UserIDClaim: "sub", OIDCIssuerURL: "https://issuer.example.org", OIDCAudience: "talawa"},
		Observability: ObservabilityConfig{
			TraceSampleRatio: 1,
			Logging:          LoggingConfig{Level: "info", Format: "json"},
			OTLP:             OTLPConfig{Protocol: "grpc", Compression: "gzip"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad server port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad tls mode", func(c *Config) { c.Database.TLS.Mode = "required" }, "database.tls.mode"},
		{"negative pool", func(c *Config) { c.Database.Pool.MaxOpen = -1 }, "database.pool.max_open"},
		{"rate limit without rps", func(c *Config) { c.Server.RateLimitEnabled = true; c.Server.RateLimitBurst = 5 }, "server.rate_limit_rps"},
		{"cors wildcard with credentials", func(c *Config) {
			c.Server.CORSEnabled = true
			c.Server.CORSAllowedOrigins = []string{"*"}
			c.Server.CORSAllowCredentials = true
		}, "server.cors_allowed_origins"},
		{"unknown auth mode", func(c *Config) { c.Auth.Mode = "basic" }, "auth.mode"},
		{"jwt without secret", func(c *Config) { c.Auth.Mode = AuthModeJWT }, "auth.jwt_secret"},
		{"oidc over http", func(c *Config) { c.Auth.OIDCIssuerURL = "http://issuer.example.org" }, "auth.oidc_issuer_url"},
		{"empty claim", func(c *Config) { c.Auth.UserIDClaim = "" }, "auth.user_id_claim"},
		{"bad log level", func(c *Config) { c.Observability.Logging.Level = "trace" }, "observability.logging.level"},
		{"bad sample ratio", func(c *Config) { c.Observability.TraceSampleRatio = 2 }, "observability.trace_sample_ratio"},
		{"bad otlp endpoint", func(c *Config) {
			c.Observability.OTLP.Protocol = "http/protobuf"
			c.Observability.OTLP.Endpoint = "collector"
		}, "observability.otlp.endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			result := cfg.Validate()
			require.True(t, result.HasErrors())
			fields := make([]string, 0, len(result.Errors))
			for _, e := range result.Errors {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}

	t.Run("valid", func(t *testing.T) {
		cfg := validConfig()
		result := cfg.Validate()
		assert.False(t, result.HasErrors(), result.Error())
	})
}

func TestValidate_Warnings(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Mode = AuthModeNone
	cfg.Server.RateLimitRPS = 5
	cfg.Database.Pool.MaxIdle = 20

	result := cfg.Validate()
	require.False(t, result.HasErrors(), result.Error())
	fields := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		fields = append(fields, w.Field)
	}
	assert.ElementsMatch(t, []string{"auth.mode", "server.rate_limit_enabled", "database.pool.max_idle"}, fields)
}

func TestObservabilityConfig_TracesOTLP(t *testing.T) {
	cfg := ObservabilityConfig{
		OTLP: OTLPConfig{
			Endpoint: "collector:4317",
			Protocol: "grpc",
			Headers:  map[string]string{"team": "core"},
			Timeout:  10 * time.Second,
		},
		Traces: &OTLPConfig{
			Endpoint: "https://traces.example.org",
			Protocol: "http/protobuf",
			Headers:  map[string]string{"x-api-key": "k"},
		},
	}

	traces := cfg.TracesOTLP()
	assert.Equal(t, "https://traces.example.org", traces.Endpoint)
	assert.Equal(t, "http/protobuf", traces.Protocol)
	assert.Equal(t, 10*time.Second, traces.Timeout)
	assert.Equal(t, map[string]string{"team": "core", "x-api-key": "k"}, traces.Headers)
	assert.Equal(t, cfg.OTLP, cfg.LogsOTLP())
}
