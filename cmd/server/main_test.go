package main

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"talawa-graphql/internal/config"
)

func TestReportValidation(t *testing.T) {
	tests := []struct {
		name      string
		result    *config.ValidationResult
		expectErr bool
		logged    []string
	}{
		{
			name:   "clean",
			result: &config.ValidationResult{},
		},
		{
			name: "warnings only",
			result: &config.ValidationResult{
				Warnings: []config.ValidationWarning{{Field: "server.graphiql_enabled", Message: "GraphiQL is enabled"}},
			},
			logged: []string{"configuration warning", "server.graphiql_enabled"},
		},
		{
			name: "errors fail",
			result: &config.ValidationResult{
				Errors: []config.ValidationError{{Field: "auth.jwt_secret", Message: "required", Hint: "set TALAWA_AUTH_JWT_SECRET"}},
			},
			expectErr: true,
			logged:    []string{"configuration error", "auth.jwt_secret", "TALAWA_AUTH_JWT_SECRET"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			err := reportValidation(logger, tt.result)
			if tt.expectErr {
				if !errors.Is(err, errInvalidConfig) {
					t.Fatalf("expected errInvalidConfig, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.logged {
				if !strings.Contains(buf.String(), want) {
					t.Fatalf("log output %q missing %q", buf.String(), want)
				}
			}
		})
	}
}

func TestVersionString(t *testing.T) {
	if got := versionString(); got != "talawa-graphql dev (none)" {
		t.Fatalf("unexpected version string %q", got)
	}
}
