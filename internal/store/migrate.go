package store

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"talawa-graphql/internal/dbexec"
)

//go:embed schema.sql
var schemaSQL string

// SchemaStatements returns the DDL statements that create the application
// tables. Every statement is idempotent.
func SchemaStatements() []string {
	var stmts []string
	for _, part := range strings.Split(schemaSQL, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// Migrate creates any missing application tables.
func Migrate(ctx context.Context, q dbexec.Querier) error {
	for i, stmt := range SchemaStatements() {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
