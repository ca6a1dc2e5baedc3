package sqlutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"users", "`users`"},
		{"select", "`select`"},
		{"user`data", "`user``data`"},
		{"", "``"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteIdentifier(tt.input))
		})
	}
}

func TestQualifiedAndColumns(t *testing.T) {
	assert.Equal(t, "p.`id`", Qualified("p", "id"))
	assert.Equal(t, "`id`", Qualified("", "id"))
	assert.Equal(t, []string{"v.`creator_id`", "v.`type`"}, Columns("v", "creator_id", "type"))
}

func TestMySQLErrorClassification(t *testing.T) {
	dup := fmt.Errorf("insert user: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	fk := &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}

	assert.True(t, IsDuplicateEntry(dup))
	assert.False(t, IsDuplicateEntry(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(errors.New("boom")))

	n, ok := MySQLErrorNumber(dup)
	assert.True(t, ok)
	assert.Equal(t, ErrDuplicateEntry, n)
}
