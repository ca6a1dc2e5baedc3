// Package sqlutil provides SQL identifier and MySQL error helpers.
package sqlutil

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// QuoteIdentifier quotes a SQL identifier with backticks and escapes any
// backticks within it.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Qualified returns alias.`column`, or just the quoted column when alias is
// empty.
func Qualified(alias, column string) string {
	if alias == "" {
		return QuoteIdentifier(column)
	}
	return alias + "." + QuoteIdentifier(column)
}

// Columns qualifies each column with alias.
func Columns(alias string, columns ...string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = Qualified(alias, c)
	}
	return out
}

// MySQL server error numbers the store reacts to.
const (
	ErrDuplicateEntry  uint16 = 1062
	ErrRowIsReferenced uint16 = 1451
	ErrNoReferencedRow uint16 = 1452
)

// MySQLErrorNumber extracts the server error number from err.
func MySQLErrorNumber(err error) (uint16, bool) {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number, true
	}
	return 0, false
}

// IsDuplicateEntry reports whether err is a unique key violation.
func IsDuplicateEntry(err error) bool {
	n, ok := MySQLErrorNumber(err)
	return ok && n == ErrDuplicateEntry
}

// IsForeignKeyViolation reports whether err is a foreign key violation in
// either direction.
func IsForeignKeyViolation(err error) bool {
	n, ok := MySQLErrorNumber(err)
	return ok && (n == ErrRowIsReferenced || n == ErrNoReferencedRow)
}
