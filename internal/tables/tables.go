// Package tables declares the persisted tables as column lists. Each column
// pairs its SQL name with the validation field used by insert schemas, so
// input types are derived from the same definition the store writes.
package tables

import (
	"talawa-graphql/internal/validation"
)

// Column maps a GraphQL-facing field to its SQL column.
type Column struct {
	SQL   string
	Field validation.Field
	// HasDefault marks columns the database or store fills when omitted.
	HasDefault bool
}

// Table is an ordered list of columns.
type Table struct {
	Name    string
	Columns []Column
}

// InsertSchema returns the validation schema for inserting a row. Columns
// that are nullable or have a default are optional.
func (t Table) InsertSchema() validation.Schema {
	fields := make([]validation.Field, 0, len(t.Columns))
	for _, c := range t.Columns {
		f := c.Field
		if c.HasDefault {
			f.Required = false
		}
		fields = append(fields, f)
	}
	return validation.NewSchema(fields...)
}

// SQLName returns the column name for a field name.
func (t Table) SQLName(field string) (string, bool) {
	for _, c := range t.Columns {
		if c.Field.Name == field {
			return c.SQL, true
		}
	}
	return "", false
}
