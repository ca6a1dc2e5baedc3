// Package validation describes input shapes as ordered field tables. A Schema
// is plain data: Omit, Extend and Describe return new schemas, and the same
// table produces both the GraphQL input object and server-side validation.
package validation

import (
	"slices"

	"github.com/graphql-go/graphql"
)

// Kind selects the validation rule applied to a field's value.
type Kind int

const (
	KindString Kind = iota
	KindBoolean
	KindDate
	KindDateTime
	KindEnum
	KindEmail
	KindPhone
	KindUUID
	KindUpload
)

// Field describes one input field.
type Field struct {
	Name string
	Kind Kind
	// Required fields must be present and non-null. Optional fields accept
	// both omission and null.
	Required    bool
	MinLength   int
	MaxLength   int
	Enum        []string
	Description string
	// Type is the nullable GraphQL type. Required fields are wrapped in
	// NonNull when the input object is built.
	Type graphql.Input
}

// Schema is an ordered field table.
type Schema struct {
	fields []Field
}

// NewSchema returns a schema with fields in the given order.
func NewSchema(fields ...Field) Schema {
	return Schema{fields: slices.Clone(fields)}
}

// Fields returns a copy of the field table.
func (s Schema) Fields() []Field {
	return slices.Clone(s.fields)
}

// Names returns field names in table order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		names = append(names, f.Name)
	}
	return names
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	i := s.index(name)
	if i < 0 {
		return Field{}, false
	}
	return s.fields[i], true
}

// Omit returns a schema without the named fields.
func (s Schema) Omit(names ...string) Schema {
	out := make([]Field, 0, len(s.fields))
	for _, f := range s.fields {
		if !slices.Contains(names, f.Name) {
			out = append(out, f)
		}
	}
	return Schema{fields: out}
}

// Extend returns a schema with fields added. A field whose name already
// exists replaces the existing definition in place.
func (s Schema) Extend(fields ...Field) Schema {
	out := slices.Clone(s.fields)
	for _, f := range fields {
		if i := indexOf(out, f.Name); i >= 0 {
			out[i] = f
			continue
		}
		out = append(out, f)
	}
	return Schema{fields: out}
}

// Describe returns a schema with descriptions overridden by name. Unknown
// names are ignored.
func (s Schema) Describe(descriptions map[string]string) Schema {
	out := slices.Clone(s.fields)
	for i := range out {
		if d, ok := descriptions[out[i].Name]; ok {
			out[i].Description = d
		}
	}
	return Schema{fields: out}
}

// InputObject builds the GraphQL input object for the schema.
func (s Schema) InputObject(name, description string) *graphql.InputObject {
	fields := graphql.InputObjectConfigFieldMap{}
	for _, f := range s.fields {
		var typ graphql.Input = f.Type
		if f.Required {
			typ = graphql.NewNonNull(f.Type)
		}
		fields[f.Name] = &graphql.InputObjectFieldConfig{
			Type:        typ,
			Description: f.Description,
		}
	}
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        name,
		Description: description,
		Fields:      fields,
	})
}

func (s Schema) index(name string) int {
	return indexOf(s.fields, name)
}

func indexOf(fields []Field, name string) int {
	return slices.IndexFunc(fields, func(f Field) bool { return f.Name == name })
}
