package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
)

// Issue is one validation failure. Path starts at the argument root, for
// example ["input", "postId"].
type Issue struct {
	Path    []any
	Message string
}

var (
	emailPattern = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")
	phonePattern = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)
)

// Validate checks value against the schema and returns one issue per
// violation, in field table order. Keys not present in the schema are
// ignored.
func (s Schema) Validate(path []any, value map[string]interface{}) []Issue {
	var issues []Issue
	for _, f := range s.fields {
		fieldPath := appendPath(path, f.Name)
		v, present := value[f.Name]
		if !present || v == nil {
			if f.Required {
				issues = append(issues, Issue{Path: fieldPath, Message: "Required"})
			}
			continue
		}
		if msg := f.check(v); msg != "" {
			issues = append(issues, Issue{Path: fieldPath, Message: msg})
		}
	}
	return issues
}

// ValidateArgument validates args[name] as a nested object.
func (s Schema) ValidateArgument(args map[string]interface{}, name string) []Issue {
	raw, ok := args[name]
	if !ok || raw == nil {
		return []Issue{{Path: []any{name}, Message: "Required"}}
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return []Issue{{Path: []any{name}, Message: fmt.Sprintf("Expected object, received %s", typeName(raw))}}
	}
	return s.Validate([]any{name}, obj)
}

func (f Field) check(v interface{}) string {
	switch f.Kind {
	case KindBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("Expected boolean, received %s", typeName(v))
		}
		return ""
	case KindDate, KindDateTime:
		switch t := v.(type) {
		case time.Time:
			return ""
		case string:
			layout := time.RFC3339
			if f.Kind == KindDate {
				layout = "2006-01-02"
			}
			if _, err := time.Parse(layout, t); err != nil {
				return "Invalid date"
			}
			return ""
		default:
			return fmt.Sprintf("Expected date, received %s", typeName(v))
		}
	case KindUpload:
		return ""
	}

	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("Expected string, received %s", typeName(v))
	}

	switch f.Kind {
	case KindEnum:
		if !slices.Contains(f.Enum, s) {
			return fmt.Sprintf("Invalid enum value. Expected %s, received '%s'", quoteAll(f.Enum), s)
		}
		return ""
	case KindEmail:
		if !emailPattern.MatchString(s) {
			return "Invalid email"
		}
	case KindPhone:
		if !phonePattern.MatchString(s) {
			return "Invalid phone number"
		}
	case KindUUID:
		if _, err := uuid.Parse(s); err != nil || len(s) != 36 {
			return "Invalid uuid"
		}
	}

	n := textLength(s)
	if f.MinLength > 0 && n < f.MinLength {
		return fmt.Sprintf("String must contain at least %d character(s)", f.MinLength)
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		return fmt.Sprintf("String must contain at most %d character(s)", f.MaxLength)
	}
	return ""
}

// textLength counts s in UTF-16 code units, so characters outside the Basic
// Multilingual Plane count twice.
func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func appendPath(path []any, name string) []any {
	out := make([]any, 0, len(path)+1)
	out = append(out, path...)
	return append(out, name)
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, " | ")
}

func typeName(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int32, int64, float32, float64:
		return "number"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
