// Package scalars holds the custom GraphQL scalar types shared by inputs and
// output objects. graphql-go rejects two distinct types with the same name in
// one schema, so each scalar is a package-level singleton.
package scalars

import (
	"regexp"
	"strings"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

const dateLayout = "2006-01-02"

var (
	emailPattern = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")
	phonePattern = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)
)

var (
	Date         = newDate()
	EmailAddress = newEmailAddress()
	PhoneNumber  = newPhoneNumber()
	Upload       = newUpload()
)

// DateTime is graphql-go's RFC 3339 scalar, re-exported so callers only import
// this package for scalar types.
var DateTime = graphql.DateTime

// FileUpload is the value an Upload argument resolves to. The multipart
// transport that produces it is expected to place it directly into variables.
type FileUpload struct {
	Filename string
	MimeType string
	Size     int64
}

// IsEmailAddress reports whether s is a syntactically valid email address.
func IsEmailAddress(s string) bool {
	return len(s) <= 254 && emailPattern.MatchString(s)
}

// IsPhoneNumber reports whether s is an E.164 formatted phone number.
func IsPhoneNumber(s string) bool {
	return phonePattern.MatchString(s)
}

func newDate() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "Date",
		Description: "A date string, such as 2007-12-03, compliant with the full-date format.",
		Serialize: func(value interface{}) interface{} {
			switch v := value.(type) {
			case time.Time:
				return v.UTC().Format(dateLayout)
			case *time.Time:
				if v == nil {
					return nil
				}
				return v.UTC().Format(dateLayout)
			case string:
				return v
			default:
				return nil
			}
		},
		ParseValue: func(value interface{}) interface{} {
			switch v := value.(type) {
			case time.Time:
				return v
			case string:
				return parseDate(v)
			default:
				return nil
			}
		},
		ParseLiteral: func(valueAST ast.Value) interface{} {
			if sv, ok := valueAST.(*ast.StringValue); ok {
				return parseDate(sv.Value)
			}
			return nil
		},
	})
}

func parseDate(s string) interface{} {
	parsed, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return parsed
}

func newEmailAddress() *graphql.Scalar {
	return newPatternScalar(
		"EmailAddress",
		"A field whose value conforms to the standard internet email address format.",
		IsEmailAddress,
	)
}

func newPhoneNumber() *graphql.Scalar {
	return newPatternScalar(
		"PhoneNumber",
		"A field whose value conforms to the standard E.164 format.",
		IsPhoneNumber,
	)
}

func newPatternScalar(name, description string, valid func(string) bool) *graphql.Scalar {
	coerce := func(value interface{}) interface{} {
		s, ok := value.(string)
		if !ok {
			return nil
		}
		s = strings.TrimSpace(s)
		if !valid(s) {
			return nil
		}
		return s
	}
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        name,
		Description: description,
		Serialize:   coerce,
		ParseValue:  coerce,
		ParseLiteral: func(valueAST ast.Value) interface{} {
			if sv, ok := valueAST.(*ast.StringValue); ok {
				return coerce(sv.Value)
			}
			return nil
		},
	})
}

func newUpload() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "Upload",
		Description: "The `Upload` scalar type represents a file upload.",
		Serialize: func(value interface{}) interface{} {
			return nil
		},
		ParseValue: func(value interface{}) interface{} {
			switch v := value.(type) {
			case *FileUpload:
				return v
			case FileUpload:
				return &v
			default:
				return nil
			}
		},
		// Files cannot be written inline in a query document.
		ParseLiteral: func(valueAST ast.Value) interface{} {
			return nil
		},
	})
}
