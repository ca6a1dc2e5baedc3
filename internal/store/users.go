package store

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"talawa-graphql/internal/dbexec"
	"talawa-graphql/internal/sqlutil"
	"talawa-graphql/internal/tables"
	"talawa-graphql/internal/validation"
)

// User is a user row keyed by GraphQL field name. passwordHash is never
// loaded.
type User map[string]interface{}

// ID returns the user's id.
func (u User) ID() string {
	id, _ := u["id"].(string)
	return id
}

// readableUserColumns are the users columns returned to clients.
var readableUserColumns = func() []tables.Column {
	cols := make([]tables.Column, 0, len(tables.Users.Columns))
	for _, c := range tables.Users.Columns {
		if c.SQL != "password_hash" {
			cols = append(cols, c)
		}
	}
	return cols
}()

// HashPassword derives the stored hash for a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// UserRole returns the role of the user with id, or nil when no such user
// exists.
func (s *Store) UserRole(ctx context.Context, q dbexec.Querier, id string) (*string, error) {
	builder := sq.Select(sqlutil.QuoteIdentifier("role")).
		From(sqlutil.QuoteIdentifier("users")).
		Where(sq.Eq{"`id`": id}).
		Limit(1).
		PlaceholderFormat(sq.Question)

	var role string
	found, err := queryRow(ctx, q, builder, &role)
	if err != nil {
		return nil, fmt.Errorf("find role of user %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &role, nil
}

// FindUser loads the user with id, or nil when no such user exists.
func (s *Store) FindUser(ctx context.Context, q dbexec.Querier, id string) (User, error) {
	names := make([]string, len(readableUserColumns))
	for i, c := range readableUserColumns {
		names[i] = c.SQL
	}
	builder := sq.Select(sqlutil.Columns("", names...)...).
		From(sqlutil.QuoteIdentifier("users")).
		Where(sq.Eq{"`id`": id}).
		Limit(1).
		PlaceholderFormat(sq.Question)

	raw := make([]interface{}, len(readableUserColumns))
	dest := make([]any, len(raw))
	for i := range raw {
		dest[i] = &raw[i]
	}
	found, err := queryRow(ctx, q, builder, dest...)
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}

	user := make(User, len(readableUserColumns))
	for i, c := range readableUserColumns {
		v, err := decodeColumn(c.Field.Kind, raw[i])
		if err != nil {
			return nil, fmt.Errorf("decode users.%s: %w", c.SQL, err)
		}
		user[c.Field.Name] = v
	}
	return user, nil
}

// EmailAddressExists reports whether a user already uses email.
func (s *Store) EmailAddressExists(ctx context.Context, q dbexec.Querier, email string) (bool, error) {
	builder := sq.Select("1").
		From(sqlutil.QuoteIdentifier("users")).
		Where(sq.Eq{"`email_address`": email}).
		Limit(1).
		PlaceholderFormat(sq.Question)

	var one int
	found, err := queryRow(ctx, q, builder, &one)
	if err != nil {
		return false, fmt.Errorf("check email address: %w", err)
	}
	return found, nil
}

// NewUser is the data for inserting a user.
type NewUser struct {
	// Fields holds client supplied values keyed by users field name.
	// Unknown names are rejected.
	Fields         map[string]interface{}
	PasswordHash   string
	AvatarName     *string
	AvatarMimeType *string
	CreatorID      string
}

// InsertUser creates a user and returns it as stored.
func (s *Store) InsertUser(ctx context.Context, q dbexec.Querier, nu NewUser) (User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	values := map[string]interface{}{
		"id":               id.String(),
		"password_hash":    nu.PasswordHash,
		"creator_id":       nu.CreatorID,
		"created_at":       s.timestamp(),
		"avatar_name":      nu.AvatarName,
		"avatar_mime_type": nu.AvatarMimeType,
	}
	for field, v := range nu.Fields {
		column, ok := tables.Users.SQLName(field)
		if !ok {
			return nil, fmt.Errorf("insert user: unknown field %q", field)
		}
		if _, reserved := values[column]; reserved {
			return nil, fmt.Errorf("insert user: field %q is server-owned", field)
		}
		values[column] = v
	}

	columns := make([]string, 0, len(values))
	for c := range values {
		columns = append(columns, c)
	}
	slices.Sort(columns)
	args := make([]interface{}, len(columns))
	for i, c := range columns {
		args[i] = values[c]
	}

	builder := sq.Insert(sqlutil.QuoteIdentifier("users")).
		Columns(sqlutil.Columns("", columns...)...).
		Values(args...).
		PlaceholderFormat(sq.Question)
	if _, err := exec(ctx, q, builder); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	user, err := s.FindUser(ctx, q, id.String())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("insert user: row %s not visible after insert", id)
	}
	return user, nil
}

func decodeColumn(kind validation.Kind, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case validation.KindBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case int64:
			return b != 0, nil
		case []byte:
			return strconv.ParseBool(string(b))
		case string:
			return strconv.ParseBool(b)
		}
	case validation.KindDate, validation.KindDateTime:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case []byte:
			return parseTimeText(string(t))
		case string:
			return parseTimeText(t)
		}
	default:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		}
	}
	return nil, fmt.Errorf("unexpected value of type %T", v)
}

func parseTimeText(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05.999999", "2006-01-02", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
