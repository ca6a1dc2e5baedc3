package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"talawa-graphql/internal/dbexec"
	"talawa-graphql/internal/sqlutil"
)

// Organization is the subset of an organization a post carries.
type Organization struct {
	ID          string
	Name        string
	CountryCode *string
}

// PostAttachment is a file attached to a post.
type PostAttachment struct {
	PostID    string
	Name      string
	MimeType  string
	CreatorID *string
	CreatedAt time.Time
}

// Post is a post together with its organization, the requesting member's
// membership in that organization, and its attachments.
type Post struct {
	ID           string
	Caption      string
	CreatorID    *string
	UpdaterID    *string
	PinnedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	Organization Organization
	// MembershipRole is the member's role in the post's organization, nil
	// when the member does not belong to it.
	MembershipRole *string
	Attachments    []PostAttachment
}

// HasMembership reports whether the member the post was loaded for belongs
// to its organization.
func (p *Post) HasMembership() bool {
	return p.MembershipRole != nil
}

// FindPostForMember loads a post with its organization's country code, the
// membership of memberID in that organization and all attachments. It
// returns nil when the post does not exist.
func (s *Store) FindPostForMember(ctx context.Context, q dbexec.Querier, postID, memberID string) (*Post, error) {
	columns := sqlutil.Columns("p", "id", "caption", "creator_id", "updater_id", "pinned_at", "created_at", "updated_at")
	columns = append(columns, sqlutil.Columns("o", "id", "name", "country_code")...)
	columns = append(columns, sqlutil.Qualified("m", "role"))

	builder := sq.Select(columns...).
		From(sqlutil.QuoteIdentifier("posts") + " AS p").
		Join(sqlutil.QuoteIdentifier("organizations") + " AS o ON o.`id` = p.`organization_id`").
		LeftJoin(sqlutil.QuoteIdentifier("organization_memberships")+" AS m ON m.`organization_id` = o.`id` AND m.`member_id` = ?", memberID).
		Where(sq.Eq{"p.`id`": postID}).
		Limit(1).
		PlaceholderFormat(sq.Question)

	var (
		post        Post
		creatorID   sql.NullString
		updaterID   sql.NullString
		pinnedAt    sql.NullTime
		updatedAt   sql.NullTime
		countryCode sql.NullString
		role        sql.NullString
	)
	found, err := queryRow(ctx, q, builder,
		&post.ID, &post.Caption, &creatorID, &updaterID, &pinnedAt, &post.CreatedAt, &updatedAt,
		&post.Organization.ID, &post.Organization.Name, &countryCode,
		&role,
	)
	if err != nil {
		return nil, fmt.Errorf("find post %s: %w", postID, err)
	}
	if !found {
		return nil, nil
	}
	post.CreatorID = nullStringPtr(creatorID)
	post.UpdaterID = nullStringPtr(updaterID)
	post.PinnedAt = nullTimePtr(pinnedAt)
	post.UpdatedAt = nullTimePtr(updatedAt)
	post.Organization.CountryCode = nullStringPtr(countryCode)
	post.MembershipRole = nullStringPtr(role)

	attachments, err := s.postAttachments(ctx, q, post.ID)
	if err != nil {
		return nil, err
	}
	post.Attachments = attachments
	return &post, nil
}

func (s *Store) postAttachments(ctx context.Context, q dbexec.Querier, postID string) ([]PostAttachment, error) {
	query, args, err := sq.Select(sqlutil.Columns("", "post_id", "name", "mime_type", "creator_id", "created_at")...).
		From(sqlutil.QuoteIdentifier("post_attachments")).
		Where(sq.Eq{"`post_id`": postID}).
		OrderBy("`created_at`", "`name`").
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build attachments query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attachments of post %s: %w", postID, err)
	}
	defer rows.Close()

	attachments := []PostAttachment{}
	for rows.Next() {
		var (
			a         PostAttachment
			creatorID sql.NullString
		)
		if err := rows.Scan(&a.PostID, &a.Name, &a.MimeType, &creatorID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		a.CreatorID = nullStringPtr(creatorID)
		attachments = append(attachments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attachments of post %s: %w", postID, err)
	}
	return attachments, nil
}
