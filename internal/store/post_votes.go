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

// PostVote is one user's vote on one post.
type PostVote struct {
	CreatorID string
	PostID    string
	Type      string
	UpdaterID *string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

var postVoteColumns = []string{"creator_id", "post_id", "type", "updater_id", "created_at", "updated_at"}

func postVoteKey(creatorID, postID string) sq.Eq {
	return sq.Eq{"`creator_id`": creatorID, "`post_id`": postID}
}

// PostVoteType returns the type of creatorID's vote on postID, or nil when
// there is no such vote.
func (s *Store) PostVoteType(ctx context.Context, q dbexec.Querier, creatorID, postID string) (*string, error) {
	builder := sq.Select(sqlutil.QuoteIdentifier("type")).
		From(sqlutil.QuoteIdentifier("post_votes")).
		Where(postVoteKey(creatorID, postID)).
		Limit(1).
		PlaceholderFormat(sq.Question)

	var voteType string
	found, err := queryRow(ctx, q, builder, &voteType)
	if err != nil {
		return nil, fmt.Errorf("find vote of %s on post %s: %w", creatorID, postID, err)
	}
	if !found {
		return nil, nil
	}
	return &voteType, nil
}

// FindPostVote loads creatorID's vote on postID, or nil when it does not exist.
func (s *Store) FindPostVote(ctx context.Context, q dbexec.Querier, creatorID, postID string) (*PostVote, error) {
	builder := sq.Select(sqlutil.Columns("", postVoteColumns...)...).
		From(sqlutil.QuoteIdentifier("post_votes")).
		Where(postVoteKey(creatorID, postID)).
		Limit(1).
		PlaceholderFormat(sq.Question)

	var (
		vote      PostVote
		updaterID sql.NullString
		updatedAt sql.NullTime
	)
	found, err := queryRow(ctx, q, builder,
		&vote.CreatorID, &vote.PostID, &vote.Type, &updaterID, &vote.CreatedAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("load vote of %s on post %s: %w", creatorID, postID, err)
	}
	if !found {
		return nil, nil
	}
	vote.UpdaterID = nullStringPtr(updaterID)
	vote.UpdatedAt = nullTimePtr(updatedAt)
	return &vote, nil
}

// PostVoteUpdate changes the type of an existing vote.
type PostVoteUpdate struct {
	CreatorID string
	PostID    string
	Type      string
	UpdaterID string
}

// UpdatePostVoteType sets the type and updater of the vote keyed by
// (CreatorID, PostID) and returns the row as stored afterwards. It returns
// nil when no vote matched, for example because it was deleted after the
// caller last read it.
func (s *Store) UpdatePostVoteType(ctx context.Context, q dbexec.Querier, u PostVoteUpdate) (*PostVote, error) {
	builder := sq.Update(sqlutil.QuoteIdentifier("post_votes")).
		Set(sqlutil.QuoteIdentifier("type"), u.Type).
		Set(sqlutil.QuoteIdentifier("updater_id"), u.UpdaterID).
		Set(sqlutil.QuoteIdentifier("updated_at"), s.timestamp()).
		Where(postVoteKey(u.CreatorID, u.PostID)).
		PlaceholderFormat(sq.Question)

	matched, err := exec(ctx, q, builder)
	if err != nil {
		return nil, fmt.Errorf("update vote of %s on post %s: %w", u.CreatorID, u.PostID, err)
	}
	if matched == 0 {
		return nil, nil
	}
	return s.FindPostVote(ctx, q, u.CreatorID, u.PostID)
}

// InsertPostVote creates a vote. A second vote by the same creator on the
// same post fails with a duplicate key error.
func (s *Store) InsertPostVote(ctx context.Context, q dbexec.Querier, creatorID, postID, voteType string) (*PostVote, error) {
	vote := PostVote{
		CreatorID: creatorID,
		PostID:    postID,
		Type:      voteType,
		CreatedAt: s.timestamp(),
	}
	builder := sq.Insert(sqlutil.QuoteIdentifier("post_votes")).
		Columns(sqlutil.Columns("", "creator_id", "post_id", "type", "created_at")...).
		Values(vote.CreatorID, vote.PostID, vote.Type, vote.CreatedAt).
		PlaceholderFormat(sq.Question)

	if _, err := exec(ctx, q, builder); err != nil {
		return nil, fmt.Errorf("insert vote of %s on post %s: %w", creatorID, postID, err)
	}
	return &vote, nil
}

// DeletePostVote removes the vote keyed by (creatorID, postID) and reports
// whether a row was deleted.
func (s *Store) DeletePostVote(ctx context.Context, q dbexec.Querier, creatorID, postID string) (bool, error) {
	builder := sq.Delete(sqlutil.QuoteIdentifier("post_votes")).
		Where(postVoteKey(creatorID, postID)).
		PlaceholderFormat(sq.Question)

	n, err := exec(ctx, q, builder)
	if err != nil {
		return false, fmt.Errorf("delete vote of %s on post %s: %w", creatorID, postID, err)
	}
	return n > 0, nil
}
