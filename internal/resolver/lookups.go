package resolver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"talawa-graphql/internal/dbexec"
	"talawa-graphql/internal/store"
)

// read is one independent lookup against q.
type read func(ctx context.Context, q dbexec.Querier) error

// lookup runs independent reads. Outside a mutation transaction they run
// concurrently on the pool and the first failure cancels the rest. Inside one
// they run in order on the transaction, which is bound to a single
// connection, so they observe writes made by earlier fields of the request.
func (r *Resolver) lookup(ctx context.Context, reads ...read) error {
	if mc := MutationContextFromContext(ctx); mc != nil && mc.tx != nil {
		for _, rd := range reads {
			if err := rd(ctx, mc.tx); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, rd := range reads {
		g.Go(func() error { return rd(gctx, r.executor) })
	}
	return g.Wait()
}

// postLookup is the result of the reads shared by post-scoped operations.
// Nil fields mean the row does not exist.
type postLookup struct {
	callerRole *string
	post       *store.Post
	voteType   *string
}

// lookupPost reads the caller's role, the post with the caller's membership
// in its organization and, when withVote is set, the caller's vote on the
// post.
func (r *Resolver) lookupPost(ctx context.Context, callerID, postID string, withVote bool) (postLookup, error) {
	var l postLookup
	reads := []read{
		func(ctx context.Context, q dbexec.Querier) (err error) {
			l.callerRole, err = r.store.UserRole(ctx, q, callerID)
			return err
		},
		func(ctx context.Context, q dbexec.Querier) (err error) {
			l.post, err = r.store.FindPostForMember(ctx, q, postID, callerID)
			return err
		},
	}
	if withVote {
		reads = append(reads, func(ctx context.Context, q dbexec.Querier) (err error) {
			l.voteType, err = r.store.PostVoteType(ctx, q, callerID, postID)
			return err
		})
	}

	if err := r.lookup(ctx, reads...); err != nil {
		return postLookup{}, err
	}
	return l, nil
}
