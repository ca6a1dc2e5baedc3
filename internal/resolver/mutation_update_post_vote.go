package resolver

import (
	"github.com/graphql-go/graphql"
	"go.opentelemetry.io/otel/attribute"

	"talawa-graphql/internal/apierror"
	"talawa-graphql/internal/authz"
	"talawa-graphql/internal/currentclient"
	"talawa-graphql/internal/inputs"
	"talawa-graphql/internal/store"
)

// resolveUpdatePostVote changes the type of the caller's existing vote on a
// post. It never creates a vote.
func (r *Resolver) resolveUpdatePostVote(p graphql.ResolveParams) (result interface{}, err error) {
	const operation = "updatePostVote"
	ctx, span := startResolverSpan(p.Context, operation)
	var sp *fieldSavepoint
	defer func() {
		if err = finish(ctx, span, operation, sp.settle(ctx, err)); err != nil {
			result = nil
		}
	}()

	client := currentclient.FromContext(ctx)
	if !client.IsAuthenticated {
		return nil, apierror.Unauthenticated()
	}

	if issues := inputs.UpdatePostVoteSchema.ValidateArgument(p.Args, "input"); len(issues) > 0 {
		return nil, invalidArguments(issues)
	}
	input := inputObject(p.Args)
	postID := stringField(input, "postId")
	voteType := stringField(input, "type")
	span.SetAttributes(attribute.String("talawa.post.id", postID))

	found, err := r.lookupPost(ctx, client.UserID, postID, true)
	if err != nil {
		return nil, err
	}
	if found.callerRole == nil {
		return nil, apierror.Unauthenticated()
	}
	if found.post == nil || found.voteType == nil {
		return nil, apierror.NotFound("input", "postId")
	}
	if !authz.CanActOnOrganizationResource(*found.callerRole, found.post.HasMembership()) {
		return nil, apierror.UnauthorizedOnResources("input", "postId")
	}

	if sp, err = beginFieldWrite(ctx); err != nil {
		return nil, err
	}
	updated, err := r.store.UpdatePostVoteType(ctx, r.writerForContext(ctx), store.PostVoteUpdate{
		CreatorID: client.UserID,
		PostID:    postID,
		Type:      voteType,
		UpdaterID: client.UserID,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apierror.Unexpected(errVoteVanished)
	}

	return postPayload(found.post), nil
}
