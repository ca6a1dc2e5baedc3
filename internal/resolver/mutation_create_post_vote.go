package resolver

import (
	"github.com/graphql-go/graphql"
	"go.opentelemetry.io/otel/attribute"

	"talawa-graphql/internal/apierror"
	"talawa-graphql/internal/authz"
	"talawa-graphql/internal/currentclient"
	"talawa-graphql/internal/inputs"
	"talawa-graphql/internal/sqlutil"
)

const alreadyVotedMessage = "This post has already been voted by you."

func (r *Resolver) resolveCreatePostVote(p graphql.ResolveParams) (result interface{}, err error) {
	const operation = "createPostVote"
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

	if issues := inputs.CreatePostVoteSchema.ValidateArgument(p.Args, "input"); len(issues) > 0 {
		return nil, invalidArguments(issues)
	}
	input := inputObject(p.Args)
	postID := stringField(input, "postId")
	span.SetAttributes(attribute.String("talawa.post.id", postID))

	found, err := r.lookupPost(ctx, client.UserID, postID, true)
	if err != nil {
		return nil, err
	}
	if found.callerRole == nil {
		return nil, apierror.Unauthenticated()
	}
	if found.post == nil {
		return nil, apierror.NotFound("input", "postId")
	}
	if found.voteType != nil {
		return nil, apierror.ForbiddenOnResources(alreadyVotedMessage, "input", "postId")
	}
	if !authz.CanActOnOrganizationResource(*found.callerRole, found.post.HasMembership()) {
		return nil, apierror.UnauthorizedOnResources("input", "postId")
	}

	if sp, err = beginFieldWrite(ctx); err != nil {
		return nil, err
	}
	_, err = r.store.InsertPostVote(ctx, r.writerForContext(ctx), client.UserID, postID, stringField(input, "type"))
	if sqlutil.IsDuplicateEntry(err) {
		return nil, apierror.ForbiddenOnResources(alreadyVotedMessage, "input", "postId")
	}
	if err != nil {
		return nil, err
	}

	return postPayload(found.post), nil
}
