package resolver

import (
	"github.com/graphql-go/graphql"
	"go.opentelemetry.io/otel/attribute"

	"talawa-graphql/internal/apierror"
	"talawa-graphql/internal/authz"
	"talawa-graphql/internal/currentclient"
	"talawa-graphql/internal/inputs"
)

func (r *Resolver) resolveDeletePostVote(p graphql.ResolveParams) (result interface{}, err error) {
	const operation = "deletePostVote"
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

	if issues := inputs.DeletePostVoteSchema.ValidateArgument(p.Args, "input"); len(issues) > 0 {
		return nil, invalidArguments(issues)
	}
	postID := stringField(inputObject(p.Args), "postId")
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
	deleted, err := r.store.DeletePostVote(ctx, r.writerForContext(ctx), client.UserID, postID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, apierror.Unexpected(errNothingDeleted)
	}

	return postPayload(found.post), nil
}
