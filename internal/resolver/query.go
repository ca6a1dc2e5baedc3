package resolver

import (
	"github.com/graphql-go/graphql"

	"talawa-graphql/internal/apierror"
	"talawa-graphql/internal/authz"
	"talawa-graphql/internal/currentclient"
	"talawa-graphql/internal/inputs"
)

func (r *Resolver) resolveCurrentUser(p graphql.ResolveParams) (result interface{}, err error) {
	const operation = "currentUser"
	ctx, span := startResolverSpan(p.Context, operation)
	defer func() {
		if err = finish(ctx, span, operation, err); err != nil {
			result = nil
		}
	}()

	client := currentclient.FromContext(ctx)
	if !client.IsAuthenticated {
		return nil, apierror.Unauthenticated()
	}

	user, err := r.store.FindUser(ctx, r.executor, client.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierror.Unauthenticated()
	}
	return map[string]interface{}(user), nil
}

func (r *Resolver) resolvePost(p graphql.ResolveParams) (result interface{}, err error) {
	const operation = "post"
	ctx, span := startResolverSpan(p.Context, operation)
	defer func() {
		if err = finish(ctx, span, operation, err); err != nil {
			result = nil
		}
	}()

	client := currentclient.FromContext(ctx)
	if !client.IsAuthenticated {
		return nil, apierror.Unauthenticated()
	}

	if issues := inputs.QueryPostSchema.ValidateArgument(p.Args, "input"); len(issues) > 0 {
		return nil, invalidArguments(issues)
	}
	postID := stringField(inputObject(p.Args), "id")

	found, err := r.lookupPost(ctx, client.UserID, postID, false)
	if err != nil {
		return nil, err
	}
	if found.callerRole == nil {
		return nil, apierror.Unauthenticated()
	}
	if found.post == nil {
		return nil, apierror.NotFound("input", "id")
	}
	if !authz.CanActOnOrganizationResource(*found.callerRole, found.post.HasMembership()) {
		return nil, apierror.UnauthorizedOnResources("input", "id")
	}

	return postPayload(found.post), nil
}
