package resolver

import (
	"context"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"go.opentelemetry.io/otel/attribute"

	"talawa-graphql/internal/apierror"
	"talawa-graphql/internal/authz"
	"talawa-graphql/internal/currentclient"
	"talawa-graphql/internal/dbexec"
	"talawa-graphql/internal/enums"
	"talawa-graphql/internal/inputs"
	"talawa-graphql/internal/scalars"
	"talawa-graphql/internal/sqlutil"
	"talawa-graphql/internal/store"
)

const emailTakenMessage = "This email address is already registered to another user."

// resolveCreateUser lets an administrator create a user on someone else's
// behalf. Only the avatar's generated name and mime type are recorded.
func (r *Resolver) resolveCreateUser(p graphql.ResolveParams) (result interface{}, err error) {
	const operation = "createUser"
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

	if issues := inputs.CreateUserSchema.ValidateArgument(p.Args, "input"); len(issues) > 0 {
		return nil, invalidArguments(issues)
	}
	input := inputObject(p.Args)

	email := stringField(input, "emailAddress")
	var (
		callerRole *string
		emailTaken bool
	)
	err = r.lookup(ctx,
		func(ctx context.Context, q dbexec.Querier) (err error) {
			callerRole, err = r.store.UserRole(ctx, q, client.UserID)
			return err
		},
		func(ctx context.Context, q dbexec.Querier) (err error) {
			emailTaken, err = r.store.EmailAddressExists(ctx, q, email)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	if callerRole == nil {
		return nil, apierror.Unauthenticated()
	}
	if !authz.IsAdministrator(*callerRole) {
		return nil, apierror.UnauthorizedAction()
	}
	if emailTaken {
		return nil, apierror.ForbiddenOnResources(emailTakenMessage, "input", "emailAddress")
	}

	avatar := uploadField(input, "avatar")
	if avatar != nil && !enums.AvatarMimeTypeValues.Contains(avatar.MimeType) {
		return nil, apierror.InvalidArguments([]apierror.Issue{{
			ArgumentPath: []any{"input", "avatar"},
			Message:      `Mime type "` + avatar.MimeType + `" is not allowed.`,
		}})
	}

	hash, err := store.HashPassword(stringField(input, "password"))
	if err != nil {
		return nil, apierror.Unexpected(err)
	}

	nu := store.NewUser{
		Fields:       make(map[string]interface{}, len(input)),
		PasswordHash: hash,
		CreatorID:    client.UserID,
	}
	for name, v := range input {
		if name == "avatar" || name == "password" {
			continue
		}
		nu.Fields[name] = v
	}
	if avatar != nil {
		name := uuid.NewString()
		mime := avatar.MimeType
		nu.AvatarName = &name
		nu.AvatarMimeType = &mime
	}

	if sp, err = beginFieldWrite(ctx); err != nil {
		return nil, err
	}
	user, err := r.store.InsertUser(ctx, r.writerForContext(ctx), nu)
	if sqlutil.IsDuplicateEntry(err) {
		return nil, apierror.ForbiddenOnResources(emailTakenMessage, "input", "emailAddress")
	}
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("talawa.user.id", user.ID()))
	return map[string]interface{}(user), nil
}

func uploadField(input map[string]interface{}, name string) *scalars.FileUpload {
	switch v := input[name].(type) {
	case *scalars.FileUpload:
		return v
	case scalars.FileUpload:
		return &v
	default:
		return nil
	}
}
