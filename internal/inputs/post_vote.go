package inputs

import (
	"talawa-graphql/internal/enums"
	"talawa-graphql/internal/validation"

	"github.com/graphql-go/graphql"
)

var (
	postIDField = validation.Field{
		Name:        "postId",
		Kind:        validation.KindUUID,
		Required:    true,
		Type:        graphql.ID,
		Description: "Global identifier of the post voted on.",
	}
	postVoteTypeField = validation.Field{
		Name:        "type",
		Kind:        validation.KindEnum,
		Required:    true,
		Enum:        enums.PostVoteTypeValues,
		Type:        enums.PostVoteType,
		Description: "Type of the post vote.",
	}
)

// UpdatePostVoteSchema validates the input of updatePostVote.
var UpdatePostVoteSchema = validation.NewSchema(postIDField, postVoteTypeField)

// MutationUpdatePostVoteInput is the input of the updatePostVote mutation.
var MutationUpdatePostVoteInput = UpdatePostVoteSchema.InputObject("MutationUpdatePostVoteInput", "")

// CreatePostVoteSchema validates the input of createPostVote.
var CreatePostVoteSchema = validation.NewSchema(postIDField, postVoteTypeField)

// MutationCreatePostVoteInput is the input of the createPostVote mutation.
var MutationCreatePostVoteInput = CreatePostVoteSchema.InputObject("MutationCreatePostVoteInput", "")

// DeletePostVoteSchema validates the input of deletePostVote.
var DeletePostVoteSchema = validation.NewSchema(postIDField)

// MutationDeletePostVoteInput is the input of the deletePostVote mutation.
var MutationDeletePostVoteInput = DeletePostVoteSchema.InputObject("MutationDeletePostVoteInput", "")

// QueryPostSchema validates the input of the post query.
var QueryPostSchema = validation.NewSchema(validation.Field{
	Name:        "id",
	Kind:        validation.KindUUID,
	Required:    true,
	Type:        graphql.ID,
	Description: "Global id of the post.",
})

// QueryPostInput is the input of the post query.
var QueryPostInput = QueryPostSchema.InputObject("QueryPostInput", "")
