// Package resolver builds the GraphQL schema and resolves its operations
// against the store. Each operation runs the same pipeline: authenticate,
// validate arguments, look up related rows concurrently, authorize, write,
// then shape the response.
package resolver

import (
	"github.com/graphql-go/graphql"

	"talawa-graphql/internal/dbexec"
	"talawa-graphql/internal/inputs"
	"talawa-graphql/internal/store"
)

// Resolver resolves GraphQL operations.
type Resolver struct {
	executor dbexec.QueryExecutor
	store    *store.Store
}

// NewResolver creates a resolver that reads through executor and writes
// through the request's mutation transaction when one is present.
func NewResolver(executor dbexec.QueryExecutor, st *store.Store) *Resolver {
	if st == nil {
		st = store.New()
	}
	return &Resolver{
		executor: executor,
		store:    st,
	}
}

// BuildGraphQLSchema constructs the executable schema.
func (r *Resolver) BuildGraphQLSchema() (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"currentUser": &graphql.Field{
				Type:        userType,
				Description: "Query field to read the user of the current client.",
				Resolve:     r.resolveCurrentUser,
			},
			"post": &graphql.Field{
				Type:        postType,
				Description: "Query field to read a post.",
				Args:        inputArgs(inputs.QueryPostInput),
				Resolve:     r.resolvePost,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createUser": &graphql.Field{
				Type:        userType,
				Description: "Mutation field to create a user.",
				Args:        inputArgs(inputs.MutationCreateUserInput),
				Resolve:     r.resolveCreateUser,
			},
			"createPostVote": &graphql.Field{
				Type:        postType,
				Description: "Mutation field to create a post vote.",
				Args:        inputArgs(inputs.MutationCreatePostVoteInput),
				Resolve:     r.resolveCreatePostVote,
			},
			"updatePostVote": &graphql.Field{
				Type:        postType,
				Description: "Mutation field to update a post vote.",
				Args:        inputArgs(inputs.MutationUpdatePostVoteInput),
				Resolve:     r.resolveUpdatePostVote,
			},
			"deletePostVote": &graphql.Field{
				Type:        postType,
				Description: "Mutation field to delete a post vote.",
				Args:        inputArgs(inputs.MutationDeletePostVoteInput),
				Resolve:     r.resolveDeletePostVote,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

func inputArgs(input *graphql.InputObject) graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"input": &graphql.ArgumentConfig{
			Type: graphql.NewNonNull(input),
		},
	}
}
