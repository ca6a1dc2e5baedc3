package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
)

type graphQLRequest struct {
	Query         string `json:"query"`
	OperationName string `json:"operationName"`
}

// requestInfo is the parsed GraphQL operation of one HTTP request. It is
// computed once and shared by every middleware through the context.
type requestInfo struct {
	query         string
	operationName string

	// operation is nil when the body is not a GraphQL request, fails to
	// parse, or names an operation that is not in the document.
	operation *ast.OperationDefinition
	fragments map[string]*ast.FragmentDefinition
}

type requestInfoKey struct{}

// graphQLRequestInfo returns the parsed request, parsing at most once per
// request. The returned request carries the cached value in its context and
// a body that can still be read by the handler.
func graphQLRequestInfo(r *http.Request) (*http.Request, *requestInfo) {
	if info, ok := r.Context().Value(requestInfoKey{}).(*requestInfo); ok {
		return r, info
	}

	query, operationName := extractGraphQLRequest(r)
	info := &requestInfo{query: query, operationName: operationName}
	info.operation, info.fragments = selectOperation(query, operationName)

	ctx := context.WithValue(r.Context(), requestInfoKey{}, info)
	return r.WithContext(ctx), info
}

// operationType returns query, mutation or subscription, or "" when unknown.
func (i *requestInfo) operationType() string {
	if i == nil || i.operation == nil {
		return ""
	}
	return strings.TrimSpace(i.operation.Operation)
}

// depth returns the selection depth of the chosen operation.
func (i *requestInfo) depth() int {
	if i == nil || i.operation == nil {
		return 0
	}
	_, depth := countFieldsAndDepth(i.operation.SelectionSet, i.fragments, 1, map[string]bool{}, map[string]bool{})
	return depth
}

func extractGraphQLRequest(r *http.Request) (string, string) {
	if r.Method == http.MethodGet {
		return r.URL.Query().Get("query"), r.URL.Query().Get("operationName")
	}
	if r.Method != http.MethodPost || r.Body == nil {
		return "", ""
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", ""
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if strings.Contains(r.Header.Get("Content-Type"), "application/graphql") {
		return string(body), ""
	}

	var payload graphQLRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", ""
	}
	return payload.Query, payload.OperationName
}

func selectOperation(query, operationName string) (*ast.OperationDefinition, map[string]*ast.FragmentDefinition) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{
			Body: []byte(query),
			Name: "graphql",
		}),
	})
	if err != nil {
		return nil, nil
	}

	fragments := make(map[string]*ast.FragmentDefinition)
	var operations []*ast.OperationDefinition
	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.FragmentDefinition:
			fragments[d.Name.Value] = d
		case *ast.OperationDefinition:
			operations = append(operations, d)
		}
	}

	if operationName != "" {
		for _, op := range operations {
			if op.Name != nil && op.Name.Value == operationName {
				return op, fragments
			}
		}
		return nil, fragments
	}
	// Without a name only a single-operation document is unambiguous.
	if len(operations) == 1 {
		return operations[0], fragments
	}
	return nil, fragments
}

func countFieldsAndDepth(selectionSet *ast.SelectionSet, fragments map[string]*ast.FragmentDefinition, currentDepth int, visited, inFlight map[string]bool) (fields, maxDepth int) {
	if selectionSet == nil {
		return 0, currentDepth - 1
	}

	maxDepth = currentDepth
	merge := func(nestedFields, nestedDepth int) {
		fields += nestedFields
		if nestedDepth > maxDepth {
			maxDepth = nestedDepth
		}
	}

	for _, selection := range selectionSet.Selections {
		switch sel := selection.(type) {
		case *ast.Field:
			fields++
			if sel.SelectionSet != nil {
				merge(countFieldsAndDepth(sel.SelectionSet, fragments, currentDepth+1, visited, inFlight))
			}
		case *ast.InlineFragment:
			if sel.SelectionSet != nil {
				merge(countFieldsAndDepth(sel.SelectionSet, fragments, currentDepth, visited, inFlight))
			}
		case *ast.FragmentSpread:
			name := sel.Name.Value
			// Cyclic spreads are rejected by validation; skip them here.
			if inFlight[name] || visited[name] {
				continue
			}
			inFlight[name] = true
			visited[name] = true
			if frag, ok := fragments[name]; ok && frag.SelectionSet != nil {
				merge(countFieldsAndDepth(frag.SelectionSet, fragments, currentDepth, visited, inFlight))
			}
			delete(inFlight, name)
		}
	}

	return fields, maxDepth
}

// writeGraphQLError writes a GraphQL-shaped error body.
func writeGraphQLError(w http.ResponseWriter, status int, message, code string) {
	type gqlError struct {
		Message    string            `json:"message"`
		Extensions map[string]string `json:"extensions,omitempty"`
	}
	body := struct {
		Errors []gqlError `json:"errors"`
	}{Errors: []gqlError{{Message: message}}}
	if code != "" {
		body.Errors[0].Extensions = map[string]string{"code": code}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
