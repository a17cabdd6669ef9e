// Package graphql serves the AI operations behind a single GraphQL endpoint.
// Queries are parsed and validated with gqlparser; each root mutation field is
// dispatched to the operation registry.
package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"

	"career-backend/internal/aiops"
	"career-backend/internal/materials"
)

// Runner executes one named operation with raw JSON arguments.
type Runner interface {
	Run(ctx context.Context, op string, args json.RawMessage) (any, error)
}

// MaterialReader loads archived material metadata.
type MaterialReader interface {
	Get(ctx context.Context, id string) (materials.Material, error)
}

// Request is a GraphQL-over-HTTP request body.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Response is a GraphQL result. Data is null when the request was rejected
// before execution.
type Response struct {
	Data   map[string]any `json:"data"`
	Errors []Error        `json:"errors,omitempty"`
}

// Error is one GraphQL error entry.
type Error struct {
	Message    string         `json:"message"`
	Path       []string       `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// ErrRejected is returned by Execute when the document fails to parse or
// validate, or names an operation it does not contain.
var ErrRejected = errors.New("graphql request rejected")

// Executor resolves documents against the generated schema.
type Executor struct {
	schema    *ast.Schema
	runner    Runner
	materials MaterialReader
}

// NewExecutor builds the schema and returns an executor. materials may be nil.
func NewExecutor(runner Runner, materials MaterialReader) (*Executor, error) {
	if runner == nil {
		return nil, errors.New("graphql: runner is required")
	}
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}
	return &Executor{schema: schema, runner: runner, materials: materials}, nil
}

// Execute runs the selected operation. Root fields are resolved in document
// order; a failing field is set to null and reported in Errors.
func (e *Executor) Execute(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return rejected("query is required"), ErrRejected
	}
	doc, errs := gqlparser.LoadQuery(e.schema, req.Query)
	if len(errs) > 0 {
		return Response{Errors: fromList(errs)}, ErrRejected
	}
	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		return rejected(fmt.Sprintf("operation %q not found", req.OperationName)), ErrRejected
	}
	if op.Operation == ast.Subscription {
		return rejected("subscriptions are not supported"), ErrRejected
	}
	vars, verr := validator.VariableValues(e.schema, op, req.Variables)
	if verr != nil {
		return rejected(verr.Error()), ErrRejected
	}

	resp := Response{Data: map[string]any{}}
	for _, f := range collectFields(op.SelectionSet) {
		key := f.Alias
		if key == "" {
			key = f.Name
		}
		val, err := e.resolve(ctx, op.Operation, f, vars)
		if err != nil {
			resp.Data[key] = nil
			resp.Errors = append(resp.Errors, fieldError(key, err))
			continue
		}
		resp.Data[key] = val
	}
	return resp, nil
}

func (e *Executor) resolve(ctx context.Context, kind ast.Operation, f *ast.Field, vars map[string]any) (any, error) {
	if f.Name == "__typename" {
		if kind == ast.Mutation {
			return "Mutation", nil
		}
		return "Query", nil
	}
	args := f.ArgumentMap(vars)

	if kind == ast.Mutation {
		raw, err := json.Marshal(args["input"])
		if err != nil {
			return nil, &aiops.InvalidInputError{Operation: f.Name, Field: "input", Err: err}
		}
		return e.runner.Run(ctx, f.Name, raw)
	}

	switch f.Name {
	case "operations":
		return aiops.Operations(), nil
	case "material":
		if e.materials == nil {
			return nil, materials.ErrNotFound
		}
		id, _ := args["id"].(string)
		return e.materials.Get(ctx, id)
	default:
		return nil, fmt.Errorf("field %s is not resolvable", f.Name)
	}
}

// collectFields flattens fragments into the root field list.
func collectFields(set ast.SelectionSet) []*ast.Field {
	var out []*ast.Field
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			out = append(out, s)
		case *ast.InlineFragment:
			out = append(out, collectFields(s.SelectionSet)...)
		case *ast.FragmentSpread:
			if s.Definition != nil {
				out = append(out, collectFields(s.Definition.SelectionSet)...)
			}
		}
	}
	return out
}

func fieldError(key string, err error) Error {
	status, code := aiops.StatusFor(err)
	if errors.Is(err, materials.ErrNotFound) {
		status, code = 404, "not_found"
	}
	message := err.Error()
	if status >= 500 && code == "internal_error" {
		message = "operation failed"
	}
	return Error{
		Message:    message,
		Path:       []string{key},
		Extensions: map[string]any{"code": code, "status": status},
	}
}

func rejected(message string) Response {
	return Response{Errors: []Error{{
		Message:    message,
		Extensions: map[string]any{"code": "graphql_validation_failed"},
	}}}
}

func fromList(list gqlerror.List) []Error {
	out := make([]Error, 0, len(list))
	for _, e := range list {
		out = append(out, Error{
			Message:    e.Message,
			Extensions: map[string]any{"code": "graphql_validation_failed"},
		})
	}
	return out
}
