package graphql

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"career-backend/internal/aiops"
)

const queryType = `scalar JSON

type Query {
  "Registered AI operation names."
  operations: [String!]!
  "Metadata for an archived material."
  material(id: ID!): JSON
}
`

// SDL renders the schema: one mutation field per AI operation, each taking a
// free-form JSON input and returning the operation output as JSON.
func SDL() string {
	var b strings.Builder
	b.WriteString(queryType)
	b.WriteString("\ntype Mutation {\n")
	for _, op := range aiops.Operations() {
		fmt.Fprintf(&b, "  %s(input: JSON): JSON\n", op)
	}
	b.WriteString("}\n")
	return b.String()
}

func loadSchema() (*ast.Schema, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "career.graphql", Input: SDL()})
	if err != nil {
		return nil, fmt.Errorf("load graphql schema: %s", err.Error())
	}
	return schema, nil
}
