// SPDX-License-Identifier: Apache-2.0

// Package dialect implements the three SQL generators (C9): postgres,
// clickhouse, and trino (the federated dialect). All three render the same
// resolve.SqlParts IR, sharing the injection-safety primitives in
// internal/sqlsafe so the escaping contract can't drift between them.
// Grounded on pkg/migrations' op_*.go fmt.Sprintf-plus-pq.QuoteIdentifier
// assembly idiom, and pkg/state/state.go's const-template-with-verbs style
// for larger generated statements.
package dialect

import (
	"fmt"

	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/resolve"
)

// Output is a generator's result: SQL text plus the ordered parameter
// vector the placeholders in that text refer to.
type Output struct {
	SQL    string
	Params []any
}

// Generator renders a resolver IR into dialect-specific SQL text.
type Generator interface {
	Generate(parts *resolve.SqlParts, params []any) (*Output, error)
}

// For returns the generator for d.
func For(d catalog.Dialect) (Generator, error) {
	switch d {
	case catalog.DialectPostgres:
		return postgresGenerator{}, nil
	case catalog.DialectClickHouse:
		return clickhouseGenerator{}, nil
	case catalog.DialectTrino:
		return trinoGenerator{}, nil
	default:
		return nil, fmt.Errorf("dialect: unknown dialect %q", d)
	}
}
