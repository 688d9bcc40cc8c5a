// SPDX-License-Identifier: Apache-2.0

package dialect

import (
	"fmt"
	"strings"

	"github.com/querygateway/gateway/internal/sqlsafe"
	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/query"
	"github.com/querygateway/gateway/pkg/resolve"
)

const pgQuote = '"'

type postgresGenerator struct{}

func (postgresGenerator) Generate(parts *resolve.SqlParts, params []any) (*Output, error) {
	out := append([]any(nil), params...)
	var b strings.Builder

	if err := pgSelect(&b, parts); err != nil {
		return nil, err
	}

	fmt.Fprintf(&b, " FROM %s AS %s", quotePhysical(pgQuote, parts.From.PhysicalName), sqlsafe.QuoteIdent(pgQuote, parts.From.Alias))

	for _, j := range parts.Joins {
		fmt.Fprintf(&b, " %s %s AS %s ON %s = %s", joinKeyword(string(j.Type)),
			quotePhysical(pgQuote, j.Table.PhysicalName), sqlsafe.QuoteIdent(pgQuote, j.Table.Alias),
			qualifyRef(pgQuote, j.LeftColumn), qualifyRef(pgQuote, j.RightColumn))
		if j.Where != nil {
			b.WriteString(" AND ")
			if err := pgRenderNode(&b, j.Where, out); err != nil {
				return nil, err
			}
		}
	}

	if parts.Where != nil {
		b.WriteString(" WHERE ")
		if err := pgRenderNode(&b, parts.Where, out); err != nil {
			return nil, err
		}
	}

	if len(parts.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(renderGroupBy(pgQuote, parts.GroupBy))
	}

	if parts.Having != nil {
		b.WriteString(" HAVING ")
		if err := pgRenderNode(&b, parts.Having, out); err != nil {
			return nil, err
		}
	}

	if len(parts.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(renderOrderBy(pgQuote, parts.OrderBy))
	}

	b.WriteString(renderLimitOffset(parts.Limit, parts.Offset))

	return &Output{SQL: b.String(), Params: out}, nil
}

func pgSelect(b *strings.Builder, parts *resolve.SqlParts) error {
	b.WriteString("SELECT ")
	if parts.Distinct {
		b.WriteString("DISTINCT ")
	}

	var items []string
	for _, c := range parts.Select {
		alias := fmt.Sprintf("%s__%s", c.Table, c.OutputName)
		items = append(items, fmt.Sprintf("%s AS %s", qualifyRef(pgQuote, c), sqlsafe.QuoteIdent(pgQuote, alias)))
	}
	for _, a := range parts.Aggregations {
		if !sqlsafe.IsValidAggFn(a.Fn) {
			return fmt.Errorf("dialect: unknown aggregation function %q", a.Fn)
		}
		col := "*"
		if a.Column != "*" {
			col = qualify(pgQuote, a.Table, a.Column)
		}
		items = append(items, fmt.Sprintf("%s(%s) AS %s", strings.ToUpper(a.Fn), col, sqlsafe.QuoteIdent(pgQuote, a.Alias)))
	}
	if len(items) == 0 {
		items = []string{"*"}
	}
	b.WriteString(strings.Join(items, ", "))
	return nil
}

func pgPlaceholder(idx int) string { return fmt.Sprintf("$%d", idx+1) }

func pgTypeName(t catalog.ColumnType) string {
	switch t.ElementType() {
	case catalog.TypeUUID:
		return "uuid"
	case catalog.TypeString:
		return "text"
	case catalog.TypeInt:
		return "integer"
	case catalog.TypeDecimal:
		return "numeric"
	case catalog.TypeBoolean:
		return "boolean"
	case catalog.TypeDate:
		return "date"
	case catalog.TypeTimestamp:
		return "timestamptz"
	default:
		return "text"
	}
}

func pgRenderNode(b *strings.Builder, n *resolve.Node, params []any) error {
	switch n.Kind {
	case resolve.KindGroup:
		return pgRenderGroup(b, n, params)
	case resolve.KindExists:
		return pgRenderExists(b, n, params)
	case resolve.KindCounted:
		return pgRenderCounted(b, n, params)
	case resolve.KindColumnCompare:
		fmt.Fprintf(b, "%s %s %s", qualifyRef(pgQuote, n.Left), n.Op, qualifyRef(pgQuote, n.Right))
		return nil
	case resolve.KindFunction:
		return pgRenderFunction(b, n)
	case resolve.KindBetween:
		op := "BETWEEN"
		if n.Not {
			op = "NOT BETWEEN"
		}
		fmt.Fprintf(b, "%s %s %s AND %s", qualifyRef(pgQuote, n.Col), op, pgPlaceholder(n.FromIdx), pgPlaceholder(n.ToIdx))
		return nil
	case resolve.KindArray:
		return pgRenderArray(b, n)
	case resolve.KindSimple:
		return pgRenderSimple(b, n, params)
	default:
		return fmt.Errorf("dialect: unknown node kind %q", n.Kind)
	}
}

func pgRenderGroup(b *strings.Builder, n *resolve.Node, params []any) error {
	sep := " AND "
	if n.Logic == query.LogicOr {
		sep = " OR "
	}
	if n.Not {
		b.WriteString("NOT ")
	}
	b.WriteString("(")
	for i := range n.Children {
		if i > 0 {
			b.WriteString(sep)
		}
		if err := pgRenderNode(b, &n.Children[i], params); err != nil {
			return err
		}
	}
	b.WriteString(")")
	return nil
}

func pgRenderExists(b *strings.Builder, n *resolve.Node, params []any) error {
	if n.Not {
		b.WriteString("NOT ")
	}
	b.WriteString("EXISTS (")
	if err := pgSubquery(b, n.Subquery, params); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func pgRenderCounted(b *strings.Builder, n *resolve.Node, params []any) error {
	if n.CountLimit != nil {
		fmt.Fprintf(b, "(SELECT COUNT(*) FROM (SELECT 1 FROM %s", quotePhysical(pgQuote, n.Subquery.From.PhysicalName))
		if n.Subquery.Where != nil {
			b.WriteString(" WHERE ")
			if err := pgRenderNode(b, n.Subquery.Where, params); err != nil {
				return err
			}
		}
		fmt.Fprintf(b, " LIMIT %d) %s) %s %s", *n.CountLimit, sqlsafe.QuoteIdent(pgQuote, n.ExistsAlias+"_lim"), n.CountOp, pgPlaceholder(*n.CountValue))
		return nil
	}
	b.WriteString("(SELECT COUNT(*) FROM ")
	if err := pgSubqueryBody(b, n.Subquery, params); err != nil {
		return err
	}
	fmt.Fprintf(b, ") %s %s", n.CountOp, pgPlaceholder(*n.CountValue))
	return nil
}

func pgSubqueryBody(b *strings.Builder, sub *resolve.SqlParts, params []any) error {
	fmt.Fprintf(b, "%s", quotePhysical(pgQuote, sub.From.PhysicalName))
	if sub.Where != nil {
		b.WriteString(" WHERE ")
		return pgRenderNode(b, sub.Where, params)
	}
	return nil
}

func pgSubquery(b *strings.Builder, sub *resolve.SqlParts, params []any) error {
	fmt.Fprintf(b, "SELECT 1 FROM ")
	return pgSubqueryBody(b, sub, params)
}

func pgRenderFunction(b *strings.Builder, n *resolve.Node) error {
	if !sqlsafe.IsValidWhereFn(n.Fn) {
		return fmt.Errorf("dialect: unknown where function %q", n.Fn)
	}
	fmt.Fprintf(b, "%s(%s, %s) <= %s", n.Fn, qualifyRef(pgQuote, n.Col), pgPlaceholder(*n.ArgIdx), pgPlaceholder(*n.CmpIdx))
	return nil
}

func pgRenderArray(b *strings.Builder, n *resolve.Node) error {
	col := qualifyRef(pgQuote, n.Col)
	switch n.Op {
	case query.OpArrayContains:
		fmt.Fprintf(b, "%s::%s = ANY(%s)", pgPlaceholder(*n.ArgIdx), pgTypeName(n.ElemType), col)
	case query.OpArrayContainsAll:
		fmt.Fprintf(b, "%s @> %s::%s[]", col, pgPlaceholder(*n.ArgIdx), pgTypeName(n.ElemType))
	case query.OpArrayContainsAny:
		fmt.Fprintf(b, "%s && %s::%s[]", col, pgPlaceholder(*n.ArgIdx), pgTypeName(n.ElemType))
	case query.OpArrayIsEmpty:
		fmt.Fprintf(b, "cardinality(%s) = 0", col)
	case query.OpArrayIsNotEmpty:
		fmt.Fprintf(b, "cardinality(%s) > 0", col)
	default:
		return fmt.Errorf("dialect: unsupported array operator %q", n.Op)
	}
	return nil
}

func pgRenderSimple(b *strings.Builder, n *resolve.Node, params []any) error {
	if n.AggFn != "" {
		if !sqlsafe.IsValidAggFn(n.AggFn) {
			return fmt.Errorf("dialect: unknown aggregation function %q", n.AggFn)
		}
		col := "*"
		if n.AggColumn != "*" {
			col = qualify(pgQuote, n.AggTable, n.AggColumn)
		}
		fmt.Fprintf(b, "%s(%s) %s %s", strings.ToUpper(n.AggFn), col, n.Op, pgPlaceholder(*n.ParamIdx))
		return nil
	}

	col := qualifyRef(pgQuote, n.Col)
	switch n.Op {
	case query.OpIsNull:
		fmt.Fprintf(b, "%s IS NULL", col)
	case query.OpIsNotNull:
		fmt.Fprintf(b, "%s IS NOT NULL", col)
	case query.OpIn:
		fmt.Fprintf(b, "%s = ANY(%s::%s[])", col, pgPlaceholder(*n.ParamIdx), pgTypeName(n.ColumnType))
	case query.OpNotIn:
		fmt.Fprintf(b, "%s <> ALL(%s::%s[])", col, pgPlaceholder(*n.ParamIdx), pgTypeName(n.ColumnType))
	case query.OpLike:
		fmt.Fprintf(b, "%s LIKE %s", col, pgPlaceholder(*n.ParamIdx))
	case query.OpNotLike:
		fmt.Fprintf(b, "%s NOT LIKE %s", col, pgPlaceholder(*n.ParamIdx))
	case query.OpILike:
		fmt.Fprintf(b, "%s ILIKE %s", col, pgPlaceholder(*n.ParamIdx))
	case query.OpNotILike:
		fmt.Fprintf(b, "%s NOT ILIKE %s", col, pgPlaceholder(*n.ParamIdx))
	case query.OpStartsWith, query.OpEndsWith, query.OpIStartsWith, query.OpIEndsWith,
		query.OpContains, query.OpNotContains, query.OpIContains, query.OpNotIContains:
		params[*n.ParamIdx] = pgWrapLikePattern(n.Op, params[*n.ParamIdx])
		fmt.Fprintf(b, "%s %s %s", col, pgLikeKeyword(n.Op), pgPlaceholder(*n.ParamIdx))
	default:
		fmt.Fprintf(b, "%s %s %s", col, n.Op, pgPlaceholder(*n.ParamIdx))
	}
	return nil
}

func pgLikeKeyword(op query.Operator) string {
	switch op {
	case query.OpIStartsWith, query.OpIEndsWith, query.OpIContains:
		return "ILIKE"
	case query.OpNotIContains:
		return "NOT ILIKE"
	case query.OpNotContains:
		return "NOT LIKE"
	default:
		return "LIKE"
	}
}

func pgWrapLikePattern(op query.Operator, v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	escaped := sqlsafe.EscapeLikePattern(s)
	switch op {
	case query.OpStartsWith, query.OpIStartsWith:
		return escaped + "%"
	case query.OpEndsWith, query.OpIEndsWith:
		return "%" + escaped
	default:
		return "%" + escaped + "%"
	}
}
