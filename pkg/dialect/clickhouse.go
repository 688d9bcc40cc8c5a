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

const chQuote = '`'

type clickhouseGenerator struct{}

func (clickhouseGenerator) Generate(parts *resolve.SqlParts, params []any) (*Output, error) {
	out := append([]any(nil), params...)
	var b strings.Builder

	if err := chSelect(&b, parts); err != nil {
		return nil, err
	}

	fmt.Fprintf(&b, " FROM %s AS %s", quotePhysical(chQuote, parts.From.PhysicalName), sqlsafe.QuoteIdent(chQuote, parts.From.Alias))

	for _, j := range parts.Joins {
		fmt.Fprintf(&b, " %s %s AS %s ON %s = %s", joinKeyword(string(j.Type)),
			quotePhysical(chQuote, j.Table.PhysicalName), sqlsafe.QuoteIdent(chQuote, j.Table.Alias),
			qualifyRef(chQuote, j.LeftColumn), qualifyRef(chQuote, j.RightColumn))
		if j.Where != nil {
			b.WriteString(" AND ")
			if err := chRenderNode(&b, j.Where, out); err != nil {
				return nil, err
			}
		}
	}

	if parts.Where != nil {
		b.WriteString(" WHERE ")
		if err := chRenderNode(&b, parts.Where, out); err != nil {
			return nil, err
		}
	}

	if len(parts.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(renderGroupBy(chQuote, parts.GroupBy))
	}

	if parts.Having != nil {
		b.WriteString(" HAVING ")
		if err := chRenderNode(&b, parts.Having, out); err != nil {
			return nil, err
		}
	}

	if len(parts.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(renderOrderBy(chQuote, parts.OrderBy))
	}

	b.WriteString(renderLimitOffset(parts.Limit, parts.Offset))

	return &Output{SQL: b.String(), Params: out}, nil
}

// chSelect emits the column's bare physical name quoted with backticks,
// without the table-provenance alias PG and Trino use.
func chSelect(b *strings.Builder, parts *resolve.SqlParts) error {
	b.WriteString("SELECT ")
	if parts.Distinct {
		b.WriteString("DISTINCT ")
	}

	var items []string
	for _, c := range parts.Select {
		items = append(items, fmt.Sprintf("%s AS %s", qualifyRef(chQuote, c), sqlsafe.QuoteIdent(chQuote, c.PhysicalName)))
	}
	for _, a := range parts.Aggregations {
		if !sqlsafe.IsValidAggFn(a.Fn) {
			return fmt.Errorf("dialect: unknown aggregation function %q", a.Fn)
		}
		col := "*"
		if a.Column != "*" {
			col = qualify(chQuote, a.Table, a.Column)
		}
		items = append(items, fmt.Sprintf("%s(%s) AS %s", strings.ToUpper(a.Fn), col, sqlsafe.QuoteIdent(chQuote, a.Alias)))
	}
	if len(items) == 0 {
		items = []string{"*"}
	}
	b.WriteString(strings.Join(items, ", "))
	return nil
}

func chPlaceholder(idx int, t catalog.ColumnType) string {
	return fmt.Sprintf("{p%d:%s}", idx+1, chTypeName(t))
}

func chTypeName(t catalog.ColumnType) string {
	if t.IsArray() {
		return "Array(" + chScalarType(t.ElementType()) + ")"
	}
	return chScalarType(t)
}

func chScalarType(t catalog.ColumnType) string {
	switch t {
	case catalog.TypeUUID:
		return "UUID"
	case catalog.TypeString:
		return "String"
	case catalog.TypeInt:
		return "Int64"
	case catalog.TypeDecimal:
		return "Float64"
	case catalog.TypeBoolean:
		return "Bool"
	case catalog.TypeDate:
		return "Date"
	case catalog.TypeTimestamp:
		return "DateTime"
	default:
		return "String"
	}
}

func chRenderNode(b *strings.Builder, n *resolve.Node, params []any) error {
	switch n.Kind {
	case resolve.KindGroup:
		return chRenderGroup(b, n, params)
	case resolve.KindExists:
		return chRenderExists(b, n, params)
	case resolve.KindCounted:
		return chRenderCounted(b, n, params)
	case resolve.KindColumnCompare:
		fmt.Fprintf(b, "%s %s %s", qualifyRef(chQuote, n.Left), n.Op, qualifyRef(chQuote, n.Right))
		return nil
	case resolve.KindFunction:
		return chRenderFunction(b, n)
	case resolve.KindBetween:
		op := "BETWEEN"
		if n.Not {
			op = "NOT BETWEEN"
		}
		fmt.Fprintf(b, "%s %s %s AND %s", qualifyRef(chQuote, n.Col), op, chPlaceholder(n.FromIdx, n.ColumnType), chPlaceholder(n.ToIdx, n.ColumnType))
		return nil
	case resolve.KindArray:
		return chRenderArray(b, n)
	case resolve.KindSimple:
		return chRenderSimple(b, n, params)
	default:
		return fmt.Errorf("dialect: unknown node kind %q", n.Kind)
	}
}

func chRenderGroup(b *strings.Builder, n *resolve.Node, params []any) error {
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
		if err := chRenderNode(b, &n.Children[i], params); err != nil {
			return err
		}
	}
	b.WriteString(")")
	return nil
}

func chRenderExists(b *strings.Builder, n *resolve.Node, params []any) error {
	if n.Not {
		b.WriteString("NOT ")
	}
	b.WriteString("EXISTS (SELECT 1 FROM ")
	fmt.Fprintf(b, "%s", quotePhysical(chQuote, n.Subquery.From.PhysicalName))
	if n.Subquery.Where != nil {
		b.WriteString(" WHERE ")
		if err := chRenderNode(b, n.Subquery.Where, params); err != nil {
			return err
		}
	}
	b.WriteString(")")
	return nil
}

func chRenderCounted(b *strings.Builder, n *resolve.Node, params []any) error {
	limit := ""
	if n.CountLimit != nil {
		limit = fmt.Sprintf(" LIMIT %d", *n.CountLimit)
	}
	fmt.Fprintf(b, "(SELECT COUNT(*) FROM %s", quotePhysical(chQuote, n.Subquery.From.PhysicalName))
	if n.Subquery.Where != nil {
		b.WriteString(" WHERE ")
		if err := chRenderNode(b, n.Subquery.Where, params); err != nil {
			return err
		}
	}
	fmt.Fprintf(b, "%s) %s %s", limit, n.CountOp, chPlaceholder(*n.CountValue, catalog.TypeInt))
	return nil
}

func chRenderFunction(b *strings.Builder, n *resolve.Node) error {
	if !sqlsafe.IsValidWhereFn(n.Fn) {
		return fmt.Errorf("dialect: unknown where function %q", n.Fn)
	}
	fmt.Fprintf(b, "editDistance(%s, %s) <= %s", qualifyRef(chQuote, n.Col), chPlaceholder(*n.ArgIdx, catalog.TypeString), chPlaceholder(*n.CmpIdx, catalog.TypeInt))
	return nil
}

func chRenderArray(b *strings.Builder, n *resolve.Node) error {
	col := qualifyRef(chQuote, n.Col)
	arrType := catalog.ColumnType(string(n.ElemType) + "[]")
	switch n.Op {
	case query.OpArrayContains:
		fmt.Fprintf(b, "has(%s, %s)", col, chPlaceholder(*n.ArgIdx, n.ElemType))
	case query.OpArrayContainsAll:
		fmt.Fprintf(b, "hasAll(%s, %s)", col, chPlaceholder(*n.ArgIdx, arrType))
	case query.OpArrayContainsAny:
		fmt.Fprintf(b, "hasAny(%s, %s)", col, chPlaceholder(*n.ArgIdx, arrType))
	case query.OpArrayIsEmpty:
		fmt.Fprintf(b, "empty(%s)", col)
	case query.OpArrayIsNotEmpty:
		fmt.Fprintf(b, "notEmpty(%s)", col)
	default:
		return fmt.Errorf("dialect: unsupported array operator %q", n.Op)
	}
	return nil
}

func chRenderSimple(b *strings.Builder, n *resolve.Node, params []any) error {
	if n.AggFn != "" {
		if !sqlsafe.IsValidAggFn(n.AggFn) {
			return fmt.Errorf("dialect: unknown aggregation function %q", n.AggFn)
		}
		col := "*"
		if n.AggColumn != "*" {
			col = qualify(chQuote, n.AggTable, n.AggColumn)
		}
		fmt.Fprintf(b, "%s(%s) %s %s", strings.ToUpper(n.AggFn), col, n.Op, chPlaceholder(*n.ParamIdx, catalog.TypeDecimal))
		return nil
	}

	col := qualifyRef(chQuote, n.Col)
	switch n.Op {
	case query.OpIsNull:
		fmt.Fprintf(b, "isNull(%s)", col)
	case query.OpIsNotNull:
		fmt.Fprintf(b, "isNotNull(%s)", col)
	case query.OpIn:
		fmt.Fprintf(b, "%s IN %s", col, chPlaceholder(*n.ParamIdx, catalog.ColumnType(string(n.ColumnType)+"[]")))
	case query.OpNotIn:
		fmt.Fprintf(b, "%s NOT IN %s", col, chPlaceholder(*n.ParamIdx, catalog.ColumnType(string(n.ColumnType)+"[]")))
	case query.OpLike:
		fmt.Fprintf(b, "%s LIKE %s", col, chPlaceholder(*n.ParamIdx, catalog.TypeString))
	case query.OpNotLike:
		fmt.Fprintf(b, "%s NOT LIKE %s", col, chPlaceholder(*n.ParamIdx, catalog.TypeString))
	case query.OpILike:
		fmt.Fprintf(b, "ilike(%s, %s)", col, chPlaceholder(*n.ParamIdx, catalog.TypeString))
	case query.OpNotILike:
		fmt.Fprintf(b, "NOT ilike(%s, %s)", col, chPlaceholder(*n.ParamIdx, catalog.TypeString))
	case query.OpStartsWith:
		fmt.Fprintf(b, "startsWith(%s, %s)", col, chPlaceholder(*n.ParamIdx, catalog.TypeString))
	case query.OpEndsWith:
		fmt.Fprintf(b, "endsWith(%s, %s)", col, chPlaceholder(*n.ParamIdx, catalog.TypeString))
	case query.OpIStartsWith:
		fmt.Fprintf(b, "startsWith(lower(%s), lower(%s))", col, chPlaceholder(*n.ParamIdx, catalog.TypeString))
	case query.OpIEndsWith:
		fmt.Fprintf(b, "endsWith(lower(%s), lower(%s))", col, chPlaceholder(*n.ParamIdx, catalog.TypeString))
	case query.OpContains:
		params[*n.ParamIdx] = chWrapContains(params[*n.ParamIdx])
		fmt.Fprintf(b, "%s LIKE %s", col, chPlaceholder(*n.ParamIdx, catalog.TypeString))
	case query.OpNotContains:
		params[*n.ParamIdx] = chWrapContains(params[*n.ParamIdx])
		fmt.Fprintf(b, "%s NOT LIKE %s", col, chPlaceholder(*n.ParamIdx, catalog.TypeString))
	case query.OpIContains:
		params[*n.ParamIdx] = chWrapContains(params[*n.ParamIdx])
		fmt.Fprintf(b, "ilike(%s, %s)", col, chPlaceholder(*n.ParamIdx, catalog.TypeString))
	case query.OpNotIContains:
		params[*n.ParamIdx] = chWrapContains(params[*n.ParamIdx])
		fmt.Fprintf(b, "NOT ilike(%s, %s)", col, chPlaceholder(*n.ParamIdx, catalog.TypeString))
	default:
		fmt.Fprintf(b, "%s %s %s", col, n.Op, chPlaceholder(*n.ParamIdx, n.ColumnType))
	}
	return nil
}

func chWrapContains(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return "%" + sqlsafe.EscapeLikePattern(s) + "%"
}
