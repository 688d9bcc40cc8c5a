// SPDX-License-Identifier: Apache-2.0

package dialect

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/querygateway/gateway/internal/sqlsafe"
	"github.com/querygateway/gateway/pkg/query"
	"github.com/querygateway/gateway/pkg/resolve"
)

const trinoQuote = '"'

// trinoGenerator targets the federated engine used for cross-database
// queries (strategy P3). Unlike postgres/clickhouse's numbered
// placeholders, the driver this engine speaks uses unnumbered positional
// "?" markers, so params are accumulated in render order rather than
// looked up by a pre-assigned index -- this is also what lets the `in`/
// `notIn` operators expand a single IR parameter slot into one "?" per
// array element without any index renumbering elsewhere in the tree.
type trinoGenerator struct{}

type trinoState struct {
	orig []any
	out  []any
}

func (g trinoGenerator) Generate(parts *resolve.SqlParts, params []any) (*Output, error) {
	st := &trinoState{orig: params}
	var b strings.Builder

	if err := trinoSelect(&b, parts); err != nil {
		return nil, err
	}

	fmt.Fprintf(&b, " FROM %s AS %s", quotePhysical(trinoQuote, parts.From.PhysicalName), sqlsafe.QuoteIdent(trinoQuote, parts.From.Alias))

	for _, j := range parts.Joins {
		fmt.Fprintf(&b, " %s %s AS %s ON %s = %s", joinKeyword(string(j.Type)),
			quotePhysical(trinoQuote, j.Table.PhysicalName), sqlsafe.QuoteIdent(trinoQuote, j.Table.Alias),
			qualifyRef(trinoQuote, j.LeftColumn), qualifyRef(trinoQuote, j.RightColumn))
		if j.Where != nil {
			b.WriteString(" AND ")
			if err := trinoRenderNode(&b, j.Where, st); err != nil {
				return nil, err
			}
		}
	}

	if parts.Where != nil {
		b.WriteString(" WHERE ")
		if err := trinoRenderNode(&b, parts.Where, st); err != nil {
			return nil, err
		}
	}

	if len(parts.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(renderGroupBy(trinoQuote, parts.GroupBy))
	}

	if parts.Having != nil {
		b.WriteString(" HAVING ")
		if err := trinoRenderNode(&b, parts.Having, st); err != nil {
			return nil, err
		}
	}

	if len(parts.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(renderOrderBy(trinoQuote, parts.OrderBy))
	}

	b.WriteString(renderLimitOffset(parts.Limit, parts.Offset))

	return &Output{SQL: b.String(), Params: st.out}, nil
}

func trinoSelect(b *strings.Builder, parts *resolve.SqlParts) error {
	b.WriteString("SELECT ")
	if parts.Distinct {
		b.WriteString("DISTINCT ")
	}

	var items []string
	for _, c := range parts.Select {
		alias := fmt.Sprintf("%s__%s", c.Table, c.OutputName)
		items = append(items, fmt.Sprintf("%s AS %s", qualifyRef(trinoQuote, c), sqlsafe.QuoteIdent(trinoQuote, alias)))
	}
	for _, a := range parts.Aggregations {
		if !sqlsafe.IsValidAggFn(a.Fn) {
			return fmt.Errorf("dialect: unknown aggregation function %q", a.Fn)
		}
		col := "*"
		if a.Column != "*" {
			col = qualify(trinoQuote, a.Table, a.Column)
		}
		items = append(items, fmt.Sprintf("%s(%s) AS %s", strings.ToUpper(a.Fn), col, sqlsafe.QuoteIdent(trinoQuote, a.Alias)))
	}
	if len(items) == 0 {
		items = []string{"*"}
	}
	b.WriteString(strings.Join(items, ", "))
	return nil
}

// emit appends the single value at orig[idx] and writes one "?".
func (st *trinoState) emit(b *strings.Builder, idx int) {
	st.out = append(st.out, st.orig[idx])
	b.WriteString("?")
}

// emitList expands the slice value at orig[idx] into one "?" per element.
func (st *trinoState) emitList(b *strings.Builder, idx int) {
	v := reflect.ValueOf(st.orig[idx])
	if v.Kind() != reflect.Slice {
		st.emit(b, idx)
		return
	}
	n := v.Len()
	if n == 0 {
		b.WriteString("NULL")
		return
	}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		st.out = append(st.out, v.Index(i).Interface())
		b.WriteString("?")
	}
}

func trinoRenderNode(b *strings.Builder, n *resolve.Node, st *trinoState) error {
	switch n.Kind {
	case resolve.KindGroup:
		return trinoRenderGroup(b, n, st)
	case resolve.KindExists:
		return trinoRenderExists(b, n, st)
	case resolve.KindCounted:
		return trinoRenderCounted(b, n, st)
	case resolve.KindColumnCompare:
		fmt.Fprintf(b, "%s %s %s", qualifyRef(trinoQuote, n.Left), n.Op, qualifyRef(trinoQuote, n.Right))
		return nil
	case resolve.KindFunction:
		return trinoRenderFunction(b, n, st)
	case resolve.KindBetween:
		op := "BETWEEN"
		if n.Not {
			op = "NOT BETWEEN"
		}
		b.WriteString(qualifyRef(trinoQuote, n.Col))
		fmt.Fprintf(b, " %s ", op)
		st.emit(b, n.FromIdx)
		b.WriteString(" AND ")
		st.emit(b, n.ToIdx)
		return nil
	case resolve.KindArray:
		return trinoRenderArray(b, n, st)
	case resolve.KindSimple:
		return trinoRenderSimple(b, n, st)
	default:
		return fmt.Errorf("dialect: unknown node kind %q", n.Kind)
	}
}

func trinoRenderGroup(b *strings.Builder, n *resolve.Node, st *trinoState) error {
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
		if err := trinoRenderNode(b, &n.Children[i], st); err != nil {
			return err
		}
	}
	b.WriteString(")")
	return nil
}

func trinoRenderExists(b *strings.Builder, n *resolve.Node, st *trinoState) error {
	if n.Not {
		b.WriteString("NOT ")
	}
	b.WriteString("EXISTS (SELECT 1 FROM ")
	b.WriteString(quotePhysical(trinoQuote, n.Subquery.From.PhysicalName))
	if n.Subquery.Where != nil {
		b.WriteString(" WHERE ")
		if err := trinoRenderNode(b, n.Subquery.Where, st); err != nil {
			return err
		}
	}
	b.WriteString(")")
	return nil
}

func trinoRenderCounted(b *strings.Builder, n *resolve.Node, st *trinoState) error {
	limit := ""
	if n.CountLimit != nil {
		limit = fmt.Sprintf(" LIMIT %d", *n.CountLimit)
	}
	fmt.Fprintf(b, "(SELECT COUNT(*) FROM %s", quotePhysical(trinoQuote, n.Subquery.From.PhysicalName))
	if n.Subquery.Where != nil {
		b.WriteString(" WHERE ")
		if err := trinoRenderNode(b, n.Subquery.Where, st); err != nil {
			return err
		}
	}
	fmt.Fprintf(b, "%s) %s ", limit, n.CountOp)
	st.emit(b, *n.CountValue)
	return nil
}

func trinoRenderFunction(b *strings.Builder, n *resolve.Node, st *trinoState) error {
	if !sqlsafe.IsValidWhereFn(n.Fn) {
		return fmt.Errorf("dialect: unknown where function %q", n.Fn)
	}
	fmt.Fprintf(b, "levenshtein_distance(%s, ", qualifyRef(trinoQuote, n.Col))
	st.emit(b, *n.ArgIdx)
	b.WriteString(") <= ")
	st.emit(b, *n.CmpIdx)
	return nil
}

func trinoRenderArray(b *strings.Builder, n *resolve.Node, st *trinoState) error {
	col := qualifyRef(trinoQuote, n.Col)
	switch n.Op {
	case query.OpArrayContains:
		fmt.Fprintf(b, "contains(%s, ", col)
		st.emit(b, *n.ArgIdx)
		b.WriteString(")")
	case query.OpArrayContainsAll:
		b.WriteString("cardinality(array_except(ARRAY[")
		st.emitList(b, *n.ArgIdx)
		fmt.Fprintf(b, "], %s)) = 0", col)
	case query.OpArrayContainsAny:
		b.WriteString("arrays_overlap(")
		fmt.Fprintf(b, "%s, ARRAY[", col)
		st.emitList(b, *n.ArgIdx)
		b.WriteString("])")
	case query.OpArrayIsEmpty:
		fmt.Fprintf(b, "cardinality(%s) = 0", col)
	case query.OpArrayIsNotEmpty:
		fmt.Fprintf(b, "cardinality(%s) > 0", col)
	default:
		return fmt.Errorf("dialect: unsupported array operator %q", n.Op)
	}
	return nil
}

func trinoRenderSimple(b *strings.Builder, n *resolve.Node, st *trinoState) error {
	if n.AggFn != "" {
		if !sqlsafe.IsValidAggFn(n.AggFn) {
			return fmt.Errorf("dialect: unknown aggregation function %q", n.AggFn)
		}
		col := "*"
		if n.AggColumn != "*" {
			col = qualify(trinoQuote, n.AggTable, n.AggColumn)
		}
		fmt.Fprintf(b, "%s(%s) %s ", strings.ToUpper(n.AggFn), col, n.Op)
		st.emit(b, *n.ParamIdx)
		return nil
	}

	col := qualifyRef(trinoQuote, n.Col)
	switch n.Op {
	case query.OpIsNull:
		fmt.Fprintf(b, "%s IS NULL", col)
	case query.OpIsNotNull:
		fmt.Fprintf(b, "%s IS NOT NULL", col)
	case query.OpIn:
		fmt.Fprintf(b, "%s IN (", col)
		st.emitList(b, *n.ParamIdx)
		b.WriteString(")")
	case query.OpNotIn:
		fmt.Fprintf(b, "%s NOT IN (", col)
		st.emitList(b, *n.ParamIdx)
		b.WriteString(")")
	case query.OpLike:
		fmt.Fprintf(b, "%s LIKE ", col)
		st.emit(b, *n.ParamIdx)
	case query.OpNotLike:
		fmt.Fprintf(b, "%s NOT LIKE ", col)
		st.emit(b, *n.ParamIdx)
	case query.OpILike:
		fmt.Fprintf(b, "lower(%s) LIKE lower(", col)
		st.emit(b, *n.ParamIdx)
		b.WriteString(")")
	case query.OpNotILike:
		fmt.Fprintf(b, "lower(%s) NOT LIKE lower(", col)
		st.emit(b, *n.ParamIdx)
		b.WriteString(")")
	case query.OpStartsWith, query.OpEndsWith, query.OpIStartsWith, query.OpIEndsWith,
		query.OpContains, query.OpNotContains, query.OpIContains, query.OpNotIContains:
		return trinoRenderLikeFamily(b, n, st, col)
	default:
		fmt.Fprintf(b, "%s %s ", col, n.Op)
		st.emit(b, *n.ParamIdx)
	}
	return nil
}

func trinoRenderLikeFamily(b *strings.Builder, n *resolve.Node, st *trinoState, col string) error {
	v, _ := st.orig[*n.ParamIdx].(string)
	escaped := sqlsafe.EscapeLikePattern(v)

	lhs, keyword := col, "LIKE"
	switch n.Op {
	case query.OpIStartsWith, query.OpIEndsWith, query.OpIContains:
		lhs = "lower(" + col + ")"
	case query.OpNotContains:
		keyword = "NOT LIKE"
	case query.OpNotIContains:
		lhs = "lower(" + col + ")"
		keyword = "NOT LIKE"
	}

	var pattern string
	switch n.Op {
	case query.OpStartsWith, query.OpIStartsWith:
		pattern = escaped + "%"
	case query.OpEndsWith, query.OpIEndsWith:
		pattern = "%" + escaped
	default:
		pattern = "%" + escaped + "%"
	}
	if lhs == "lower("+col+")" {
		pattern = strings.ToLower(pattern)
	}

	st.out = append(st.out, pattern)
	fmt.Fprintf(b, "%s %s ? ESCAPE '\\'", lhs, keyword)
	return nil
}
