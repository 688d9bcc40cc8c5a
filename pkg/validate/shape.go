// SPDX-License-Identifier: Apache-2.0

package validate

import (
	"fmt"

	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/errs"
	"github.com/querygateway/gateway/pkg/query"
)

var validAggregationFns = map[string]bool{
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
}

func (v *validator) checkGroupBy(q *query.Query) {
	for _, col := range q.GroupBy {
		v.checkColumn("", col)
	}
}

func (v *validator) checkAggregations(q *query.Query) {
	seenAlias := make(map[string]bool, len(q.Aggregations))
	for _, agg := range q.Aggregations {
		if !validAggregationFns[agg.Fn] {
			v.c.add(errs.NewInvalidAggregation(fmt.Sprintf("unknown aggregation function %q", agg.Fn), "alias", agg.Alias))
		}
		if !catalog.IsValidAPIName(agg.Alias) {
			v.c.add(errs.NewInvalidAggregation(fmt.Sprintf("invalid aggregation alias %q", agg.Alias)))
		}
		if seenAlias[agg.Alias] {
			v.c.add(errs.NewInvalidAggregation(fmt.Sprintf("duplicate aggregation alias %q", agg.Alias)))
		}
		seenAlias[agg.Alias] = true

		if agg.Column == "*" {
			if agg.Fn != "count" {
				v.c.add(errs.NewInvalidAggregation(fmt.Sprintf("column \"*\" is only valid with count, got %q", agg.Fn), "alias", agg.Alias))
			}
			continue
		}
		v.checkColumn(agg.Table, agg.Column)
	}
}

// aggregationAliases and groupByColumns are used by having/orderBy to know
// what a bare identifier may legally refer to.
func aggregationAliases(q *query.Query) map[string]bool {
	set := make(map[string]bool, len(q.Aggregations))
	for _, agg := range q.Aggregations {
		set[agg.Alias] = true
	}
	return set
}

func groupByColumns(q *query.Query) map[string]bool {
	set := make(map[string]bool, len(q.GroupBy))
	for _, col := range q.GroupBy {
		set[col] = true
	}
	return set
}

func (v *validator) checkHaving(q *query.Query) {
	aliases := aggregationAliases(q)
	groupBy := groupByColumns(q)
	for _, e := range q.Having {
		v.checkHavingEntry(e, aliases, groupBy)
	}
}

func (v *validator) checkHavingEntry(e query.FilterEntry, aliases, groupBy map[string]bool) {
	switch f := e.(type) {
	case query.ValueFilter:
		if !query.IsValidOperator(f.Operator) {
			v.c.add(errs.NewInvalidHaving(fmt.Sprintf("unknown operator %q", f.Operator), "column", f.Column))
		}
		if !aliases[f.Column] && !groupBy[f.Column] {
			v.c.add(errs.NewInvalidHaving(fmt.Sprintf("column %q is neither an aggregation alias nor a groupBy column", f.Column)))
		}
	case query.FilterGroup:
		for _, cond := range f.Conditions {
			v.checkHavingEntry(cond, aliases, groupBy)
		}
	default:
		v.c.add(errs.NewInvalidHaving(fmt.Sprintf("unsupported having entry type %T", e)))
	}
}

func (v *validator) checkOrderBy(q *query.Query) {
	aliases := aggregationAliases(q)
	groupBy := groupByColumns(q)
	selected := make(map[string]bool, len(q.Columns))
	for _, col := range q.Columns {
		selected[col] = true
	}

	for _, term := range q.OrderBy {
		if term.Direction != "" && term.Direction != query.OrderAsc && term.Direction != query.OrderDesc {
			v.c.add(errs.NewInvalidOrderBy(fmt.Sprintf("unknown direction %q", term.Direction), "column", term.Column))
			continue
		}
		if aliases[term.Column] || groupBy[term.Column] || selected[term.Column] {
			continue
		}
		v.c.add(errs.NewInvalidOrderBy(fmt.Sprintf("column %q is not selected, grouped, or an aggregation alias", term.Column)))
	}
}

func (v *validator) checkLimitOffset(q *query.Query) {
	if q.Limit != nil && *q.Limit < 0 {
		v.c.add(errs.NewInvalidLimit("limit must be non-negative"))
	}
	if q.Offset != nil && *q.Offset < 0 {
		v.c.add(errs.NewInvalidLimit("offset must be non-negative"))
	}
}

func (v *validator) checkByIDs(q *query.Query) {
	if len(q.ByIDs) == 0 {
		return
	}
	pkCol, ok := v.from.HasSingleColumnPrimaryKey()
	if !ok {
		v.c.add(errs.NewInvalidByIDs("byIds requires the table to have a single-column primary key", "table", v.from.APIName))
		return
	}
	col := v.from.ColumnByAPIName(pkCol)
	for _, id := range q.ByIDs {
		if !valueMatchesType(id, col.Type) {
			v.c.add(errs.NewInvalidByIDs(fmt.Sprintf("value %v does not match primary key type %q", id, col.Type), "table", v.from.APIName))
		}
	}
}

func valueMatchesType(v any, t catalog.ColumnType) bool {
	switch t.ElementType() {
	case catalog.TypeUUID, catalog.TypeString, catalog.TypeDate, catalog.TypeTimestamp:
		_, ok := v.(string)
		return ok
	case catalog.TypeInt, catalog.TypeDecimal:
		_, ok := v.(float64)
		return ok
	case catalog.TypeBoolean:
		_, ok := v.(bool)
		return ok
	default:
		return true
	}
}
