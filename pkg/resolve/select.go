// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"fmt"

	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/query"
	"github.com/querygateway/gateway/pkg/validate"
)

type selectEntry struct {
	tableAPIName string
	alias        string
	column       *catalog.Column
}

// lowerSelect resolves the SELECT list following spec section 4.5's
// resolution choices: columns omitted with no aggregations selects every
// allowed column on the from table; join columns are bare apiNames unless
// they collide with another selected column, in which case both sides are
// qualified as "<tableApi>.<col>".
func lowerSelect(c *ctx, fromRef TableRef, res *validate.Result, q *query.Query, joins []JoinPart) ([]ColumnRef, []ColumnMapping) {
	hasAggregations := len(q.Aggregations) > 0

	var entries []selectEntry

	switch {
	case len(q.Columns) == 0 && hasAggregations && len(q.GroupBy) > 0:
		for _, col := range q.GroupBy {
			if cc := res.FromTable.ColumnByAPIName(col); cc != nil {
				entries = append(entries, selectEntry{res.FromTable.APIName, fromRef.Alias, cc})
			}
		}
	case len(q.Columns) == 0 && hasAggregations:
		// aggregation-only select, no plain columns.
	case len(q.Columns) == 0:
		acc := res.Access[res.FromTable.APIName]
		for i := range res.FromTable.Columns {
			col := &res.FromTable.Columns[i]
			if acc.ColumnAllowed(col.APIName) {
				entries = append(entries, selectEntry{res.FromTable.APIName, fromRef.Alias, col})
			}
		}
	default:
		for _, name := range q.Columns {
			if cc := res.FromTable.ColumnByAPIName(name); cc != nil {
				entries = append(entries, selectEntry{res.FromTable.APIName, fromRef.Alias, cc})
			}
		}
	}

	if !hasAggregations {
		for _, j := range q.Joins {
			target := res.InvolvedTables[j.Table]
			alias := c.aliases[j.Table]
			if len(j.Columns) > 0 {
				for _, name := range j.Columns {
					if cc := target.ColumnByAPIName(name); cc != nil {
						entries = append(entries, selectEntry{target.APIName, alias, cc})
					}
				}
				continue
			}
			acc := res.Access[target.APIName]
			for i := range target.Columns {
				col := &target.Columns[i]
				if acc.ColumnAllowed(col.APIName) {
					entries = append(entries, selectEntry{target.APIName, alias, col})
				}
			}
		}
	}

	nameCount := make(map[string]int, len(entries))
	for _, e := range entries {
		nameCount[e.column.APIName]++
	}

	cols := make([]ColumnRef, 0, len(entries))
	mapping := make([]ColumnMapping, 0, len(entries))
	for _, e := range entries {
		outputName := e.column.APIName
		if nameCount[e.column.APIName] > 1 {
			outputName = fmt.Sprintf("%s.%s", e.tableAPIName, e.column.APIName)
		}

		cols = append(cols, ColumnRef{Table: e.alias, PhysicalName: e.column.PhysicalName, OutputName: outputName})

		ca := res.Access[e.tableAPIName].Columns[e.column.APIName]
		mapping = append(mapping, ColumnMapping{
			APIName:      outputName,
			PhysicalName: e.column.PhysicalName,
			Masked:       ca.Masked,
			MaskingFn:    ca.MaskingFn,
			Type:         e.column.Type,
		})
	}

	return cols, mapping
}

func lowerByIDs(c *ctx, fromRef TableRef, table *catalog.Table, ids []any) *Node {
	if len(ids) == 0 {
		return nil
	}
	pkCol, ok := table.HasSingleColumnPrimaryKey()
	if !ok {
		return nil
	}
	col := table.ColumnByAPIName(pkCol)
	idx := c.addParam(ids)
	return &Node{
		Kind:       KindSimple,
		Col:        ColumnRef{Table: fromRef.Alias, PhysicalName: col.PhysicalName},
		Op:         query.OpIn,
		ParamIdx:   &idx,
		ColumnType: col.Type,
	}
}

func lowerGroupBy(c *ctx, fromRef TableRef, res *validate.Result, groupBy []string) []ColumnRef {
	if len(groupBy) == 0 {
		return nil
	}
	cols := make([]ColumnRef, 0, len(groupBy))
	for _, name := range groupBy {
		if col := res.FromTable.ColumnByAPIName(name); col != nil {
			cols = append(cols, ColumnRef{Table: fromRef.Alias, PhysicalName: col.PhysicalName})
		}
	}
	return cols
}

func lowerAggregations(c *ctx, res *validate.Result, aggs []query.Aggregation) []AggregationPart {
	if len(aggs) == 0 {
		return nil
	}
	parts := make([]AggregationPart, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Column == "*" {
			parts = append(parts, AggregationPart{Fn: agg.Fn, Column: "*", Alias: agg.Alias})
			continue
		}
		alias := resolveAlias(c, agg.Table, c.aliases[res.FromTable.APIName])
		table := res.FromTable
		if agg.Table != "" {
			table = res.InvolvedTables[agg.Table]
		}
		col := table.ColumnByAPIName(agg.Column)
		phys := agg.Column
		if col != nil {
			phys = col.PhysicalName
		}
		parts = append(parts, AggregationPart{Fn: agg.Fn, Column: phys, Table: alias, Alias: agg.Alias})
	}
	return parts
}

func lowerOrderBy(c *ctx, fromRef TableRef, res *validate.Result, q *query.Query) []OrderPart {
	if len(q.OrderBy) == 0 {
		return nil
	}
	aliasSet := make(map[string]bool, len(q.Aggregations))
	for _, agg := range q.Aggregations {
		aliasSet[agg.Alias] = true
	}

	parts := make([]OrderPart, 0, len(q.OrderBy))
	for _, term := range q.OrderBy {
		dir := term.Direction
		if dir == "" {
			dir = query.OrderAsc
		}
		if aliasSet[term.Column] {
			parts = append(parts, OrderPart{Alias: term.Column, Direction: dir})
			continue
		}
		col := res.FromTable.ColumnByAPIName(term.Column)
		phys := term.Column
		if col != nil {
			phys = col.PhysicalName
		}
		parts = append(parts, OrderPart{Column: ColumnRef{Table: fromRef.Alias, PhysicalName: phys}, Direction: dir})
	}
	return parts
}
