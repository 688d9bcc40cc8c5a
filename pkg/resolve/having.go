// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"fmt"

	"github.com/querygateway/gateway/pkg/query"
)

// lowerHaving lowers a having clause, which only ever contains ValueFilter
// and FilterGroup entries (validate/shape.go enforces this). A column
// naming an aggregation alias re-renders that aggregation's expression
// (standard SQL disallows referencing a SELECT-list alias inside HAVING);
// otherwise it resolves to the from table's physical column.
func lowerHaving(c *ctx, fromAlias string, aggs []query.Aggregation, entries query.FilterEntries) (*Node, error) {
	aliasToAgg := make(map[string]query.Aggregation, len(aggs))
	for _, agg := range aggs {
		aliasToAgg[agg.Alias] = agg
	}
	return lowerHavingGroup(c, fromAlias, aliasToAgg, query.LogicAnd, false, entries)
}

func lowerHavingGroup(c *ctx, fromAlias string, aliasToAgg map[string]query.Aggregation, logic query.FilterLogic, not bool, entries query.FilterEntries) (*Node, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	children := make([]Node, 0, len(entries))
	for _, e := range entries {
		n, err := lowerHavingEntry(c, fromAlias, aliasToAgg, e)
		if err != nil {
			return nil, err
		}
		children = append(children, *n)
	}
	if len(children) == 1 && !not {
		return &children[0], nil
	}
	return &Node{Kind: KindGroup, Logic: logic, Not: not, Children: children}, nil
}

func lowerHavingEntry(c *ctx, fromAlias string, aliasToAgg map[string]query.Aggregation, e query.FilterEntry) (*Node, error) {
	switch f := e.(type) {
	case query.ValueFilter:
		idx := c.addParam(f.Value)
		if agg, ok := aliasToAgg[f.Column]; ok {
			phys := agg.Column
			aggAlias := ""
			if agg.Column != "*" {
				aggAlias = resolveAlias(c, agg.Table, fromAlias)
				phys = physicalColumnName(c, aggAlias, agg.Column)
			}
			return &Node{Kind: KindSimple, Op: f.Operator, ParamIdx: &idx, AggFn: agg.Fn, AggColumn: phys, AggTable: aggAlias}, nil
		}
		phys := physicalColumnName(c, fromAlias, f.Column)
		return &Node{Kind: KindSimple, Col: ColumnRef{Table: fromAlias, PhysicalName: phys}, Op: f.Operator, ParamIdx: &idx}, nil
	case query.FilterGroup:
		return lowerHavingGroup(c, fromAlias, aliasToAgg, f.Logic, f.Not, f.Conditions)
	default:
		return nil, fmt.Errorf("resolve: unsupported having entry type %T", e)
	}
}
