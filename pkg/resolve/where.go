// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"fmt"

	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/query"
)

// NodeKind discriminates the variants of Node, per the tagged-sum-type
// design (never an interface hierarchy): one struct, one Kind field.
type NodeKind string

const (
	KindGroup         NodeKind = "group"
	KindExists        NodeKind = "exists"
	KindCounted       NodeKind = "counted"
	KindColumnCompare NodeKind = "columnCompare"
	KindFunction      NodeKind = "function"
	KindBetween       NodeKind = "between"
	KindArray         NodeKind = "array"
	KindSimple        NodeKind = "simple"
)

// Node is one WHERE/HAVING tree node. Only the fields relevant to Kind are
// populated; dialect generators switch on Kind and read the matching ones.
type Node struct {
	Kind NodeKind

	// group
	Logic    query.FilterLogic
	Not      bool
	Children []Node

	// exists / counted
	ExistsAlias string // correlated subquery alias (s0, s1, ...)
	Subquery    *SqlParts
	CountOp     query.Operator
	CountValue  *int // param index for the comparison value
	CountLimit  *int // LIMIT shortcut value, when operator is >= / > on a non-negative int

	// columnCompare
	Left  ColumnRef
	Right ColumnRef
	Op    query.Operator

	// function (e.g. levenshtein)
	Fn     string
	Col    ColumnRef
	ArgIdx *int
	CmpIdx *int

	// between
	FromIdx int
	ToIdx   int

	// array
	ElemType catalog.ColumnType

	// simple
	ParamIdx   *int
	Literal    any
	ColumnType catalog.ColumnType

	// set instead of Col when a having predicate references an aggregation
	// alias: standard SQL disallows SELECT-list aliases inside HAVING, so
	// the generator must re-render the underlying aggregate expression.
	AggFn     string
	AggColumn string // physical name, or "*"
	AggTable  string // alias, empty for "*"
}

func lowerFilters(c *ctx, defaultAlias string, entries query.FilterEntries) (*Node, error) {
	return lowerFilterGroup(c, defaultAlias, query.LogicAnd, false, entries)
}

func lowerFilterGroup(c *ctx, defaultAlias string, logic query.FilterLogic, not bool, entries query.FilterEntries) (*Node, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	children := make([]Node, 0, len(entries))
	for _, e := range entries {
		n, err := lowerFilterEntry(c, defaultAlias, e)
		if err != nil {
			return nil, err
		}
		if n != nil {
			children = append(children, *n)
		}
	}
	if len(children) == 1 && !not {
		return &children[0], nil
	}
	return &Node{Kind: KindGroup, Logic: logic, Not: not, Children: children}, nil
}

func lowerFilterEntry(c *ctx, defaultAlias string, e query.FilterEntry) (*Node, error) {
	switch f := e.(type) {
	case query.ValueFilter:
		return lowerValueFilter(c, defaultAlias, f)
	case query.ColumnComparisonFilter:
		return lowerColumnComparisonFilter(c, defaultAlias, f)
	case query.FilterGroup:
		return lowerFilterGroup(c, defaultAlias, f.Logic, f.Not, f.Conditions)
	case query.ExistsFilter:
		return lowerExistsFilter(c, defaultAlias, f)
	default:
		return nil, fmt.Errorf("resolve: unsupported filter entry type %T", e)
	}
}

func resolveAlias(c *ctx, table, fallback string) string {
	if table == "" {
		return fallback
	}
	if alias, ok := c.aliases[table]; ok {
		return alias
	}
	return fallback
}

func lowerValueFilter(c *ctx, defaultAlias string, f query.ValueFilter) (*Node, error) {
	alias := resolveAlias(c, f.Table, defaultAlias)
	col := ColumnRef{Table: alias, PhysicalName: physicalColumnName(c, alias, f.Column)}
	colType := columnTypeFor(c, alias, f.Column)

	switch f.Operator {
	case query.OpIsNull, query.OpIsNotNull:
		return &Node{Kind: KindSimple, Col: col, Op: f.Operator, ColumnType: colType}, nil
	case query.OpBetween, query.OpNotBetween:
		pair, _ := f.Value.(map[string]any)
		fromIdx := c.addParam(pair["from"])
		toIdx := c.addParam(pair["to"])
		return &Node{Kind: KindBetween, Col: col, Not: f.Operator == query.OpNotBetween, FromIdx: fromIdx, ToIdx: toIdx, ColumnType: colType}, nil
	case query.OpLevenshteinLte:
		arg, _ := f.Value.(map[string]any)
		textIdx := c.addParam(arg["text"])
		cmpIdx := c.addParam(arg["maxDistance"])
		return &Node{Kind: KindFunction, Fn: "levenshtein", Col: col, ArgIdx: &textIdx, CmpIdx: &cmpIdx, ColumnType: colType}, nil
	case query.OpArrayContains, query.OpArrayContainsAll, query.OpArrayContainsAny:
		idx := c.addParam(f.Value)
		return &Node{Kind: KindArray, Col: col, Op: f.Operator, ArgIdx: &idx, ElemType: colType.ElementType()}, nil
	case query.OpArrayIsEmpty, query.OpArrayIsNotEmpty:
		return &Node{Kind: KindArray, Col: col, Op: f.Operator, ElemType: colType.ElementType()}, nil
	case query.OpIn, query.OpNotIn:
		idx := c.addParam(f.Value)
		return &Node{Kind: KindSimple, Col: col, Op: f.Operator, ParamIdx: &idx, ColumnType: colType}, nil
	default:
		idx := c.addParam(f.Value)
		return &Node{Kind: KindSimple, Col: col, Op: f.Operator, ParamIdx: &idx, ColumnType: colType}, nil
	}
}

func lowerColumnComparisonFilter(c *ctx, defaultAlias string, f query.ColumnComparisonFilter) (*Node, error) {
	leftAlias := resolveAlias(c, f.Table, defaultAlias)
	rightAlias := resolveAlias(c, f.RefTable, defaultAlias)
	left := ColumnRef{Table: leftAlias, PhysicalName: physicalColumnName(c, leftAlias, f.Column)}
	right := ColumnRef{Table: rightAlias, PhysicalName: physicalColumnName(c, rightAlias, f.RefColumn)}
	return &Node{Kind: KindColumnCompare, Left: left, Right: right, Op: f.Operator}, nil
}

func lowerExistsFilter(c *ctx, defaultAlias string, f query.ExistsFilter) (*Node, error) {
	target := c.index.TablesByAPIName[f.Table]
	alias := c.allocSubqueryAlias(target)
	sub := &SqlParts{From: TableRef{PhysicalName: c.physicalName(target), Alias: alias, TableID: target.ID}}

	where, err := lowerFilters(c, alias, f.Filters)
	if err != nil {
		return nil, err
	}
	sub.Where = where

	if f.Count != nil {
		valIdx := c.addParam(f.Count.Value)
		node := &Node{Kind: KindCounted, ExistsAlias: alias, Subquery: sub, CountOp: f.Count.Operator, CountValue: &valIdx}
		if n, ok := f.Count.Value.(float64); ok && n >= 0 && (f.Count.Operator == query.OpGte || f.Count.Operator == query.OpGt) {
			lim := int(n)
			if f.Count.Operator == query.OpGt {
				lim++
			}
			node.CountLimit = &lim
		}
		return node, nil
	}

	not := f.Exists != nil && !*f.Exists
	return &Node{Kind: KindExists, ExistsAlias: alias, Subquery: sub, Not: not}, nil
}

// physicalColumnName resolves a column apiName under alias to its physical
// name via the table the alias was assigned to.
func physicalColumnName(c *ctx, alias, apiName string) string {
	if t, ok := c.aliasTable[alias]; ok {
		if col := t.ColumnByAPIName(apiName); col != nil {
			return col.PhysicalName
		}
	}
	return apiName
}

func columnTypeFor(c *ctx, alias, apiName string) catalog.ColumnType {
	if t, ok := c.aliasTable[alias]; ok {
		if col := t.ColumnByAPIName(apiName); col != nil {
			return col.Type
		}
	}
	return ""
}
