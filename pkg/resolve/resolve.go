// SPDX-License-Identifier: Apache-2.0

// Package resolve implements the name resolver (C8): lowering a validated
// query plus its chosen plan into a dialect-neutral SQL IR (SqlParts) and a
// flat parameter vector. This mirrors the teacher's pkg/sql2pgroll package,
// which lowers parsed SQL into pgroll's own operation IR -- one Go type per
// IR node, one lowering function per source construct -- except this
// resolver performs the reverse direction: typed query to SQL shape.
package resolve

import (
	"fmt"

	"github.com/querygateway/gateway/pkg/access"
	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/plan"
	"github.com/querygateway/gateway/pkg/query"
	"github.com/querygateway/gateway/pkg/validate"
)

// TableRef is a physical table reference with its assigned query alias.
type TableRef struct {
	PhysicalName string
	Alias        string
	TableID      string
}

// ColumnRef is a physical column reference, qualified by its table alias.
type ColumnRef struct {
	Table        string
	PhysicalName string
	// OutputName is the column's apiName as returned to the client, or the
	// table-qualified form "<tableApi>.<col>" when two selected columns
	// share an apiName.
	OutputName string
}

// JoinPart is one lowered join.
type JoinPart struct {
	Type        query.JoinType
	Table       TableRef
	LeftColumn  ColumnRef
	RightColumn ColumnRef
	Where       *Node
}

// AggregationPart is one lowered aggregation.
type AggregationPart struct {
	Fn     string
	Column string // physical name, or "*"
	Table  string // alias, empty for "*"
	Alias  string
}

// OrderPart is one lowered ORDER BY term.
type OrderPart struct {
	// Alias is set when the term refers to an aggregation alias; Column is
	// set otherwise.
	Alias     string
	Column    ColumnRef
	Direction query.OrderDirection
}

// SqlParts is the dialect-neutral IR a generator renders into SQL text.
type SqlParts struct {
	Select       []ColumnRef
	Distinct     bool
	From         TableRef
	Joins        []JoinPart
	Where        *Node
	GroupBy      []ColumnRef
	Having       *Node
	Aggregations []AggregationPart
	OrderBy      []OrderPart
	Limit        *int
	Offset       *int
	CountMode    bool
}

// ColumnMapping describes one selected column for pipeline post-processing:
// how to read it out of the result row and whether/how to mask it.
type ColumnMapping struct {
	APIName      string
	PhysicalName string
	Masked       bool
	MaskingFn    catalog.MaskingFn
	Type         catalog.ColumnType
}

// Result is the resolver's full output.
type Result struct {
	Parts   *SqlParts
	Params  []any
	Columns []ColumnMapping
}

// ctx carries the mutable state threaded through lowering: alias counters,
// the parameter vector, and lookups needed by every sub-lowering step.
type ctx struct {
	index     *catalog.Index
	access    map[string]access.EffectiveTableAccess
	aliases   map[string]string           // table apiName -> assigned alias (from/join tables)
	aliasTable map[string]*catalog.Table  // any assigned alias (including subqueries) -> its table
	tAlias    int
	sAlias    int
	params    []any
	overrides map[string]string // table id -> physical name override (materialized replica)
}

func newCtx(in plan.Input, res *validate.Result, p *plan.Plan) *ctx {
	return &ctx{
		index:      in.Index,
		access:     res.Access,
		aliases:    make(map[string]string),
		aliasTable: make(map[string]*catalog.Table),
		overrides:  p.Overrides,
	}
}

func (c *ctx) allocTableAlias() string {
	a := fmt.Sprintf("t%d", c.tAlias)
	c.tAlias++
	return a
}

func (c *ctx) allocSubqueryAlias(table *catalog.Table) string {
	a := fmt.Sprintf("s%d", c.sAlias)
	c.sAlias++
	c.aliasTable[a] = table
	return a
}

// addParam appends v to the parameter vector and returns its index.
func (c *ctx) addParam(v any) int {
	c.params = append(c.params, v)
	return len(c.params) - 1
}

func (c *ctx) tableRef(table *catalog.Table) TableRef {
	if alias, ok := c.aliases[table.APIName]; ok {
		return TableRef{PhysicalName: c.physicalName(table), Alias: alias, TableID: table.ID}
	}
	alias := c.allocTableAlias()
	c.aliases[table.APIName] = alias
	c.aliasTable[alias] = table
	return TableRef{PhysicalName: c.physicalName(table), Alias: alias, TableID: table.ID}
}

func (c *ctx) physicalName(table *catalog.Table) string {
	if override, ok := c.overrides[table.ID]; ok {
		return override
	}
	return table.PhysicalName
}

// Resolve lowers q (already validated as res, planned as p) into IR.
func Resolve(in plan.Input, res *validate.Result, p *plan.Plan) (*Result, error) {
	q := in.Query
	c := newCtx(in, res, p)

	fromRef := c.tableRef(res.FromTable)
	parts := &SqlParts{From: fromRef}

	countMode := q.EffectiveExecuteMode() == query.ExecuteModeCount
	parts.CountMode = countMode

	joins, err := lowerJoins(c, q, res)
	if err != nil {
		return nil, err
	}
	parts.Joins = joins

	where, err := lowerFilters(c, fromRef.Alias, q.Filters)
	if err != nil {
		return nil, err
	}
	if byIDsNode := lowerByIDs(c, fromRef, res.FromTable, q.ByIDs); byIDsNode != nil {
		where = andNodes(where, byIDsNode)
	}
	parts.Where = where

	if !countMode {
		parts.Distinct = q.Distinct
		parts.GroupBy = lowerGroupBy(c, fromRef, res, q.GroupBy)

		having, err := lowerHaving(c, fromRef.Alias, q.Aggregations, q.Having)
		if err != nil {
			return nil, err
		}
		parts.Having = having

		parts.Aggregations = lowerAggregations(c, res, q.Aggregations)
		parts.OrderBy = lowerOrderBy(c, fromRef, res, q)
		parts.Limit = q.Limit
		parts.Offset = q.Offset
	}

	cols, mapping := lowerSelect(c, fromRef, res, q, joins)
	parts.Select = cols

	if countMode {
		parts.Aggregations = []AggregationPart{{Fn: "count", Column: "*", Alias: "count"}}
		parts.Select = nil
	}

	return &Result{Parts: parts, Params: c.params, Columns: mapping}, nil
}

func andNodes(a, b *Node) *Node {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &Node{Kind: KindGroup, Logic: query.LogicAnd, Children: []Node{*a, *b}}
}
