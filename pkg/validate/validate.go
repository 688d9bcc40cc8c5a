// SPDX-License-Identifier: Apache-2.0

// Package validate implements the query validator (C6): it checks a query
// definition against a snapshot and an execution context, accumulating
// every problem found rather than stopping at the first, following the
// same collector idiom as pkg/config.
package validate

import (
	"fmt"

	"github.com/querygateway/gateway/pkg/access"
	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/errs"
	"github.com/querygateway/gateway/pkg/query"
)

// Result carries what the planner and resolver need so they don't have to
// re-derive it: the resolved from-table, every table touched by the query
// keyed by apiName, and each table's resolved EffectiveTableAccess.
type Result struct {
	FromTable      *catalog.Table
	InvolvedTables map[string]*catalog.Table
	Access         map[string]access.EffectiveTableAccess
}

// Snapshot is the subset of registry.Snapshot the validator needs. Declared
// here (rather than importing pkg/registry) to avoid a dependency from the
// validator onto the registry's reload machinery.
type Snapshot struct {
	Index *catalog.Index
}

type collector struct {
	fromTable string
	entries   []errs.Entry
}

func (c *collector) add(e errs.Entry) { c.entries = append(c.entries, e) }

func (c *collector) err() error {
	if len(c.entries) == 0 {
		return nil
	}
	return &errs.ValidationError{FromTable: c.fromTable, Entries: c.entries}
}

// Validate checks q against snap under ctx, returning a *errs.ValidationError
// listing every problem, or (Result, nil) if the query is valid.
func Validate(snap *Snapshot, q *query.Query, ctx catalog.ExecutionContext) (*Result, error) {
	c := &collector{fromTable: q.From}

	fromTable, ok := snap.Index.TablesByAPIName[q.From]
	if !ok {
		c.add(errs.NewUnknownTable(q.From))
		return nil, c.err()
	}

	involved := map[string]*catalog.Table{fromTable.APIName: fromTable}
	for _, j := range q.Joins {
		jt, ok := snap.Index.TablesByAPIName[j.Table]
		if !ok {
			c.add(errs.NewUnknownTable(j.Table))
			continue
		}
		if j.Type != "" && j.Type != query.JoinInner && j.Type != query.JoinLeft {
			c.add(errs.NewInvalidJoin(j.Table, fmt.Sprintf("unknown join type %q", j.Type)))
		}
		if !relationExists(fromTable, jt) {
			c.add(errs.NewInvalidJoin(j.Table, "no relation between join table and from table"))
		}
		involved[jt.APIName] = jt
	}

	effective := make(map[string]access.EffectiveTableAccess, len(involved))
	for name, t := range involved {
		effective[name] = access.Resolve(t, snap.Index.RolesByID, ctx)
	}

	v := &validator{snap: snap, c: c, from: fromTable, involved: involved, access: effective, ctx: ctx}
	v.checkUnknownRoles(ctx)
	v.checkColumns(q)
	v.checkJoinBodies(q)
	v.checkFilters("", q.Filters)
	v.checkGroupBy(q)
	v.checkAggregations(q)
	v.checkHaving(q)
	v.checkOrderBy(q)
	v.checkLimitOffset(q)
	v.checkByIDs(q)

	if err := c.err(); err != nil {
		return nil, err
	}
	return &Result{FromTable: fromTable, InvolvedTables: involved, Access: effective}, nil
}

func relationExists(a, b *catalog.Table) bool {
	for _, rel := range a.Relations {
		if rel.References.Table == b.ID || rel.References.Table == b.APIName {
			return true
		}
	}
	for _, rel := range b.Relations {
		if rel.References.Table == a.ID || rel.References.Table == a.APIName {
			return true
		}
	}
	return false
}

type validator struct {
	snap     *Snapshot
	c        *collector
	from     *catalog.Table
	involved map[string]*catalog.Table
	access   map[string]access.EffectiveTableAccess
	ctx      catalog.ExecutionContext
}

func (v *validator) checkUnknownRoles(ctx catalog.ExecutionContext) {
	for _, roleIDs := range ctx.Roles {
		for _, rid := range roleIDs {
			if _, ok := v.snap.Index.RolesByID[rid]; !ok {
				v.c.add(errs.NewUnknownRole(rid))
			}
		}
	}
}

// resolveTable returns the table a column reference targets: tableAPIName
// if given, else the from table.
func (v *validator) resolveTable(tableAPIName string) (*catalog.Table, bool) {
	if tableAPIName == "" {
		return v.from, true
	}
	t, ok := v.involved[tableAPIName]
	return t, ok
}

// checkColumn validates that column exists on the resolved table and is
// allowed by access control, emitting the leakage-minimising UNKNOWN_COLUMN
// code when the column isn't in the caller's allowed set.
func (v *validator) checkColumn(tableAPIName, column string) {
	t, ok := v.resolveTable(tableAPIName)
	if !ok {
		v.c.add(errs.NewUnknownTable(tableAPIName))
		return
	}
	if t.ColumnByAPIName(column) == nil {
		v.c.add(errs.NewUnknownColumn(t.APIName, column))
		return
	}
	eff := v.access[t.APIName]
	if !eff.ColumnAllowed(column) {
		v.c.add(errs.NewUnknownColumn(t.APIName, column))
	}
}

func (v *validator) checkColumns(q *query.Query) {
	for _, col := range q.Columns {
		v.checkColumn("", col)
	}
	for _, j := range q.Joins {
		for _, col := range j.Columns {
			v.checkColumn(j.Table, col)
		}
	}
}

func (v *validator) checkJoinBodies(q *query.Query) {
	for _, j := range q.Joins {
		v.checkFilters(j.Table, j.Filters)
	}
}
