// SPDX-License-Identifier: Apache-2.0

package validate

import (
	"fmt"

	"github.com/querygateway/gateway/pkg/access"
	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/errs"
	"github.com/querygateway/gateway/pkg/query"
)

var arrayOperators = map[query.Operator]bool{
	query.OpArrayContains:    true,
	query.OpArrayContainsAll: true,
	query.OpArrayContainsAny: true,
	query.OpArrayIsEmpty:     true,
	query.OpArrayIsNotEmpty:  true,
}

// checkFilters walks a filter-entry list rooted at defaultTable (the from
// table, or a join table for a join's own filters), validating every
// operator, value shape, and referenced column.
func (v *validator) checkFilters(defaultTable string, entries query.FilterEntries) {
	for _, e := range entries {
		v.checkFilterEntry(defaultTable, e)
	}
}

func (v *validator) checkFilterEntry(defaultTable string, e query.FilterEntry) {
	switch f := e.(type) {
	case query.ValueFilter:
		v.checkValueFilter(defaultTable, f)
	case query.ColumnComparisonFilter:
		v.checkColumnComparisonFilter(defaultTable, f)
	case query.FilterGroup:
		if f.Logic != query.LogicAnd && f.Logic != query.LogicOr {
			v.c.add(errs.NewInvalidFilter(fmt.Sprintf("unknown filter group logic %q", f.Logic)))
		}
		v.checkFilters(defaultTable, f.Conditions)
	case query.ExistsFilter:
		v.checkExistsFilter(defaultTable, f)
	default:
		v.c.add(errs.NewInvalidFilter(fmt.Sprintf("unknown filter entry type %T", e)))
	}
}

func (v *validator) tableFor(defaultTable, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return defaultTable
}

func (v *validator) checkValueFilter(defaultTable string, f query.ValueFilter) {
	table := v.tableFor(defaultTable, f.Table)
	if !query.IsValidOperator(f.Operator) {
		v.c.add(errs.NewInvalidFilter(fmt.Sprintf("unknown operator %q", f.Operator), "column", f.Column))
		return
	}
	v.checkColumn(table, f.Column)

	t, ok := v.resolveTable(table)
	if !ok {
		return
	}
	col := t.ColumnByAPIName(f.Column)
	if col == nil {
		return
	}

	if arrayOperators[f.Operator] && !col.Type.IsArray() {
		v.c.add(errs.NewInvalidValue(fmt.Sprintf("operator %q requires an array column", f.Operator), "column", f.Column))
	}

	switch f.Operator {
	case query.OpIn, query.OpNotIn:
		if !isScalarArray(f.Value) {
			v.c.add(errs.NewInvalidValue(fmt.Sprintf("operator %q requires an array of scalars", f.Operator), "column", f.Column))
		}
	case query.OpBetween, query.OpNotBetween:
		if !isFromToPair(f.Value) {
			v.c.add(errs.NewInvalidValue(fmt.Sprintf("operator %q requires {from, to}", f.Operator), "column", f.Column))
		}
	case query.OpLevenshteinLte:
		if !isLevenshteinArg(f.Value) {
			v.c.add(errs.NewInvalidValue("levenshteinLte requires {text, maxDistance} with a non-negative integer maxDistance", "column", f.Column))
		}
	case query.OpIsNull, query.OpIsNotNull, query.OpArrayIsEmpty, query.OpArrayIsNotEmpty:
		// no value expected; nothing further to check.
	}
}

func (v *validator) checkColumnComparisonFilter(defaultTable string, f query.ColumnComparisonFilter) {
	table := v.tableFor(defaultTable, f.Table)
	refTable := v.tableFor(defaultTable, f.RefTable)

	if !query.IsValidOperator(f.Operator) {
		v.c.add(errs.NewInvalidFilter(fmt.Sprintf("unknown operator %q", f.Operator), "column", f.Column))
	}
	v.checkColumn(table, f.Column)
	v.checkColumn(refTable, f.RefColumn)
}

func (v *validator) checkExistsFilter(defaultTable string, f query.ExistsFilter) {
	t, ok := v.snap.Index.TablesByAPIName[f.Table]
	if !ok {
		v.c.add(errs.NewUnknownTable(f.Table))
		return
	}

	parent := v.from
	if defaultTable != "" {
		if pt, ok := v.resolveTable(defaultTable); ok {
			parent = pt
		}
	}
	if !relationExists(parent, t) {
		v.c.add(errs.NewInvalidExists(f.Table, "no relation path to containing table"))
	}

	if f.Count != nil && !query.IsValidOperator(f.Count.Operator) {
		v.c.add(errs.NewInvalidExists(f.Table, fmt.Sprintf("unknown count operator %q", f.Count.Operator)))
	}

	// Nested filters on an exists target are scoped to that table.
	v.ensureAccess(t)
	v.checkFilters(t.APIName, f.Filters)
}

// ensureAccess resolves and caches t's EffectiveTableAccess if this is the
// first time t is touched -- e.g. a table referenced only inside an exists
// filter, never in the from/joins list.
func (v *validator) ensureAccess(t *catalog.Table) {
	if _, ok := v.access[t.APIName]; ok {
		return
	}
	v.involved[t.APIName] = t
	v.access[t.APIName] = access.Resolve(t, v.snap.Index.RolesByID, v.ctx)
}
