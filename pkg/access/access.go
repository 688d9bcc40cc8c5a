// SPDX-License-Identifier: Apache-2.0

// Package access implements role/scope resolution (C5): turning an
// ExecutionContext and a table into an EffectiveTableAccess describing
// which columns may be read and which must be masked, plus the masking
// function library applied to returned rows.
package access

import (
	"github.com/querygateway/gateway/pkg/catalog"
)

// ColumnAccess is the resolved access for one column.
type ColumnAccess struct {
	Allowed   bool
	Masked    bool
	MaskingFn catalog.MaskingFn
}

// EffectiveTableAccess is the resolved access for one (table, context) pair.
type EffectiveTableAccess struct {
	Allowed bool
	Columns map[string]ColumnAccess
}

// ColumnAllowed reports whether column is both present and allowed.
func (a EffectiveTableAccess) ColumnAllowed(column string) bool {
	if !a.Allowed {
		return false
	}
	c, ok := a.Columns[column]
	return ok && c.Allowed
}

// Resolve computes the EffectiveTableAccess for table under ctx, following
// the four-step algorithm in spec section 4.2:
//  1. scopes with no entry at all mean unrestricted access;
//  2. each present scope is resolved independently (empty role list ==
//     all-denied; "*" role == all-allowed-unmasked; otherwise union of
//     per-table grants, with "any role unmasks" within the scope);
//  3. scopes intersect: a column is allowed only if every present scope
//     allows it, and masked if masked in at least one scope that allows it;
//  4. a masked column with no explicit maskingFn on the column definition
//     defaults to "full".
func Resolve(table *catalog.Table, roles map[string]*catalog.Role, ctx catalog.ExecutionContext) EffectiveTableAccess {
	scopes := ctx.PresentScopes()
	if len(scopes) == 0 {
		return unrestricted(table)
	}

	perScope := make([]EffectiveTableAccess, 0, len(scopes))
	for _, scope := range scopes {
		roleIDs := ctx.Roles[scope]
		perScope = append(perScope, resolveScope(table, roles, roleIDs))
	}

	return intersect(table, perScope)
}

func unrestricted(table *catalog.Table) EffectiveTableAccess {
	cols := make(map[string]ColumnAccess, len(table.Columns))
	for _, c := range table.Columns {
		cols[c.APIName] = ColumnAccess{Allowed: true}
	}
	return EffectiveTableAccess{Allowed: true, Columns: cols}
}

// resolveScope resolves one scope's roles into per-column allowed/masked
// state. Within a scope, a column's final allowed value is the union of
// every role that grants it; its final masked value is "masked by some
// role and never unmasked by another" -- tracked below as maskedByAny /
// unmaskedByAny, combined after all roles have been walked so that role
// order never matters.
func resolveScope(table *catalog.Table, roles map[string]*catalog.Role, roleIDs []string) EffectiveTableAccess {
	allowed := make(map[string]bool, len(table.Columns))
	maskedByAny := make(map[string]bool, len(table.Columns))
	unmaskedByAny := make(map[string]bool, len(table.Columns))
	tableAllowed := false

	for _, rid := range roleIDs {
		role, ok := roles[rid]
		if !ok {
			continue
		}
		if role.All {
			tableAllowed = true
			for _, c := range table.Columns {
				allowed[c.APIName] = true
				unmaskedByAny[c.APIName] = true
			}
			continue
		}

		grant := findGrant(role, table.ID)
		if grant == nil {
			continue
		}
		tableAllowed = true

		grantedSet, grantsAll := selectorSet(grant.AllowedColumns, table)
		maskedSet := toSet(grant.MaskedColumns)

		for _, c := range table.Columns {
			if !grantsAll {
				if _, ok := grantedSet[c.APIName]; !ok {
					continue
				}
			}
			allowed[c.APIName] = true
			if _, masked := maskedSet[c.APIName]; masked {
				maskedByAny[c.APIName] = true
			} else {
				unmaskedByAny[c.APIName] = true
			}
		}
	}

	cols := make(map[string]ColumnAccess, len(table.Columns))
	for _, c := range table.Columns {
		ca := ColumnAccess{Allowed: allowed[c.APIName]}
		if ca.Allowed && maskedByAny[c.APIName] && !unmaskedByAny[c.APIName] {
			ca.Masked = true
		}
		cols[c.APIName] = ca
	}

	return EffectiveTableAccess{Allowed: tableAllowed, Columns: cols}
}

func findGrant(role *catalog.Role, tableID string) *catalog.RoleTableGrant {
	for i := range role.Tables {
		if role.Tables[i].TableID == tableID {
			return &role.Tables[i]
		}
	}
	return nil
}

func selectorSet(sel *catalog.ColumnSelector, table *catalog.Table) (set map[string]struct{}, all bool) {
	if sel == nil {
		return nil, false
	}
	if sel.All {
		return nil, true
	}
	return toSet(sel.Columns), false
}

func toSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, v := range list {
		set[v] = struct{}{}
	}
	return set
}

// intersect combines per-scope results: a column is allowed only if every
// scope allows it; masked if allowed and masked in at least one scope.
func intersect(table *catalog.Table, scopes []EffectiveTableAccess) EffectiveTableAccess {
	result := EffectiveTableAccess{Allowed: true, Columns: make(map[string]ColumnAccess, len(table.Columns))}

	for _, s := range scopes {
		if !s.Allowed {
			result.Allowed = false
		}
	}

	for _, col := range table.Columns {
		allowed := true
		masked := false
		for _, s := range scopes {
			ca := s.Columns[col.APIName]
			if !ca.Allowed {
				allowed = false
			}
			if ca.Masked {
				masked = true
			}
		}
		if !result.Allowed {
			allowed = false
		}

		ca := ColumnAccess{Allowed: allowed}
		if allowed && masked {
			ca.Masked = true
			ca.MaskingFn = col.MaskingFn
			if ca.MaskingFn == "" {
				ca.MaskingFn = catalog.MaskFull
			}
		}
		result.Columns[col.APIName] = ca
	}

	return result
}
