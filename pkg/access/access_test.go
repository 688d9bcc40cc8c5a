// SPDX-License-Identifier: Apache-2.0

package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/querygateway/gateway/pkg/catalog"
)

func ordersTable() *catalog.Table {
	return &catalog.Table{
		ID:      "t-orders",
		APIName: "orders",
		Columns: []catalog.Column{
			{APIName: "id", Type: catalog.TypeUUID},
			{APIName: "email", Type: catalog.TypeString, MaskingFn: catalog.MaskEmail},
			{APIName: "total", Type: catalog.TypeDecimal},
		},
	}
}

func TestResolveNoScopesIsUnrestricted(t *testing.T) {
	t.Parallel()

	access := Resolve(ordersTable(), nil, catalog.ExecutionContext{})
	assert.True(t, access.Allowed)
	for _, col := range ordersTable().Columns {
		assert.True(t, access.ColumnAllowed(col.APIName))
	}
}

func TestResolveUnknownRoleDenies(t *testing.T) {
	t.Parallel()

	roles := map[string]*catalog.Role{}
	ctx := catalog.ExecutionContext{Roles: map[catalog.Scope][]string{catalog.ScopeUser: {"missing"}}}

	access := Resolve(ordersTable(), roles, ctx)
	assert.False(t, access.Allowed)
}

func TestResolveWildcardRoleAllowsAllUnmasked(t *testing.T) {
	t.Parallel()

	roles := map[string]*catalog.Role{"admin": {ID: "admin", All: true}}
	ctx := catalog.ExecutionContext{Roles: map[catalog.Scope][]string{catalog.ScopeService: {"admin"}}}

	access := Resolve(ordersTable(), roles, ctx)
	assert.True(t, access.Allowed)
	assert.False(t, access.Columns["email"].Masked)
}

func TestResolveMaskedColumnDefaultsToTableMaskingFn(t *testing.T) {
	t.Parallel()

	roles := map[string]*catalog.Role{
		"viewer": {ID: "viewer", Tables: []catalog.RoleTableGrant{
			{TableID: "t-orders", AllowedColumns: &catalog.ColumnSelector{All: true}, MaskedColumns: []string{"email"}},
		}},
	}
	ctx := catalog.ExecutionContext{Roles: map[catalog.Scope][]string{catalog.ScopeUser: {"viewer"}}}

	access := Resolve(ordersTable(), roles, ctx)
	assert.True(t, access.ColumnAllowed("email"))
	assert.True(t, access.Columns["email"].Masked)
	assert.Equal(t, catalog.MaskEmail, access.Columns["email"].MaskingFn)
}

func TestResolveUnionOfUnmasksWinsWithinScope(t *testing.T) {
	t.Parallel()

	roles := map[string]*catalog.Role{
		"masker": {ID: "masker", Tables: []catalog.RoleTableGrant{
			{TableID: "t-orders", AllowedColumns: &catalog.ColumnSelector{All: true}, MaskedColumns: []string{"email"}},
		}},
		"unmasker": {ID: "unmasker", Tables: []catalog.RoleTableGrant{
			{TableID: "t-orders", AllowedColumns: &catalog.ColumnSelector{All: true}},
		}},
	}
	ctx := catalog.ExecutionContext{Roles: map[catalog.Scope][]string{catalog.ScopeUser: {"masker", "unmasker"}}}

	access := Resolve(ordersTable(), roles, ctx)
	assert.False(t, access.Columns["email"].Masked)
}

func TestResolveIntersectsAcrossScopes(t *testing.T) {
	t.Parallel()

	roles := map[string]*catalog.Role{
		"userRole": {ID: "userRole", Tables: []catalog.RoleTableGrant{
			{TableID: "t-orders", AllowedColumns: &catalog.ColumnSelector{Columns: []string{"id", "email", "total"}}},
		}},
		"serviceRole": {ID: "serviceRole", Tables: []catalog.RoleTableGrant{
			{TableID: "t-orders", AllowedColumns: &catalog.ColumnSelector{Columns: []string{"id", "total"}}, MaskedColumns: []string{"total"}},
		}},
	}
	ctx := catalog.ExecutionContext{Roles: map[catalog.Scope][]string{
		catalog.ScopeUser:    {"userRole"},
		catalog.ScopeService: {"serviceRole"},
	}}

	access := Resolve(ordersTable(), roles, ctx)
	assert.True(t, access.ColumnAllowed("id"))
	assert.True(t, access.ColumnAllowed("total"))
	assert.True(t, access.Columns["total"].Masked)
	assert.False(t, access.ColumnAllowed("email"))
}
