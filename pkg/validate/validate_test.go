// SPDX-License-Identifier: Apache-2.0

package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/errs"
	"github.com/querygateway/gateway/pkg/query"
)

func testSnapshot() *Snapshot {
	cat := &catalog.Catalogue{
		Databases: []catalog.Database{{ID: "pg-main", Engine: catalog.EnginePostgres}},
		Tables: []catalog.Table{
			{
				ID: "t-orders", APIName: "orders", DatabaseID: "pg-main",
				PhysicalName: "public.orders", PrimaryKey: []string{"id"},
				Columns: []catalog.Column{
					{APIName: "id", PhysicalName: "id", Type: catalog.TypeUUID},
					{APIName: "status", PhysicalName: "order_status", Type: catalog.TypeString},
					{APIName: "total", PhysicalName: "total", Type: catalog.TypeDecimal},
					{APIName: "email", PhysicalName: "email", Type: catalog.TypeString, MaskingFn: catalog.MaskEmail},
				},
				Relations: []catalog.Relation{
					{Column: "id", Type: catalog.RelationOneToMany, References: struct {
						Table  string `json:"table"`
						Column string `json:"column"`
					}{Table: "t-items", Column: "orderId"}},
				},
			},
			{
				ID: "t-items", APIName: "items", DatabaseID: "pg-main",
				PhysicalName: "public.items", PrimaryKey: []string{"id"},
				Columns: []catalog.Column{
					{APIName: "id", PhysicalName: "id", Type: catalog.TypeUUID},
					{APIName: "orderId", PhysicalName: "order_id", Type: catalog.TypeUUID},
					{APIName: "sku", PhysicalName: "sku", Type: catalog.TypeString},
				},
			},
		},
	}
	roles := []catalog.Role{{ID: "admin", All: true}}
	return &Snapshot{Index: catalog.BuildIndex(cat, roles)}
}

func adminCtx() catalog.ExecutionContext {
	return catalog.ExecutionContext{Roles: map[catalog.Scope][]string{catalog.ScopeUser: {"admin"}}}
}

func TestValidateSimpleSelect(t *testing.T) {
	t.Parallel()

	q := &query.Query{From: "orders", Columns: []string{"id", "status"}}
	res, err := Validate(testSnapshot(), q, adminCtx())
	require.NoError(t, err)
	assert.Equal(t, "orders", res.FromTable.APIName)
}

func TestValidateUnknownTable(t *testing.T) {
	t.Parallel()

	q := &query.Query{From: "nope"}
	_, err := Validate(testSnapshot(), q, adminCtx())
	require.Error(t, err)

	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, errs.CodeUnknownTable, ve.Entries[0].Code)
}

func TestValidateUnknownColumn(t *testing.T) {
	t.Parallel()

	q := &query.Query{From: "orders", Columns: []string{"bogus"}}
	_, err := Validate(testSnapshot(), q, adminCtx())
	require.Error(t, err)

	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, errs.CodeUnknownColumn, ve.Entries[0].Code)
}

func TestValidateAccessDeniedSurfacesAsUnknownColumn(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	snap.Index.RolesByID["viewer"] = &catalog.Role{
		ID: "viewer",
		Tables: []catalog.RoleTableGrant{
			{TableID: "t-orders", AllowedColumns: &catalog.ColumnSelector{Columns: []string{"id", "status"}}},
		},
	}
	ctx := catalog.ExecutionContext{Roles: map[catalog.Scope][]string{catalog.ScopeUser: {"viewer"}}}

	q := &query.Query{From: "orders", Columns: []string{"email"}}
	_, err := Validate(snap, q, ctx)
	require.Error(t, err)

	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, errs.CodeUnknownColumn, ve.Entries[0].Code)
}

func TestValidateInvalidOperator(t *testing.T) {
	t.Parallel()

	q := &query.Query{From: "orders", Filters: query.FilterEntries{
		query.ValueFilter{Column: "status", Operator: "bogus", Value: "x"},
	}}
	_, err := Validate(testSnapshot(), q, adminCtx())
	require.Error(t, err)

	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, errs.CodeInvalidFilter, ve.Entries[0].Code)
}

func TestValidateInOperatorRequiresArray(t *testing.T) {
	t.Parallel()

	q := &query.Query{From: "orders", Filters: query.FilterEntries{
		query.ValueFilter{Column: "status", Operator: query.OpIn, Value: "not-an-array"},
	}}
	_, err := Validate(testSnapshot(), q, adminCtx())
	require.Error(t, err)

	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, errs.CodeInvalidValue, ve.Entries[0].Code)
}

func TestValidateJoinAcceptsRelationInEitherDirection(t *testing.T) {
	t.Parallel()

	q := &query.Query{From: "items", Joins: []query.Join{{Table: "orders"}}}
	_, err := Validate(testSnapshot(), q, adminCtx())
	require.NoError(t, err)

	q2 := &query.Query{From: "orders", Joins: []query.Join{{Table: "items"}}}
	_, err = Validate(testSnapshot(), q2, adminCtx())
	require.NoError(t, err)
}

func TestValidateAggregationFunctionAndAlias(t *testing.T) {
	t.Parallel()

	q := &query.Query{
		From:         "orders",
		GroupBy:      []string{"status"},
		Aggregations: []query.Aggregation{{Column: "*", Fn: "bogus", Alias: "Invalid Alias"}},
	}
	_, err := Validate(testSnapshot(), q, adminCtx())
	require.Error(t, err)

	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	var codes []errs.Code
	for _, e := range ve.Entries {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, errs.CodeInvalidAggregation)
}

func TestValidateHavingReferencesAliasOrGroupBy(t *testing.T) {
	t.Parallel()

	q := &query.Query{
		From:         "orders",
		GroupBy:      []string{"status"},
		Aggregations: []query.Aggregation{{Column: "*", Fn: "count", Alias: "cnt"}},
		Having: query.FilterEntries{
			query.ValueFilter{Column: "cnt", Operator: ">", Value: float64(5)},
		},
	}
	_, err := Validate(testSnapshot(), q, adminCtx())
	require.NoError(t, err)

	q2 := &query.Query{
		From:         "orders",
		GroupBy:      []string{"status"},
		Aggregations: []query.Aggregation{{Column: "*", Fn: "count", Alias: "cnt"}},
		Having: query.FilterEntries{
			query.ValueFilter{Column: "total", Operator: ">", Value: float64(5)},
		},
	}
	_, err = Validate(testSnapshot(), q2, adminCtx())
	require.Error(t, err)
}

func TestValidateByIDsMustMatchPrimaryKeyType(t *testing.T) {
	t.Parallel()

	q := &query.Query{From: "orders", ByIDs: []any{"00000000-0000-0000-0000-000000000001"}}
	_, err := Validate(testSnapshot(), q, adminCtx())
	require.NoError(t, err)

	q2 := &query.Query{From: "orders", ByIDs: []any{float64(123)}}
	_, err = Validate(testSnapshot(), q2, adminCtx())
	require.Error(t, err)

	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, errs.CodeInvalidByIDs, ve.Entries[0].Code)
}

func TestValidateExistsFilterAcceptsRelatedTable(t *testing.T) {
	t.Parallel()

	q := &query.Query{
		From: "orders",
		Filters: query.FilterEntries{
			query.ExistsFilter{Table: "items", Filters: query.FilterEntries{
				query.ValueFilter{Column: "sku", Operator: "=", Value: "abc"},
			}},
		},
	}
	_, err := Validate(testSnapshot(), q, adminCtx())
	require.NoError(t, err)
}

func TestValidateLimitOffsetNonNegative(t *testing.T) {
	t.Parallel()

	neg := -1
	q := &query.Query{From: "orders", Limit: &neg}
	_, err := Validate(testSnapshot(), q, adminCtx())
	require.Error(t, err)

	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, errs.CodeInvalidLimit, ve.Entries[0].Code)
}
