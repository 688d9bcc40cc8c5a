// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnTypeArrays(t *testing.T) {
	t.Parallel()

	assert.True(t, ColumnType("string[]").IsArray())
	assert.False(t, ColumnType("string").IsArray())
	assert.Equal(t, TypeString, ColumnType("string[]").ElementType())
	assert.True(t, ColumnType("uuid[]").IsScalarValid())
	assert.False(t, ColumnType("widget[]").IsScalarValid())
}

func TestDatabaseDialect(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DialectPostgres, Database{Engine: EnginePostgres}.Dialect())
	assert.Equal(t, DialectClickHouse, Database{Engine: EngineClickHouse}.Dialect())
	assert.Equal(t, DialectTrino, Database{Engine: EngineIceberg}.Dialect())
}

func TestLagBucketRank(t *testing.T) {
	t.Parallel()

	assert.Less(t, LagSeconds.Rank(), LagMinutes.Rank())
	assert.Less(t, LagMinutes.Rank(), LagHours.Rank())
}

func TestTableHelpers(t *testing.T) {
	t.Parallel()

	tbl := &Table{
		APIName:    "orders",
		PrimaryKey: []string{"id"},
		Columns: []Column{
			{APIName: "id", PhysicalName: "id", Type: TypeUUID},
			{APIName: "status", PhysicalName: "order_status", Type: TypeString},
		},
	}

	t.Run("ColumnByAPIName found", func(t *testing.T) {
		col := tbl.ColumnByAPIName("status")
		assert.NotNil(t, col)
		assert.Equal(t, "order_status", col.PhysicalName)
	})

	t.Run("ColumnByAPIName missing", func(t *testing.T) {
		assert.Nil(t, tbl.ColumnByAPIName("missing"))
	})

	t.Run("single column primary key", func(t *testing.T) {
		pk, ok := tbl.HasSingleColumnPrimaryKey()
		assert.True(t, ok)
		assert.Equal(t, "id", pk)
	})

	t.Run("schema qualified physical name", func(t *testing.T) {
		tbl.PhysicalName = "public.orders"
		schemaName, tableName := tbl.SchemaQualifiedParts()
		assert.Equal(t, "public", schemaName)
		assert.Equal(t, "orders", tableName)
	})

	t.Run("bare physical name", func(t *testing.T) {
		tbl.PhysicalName = "orders"
		schemaName, tableName := tbl.SchemaQualifiedParts()
		assert.Equal(t, "", schemaName)
		assert.Equal(t, "orders", tableName)
	})
}

func TestBuildIndex(t *testing.T) {
	t.Parallel()

	cat := &Catalogue{
		Databases: []Database{{ID: "pg-main", Engine: EnginePostgres}, {ID: "ch-analytics", Engine: EngineClickHouse}},
		Tables: []Table{
			{ID: "t-orders", APIName: "orders", DatabaseID: "pg-main", PrimaryKey: []string{"id"}},
			{ID: "t-events", APIName: "events", DatabaseID: "ch-analytics", PrimaryKey: []string{"id"}},
		},
		Caches: []Cache{
			{ID: "redis-main", Entries: []CacheEntry{{TableID: "t-orders", KeyPattern: "order:{id}"}}},
		},
		Syncs: []ExternalSync{
			{SourceTable: "t-orders", TargetDatabase: "ch-analytics", Method: "cdc", EstimatedLag: LagMinutes},
		},
	}
	roles := []Role{{ID: "viewer"}}

	idx := BuildIndex(cat, roles)

	assert.Len(t, idx.TablesByAPIName, 2)
	assert.Same(t, &cat.Tables[0], idx.TablesByAPIName["orders"])
	assert.Contains(t, idx.CachesByTableID, "t-orders")
	assert.Contains(t, idx.SyncsBySource, "t-orders")
	assert.Equal(t, "pg-main", idx.ConnectivityByTable["t-orders"][0].SourceDatabase)
	assert.Equal(t, "ch-analytics", idx.ConnectivityByTable["t-orders"][0].TargetDatabase)
	assert.Contains(t, idx.RolesByID, "viewer")
}

func TestRoleJSONWildcard(t *testing.T) {
	t.Parallel()

	t.Run("wildcard", func(t *testing.T) {
		var r Role
		err := r.UnmarshalJSON([]byte(`{"id":"admin","tables":"*"}`))
		assert.NoError(t, err)
		assert.True(t, r.All)
	})

	t.Run("explicit grants", func(t *testing.T) {
		var r Role
		err := r.UnmarshalJSON([]byte(`{"id":"viewer","tables":[{"tableId":"t-orders","allowedColumns":"*"}]}`))
		assert.NoError(t, err)
		assert.False(t, r.All)
		assert.Len(t, r.Tables, 1)
		assert.True(t, r.Tables[0].AllowedColumns.All)
	})

	t.Run("invalid wildcard value", func(t *testing.T) {
		var r Role
		err := r.UnmarshalJSON([]byte(`{"id":"bad","tables":"everything"}`))
		assert.Error(t, err)
	})
}
