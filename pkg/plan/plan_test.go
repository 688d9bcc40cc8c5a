// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/errs"
	"github.com/querygateway/gateway/pkg/query"
	"github.com/querygateway/gateway/pkg/validate"
)

func baseCatalogue() *catalog.Catalogue {
	return &catalog.Catalogue{
		Databases: []catalog.Database{
			{ID: "pg-main", Engine: catalog.EnginePostgres, FederationName: "pg"},
			{ID: "ch-analytics", Engine: catalog.EngineClickHouse, FederationName: "ch"},
		},
		Tables: []catalog.Table{
			{
				ID: "t-orders", APIName: "orders", DatabaseID: "pg-main",
				PhysicalName: "public.orders", PrimaryKey: []string{"id"},
				Columns: []catalog.Column{
					{APIName: "id", PhysicalName: "id", Type: catalog.TypeUUID},
					{APIName: "status", PhysicalName: "status", Type: catalog.TypeString},
				},
			},
			{
				ID: "t-events", APIName: "events", DatabaseID: "ch-analytics",
				PhysicalName: "events", PrimaryKey: []string{"id"},
				Columns: []catalog.Column{
					{APIName: "id", PhysicalName: "id", Type: catalog.TypeUUID},
					{APIName: "kind", PhysicalName: "kind", Type: catalog.TypeString},
				},
			},
		},
		Caches: []catalog.Cache{
			{
				ID: "redis-orders", Engine: "redis",
				Entries: []catalog.CacheEntry{{TableID: "t-orders", KeyPattern: "orders:{id}"}},
			},
		},
	}
}

func indexFor(cat *catalog.Catalogue) *catalog.Index {
	return catalog.BuildIndex(cat, nil)
}

func resultFor(idx *catalog.Index, tableAPINames ...string) *validate.Result {
	involved := make(map[string]*catalog.Table, len(tableAPINames))
	var from *catalog.Table
	for i, name := range tableAPINames {
		t := idx.TablesByAPIName[name]
		involved[t.APIName] = t
		if i == 0 {
			from = t
		}
	}
	return &validate.Result{FromTable: from, InvolvedTables: involved}
}

func TestPlanByIDsUsesCacheWhenEntryCoversRequest(t *testing.T) {
	t.Parallel()

	idx := indexFor(baseCatalogue())
	q := &query.Query{From: "orders", ByIDs: []any{"x"}}
	in := Input{Query: q, Result: resultFor(idx, "orders"), Index: idx}

	p, err := Plan(in)
	require.NoError(t, err)
	assert.Equal(t, StrategyCache, p.Strategy)
	assert.Equal(t, "redis-orders", p.CacheID)
	assert.Equal(t, "pg-main", p.FallbackDatabase)
}

func TestPlanFallsBackToDirectWhenNotCacheable(t *testing.T) {
	t.Parallel()

	idx := indexFor(baseCatalogue())
	q := &query.Query{From: "orders", Filters: query.FilterEntries{
		query.ValueFilter{Column: "status", Operator: query.OpEq, Value: "open"},
	}}
	in := Input{Query: q, Result: resultFor(idx, "orders"), Index: idx}

	p, err := Plan(in)
	require.NoError(t, err)
	assert.Equal(t, StrategyDirect, p.Strategy)
	assert.Equal(t, "pg-main", p.Database)
}

func TestPlanCrossDatabaseJoinFailsWithoutTrino(t *testing.T) {
	t.Parallel()

	idx := indexFor(baseCatalogue())
	q := &query.Query{From: "orders", Joins: []query.Join{{Table: "events"}}}
	in := Input{Query: q, Result: resultFor(idx, "orders", "events"), Index: idx, TrinoEnabled: false}

	_, err := Plan(in)
	require.Error(t, err)

	var pe *errs.PlannerError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, errs.CodeTrinoDisabled, pe.Code())
}

func TestPlanCrossDatabaseJoinUsesTrinoWhenEnabled(t *testing.T) {
	t.Parallel()

	idx := indexFor(baseCatalogue())
	q := &query.Query{From: "orders", Joins: []query.Join{{Table: "events"}}}
	in := Input{Query: q, Result: resultFor(idx, "orders", "events"), Index: idx, TrinoEnabled: true}

	p, err := Plan(in)
	require.NoError(t, err)
	assert.Equal(t, StrategyTrino, p.Strategy)
	assert.Equal(t, "pg", p.Catalogs["pg-main"])
	assert.Equal(t, "ch", p.Catalogs["ch-analytics"])
}

func TestPlanCrossDatabaseJoinNoCatalogReported(t *testing.T) {
	t.Parallel()

	cat := baseCatalogue()
	cat.Databases[1].FederationName = ""
	idx := indexFor(cat)
	q := &query.Query{From: "orders", Joins: []query.Join{{Table: "events"}}}
	in := Input{Query: q, Result: resultFor(idx, "orders", "events"), Index: idx, TrinoEnabled: true}

	_, err := Plan(in)
	require.Error(t, err)

	var pe *errs.PlannerError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, errs.CodeNoCatalog, pe.Code())
}

func TestPlanUsesMaterializedReplicaWhenFreshnessAllows(t *testing.T) {
	t.Parallel()

	cat := baseCatalogue()
	cat.Syncs = []catalog.ExternalSync{
		{SourceTable: "t-orders", TargetDatabase: "ch-analytics", TargetPhysicalName: "orders_replica", Method: "cdc", EstimatedLag: catalog.LagMinutes},
	}
	idx := indexFor(cat)
	q := &query.Query{From: "events", Joins: []query.Join{{Table: "orders"}}, Freshness: query.FreshnessMinutes}
	in := Input{Query: q, Result: resultFor(idx, "events", "orders"), Index: idx}

	p, err := Plan(in)
	require.NoError(t, err)
	assert.Equal(t, StrategyMaterialized, p.Strategy)
	assert.Equal(t, "ch-analytics", p.Database)
	assert.Equal(t, "orders_replica", p.Overrides["t-orders"])
}

func TestPlanMaterializedCandidateBlockedByRealtimeFreshness(t *testing.T) {
	t.Parallel()

	cat := baseCatalogue()
	cat.Syncs = []catalog.ExternalSync{
		{SourceTable: "t-orders", TargetDatabase: "ch-analytics", TargetPhysicalName: "orders_replica", Method: "cdc", EstimatedLag: catalog.LagMinutes},
	}
	idx := indexFor(cat)
	q := &query.Query{From: "events", Joins: []query.Join{{Table: "orders"}}, Freshness: query.FreshnessRealtime}
	in := Input{Query: q, Result: resultFor(idx, "events", "orders"), Index: idx}

	_, err := Plan(in)
	require.Error(t, err)

	var pe *errs.PlannerError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, errs.CodeFreshnessUnmet, pe.Code())
}
