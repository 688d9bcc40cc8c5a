// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/errs"
)

func validCatalogue() *catalog.Catalogue {
	return &catalog.Catalogue{
		Databases: []catalog.Database{{ID: "pg-main", Engine: catalog.EnginePostgres}},
		Tables: []catalog.Table{
			{
				ID:           "t-orders",
				APIName:      "orders",
				DatabaseID:   "pg-main",
				PhysicalName: "public.orders",
				PrimaryKey:   []string{"id"},
				Columns: []catalog.Column{
					{APIName: "id", PhysicalName: "id", Type: catalog.TypeUUID},
					{APIName: "status", PhysicalName: "order_status", Type: catalog.TypeString},
				},
			},
		},
	}
}

func TestValidateAcceptsValidCatalogue(t *testing.T) {
	t.Parallel()

	err := Validate(validCatalogue(), nil)
	assert.NoError(t, err)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	t.Parallel()

	cat := &catalog.Catalogue{
		Databases: []catalog.Database{{ID: "pg-main", Engine: catalog.EnginePostgres}},
		Tables: []catalog.Table{
			{ID: "t1", APIName: "Orders", DatabaseID: "missing-db", PrimaryKey: []string{"nope"}},
			{ID: "t2", APIName: "Orders", DatabaseID: "pg-main"},
		},
	}

	err := Validate(cat, nil)
	require.Error(t, err)

	var cfgErr *errs.ConfigError
	require.ErrorAs(t, err, &cfgErr)

	var codes []errs.Code
	for _, e := range cfgErr.Entries {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, errs.CodeInvalidAPIName)
	assert.Contains(t, codes, errs.CodeDuplicateAPIName)
	assert.Contains(t, codes, errs.CodeInvalidReference)

	// Must have collected more than one error -- never fail fast.
	assert.Greater(t, len(cfgErr.Entries), 2)
}

func TestValidateRelations(t *testing.T) {
	t.Parallel()

	cat := validCatalogue()
	cat.Tables[0].Relations = []catalog.Relation{
		{Column: "missingColumn", Type: catalog.RelationManyToOne, References: struct {
			Table  string `json:"table"`
			Column string `json:"column"`
		}{Table: "t-orders", Column: "id"}},
	}

	err := Validate(cat, nil)
	require.Error(t, err)

	var cfgErr *errs.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, errs.CodeInvalidRelation, cfgErr.Entries[0].Code)
}

func TestValidateCacheKeyPattern(t *testing.T) {
	t.Parallel()

	cat := validCatalogue()
	cat.Caches = []catalog.Cache{
		{ID: "redis-main", Entries: []catalog.CacheEntry{
			{TableID: "t-orders", KeyPattern: "order:{missing}"},
		}},
	}

	err := Validate(cat, nil)
	require.Error(t, err)

	var cfgErr *errs.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, errs.CodeInvalidCache, cfgErr.Entries[0].Code)
}

func TestValidateSync(t *testing.T) {
	t.Parallel()

	cat := validCatalogue()
	cat.Syncs = []catalog.ExternalSync{
		{SourceTable: "missing", TargetDatabase: "missing-db"},
	}

	err := Validate(cat, nil)
	require.Error(t, err)

	var cfgErr *errs.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Len(t, cfgErr.Entries, 2)
}

func TestValidateRoles(t *testing.T) {
	t.Parallel()

	cat := validCatalogue()
	roles := []catalog.Role{
		{ID: "viewer", Tables: []catalog.RoleTableGrant{
			{TableID: "t-orders", AllowedColumns: &catalog.ColumnSelector{Columns: []string{"missingColumn"}}},
		}},
	}

	err := Validate(cat, roles)
	require.Error(t, err)

	var cfgErr *errs.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, errs.CodeInvalidReference, cfgErr.Entries[0].Code)
}
