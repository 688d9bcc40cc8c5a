// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/querygateway/gateway/cmd/flags"
	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/gateway"
	"github.com/querygateway/gateway/pkg/pipeline"
	"github.com/querygateway/gateway/pkg/registry"
)

// buildPipeline wires a Registry and a gateway.Registry from the current
// flag values into a ready-to-use Pipeline, the way NewRoll in the teacher
// builds a *roll.Roll from postgres-url/schema/pgroll-schema flags.
func buildPipeline(ctx context.Context) (*pipeline.Pipeline, *registry.Registry, error) {
	reg, err := registry.New(ctx,
		gateway.NewFileMetadataProvider(flags.MetadataFile()),
		gateway.NewFileRoleProvider(flags.RolesFile()),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("loading registry: %w", err)
	}

	conns, err := gateway.LoadDatabaseConnections(flags.DatabasesFile())
	if err != nil {
		return nil, nil, err
	}

	providers := gateway.NewRegistry()
	dbs := make(map[string]*sql.DB, len(conns))
	snap := reg.Current()
	for _, c := range conns {
		connStr, err := c.ConnectionString()
		if err != nil {
			return nil, nil, fmt.Errorf("database %q: %w", c.ID, err)
		}

		sqlDB, err := sql.Open("postgres", connStr)
		if err != nil {
			return nil, nil, fmt.Errorf("database %q: %w", c.ID, err)
		}
		dbs[c.ID] = sqlDB
		providers.RegisterExecutor(c.ID, gateway.NewPostgresExecutor(sqlDB))
	}

	if len(snap.Catalogue.Caches) > 0 {
		cacheDB, ok := pickCacheDB(dbs, snap.Catalogue)
		if ok {
			cache := gateway.NewPostgresCacheProvider(cacheDB, flags.CacheTable())
			if err := cache.EnsureSchema(ctx); err != nil {
				return nil, nil, fmt.Errorf("preparing cache table: %w", err)
			}
			for _, c := range snap.Catalogue.Caches {
				providers.RegisterCache(c.ID, cache)
			}
		}
	}

	pl := pipeline.New(reg, providers, pipeline.WithTrino(flags.TrinoEnabled()), pipeline.WithLogger(pipeline.NewLogger()))
	return pl, reg, nil
}

// pickCacheDB chooses the first postgres-engine database connection to back
// every configured cache. No cache-client library appears anywhere in the
// retrieval pack this project was built from (see pkg/gateway's
// PostgresCacheProvider doc comment), so every declared cache is realized
// as a table in one ordinary Postgres database rather than a per-cache
// backend.
func pickCacheDB(dbs map[string]*sql.DB, cat *catalog.Catalogue) (*sql.DB, bool) {
	for _, d := range cat.Databases {
		if d.Engine != catalog.EnginePostgres {
			continue
		}
		if db, ok := dbs[d.ID]; ok {
			return db, true
		}
	}
	return nil, false
}
