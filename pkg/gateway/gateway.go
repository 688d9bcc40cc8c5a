// SPDX-License-Identifier: Apache-2.0

// Package gateway implements the providers and executors (C11) the
// pipeline dispatches to: one Executor per configured database, one
// CacheProvider per configured cache, and file-backed MetadataProvider/
// RoleProvider implementations of the registry's loader interfaces.
// Grounded on pkg/db.DB (one small interface wrapping a real driver,
// implemented once per backend) and pkg/state.New's constructor idiom.
package gateway

import (
	"context"
)

// Row is one result row, keyed by the column label the generated SQL
// selected ("<tAlias>__<OutputName>" for postgres and trino, the bare
// physical column name for clickhouse). The pipeline maps
// these into ColumnMapping-described output using the resolver's column
// list; the executor itself is agnostic to apiNames and masking.
type Row map[string]any

// Executor runs generated SQL against one physical database.
type Executor interface {
	Query(ctx context.Context, sql string, params []any) ([]Row, error)
	Ping(ctx context.Context) error
	Close() error
}

// CacheProvider looks up rows by primary key from a cache backend fronting
// one or more tables, reporting which requested ids were not found so the
// pipeline can fall back to the executor for the remainder.
type CacheProvider interface {
	GetMany(ctx context.Context, keyPattern string, ids []any) (hits map[string]Row, missing []any, err error)
	Ping(ctx context.Context) error
}

// Registry holds the configured Executors and CacheProviders, keyed by the
// database/cache id from the catalogue. Resolved once at startup and
// injected into the pipeline, never mutated afterward.
type Registry struct {
	Executors map[string]Executor
	Caches    map[string]CacheProvider
}

func NewRegistry() *Registry {
	return &Registry{Executors: make(map[string]Executor), Caches: make(map[string]CacheProvider)}
}

func (r *Registry) RegisterExecutor(databaseID string, e Executor) {
	r.Executors[databaseID] = e
}

func (r *Registry) RegisterCache(cacheID string, c CacheProvider) {
	r.Caches[cacheID] = c
}
