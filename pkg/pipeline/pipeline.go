// SPDX-License-Identifier: Apache-2.0

// Package pipeline implements the orchestrator (C10): the single place that
// walks a query through capture-snapshot -> validate -> plan -> resolve ->
// generate -> execute/cache -> mask -> respond. Grounded on pkg/roll.Roll's
// shape (one struct owning the live dependencies, a sequence of stages each
// wrapping and returning on its own error) generalized from a single
// Postgres connection to the registry/gateway pair.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/querygateway/gateway/pkg/access"
	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/dialect"
	"github.com/querygateway/gateway/pkg/errs"
	"github.com/querygateway/gateway/pkg/gateway"
	"github.com/querygateway/gateway/pkg/plan"
	"github.com/querygateway/gateway/pkg/query"
	"github.com/querygateway/gateway/pkg/registry"
	"github.com/querygateway/gateway/pkg/resolve"
	"github.com/querygateway/gateway/pkg/validate"
)

// Pipeline dispatches validated queries to the planner, resolver, dialect
// generators, and finally the registered executors/cache providers.
type Pipeline struct {
	registry     *registry.Registry
	providers    *gateway.Registry
	trinoEnabled bool
	logger       Logger
}

type Option func(*Pipeline)

func WithTrino(enabled bool) Option {
	return func(p *Pipeline) { p.trinoEnabled = enabled }
}

func WithLogger(l Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func New(reg *registry.Registry, providers *gateway.Registry, opts ...Option) *Pipeline {
	p := &Pipeline{registry: reg, providers: providers, logger: NewNoopLogger()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Result is what Run hands back to a caller: rows, the plan/dialect the
// query was executed under, and column descriptors for anyone that wants to
// know which fields were masked.
type Result struct {
	Rows    []map[string]any `json:"rows,omitempty"`
	Count   *int64            `json:"count,omitempty"`
	SQL     string            `json:"sql,omitempty"`
	Params  []any             `json:"params,omitempty"`
	Meta    Meta              `json:"meta"`
}

// Meta describes how a query was executed, for observability and for
// clients that want to explain a plan without running it.
type Meta struct {
	Strategy plan.Strategy   `json:"strategy"`
	Database string          `json:"database,omitempty"`
	Dialect  catalog.Dialect `json:"dialect,omitempty"`
	Tables   []string        `json:"tables"`
	Columns  []ColumnDesc    `json:"columns,omitempty"`
}

type ColumnDesc struct {
	APIName string `json:"apiName"`
	Masked  bool   `json:"masked,omitempty"`
}

// Run executes q under ctx's access context. On success it returns exactly
// one Result; on failure it returns one of the typed errors from pkg/errs
// (ConfigError is not reachable here -- that's a registry.Reload concern).
func (p *Pipeline) Run(ctx context.Context, q *query.Query, execCtx catalog.ExecutionContext) (*Result, error) {
	start := time.Now()
	snap := p.registry.Current()

	vres, err := validate.Validate(&validate.Snapshot{Index: snap.Index}, q, execCtx)
	if err != nil {
		return nil, err
	}
	p.logPhase("validate", start, q)

	t1 := time.Now()
	pl, err := plan.Plan(plan.Input{Query: q, Result: vres, Index: snap.Index, TrinoEnabled: p.trinoEnabled})
	if err != nil {
		return nil, err
	}
	p.logPhase("plan", t1, q)

	switch pl.Strategy {
	case plan.StrategyCache:
		return p.runCache(ctx, snap.Index, q, vres, pl)
	default:
		return p.runDialectQuery(ctx, snap.Index, q, vres, pl)
	}
}

func (p *Pipeline) logPhase(phase string, since time.Time, q *query.Query) {
	if q.Debug {
		p.logger.LogPhase(phase, time.Since(since))
	}
}

// runDialectQuery covers direct/materialized/trino: resolve, generate,
// optionally stop at sql-only, otherwise execute against the chosen (or
// trino-federated) database and mask the result.
func (p *Pipeline) runDialectQuery(ctx context.Context, idx *catalog.Index, q *query.Query, vres *validate.Result, pl *plan.Plan) (*Result, error) {
	t := time.Now()
	out, err := resolve.Resolve(plan.Input{Query: q, Result: vres, Index: idx, TrinoEnabled: p.trinoEnabled}, vres, pl)
	if err != nil {
		return nil, err
	}
	p.logPhase("resolve", t, q)

	gen, err := dialect.For(pl.Dialect)
	if err != nil {
		return nil, err
	}
	t = time.Now()
	output, err := gen.Generate(out.Parts, out.Params)
	if err != nil {
		return nil, err
	}
	p.logPhase("generate", t, q)

	meta := p.buildMeta(pl, vres)

	if q.EffectiveExecuteMode() == query.ExecuteModeSQLOnly {
		return &Result{SQL: output.SQL, Params: output.Params, Meta: meta}, nil
	}

	database := pl.Database
	if pl.Strategy == plan.StrategyTrino {
		database = "" // trino runs against a federated coordinator, not a single executor entry
	}

	exec, ok := p.providers.Executors[executorKey(pl, database)]
	if !ok {
		return nil, errs.NewExecutorMissing(executorKey(pl, database))
	}

	t = time.Now()
	rows, err := exec.Query(ctx, output.SQL, output.Params)
	if err != nil {
		return nil, errs.NewQueryFailed(executorKey(pl, database), string(pl.Dialect), output.SQL, output.Params, err)
	}
	p.logPhase("execute", t, q)

	return p.buildResult(q, out, pl, rows, meta)
}

// executorKey is the registry key an executor was registered under: the
// trino strategy has no single Database, so it dispatches to an executor
// registered under the synthetic "trino" key (the federated coordinator).
func executorKey(pl *plan.Plan, database string) string {
	if pl.Strategy == plan.StrategyTrino {
		return "trino"
	}
	return database
}

// runCache fetches byIds rows from the configured cache, falls back to the
// registered executor for any ids the cache reported missing, and merges
// the two in the caller's requested id order.
func (p *Pipeline) runCache(ctx context.Context, idx *catalog.Index, q *query.Query, vres *validate.Result, pl *plan.Plan) (*Result, error) {
	cache, ok := p.providers.Caches[pl.CacheID]
	if !ok {
		return nil, errs.NewCacheProviderMissing(pl.CacheID)
	}

	table := vres.FromTable
	keyPattern := cacheKeyPattern(idx, table.ID, pl.CacheID)

	t := time.Now()
	hits, missing, err := cache.GetMany(ctx, keyPattern, q.ByIDs)
	if err != nil {
		return nil, errs.NewQueryFailed(pl.CacheID, "cache", keyPattern, q.ByIDs, err)
	}
	p.logPhase("cache-lookup", t, q)

	rowsByID := make(map[string]map[string]any, len(q.ByIDs))
	for id, row := range hits {
		rowsByID[id] = applyMaskingToCacheRow(row, table, vres.Access[table.APIName])
	}

	if len(missing) > 0 {
		fallback := &query.Query{From: q.From, Columns: q.Columns, ByIDs: missing, Debug: q.Debug}
		fallbackPlan := &plan.Plan{Strategy: plan.StrategyDirect, Database: pl.FallbackDatabase, Dialect: pl.FallbackDialect}
		res, err := p.runDialectQuery(ctx, idx, fallback, vres, fallbackPlan)
		if err != nil {
			return nil, err
		}
		pkCol, _ := table.HasSingleColumnPrimaryKey()
		for _, row := range res.Rows {
			id := fmt.Sprint(row[pkCol])
			rowsByID[id] = row
		}
	}

	ordered := make([]map[string]any, 0, len(q.ByIDs))
	for _, id := range q.ByIDs {
		if row, ok := rowsByID[fmt.Sprint(id)]; ok {
			ordered = append(ordered, row)
		}
	}

	meta := p.buildMeta(pl, vres)
	return &Result{Rows: ordered, Meta: meta}, nil
}

func cacheKeyPattern(idx *catalog.Index, tableID, cacheID string) string {
	for _, c := range idx.CachesByTableID[tableID] {
		if c.ID != cacheID {
			continue
		}
		for _, e := range c.Entries {
			if e.TableID == tableID {
				return e.KeyPattern
			}
		}
	}
	return ""
}

func applyMaskingToCacheRow(row gateway.Row, table *catalog.Table, acc access.EffectiveTableAccess) map[string]any {
	out := make(map[string]any, len(row))
	for apiName, value := range row {
		ca, ok := acc.Columns[apiName]
		if !ok {
			continue
		}
		if ca.Masked {
			out[apiName] = access.Mask(ca.MaskingFn, value)
			continue
		}
		out[apiName] = value
	}
	return out
}

// buildResult converts executor rows (keyed by whatever row label the
// dialect generator rendered) into apiName-keyed maps, applying masking and
// appending unmasked aggregation columns.
func (p *Pipeline) buildResult(q *query.Query, out *resolve.Result, pl *plan.Plan, rows []gateway.Row, meta Meta) (*Result, error) {
	if q.EffectiveExecuteMode() == query.ExecuteModeCount {
		var count int64
		if len(rows) > 0 {
			count = toInt64(rows[0]["count"])
		}
		return &Result{Count: &count, Meta: meta}, nil
	}

	mapped := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		mapped = append(mapped, mapRow(row, out.Parts.Select, out.Columns, pl.Dialect))
		for _, agg := range out.Parts.Aggregations {
			mapped[len(mapped)-1][agg.Alias] = row[agg.Alias]
		}
	}
	return &Result{Rows: mapped, Meta: meta}, nil
}

func mapRow(row gateway.Row, cols []resolve.ColumnRef, mapping []resolve.ColumnMapping, d catalog.Dialect) map[string]any {
	out := make(map[string]any, len(cols))
	for i, col := range cols {
		key := rowKey(col, d)
		value := row[key]
		m := mapping[i]
		if m.Masked {
			value = access.Mask(m.MaskingFn, value)
		}
		out[m.APIName] = value
	}
	return out
}

// rowKey reproduces the label each generator actually put in its SELECT AS
// clause: "<alias>__<outputName>" for postgres/trino, the bare physical
// column name for clickhouse (see pkg/dialect's per-dialect SELECT
// rendering -- clickhouse.go intentionally diverges from the other two).
func rowKey(col resolve.ColumnRef, d catalog.Dialect) string {
	if d == catalog.DialectClickHouse {
		return col.PhysicalName
	}
	return fmt.Sprintf("%s__%s", col.Table, col.OutputName)
}

func (p *Pipeline) buildMeta(pl *plan.Plan, vres *validate.Result) Meta {
	tables := make([]string, 0, len(vres.InvolvedTables))
	for name := range vres.InvolvedTables {
		tables = append(tables, name)
	}
	cols := make([]ColumnDesc, 0)
	for apiName, ca := range vres.Access[vres.FromTable.APIName].Columns {
		if ca.Allowed {
			cols = append(cols, ColumnDesc{APIName: apiName, Masked: ca.Masked})
		}
	}
	return Meta{Strategy: pl.Strategy, Database: pl.Database, Dialect: pl.Dialect, Tables: tables, Columns: cols}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// HealthCheck pings every registered executor and cache provider, returning
// the set of provider ids that failed to respond.
func (p *Pipeline) HealthCheck(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for id, exec := range p.providers.Executors {
		if err := exec.Ping(ctx); err != nil {
			failures[id] = err
		}
	}
	for id, cache := range p.providers.Caches {
		if err := cache.Ping(ctx); err != nil {
			failures[id] = err
		}
	}
	return failures
}
