// SPDX-License-Identifier: Apache-2.0

// Package plan implements the planner (C7): deterministic, rule-based
// strategy selection over a validated query, first-match-wins across the
// cache/direct/materialized/trino/error ladder from spec section 4.4.
// Structured after the rule-based, no-cost-estimation planner shape in
// other_examples' canonica-labs planner (TableRegistry/EngineMatcher
// interfaces, ordered capability checks, typed ExecutionPlan result),
// adapted from single-table engine selection to the five-strategy ladder.
package plan

import (
	"sort"

	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/query"
	"github.com/querygateway/gateway/pkg/validate"
)

// Strategy is the chosen execution strategy for a query.
type Strategy string

const (
	StrategyCache        Strategy = "cache"
	StrategyDirect       Strategy = "direct"
	StrategyMaterialized Strategy = "materialized"
	StrategyTrino        Strategy = "trino"
)

// Plan is the planner's single output: exactly one Strategy and the
// information the resolver/generator/executor need to act on it.
type Plan struct {
	Strategy Strategy

	// Database is the single database id chosen for direct/materialized
	// execution. Empty for trino, where Catalogs carries the mapping.
	Database string
	Dialect  catalog.Dialect

	// CacheID/FallbackDatabase/FallbackDialect are set for StrategyCache.
	CacheID          string
	FallbackDatabase string
	FallbackDialect  catalog.Dialect

	// Overrides maps a table id to the physical name to use instead of its
	// natively-owned one, for StrategyMaterialized.
	Overrides map[string]string

	// Catalogs maps database id to federation catalog name, for StrategyTrino.
	Catalogs map[string]string
}

// Input bundles everything the planner needs beyond the query itself.
type Input struct {
	Query        *query.Query
	Result       *validate.Result
	Index        *catalog.Index
	TrinoEnabled bool
}

// Plan selects a strategy for in, following the ladder in spec section 4.4.
// It returns exactly one Plan or exactly one PlannerError (property P7).
func Plan(in Input) (*Plan, error) {
	involvedIDs := involvedTableIDs(in)

	if p, ok := tryCache(in, involvedIDs); ok {
		return p, nil
	}
	if p, ok := tryDirect(in, involvedIDs); ok {
		return p, nil
	}

	candidates := materializedCandidates(in, involvedIDs)
	if len(candidates) > 0 {
		if p, ok := bestMaterialized(in, candidates); ok {
			return p, nil
		}
		return nil, freshnessUnmetError(in, candidates)
	}

	if p, ok := tryTrino(in, involvedIDs); ok {
		return p, nil
	}

	return nil, ladderError(in, involvedIDs)
}

func involvedTableIDs(in Input) []string {
	ids := make([]string, 0, len(in.Result.InvolvedTables))
	for _, t := range in.Result.InvolvedTables {
		ids = append(ids, t.ID)
	}
	sort.Strings(ids)
	return ids
}

func tryCache(in Input, involvedIDs []string) (*Plan, bool) {
	q := in.Query
	if len(q.ByIDs) == 0 || len(q.Joins) != 0 || len(q.Filters) != 0 {
		return nil, false
	}
	if len(involvedIDs) != 1 {
		return nil, false
	}
	table := in.Result.FromTable
	if _, ok := table.HasSingleColumnPrimaryKey(); !ok {
		return nil, false
	}

	requested := requestedColumns(in)

	for _, cache := range in.Index.CachesByTableID[table.ID] {
		for _, entry := range cache.Entries {
			if entry.TableID != table.ID {
				continue
			}
			columns, all := catalog.CacheColumnsFor(entry, table)
			if all || isSubset(requested, columns) {
				return &Plan{
					Strategy:         StrategyCache,
					CacheID:          cache.ID,
					FallbackDatabase: table.DatabaseID,
					FallbackDialect:  in.Index.DatabasesByID[table.DatabaseID].Dialect(),
				}, true
			}
		}
	}
	return nil, false
}

func requestedColumns(in Input) map[string]struct{} {
	set := make(map[string]struct{})
	if len(in.Query.Columns) == 0 {
		for _, c := range in.Result.FromTable.Columns {
			set[c.APIName] = struct{}{}
		}
		return set
	}
	for _, c := range in.Query.Columns {
		set[c] = struct{}{}
	}
	return set
}

func isSubset(want map[string]struct{}, have map[string]struct{}) bool {
	for col := range want {
		if _, ok := have[col]; !ok {
			return false
		}
	}
	return true
}

func tryDirect(in Input, involvedIDs []string) (*Plan, bool) {
	if len(involvedIDs) == 0 {
		return nil, false
	}
	db := in.Index.TablesByID[involvedIDs[0]].DatabaseID
	for _, id := range involvedIDs[1:] {
		if in.Index.TablesByID[id].DatabaseID != db {
			return nil, false
		}
	}
	return &Plan{
		Strategy: StrategyDirect,
		Database: db,
		Dialect:  in.Index.DatabasesByID[db].Dialect(),
	}, true
}
