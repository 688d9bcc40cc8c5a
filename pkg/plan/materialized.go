// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/errs"
	"github.com/querygateway/gateway/pkg/query"
)

// candidate is one database considered for strategy materialized.
type candidate struct {
	databaseID      string
	worstLag        catalog.LagBucket
	hasReplica      bool
	nativeCount     int
	overrides       map[string]string
	declarationRank int
}

// materializedCandidates returns every database that can serve every
// involved table -- natively, or via a sync targeting it -- ignoring
// freshness. An empty result means P2 doesn't apply at all (not even a
// freshness-blocked candidate exists), so the planner proceeds to P3/P4.
func materializedCandidates(in Input, involvedIDs []string) []candidate {
	if len(involvedIDs) < 2 {
		return nil
	}

	dbOrder := make(map[string]int, len(in.Index.DatabasesByID))
	rank := 0
	for id := range in.Index.DatabasesByID {
		dbOrder[id] = rank
		rank++
	}

	candidateDBs := candidateDatabases(in, involvedIDs)

	var out []candidate
	for _, dbID := range candidateDBs {
		c, ok := evaluateCandidate(in, involvedIDs, dbID)
		if ok {
			c.declarationRank = dbOrder[dbID]
			out = append(out, c)
		}
	}
	return out
}

// candidateDatabases returns every database hosting at least one involved
// table, plus every database reachable as a sync target from any involved
// table.
func candidateDatabases(in Input, involvedIDs []string) []string {
	seen := make(map[string]struct{})
	var order []string
	add := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			order = append(order, id)
		}
	}

	for _, tid := range involvedIDs {
		add(in.Index.TablesByID[tid].DatabaseID)
		for _, edge := range in.Index.ConnectivityByTable[tid] {
			add(edge.TargetDatabase)
		}
	}
	return order
}

// evaluateCandidate reports whether dbID can serve every involved table:
// either dbID owns the table, or a sync replicates it into dbID.
func evaluateCandidate(in Input, involvedIDs []string, dbID string) (candidate, bool) {
	c := candidate{databaseID: dbID, overrides: map[string]string{}}

	for _, tid := range involvedIDs {
		t := in.Index.TablesByID[tid]
		if t.DatabaseID == dbID {
			c.nativeCount++
			continue
		}

		edges := in.Index.ConnectivityByTable[tid]
		var best *catalog.ConnectivityEdge
		for i := range edges {
			e := &edges[i]
			if e.TargetDatabase != dbID {
				continue
			}
			if best == nil || e.Lag.Rank() < best.Lag.Rank() {
				best = e
			}
		}
		if best == nil {
			return candidate{}, false
		}
		c.hasReplica = true
		if c.worstLag == "" || best.Lag.Rank() > c.worstLag.Rank() {
			c.worstLag = best.Lag
		}

		for _, sync := range in.Index.SyncsBySource[tid] {
			if sync.TargetDatabase == dbID {
				c.overrides[tid] = sync.TargetPhysicalName
				break
			}
		}
	}

	return c, true
}

// freshnessAllows reports whether a candidate's worst lag satisfies f.
// realtime (the default) disallows any replica at all.
func freshnessAllows(f query.Freshness, c candidate) bool {
	if !c.hasReplica {
		return true
	}
	switch f {
	case "", query.FreshnessRealtime:
		return false
	case query.FreshnessSeconds:
		return c.worstLag.Rank() <= catalog.LagSeconds.Rank()
	case query.FreshnessMinutes:
		return c.worstLag.Rank() <= catalog.LagMinutes.Rank()
	case query.FreshnessHours:
		return c.worstLag.Rank() <= catalog.LagHours.Rank()
	default:
		return false
	}
}

// bestMaterialized picks the candidate with the most natively-owned tables
// among those that satisfy the query's freshness requirement, tie-breaking
// on catalogue declaration order.
func bestMaterialized(in Input, candidates []candidate) (*Plan, bool) {
	var eligible []candidate
	for _, c := range candidates {
		if freshnessAllows(in.Query.Freshness, c) {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return nil, false
	}

	best := eligible[0]
	for _, c := range eligible[1:] {
		if c.nativeCount > best.nativeCount ||
			(c.nativeCount == best.nativeCount && c.declarationRank < best.declarationRank) {
			best = c
		}
	}

	return &Plan{
		Strategy:  StrategyMaterialized,
		Database:  best.databaseID,
		Dialect:   in.Index.DatabasesByID[best.databaseID].Dialect(),
		Overrides: best.overrides,
	}, true
}

func freshnessUnmetError(in Input, candidates []candidate) error {
	worst := candidates[0].worstLag
	for _, c := range candidates[1:] {
		if c.worstLag.Rank() > worst.Rank() {
			worst = c.worstLag
		}
	}
	required := in.Query.Freshness
	if required == "" {
		required = query.FreshnessRealtime
	}
	return errs.NewFreshnessUnmet(string(required), string(worst))
}
