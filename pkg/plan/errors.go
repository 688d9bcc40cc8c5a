// SPDX-License-Identifier: Apache-2.0

package plan

import "github.com/querygateway/gateway/pkg/errs"

// ladderError is reached only when no cache, direct, materialized, or trino
// strategy applies (P4). It picks the single most decisive reason: trino
// being disabled outranks a missing catalog, since the operator never had a
// chance to configure one; a missing catalog outranks the generic
// unreachable-tables fallback.
func ladderError(in Input, involvedIDs []string) error {
	dbSeen := make(map[string]struct{})
	var missing []string
	for _, tid := range involvedIDs {
		dbID := in.Index.TablesByID[tid].DatabaseID
		if _, ok := dbSeen[dbID]; ok {
			continue
		}
		dbSeen[dbID] = struct{}{}
		if db := in.Index.DatabasesByID[dbID]; !db.HasCatalog() {
			missing = append(missing, dbID)
		}
	}

	if !in.TrinoEnabled {
		return errs.NewTrinoDisabled()
	}
	if len(missing) > 0 {
		return errs.NewNoCatalog(missing)
	}

	tables := make([]string, 0, len(involvedIDs))
	for _, tid := range involvedIDs {
		tables = append(tables, in.Index.TablesByID[tid].APIName)
	}
	return errs.NewUnreachableTables(tables)
}
