// SPDX-License-Identifier: Apache-2.0

package catalog

// ConnectivityEdge is one edge of the sync-derived connectivity graph: a
// table replicated from its source database into another database by some
// method, at some lag.
type ConnectivityEdge struct {
	SourceDatabase string
	TargetDatabase string
	Method         string
	Lag            LagBucket
}

// Index holds the O(1) lookup structures derived from a Catalogue + role
// list, as described in spec section 3 ("Derived indexes"). An Index is
// immutable once built and is always rebuilt in full -- never mutated in
// place -- so it can be shared by reference across concurrent readers.
type Index struct {
	TablesByAPIName map[string]*Table
	TablesByID      map[string]*Table
	DatabasesByID   map[string]*Database
	RolesByID       map[string]*Role
	CachesByTableID map[string][]*Cache
	SyncsBySource   map[string][]*ExternalSync

	// ConnectivityByTable maps a source table id to the edges reachable
	// from it via external syncs.
	ConnectivityByTable map[string][]ConnectivityEdge
}

// BuildIndex constructs a fresh Index from a catalogue and role list. It
// never mutates its inputs. Callers (the registry, C4) are expected to call
// this once per snapshot and discard it on the next reload -- rebuilding is
// always "whenever a snapshot is constructed", never incremental.
func BuildIndex(cat *Catalogue, roles []Role) *Index {
	idx := &Index{
		TablesByAPIName:     make(map[string]*Table, len(cat.Tables)),
		TablesByID:          make(map[string]*Table, len(cat.Tables)),
		DatabasesByID:       make(map[string]*Database, len(cat.Databases)),
		RolesByID:           make(map[string]*Role, len(roles)),
		CachesByTableID:     make(map[string][]*Cache),
		SyncsBySource:       make(map[string][]*ExternalSync),
		ConnectivityByTable: make(map[string][]ConnectivityEdge),
	}

	for i := range cat.Databases {
		d := &cat.Databases[i]
		idx.DatabasesByID[d.ID] = d
	}

	for i := range cat.Tables {
		t := &cat.Tables[i]
		idx.TablesByAPIName[t.APIName] = t
		idx.TablesByID[t.ID] = t
	}

	for i := range roles {
		r := &roles[i]
		idx.RolesByID[r.ID] = r
	}

	for i := range cat.Caches {
		c := &cat.Caches[i]
		for _, entry := range c.Entries {
			idx.CachesByTableID[entry.TableID] = append(idx.CachesByTableID[entry.TableID], c)
		}
	}

	for i := range cat.Syncs {
		s := &cat.Syncs[i]
		idx.SyncsBySource[s.SourceTable] = append(idx.SyncsBySource[s.SourceTable], s)

		srcTable, ok := idx.TablesByID[s.SourceTable]
		if !ok {
			continue
		}
		idx.ConnectivityByTable[s.SourceTable] = append(idx.ConnectivityByTable[s.SourceTable], ConnectivityEdge{
			SourceDatabase: srcTable.DatabaseID,
			TargetDatabase: s.TargetDatabase,
			Method:         s.Method,
			Lag:            s.EstimatedLag,
		})
	}

	return idx
}

// CacheColumnsFor returns the column set a cache entry holds for table, and
// whether the entry covers all of the table's columns.
func CacheColumnsFor(entry CacheEntry, table *Table) (columns map[string]struct{}, all bool) {
	if entry.CoversAllColumns() {
		return nil, true
	}
	set := make(map[string]struct{}, len(entry.Columns))
	for _, c := range entry.Columns {
		set[c] = struct{}{}
	}
	return set, false
}
