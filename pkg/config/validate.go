// SPDX-License-Identifier: Apache-2.0

// Package config validates a metadata catalogue (C3). Like the query
// validator, it walks the entire input and accumulates every problem found
// rather than stopping at the first -- see pkg/migrations.Migration.Validate
// in the teacher for the single-error analogue this generalizes.
package config

import (
	"fmt"
	"regexp"

	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/errs"
)

// keyPlaceholder matches a `{col}` placeholder inside a cache key pattern.
var keyPlaceholder = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Validate checks a catalogue (and, if non-nil, its roles) for structural
// and semantic validity, returning a *errs.ConfigError with every problem
// found, or nil if the catalogue is valid.
func Validate(cat *catalog.Catalogue, roles []catalog.Role) error {
	c := &collector{}

	dbByID := make(map[string]struct{}, len(cat.Databases))
	for _, db := range cat.Databases {
		dbByID[db.ID] = struct{}{}
	}

	tableByAPIName := make(map[string]int)
	tableByID := make(map[string]*catalog.Table, len(cat.Tables))
	for i := range cat.Tables {
		tableByID[cat.Tables[i].ID] = &cat.Tables[i]
	}
	for i := range cat.Tables {
		t := &cat.Tables[i]

		c.checkAPIName("table", t.APIName)
		if _, dup := tableByAPIName[t.APIName]; dup {
			c.add(errs.NewDuplicateAPIName("table", t.APIName))
		} else {
			tableByAPIName[t.APIName] = i
		}

		if _, ok := dbByID[t.DatabaseID]; !ok {
			c.add(errs.NewInvalidReference(t.APIName, "database", "database", t.DatabaseID))
		}

		c.validateColumns(t)
		c.validatePrimaryKey(t)
		c.validateRelations(t, tableByID)
	}

	for _, s := range cat.Syncs {
		c.validateSync(s, tableByID, dbByID)
	}

	for _, cache := range cat.Caches {
		c.validateCache(cache, tableByID)
	}

	for _, r := range roles {
		c.validateRole(r, tableByID)
	}

	if len(c.entries) == 0 {
		return nil
	}
	return &errs.ConfigError{Entries: c.entries}
}

// collector accumulates entries without ever failing fast, mirroring the
// error-accumulation design note in spec.md section 9.
type collector struct {
	entries []errs.Entry
}

func (c *collector) add(e errs.Entry) { c.entries = append(c.entries, e) }

func (c *collector) checkAPIName(entity, name string) {
	if !catalog.IsValidAPIName(name) {
		c.add(errs.NewInvalidAPIName(entity, name))
	}
}

func (c *collector) validateColumns(t *catalog.Table) {
	seen := make(map[string]struct{}, len(t.Columns))
	for _, col := range t.Columns {
		c.checkAPIName(fmt.Sprintf("%s.%s", t.APIName, col.APIName), col.APIName)
		if _, dup := seen[col.APIName]; dup {
			c.add(errs.NewDuplicateAPIName("column", fmt.Sprintf("%s.%s", t.APIName, col.APIName)))
		}
		seen[col.APIName] = struct{}{}

		if !col.Type.IsScalarValid() {
			c.add(errs.NewInvalidReference(t.APIName, "column.type", "column type", string(col.Type)))
		}
	}
}

func (c *collector) validatePrimaryKey(t *catalog.Table) {
	for _, pk := range t.PrimaryKey {
		if t.ColumnByAPIName(pk) == nil {
			c.add(errs.NewInvalidReference(t.APIName, "primaryKey", "column", pk))
		}
	}
}

func (c *collector) validateRelations(t *catalog.Table, tableByID map[string]*catalog.Table) {
	for _, rel := range t.Relations {
		if t.ColumnByAPIName(rel.Column) == nil {
			c.add(errs.NewInvalidRelation(t.APIName, "column", rel.Column))
			continue
		}
		refTable, ok := tableByID[rel.References.Table]
		if !ok {
			// References.Table here is specified by id in our internal
			// representation; also accept a match by apiName for
			// hand-authored catalogues.
			refTable = findByAPIName(tableByID, rel.References.Table)
		}
		if refTable == nil {
			c.add(errs.NewInvalidRelation(t.APIName, "references.table", rel.References.Table))
			continue
		}
		if refTable.ColumnByAPIName(rel.References.Column) == nil {
			c.add(errs.NewInvalidRelation(t.APIName, "references.column", rel.References.Column))
		}
	}
}

func findByAPIName(tableByID map[string]*catalog.Table, apiName string) *catalog.Table {
	for _, t := range tableByID {
		if t.APIName == apiName {
			return t
		}
	}
	return nil
}

func (c *collector) validateSync(s catalog.ExternalSync, tableByID map[string]*catalog.Table, dbByID map[string]struct{}) {
	if _, ok := tableByID[s.SourceTable]; !ok {
		c.add(errs.NewInvalidSync(s.SourceTable, "sourceTable", s.SourceTable))
	}
	if _, ok := dbByID[s.TargetDatabase]; !ok {
		c.add(errs.NewInvalidSync(s.SourceTable, "targetDatabase", s.TargetDatabase))
	}
}

func (c *collector) validateCache(cache catalog.Cache, tableByID map[string]*catalog.Table) {
	for _, entry := range cache.Entries {
		table, ok := tableByID[entry.TableID]
		if !ok {
			c.add(errs.NewInvalidCache(cache.ID, "tableId", entry.TableID))
			continue
		}

		for _, match := range keyPlaceholder.FindAllStringSubmatch(entry.KeyPattern, -1) {
			col := match[1]
			if table.ColumnByAPIName(col) == nil {
				c.add(errs.NewInvalidCache(cache.ID, "keyPattern", col))
			}
		}

		for _, colName := range entry.Columns {
			if table.ColumnByAPIName(colName) == nil {
				c.add(errs.NewInvalidCache(cache.ID, "columns", colName))
			}
		}
	}
}

func (c *collector) validateRole(r catalog.Role, tableByID map[string]*catalog.Table) {
	if r.All {
		return
	}
	for _, grant := range r.Tables {
		table, ok := tableByID[grant.TableID]
		if !ok {
			c.add(errs.NewInvalidReference(r.ID, "tables.tableId", "table", grant.TableID))
			continue
		}
		if grant.AllowedColumns == nil || grant.AllowedColumns.All {
			continue
		}
		for _, colName := range grant.AllowedColumns.Columns {
			if table.ColumnByAPIName(colName) == nil {
				c.add(errs.NewInvalidReference(r.ID, "tables.allowedColumns", "column", colName))
			}
		}
		for _, colName := range grant.MaskedColumns {
			if table.ColumnByAPIName(colName) == nil {
				c.add(errs.NewInvalidReference(r.ID, "tables.maskedColumns", "column", colName))
			}
		}
	}
}
