// SPDX-License-Identifier: Apache-2.0

// Package catalog holds the typed metadata model the gateway validates
// queries against: databases, tables, columns, relations, caches, external
// syncs, and roles. Physical names never leave this package's boundary --
// every user-facing identifier above it is an apiName.
package catalog

import "strings"

// Engine identifies the physical database technology backing a Database.
type Engine string

const (
	EnginePostgres   Engine = "postgres"
	EngineClickHouse Engine = "clickhouse"
	EngineIceberg    Engine = "iceberg"
)

// ColumnType is one of the scalar types in spec section 3, or its array
// form (e.g. "string[]").
type ColumnType string

const (
	TypeUUID      ColumnType = "uuid"
	TypeString    ColumnType = "string"
	TypeInt       ColumnType = "int"
	TypeDecimal   ColumnType = "decimal"
	TypeBoolean   ColumnType = "boolean"
	TypeDate      ColumnType = "date"
	TypeTimestamp ColumnType = "timestamp"
)

// IsArray reports whether t is the array form of a scalar type.
func (t ColumnType) IsArray() bool { return strings.HasSuffix(string(t), "[]") }

// ElementType strips the array suffix, returning the scalar element type.
// It is a no-op on an already-scalar type.
func (t ColumnType) ElementType() ColumnType {
	return ColumnType(strings.TrimSuffix(string(t), "[]"))
}

// IsScalarValid reports whether the element type (scalar or array) is one
// of the closed set of supported types.
func (t ColumnType) IsScalarValid() bool {
	switch t.ElementType() {
	case TypeUUID, TypeString, TypeInt, TypeDecimal, TypeBoolean, TypeDate, TypeTimestamp:
		return true
	default:
		return false
	}
}

// MaskingFn is a named masking transform applied to a column's values after
// query execution.
type MaskingFn string

const (
	MaskEmail  MaskingFn = "email"
	MaskPhone  MaskingFn = "phone"
	MaskName   MaskingFn = "name"
	MaskUUID   MaskingFn = "uuid"
	MaskNumber MaskingFn = "number"
	MaskDate   MaskingFn = "date"
	MaskFull   MaskingFn = "full"
)

// RelationType describes the cardinality of a Relation.
type RelationType string

const (
	RelationManyToOne  RelationType = "many-to-one"
	RelationOneToOne   RelationType = "one-to-one"
	RelationOneToMany  RelationType = "one-to-many"
)

// LagBucket is the granularity of an ExternalSync's replication lag, and
// also the granularity of a query's requested freshness.
type LagBucket string

const (
	LagSeconds LagBucket = "seconds"
	LagMinutes LagBucket = "minutes"
	LagHours   LagBucket = "hours"
)

// lagRank orders lag buckets from freshest to stalest so the planner can
// compare a candidate's worst lag against a query's required freshness.
var lagRank = map[LagBucket]int{
	LagSeconds: 0,
	LagMinutes: 1,
	LagHours:   2,
}

// Rank returns an ordinal for a lag bucket; lower is fresher. Unknown
// buckets rank as stalest (len(lagRank), one past LagHours) so they never
// silently satisfy a freshness requirement.
func (l LagBucket) Rank() int {
	if r, ok := lagRank[l]; ok {
		return r
	}
	return len(lagRank)
}

// Database is a physical database the gateway can query.
type Database struct {
	ID             string `json:"id"`
	Engine         Engine `json:"engine"`
	FederationName string `json:"federationCatalog,omitempty"`
}

// Dialect returns the SQL dialect used to query this database.
func (d Database) Dialect() Dialect {
	switch d.Engine {
	case EnginePostgres:
		return DialectPostgres
	case EngineClickHouse:
		return DialectClickHouse
	case EngineIceberg:
		return DialectTrino
	default:
		return DialectPostgres
	}
}

// HasCatalog reports whether the database declares a federation catalog
// name, required for the federated (trino) planning strategy.
func (d Database) HasCatalog() bool { return d.FederationName != "" }

// Dialect is the SQL dialect selected for code generation (C9). It is
// distinct from Engine because the federated dialect is shared by any
// database reached only through the federation engine.
type Dialect string

const (
	DialectPostgres   Dialect = "postgres"
	DialectClickHouse Dialect = "clickhouse"
	DialectTrino      Dialect = "trino"
)

// Column is one column of a Table.
type Column struct {
	APIName      string     `json:"apiName"`
	PhysicalName string     `json:"physicalName"`
	Type         ColumnType `json:"type"`
	Nullable     bool       `json:"nullable"`
	MaskingFn    MaskingFn  `json:"maskingFn,omitempty"`
}

// Relation links a column on the owning table to a column on another table.
type Relation struct {
	Column     string       `json:"column"`
	Type       RelationType `json:"type"`
	References struct {
		Table  string `json:"table"`
		Column string `json:"column"`
	} `json:"references"`
}

// Table is one logical table, backed by a physical, possibly
// schema-qualified, name in one Database.
type Table struct {
	ID           string     `json:"id"`
	APIName      string     `json:"apiName"`
	DatabaseID   string     `json:"database"`
	PhysicalName string     `json:"physicalName"`
	Columns      []Column   `json:"columns"`
	PrimaryKey   []string   `json:"primaryKey"`
	Relations    []Relation `json:"relations,omitempty"`
}

// ColumnByAPIName returns the column with the given apiName, or nil.
func (t *Table) ColumnByAPIName(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].APIName == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// HasSingleColumnPrimaryKey reports whether the table's primary key is
// exactly one column, and returns that column's apiName.
func (t *Table) HasSingleColumnPrimaryKey() (string, bool) {
	if len(t.PrimaryKey) != 1 {
		return "", false
	}
	return t.PrimaryKey[0], true
}

// SchemaQualifiedParts splits a physical name like "schema.table" into its
// parts; a bare name has an empty schema part.
func (t *Table) SchemaQualifiedParts() (schemaName, tableName string) {
	if idx := strings.LastIndex(t.PhysicalName, "."); idx >= 0 {
		return t.PhysicalName[:idx], t.PhysicalName[idx+1:]
	}
	return "", t.PhysicalName
}

// CacheEntry describes one (table, key pattern) pair covered by a Cache.
type CacheEntry struct {
	TableID    string   `json:"tableId"`
	KeyPattern string   `json:"keyPattern"`
	Columns    []string `json:"columns,omitempty"`
}

// CoversAllColumns reports whether this entry holds every column of table
// (an explicit empty/absent Columns list means "all columns").
func (e CacheEntry) CoversAllColumns() bool { return len(e.Columns) == 0 }

// Cache is a cache backend fronting one or more tables.
type Cache struct {
	ID      string       `json:"id"`
	Engine  string       `json:"engine"`
	Entries []CacheEntry `json:"entries"`
}

// ExternalSync is a one-way replication of a table into another database.
type ExternalSync struct {
	SourceTable        string    `json:"sourceTable"`
	TargetDatabase     string    `json:"targetDatabase"`
	TargetPhysicalName string    `json:"targetPhysicalName"`
	Method             string    `json:"method"`
	EstimatedLag       LagBucket `json:"estimatedLag"`
}

// RoleTableGrant is one table entry of a non-wildcard Role.
type RoleTableGrant struct {
	TableID        string   `json:"tableId"`
	AllowedColumns *ColumnSelector `json:"allowedColumns"`
	MaskedColumns  []string `json:"maskedColumns,omitempty"`
}

// ColumnSelector represents either the literal wildcard "*" or an explicit
// list of column apiNames.
type ColumnSelector struct {
	All     bool
	Columns []string
}

// Role grants access to tables and columns, either globally ("*") or via an
// explicit per-table list.
type Role struct {
	ID     string           `json:"id"`
	All    bool             `json:"-"`
	Tables []RoleTableGrant `json:"tables,omitempty"`
}

// Scope identifies one dimension of an ExecutionContext.
type Scope string

const (
	ScopeUser    Scope = "user"
	ScopeService Scope = "service"
)

// ExecutionContext carries the role ids active for a query, split by scope.
type ExecutionContext struct {
	Roles map[Scope][]string `json:"roles"`
}

// PresentScopes returns the scopes that have an entry in the context,
// including scopes with an empty role list (which the access-control
// engine treats as all-denied, not absent).
func (c ExecutionContext) PresentScopes() []Scope {
	var scopes []Scope
	for _, s := range []Scope{ScopeUser, ScopeService} {
		if _, ok := c.Roles[s]; ok {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

// Catalogue is the full metadata model loaded from a MetadataProvider.
type Catalogue struct {
	Databases []Database     `json:"databases"`
	Tables    []Table        `json:"tables"`
	Caches    []Cache        `json:"caches"`
	Syncs     []ExternalSync `json:"syncs"`
}
