// SPDX-License-Identifier: Apache-2.0

// Package query holds the client-facing query definition (spec section 3):
// the shape validated by pkg/validate, planned by pkg/plan, and lowered to
// SQL by pkg/resolve. Every identifier here is an apiName; no physical name
// ever appears in this package.
package query

// Operator is one of the closed set of filter operators.
type Operator string

const (
	OpEq                 Operator = "="
	OpNeq                Operator = "!="
	OpLt                 Operator = "<"
	OpLte                Operator = "<="
	OpGt                 Operator = ">"
	OpGte                Operator = ">="
	OpIsNull             Operator = "isNull"
	OpIsNotNull          Operator = "isNotNull"
	OpIn                 Operator = "in"
	OpNotIn              Operator = "notIn"
	OpLike               Operator = "like"
	OpNotLike            Operator = "notLike"
	OpILike              Operator = "ilike"
	OpNotILike           Operator = "notIlike"
	OpStartsWith         Operator = "startsWith"
	OpEndsWith           Operator = "endsWith"
	OpIStartsWith        Operator = "istartsWith"
	OpIEndsWith          Operator = "iendsWith"
	OpContains           Operator = "contains"
	OpNotContains        Operator = "notContains"
	OpIContains          Operator = "icontains"
	OpNotIContains       Operator = "notIcontains"
	OpBetween            Operator = "between"
	OpNotBetween         Operator = "notBetween"
	OpLevenshteinLte     Operator = "levenshteinLte"
	OpArrayContains      Operator = "arrayContains"
	OpArrayContainsAll   Operator = "arrayContainsAll"
	OpArrayContainsAny   Operator = "arrayContainsAny"
	OpArrayIsEmpty       Operator = "arrayIsEmpty"
	OpArrayIsNotEmpty    Operator = "arrayIsNotEmpty"
)

// validOperators is the closed set from spec section 3.
var validOperators = map[Operator]struct{}{
	OpEq: {}, OpNeq: {}, OpLt: {}, OpLte: {}, OpGt: {}, OpGte: {},
	OpIsNull: {}, OpIsNotNull: {}, OpIn: {}, OpNotIn: {},
	OpLike: {}, OpNotLike: {}, OpILike: {}, OpNotILike: {},
	OpStartsWith: {}, OpEndsWith: {}, OpIStartsWith: {}, OpIEndsWith: {},
	OpContains: {}, OpNotContains: {}, OpIContains: {}, OpNotIContains: {},
	OpBetween: {}, OpNotBetween: {}, OpLevenshteinLte: {},
	OpArrayContains: {}, OpArrayContainsAll: {}, OpArrayContainsAny: {},
	OpArrayIsEmpty: {}, OpArrayIsNotEmpty: {},
}

// IsValidOperator reports whether op belongs to the closed operator set.
func IsValidOperator(op Operator) bool {
	_, ok := validOperators[op]
	return ok
}

// Freshness is a query's requested data recency.
type Freshness string

const (
	FreshnessRealtime Freshness = "realtime"
	FreshnessSeconds  Freshness = "seconds"
	FreshnessMinutes  Freshness = "minutes"
	FreshnessHours    Freshness = "hours"
)

// ExecuteMode controls what the pipeline returns for a query.
type ExecuteMode string

const (
	// ExecuteModeData runs the query and returns rows. Default.
	ExecuteModeData ExecuteMode = "data"
	// ExecuteModeCount wraps the resolved query in a count aggregate.
	ExecuteModeCount ExecuteMode = "count"
	// ExecuteModeSQLOnly stops after generation and returns the SQL text,
	// without executing it.
	ExecuteModeSQLOnly ExecuteMode = "sql-only"
)

// JoinType is the kind of join requested between the from table and a
// joined table.
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
)

// Join is one joined table in a query.
type Join struct {
	Table   string        `json:"table"`
	Type    JoinType      `json:"type,omitempty"`
	Columns []string      `json:"columns,omitempty"`
	Filters FilterEntries `json:"filters,omitempty"`
}

// Aggregation is one computed output column of a query.
type Aggregation struct {
	// Column is the source column's apiName, or "*" for count(*).
	Column string `json:"column"`
	Fn     string `json:"fn"`
	Alias  string `json:"alias"`
	Table  string `json:"table,omitempty"`
}

// OrderDirection is the sort direction of one OrderTerm.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "asc"
	OrderDesc OrderDirection = "desc"
)

// OrderTerm is one column (or alias) in a query's orderBy list.
type OrderTerm struct {
	Column    string         `json:"column"`
	Direction OrderDirection `json:"direction,omitempty"`
}

// Query is the full client-facing query definition from spec section 3.
type Query struct {
	From         string        `json:"from"`
	Columns      []string      `json:"columns,omitempty"`
	Joins        []Join        `json:"joins,omitempty"`
	Filters      FilterEntries `json:"filters,omitempty"`
	GroupBy      []string      `json:"groupBy,omitempty"`
	Aggregations []Aggregation `json:"aggregations,omitempty"`
	Having       FilterEntries `json:"having,omitempty"`
	OrderBy      []OrderTerm   `json:"orderBy,omitempty"`
	Limit        *int          `json:"limit,omitempty"`
	Offset       *int          `json:"offset,omitempty"`
	Distinct     bool          `json:"distinct,omitempty"`
	ByIDs        []any         `json:"byIds,omitempty"`
	Freshness    Freshness     `json:"freshness,omitempty"`
	ExecuteMode  ExecuteMode   `json:"executeMode,omitempty"`
	Debug        bool          `json:"debug,omitempty"`
}

// EffectiveExecuteMode defaults an empty ExecuteMode to ExecuteModeData.
func (q *Query) EffectiveExecuteMode() ExecuteMode {
	if q.ExecuteMode == "" {
		return ExecuteModeData
	}
	return q.ExecuteMode
}
