// SPDX-License-Identifier: Apache-2.0

package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FilterEntry is one node of a query's filter tree: a ValueFilter, a
// ColumnComparisonFilter, a FilterGroup, or an ExistsFilter. Unlike the
// operation types in a migration, filter entries are not wrapped in a
// named key -- the concrete kind is inferred from which fields are present
// in the object, mirroring the shape the client actually sends.
type FilterEntry interface {
	isFilterEntry()
}

// FilterEntries is a list of filter entries, decoded element-by-element by
// inspecting each object's shape. This is the json.Unmarshaler hook --
// FilterEntry itself is an interface and cannot carry one.
type FilterEntries []FilterEntry

// FilterLogic is the boolean combinator of a FilterGroup.
type FilterLogic string

const (
	LogicAnd FilterLogic = "and"
	LogicOr  FilterLogic = "or"
)

// ValueFilter compares a column against a literal value.
type ValueFilter struct {
	Column   string   `json:"column"`
	Table    string   `json:"table,omitempty"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

func (ValueFilter) isFilterEntry() {}

// ColumnComparisonFilter compares a column against another column.
type ColumnComparisonFilter struct {
	Column    string   `json:"column"`
	Table     string   `json:"table,omitempty"`
	Operator  Operator `json:"operator"`
	RefColumn string   `json:"refColumn"`
	RefTable  string   `json:"refTable,omitempty"`
}

func (ColumnComparisonFilter) isFilterEntry() {}

// FilterGroup combines nested filter entries with and/or logic.
type FilterGroup struct {
	Logic      FilterLogic   `json:"logic"`
	Not        bool          `json:"not,omitempty"`
	Conditions FilterEntries `json:"conditions"`
}

func (FilterGroup) isFilterEntry() {}

// ExistsCount constrains how many related rows an ExistsFilter must match.
type ExistsCount struct {
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// ExistsFilter requires (or forbids) related rows reachable via a relation
// path from the table it's attached to.
type ExistsFilter struct {
	Table   string        `json:"table"`
	Exists  *bool         `json:"exists,omitempty"`
	Count   *ExistsCount  `json:"count,omitempty"`
	Filters FilterEntries `json:"filters,omitempty"`
}

func (ExistsFilter) isFilterEntry() {}

// probeShape is decoded first for every filter entry object to discriminate
// its concrete kind before the strict, field-checked decode.
type probeShape struct {
	Logic     *FilterLogic `json:"logic"`
	RefColumn *string      `json:"refColumn"`
	Table     *string      `json:"table"`
	Column    *string      `json:"column"`
}

func decodeStrict(data []byte, target any) error {
	d := json.NewDecoder(bytes.NewReader(data))
	d.DisallowUnknownFields()
	return d.Decode(target)
}

func parseFilterEntry(data []byte) (FilterEntry, error) {
	var probe probeShape
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decoding filter entry: %w", err)
	}

	switch {
	case probe.Logic != nil:
		var g FilterGroup
		if err := decodeStrict(data, &g); err != nil {
			return nil, fmt.Errorf("decoding filter group: %w", err)
		}
		return g, nil
	case probe.Table != nil && probe.RefColumn == nil && probe.Column == nil:
		var e ExistsFilter
		if err := decodeStrict(data, &e); err != nil {
			return nil, fmt.Errorf("decoding exists filter: %w", err)
		}
		return e, nil
	case probe.RefColumn != nil:
		var c ColumnComparisonFilter
		if err := decodeStrict(data, &c); err != nil {
			return nil, fmt.Errorf("decoding column comparison filter: %w", err)
		}
		return c, nil
	default:
		var v ValueFilter
		if err := decodeStrict(data, &v); err != nil {
			return nil, fmt.Errorf("decoding value filter: %w", err)
		}
		return v, nil
	}
}

// UnmarshalJSON deserializes a JSON array of filter entries, dispatching
// each element to its concrete type.
func (fs *FilterEntries) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding filter entries: %w", err)
	}

	entries := make(FilterEntries, len(raw))
	for i, item := range raw {
		entry, err := parseFilterEntry(item)
		if err != nil {
			return fmt.Errorf("filter entry %d: %w", i, err)
		}
		entries[i] = entry
	}

	*fs = entries
	return nil
}
