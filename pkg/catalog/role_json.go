// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalJSON implements the `tables: "*" | [...]` shape described in
// spec section 3: a Role's tables are either the literal wildcard string or
// an array of per-table grants.
func (r *Role) UnmarshalJSON(data []byte) error {
	var probe struct {
		ID     string          `json:"id"`
		Tables json.RawMessage `json:"tables"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&probe); err != nil {
		return err
	}

	r.ID = probe.ID
	if len(probe.Tables) == 0 {
		return nil
	}

	var wildcard string
	if err := json.Unmarshal(probe.Tables, &wildcard); err == nil {
		if wildcard != "*" {
			return fmt.Errorf("role %q: tables must be \"*\" or an array", r.ID)
		}
		r.All = true
		return nil
	}

	var grants []RoleTableGrant
	if err := json.Unmarshal(probe.Tables, &grants); err != nil {
		return fmt.Errorf("role %q: invalid tables: %w", r.ID, err)
	}
	r.Tables = grants
	return nil
}

// MarshalJSON is the inverse of UnmarshalJSON.
func (r Role) MarshalJSON() ([]byte, error) {
	type alias struct {
		ID     string `json:"id"`
		Tables any    `json:"tables"`
	}
	a := alias{ID: r.ID}
	if r.All {
		a.Tables = "*"
	} else {
		a.Tables = r.Tables
	}
	return json.Marshal(a)
}

// UnmarshalJSON implements the `allowedColumns: "*" | [apiName]` shape.
func (s *ColumnSelector) UnmarshalJSON(data []byte) error {
	var wildcard string
	if err := json.Unmarshal(data, &wildcard); err == nil {
		if wildcard != "*" {
			return fmt.Errorf("invalid column selector %q", wildcard)
		}
		s.All = true
		return nil
	}
	var cols []string
	if err := json.Unmarshal(data, &cols); err != nil {
		return fmt.Errorf("invalid column selector: %w", err)
	}
	s.Columns = cols
	return nil
}

// MarshalJSON is the inverse of UnmarshalJSON.
func (s ColumnSelector) MarshalJSON() ([]byte, error) {
	if s.All {
		return json.Marshal("*")
	}
	return json.Marshal(s.Columns)
}
