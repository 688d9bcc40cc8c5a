// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Value implements driver.Valuer so a Catalogue can be persisted as a jsonb
// column by a registry's own bookkeeping store, the same way
// pkg/schema.Schema does in the teacher.
func (c Catalogue) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner, the inverse of Value.
func (c *Catalogue) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("catalog: type assertion to []byte failed")
	}
	return json.Unmarshal(b, c)
}
