// SPDX-License-Identifier: Apache-2.0

package errs

import "fmt"

// ConfigError is returned by the config validator (C3). It always carries
// the full list of problems found in the catalogue; validation never stops
// at the first failure.
type ConfigError struct {
	Entries []Entry `json:"errors"`
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %d issue(s) found", CodeConfigInvalid, len(e.Entries))
}

func (e *ConfigError) Code() Code { return CodeConfigInvalid }

// NewInvalidAPIName reports an apiName that fails the pattern or collides
// with a reserved word.
func NewInvalidAPIName(entity, name string) Entry {
	return Entry{
		Code:    CodeInvalidAPIName,
		Message: fmt.Sprintf("%q is not a valid api name", name),
		Details: detailsOf("entity", entity, "actual", name),
	}
}

// NewDuplicateAPIName reports two entities sharing an apiName where
// uniqueness is required.
func NewDuplicateAPIName(entity, name string) Entry {
	return Entry{
		Code:    CodeDuplicateAPIName,
		Message: fmt.Sprintf("duplicate api name %q", name),
		Details: detailsOf("entity", entity, "actual", name),
	}
}

// NewInvalidReference reports a dangling reference (table->database,
// relation->table/column, sync->table/database, cache->table/column).
func NewInvalidReference(entity, field, expected, actual string) Entry {
	return Entry{
		Code:    CodeInvalidReference,
		Message: fmt.Sprintf("%s.%s references unknown %s", entity, field, expected),
		Details: detailsOf("entity", entity, "field", field, "expected", expected, "actual", actual),
	}
}

// NewInvalidRelation reports a relation whose source column, referenced
// table, or referenced column does not exist.
func NewInvalidRelation(table, field, actual string) Entry {
	return Entry{
		Code:    CodeInvalidRelation,
		Message: fmt.Sprintf("relation on %s has invalid %s", table, field),
		Details: detailsOf("entity", table, "field", field, "actual", actual),
	}
}

// NewInvalidSync reports an external sync referencing an unknown source
// table or target database.
func NewInvalidSync(sourceTable, field, actual string) Entry {
	return Entry{
		Code:    CodeInvalidSync,
		Message: fmt.Sprintf("sync from %s has invalid %s", sourceTable, field),
		Details: detailsOf("entity", sourceTable, "field", field, "actual", actual),
	}
}

// NewInvalidCache reports a cache entry referencing an unknown table or
// column, or a malformed key pattern.
func NewInvalidCache(cacheID, field, actual string) Entry {
	return Entry{
		Code:    CodeInvalidCache,
		Message: fmt.Sprintf("cache %s has invalid %s", cacheID, field),
		Details: detailsOf("cacheId", cacheID, "field", field, "actual", actual),
	}
}
