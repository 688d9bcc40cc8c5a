// SPDX-License-Identifier: Apache-2.0

package errs

import "fmt"

// ValidationError is returned by the query validator (C6). Like
// ConfigError, it accumulates every problem found rather than failing fast.
type ValidationError struct {
	FromTable string  `json:"fromTable"`
	Entries   []Entry `json:"errors"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: from %q, %d issue(s)", CodeValidationFailed, e.FromTable, len(e.Entries))
}

func (e *ValidationError) Code() Code { return CodeValidationFailed }

func newEntry(code Code, msg string, kv ...any) Entry {
	return Entry{Code: code, Message: msg, Details: detailsOf(kv...)}
}

func NewUnknownTable(name string) Entry {
	return newEntry(CodeUnknownTable, fmt.Sprintf("unknown table %q", name), "table", name)
}

func NewUnknownColumn(table, column string) Entry {
	return newEntry(CodeUnknownColumn, fmt.Sprintf("unknown column %q on table %q", column, table), "table", table, "column", column)
}

func NewUnknownRole(roleID string) Entry {
	return newEntry(CodeUnknownRole, fmt.Sprintf("unknown role %q", roleID), "role", roleID)
}

func NewAccessDenied(table, column string) Entry {
	return newEntry(CodeAccessDenied, fmt.Sprintf("access denied to column %q on table %q", column, table), "table", table, "column", column)
}

func NewInvalidFilter(reason string, kv ...any) Entry {
	return newEntry(CodeInvalidFilter, reason, kv...)
}

func NewInvalidValue(reason string, kv ...any) Entry {
	return newEntry(CodeInvalidValue, reason, kv...)
}

func NewInvalidJoin(table, reason string) Entry {
	return newEntry(CodeInvalidJoin, reason, "table", table)
}

func NewInvalidGroupBy(reason string, kv ...any) Entry {
	return newEntry(CodeInvalidGroupBy, reason, kv...)
}

func NewInvalidHaving(reason string, kv ...any) Entry {
	return newEntry(CodeInvalidHaving, reason, kv...)
}

func NewInvalidOrderBy(reason string, kv ...any) Entry {
	return newEntry(CodeInvalidOrderBy, reason, kv...)
}

func NewInvalidByIDs(reason string, kv ...any) Entry {
	return newEntry(CodeInvalidByIDs, reason, kv...)
}

func NewInvalidLimit(reason string, kv ...any) Entry {
	return newEntry(CodeInvalidLimit, reason, kv...)
}

func NewInvalidExists(table, reason string) Entry {
	return newEntry(CodeInvalidExists, reason, "table", table)
}

func NewInvalidAggregation(reason string, kv ...any) Entry {
	return newEntry(CodeInvalidAggregation, reason, kv...)
}
