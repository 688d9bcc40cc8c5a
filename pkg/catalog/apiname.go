// SPDX-License-Identifier: Apache-2.0

package catalog

import "regexp"

// apiNamePattern matches the user-facing identifier shape: lower camelCase,
// 1-64 characters.
var apiNamePattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)

// MaxAPINameLength mirrors the Postgres identifier limit the teacher
// enforces in pkg/migrations/name.go, reused here as the apiName bound.
const MaxAPINameLength = 64

// reservedWords may never be used as an apiName, since they collide with
// generated SQL constructs (aggregation aliases, filter operators) or
// dialect reserved words across all three backends.
var reservedWords = map[string]struct{}{
	"select": {}, "from": {}, "where": {}, "join": {}, "group": {}, "order": {},
	"having": {}, "limit": {}, "offset": {}, "distinct": {}, "count": {},
	"sum": {}, "avg": {}, "min": {}, "max": {}, "and": {}, "or": {}, "not": {},
	"null": {}, "true": {}, "false": {}, "table": {}, "column": {}, "as": {},
	"in": {}, "between": {}, "like": {}, "exists": {}, "case": {}, "when": {},
	"then": {}, "else": {}, "end": {},
}

// IsValidAPIName reports whether name matches the apiName shape and is not
// a reserved word.
func IsValidAPIName(name string) bool {
	if len(name) == 0 || len(name) > MaxAPINameLength {
		return false
	}
	if !apiNamePattern.MatchString(name) {
		return false
	}
	_, reserved := reservedWords[name]
	return !reserved
}
