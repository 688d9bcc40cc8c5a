// SPDX-License-Identifier: Apache-2.0

// Package sqlsafe holds the shared escaping primitives every dialect
// generator in pkg/dialect uses, so the injection-safety contract can't
// drift between dialects. It generalizes lib/pq's QuoteIdentifier (which
// assumes one active Postgres connection) into pure, dialect-parameterized
// functions, since generators here render SQL standalone.
package sqlsafe

import "strings"

// QuoteIdent quotes name with quote on both sides, doubling any internal
// occurrence of quote the way every SQL dialect's identifier escaping works.
func QuoteIdent(quote byte, name string) string {
	q := string(quote)
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// EscapeLikePattern escapes the LIKE metacharacters %, _, and the escape
// character \ itself, so a user-supplied substring can be safely wrapped in
// wildcards without the literal text being interpreted as a pattern.
func EscapeLikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

var validAggFns = map[string]bool{
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
}

// IsValidAggFn reports whether fn (case-insensitively) is one of the
// whitelisted aggregation function names.
func IsValidAggFn(fn string) bool {
	return validAggFns[strings.ToLower(fn)]
}

var validWhereFns = map[string]bool{
	"levenshtein": true,
}

// IsValidWhereFn reports whether fn is one of the whitelisted WHERE helper
// function names.
func IsValidWhereFn(fn string) bool {
	return validWhereFns[strings.ToLower(fn)]
}
