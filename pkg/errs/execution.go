// SPDX-License-Identifier: Apache-2.0

package errs

import "fmt"

// ExecutionError is returned by the pipeline (C10) or an executor (C11)
// when dispatch or execution itself fails.
type ExecutionError struct {
	ErrCode Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrCode, e.Message)
}

func (e *ExecutionError) Code() Code { return e.ErrCode }

func NewExecutorMissing(database string) *ExecutionError {
	return &ExecutionError{
		ErrCode: CodeExecutorMissing,
		Message: fmt.Sprintf("no executor registered for database %q", database),
		Details: detailsOf("code", string(CodeExecutorMissing), "database", database),
	}
}

func NewCacheProviderMissing(cacheID string) *ExecutionError {
	return &ExecutionError{
		ErrCode: CodeCacheProviderMissing,
		Message: fmt.Sprintf("no cache provider registered for cache %q", cacheID),
		Details: detailsOf("code", string(CodeCacheProviderMissing), "cacheId", cacheID),
	}
}

// NewQueryFailed wraps a backend failure. cause is included only as its
// string form -- never an unparameterized SQL value, per the "no error
// carries unparameterized SQL values" policy.
func NewQueryFailed(database, dialect, sql string, params []any, cause error) *ExecutionError {
	var causeMsg string
	if cause != nil {
		causeMsg = cause.Error()
	}
	return &ExecutionError{
		ErrCode: CodeQueryFailed,
		Message: fmt.Sprintf("query failed against %q", database),
		Details: map[string]any{
			"code":     string(CodeQueryFailed),
			"database": database,
			"dialect":  dialect,
			"sql":      sql,
			"params":   params,
			"cause":    causeMsg,
		},
	}
}

func NewQueryTimeout(database, dialect, sql string, timeoutMs int64) *ExecutionError {
	return &ExecutionError{
		ErrCode: CodeQueryTimeout,
		Message: fmt.Sprintf("query against %q timed out after %dms", database, timeoutMs),
		Details: map[string]any{
			"code":      string(CodeQueryTimeout),
			"database":  database,
			"dialect":   dialect,
			"sql":       sql,
			"timeoutMs": timeoutMs,
		},
	}
}
