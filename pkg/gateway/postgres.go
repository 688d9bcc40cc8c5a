// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/querygateway/gateway/pkg/db"
)

// PostgresExecutor runs generated SQL against a database/sql.DB, going
// through pkg/db.RDB so a read query retries on lock_timeout exactly like
// pgroll's own DDL statements do, rather than reimplementing the backoff
// loop a second time.
type PostgresExecutor struct {
	rdb *db.RDB
}

func NewPostgresExecutor(sqlDB *sql.DB) *PostgresExecutor {
	return &PostgresExecutor{rdb: &db.RDB{DB: sqlDB}}
}

func (e *PostgresExecutor) Query(ctx context.Context, query string, params []any) ([]Row, error) {
	// List parameters (in/notIn, byIds, array operators) are bound as one
	// $n::<type>[] placeholder, so each is passed to the driver via pq.Array.
	args := make([]any, len(params))
	for i, p := range params {
		if list, ok := p.([]any); ok {
			args[i] = pq.Array(list)
			continue
		}
		args[i] = p
	}
	rows, err := e.rdb.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

func (e *PostgresExecutor) Ping(ctx context.Context) error {
	return e.rdb.DB.PingContext(ctx)
}

func (e *PostgresExecutor) Close() error {
	return e.rdb.Close()
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
