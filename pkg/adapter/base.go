package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/geoprompt/pkg/core"
	"github.com/leapstack-labs/geoprompt/pkg/sqltext"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close and Run implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		err := b.DB.Close()
		b.DB = nil
		return err
	}
	return nil
}

// Run executes sqlStr on the open connection inside a transaction.
func (b *BaseSQLAdapter) Run(ctx context.Context, sqlStr string) (*core.Result, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	return ExecTx(ctx, b.DB, sqlStr)
}

// ExecTx runs one statement in its own transaction.
//
// DDL and DML statements are executed without fetching rows and produce a
// labelled result; everything else is queried and fully materialized. The
// transaction is committed on success and rolled back on any failure.
func ExecTx(ctx context.Context, db *sql.DB, sqlStr string) (result *core.Result, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if sqltext.Classify(sqlStr).ReturnsRows() {
		rows, qerr := tx.QueryContext(ctx, sqlStr)
		if qerr != nil {
			return nil, qerr
		}
		result, err = CollectRows(rows)
		if err != nil {
			return nil, err
		}
	} else {
		res, xerr := tx.ExecContext(ctx, sqlStr)
		if xerr != nil {
			return nil, xerr
		}
		result = &core.Result{Label: sqltext.OutcomeLabel(sqlStr)}
		if n, aerr := res.RowsAffected(); aerr == nil {
			result.RowsAffected = n
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return result, nil
}

// CollectRows reads every row of rows into a Result and closes rows.
// []byte values are converted to strings for readability.
func CollectRows(rows *sql.Rows) (*core.Result, error) {
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &core.Result{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
