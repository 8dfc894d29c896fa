package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/leapstack-labs/geoprompt/pkg/adapter"
	"github.com/leapstack-labs/geoprompt/pkg/core"
)

// BackendName is the display name used in execution errors.
const BackendName = "PostgreSQL"

// PostgreSQL error codes with a dedicated hint.
const (
	codeSyntaxError     = "42601"
	codeUndefinedColumn = "42703"
	codeUndefinedTable  = "42P01"
)

// Adapter implements adapter.Adapter for PostgreSQL.
//
// By default every Execute opens a short-lived connection from the source
// locator. An adapter built with NewShared reuses a caller-owned connection
// instead and never closes it.
type Adapter struct {
	adapter.BaseSQLAdapter
	shared bool
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// NewShared creates an adapter bound to an existing connection.
func NewShared(db *sql.DB, logger *slog.Logger) *Adapter {
	a := New(logger)
	a.DB = db
	a.shared = true
	return a
}

// Open connects to PostgreSQL and verifies the connection with a ping.
func Open(ctx context.Context, cfg ConnConfig) (*sql.DB, error) {
	return openDSN(ctx, buildPostgresDSN(cfg))
}

func openDSN(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

// Execute runs sql in a transaction and wraps failures as *adapter.ExecError.
func (a *Adapter) Execute(ctx context.Context, src core.Source, sqlStr string) (*core.Result, error) {
	if !a.shared {
		dsn, err := dsnForLocator(src.Locator)
		if err != nil {
			return nil, &adapter.ExecError{Backend: BackendName, Err: err}
		}

		a.Logger.Debug("connecting to postgres", slog.String("source", src.Name))

		db, err := openDSN(ctx, dsn)
		if err != nil {
			return nil, &adapter.ExecError{Backend: BackendName, Err: err}
		}
		a.DB = db
		defer func() { _ = a.Close() }()
	}

	res, err := a.Run(ctx, sqlStr)
	if err != nil {
		return nil, &adapter.ExecError{Backend: BackendName, Err: err, Hint: clarifyQueryError(sqlStr, err)}
	}
	return res, nil
}

// clarifyQueryError returns a hint for common mistakes in generated SQL, or "".
func clarifyQueryError(sqlStr string, err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}

	switch pgErr.Code {
	case codeSyntaxError:
		// LLM output sometimes carries non-breaking spaces (U+00A0).
		if strings.ContainsRune(sqlStr, '\u00a0') {
			return `There are "non-breaking spaces" in the SQL. Replace them with regular spaces and run it again.`
		}
	case codeUndefinedColumn, codeUndefinedTable:
		return "Identifiers containing uppercase letters must be enclosed in double quotes, e.g. SELECT \"POPULATION\" FROM \"MyTable\"."
	}
	return ""
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
