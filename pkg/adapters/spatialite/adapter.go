package spatialite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/geoprompt/pkg/adapter"
	"github.com/leapstack-labs/geoprompt/pkg/core"

	_ "modernc.org/sqlite" // sqlite driver
)

// Backend display names used in execution errors.
const (
	BackendSpatiaLite = "SQLite/SpatiaLite"
	BackendContainer  = "GeoPackage/SQLite"
)

// Adapter implements adapter.Adapter for SQLite files.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// FilePath returns the database file a source points at.
//
// SpatiaLite locators carry the path in a dbname='...' pair; vector locators are
// a path optionally followed by "|layername=...". A bare path is accepted for both.
func FilePath(src core.Source) string {
	if src.Provider == core.ProviderSpatiaLite {
		if db := core.ParseKeyValueLocator(src.Locator)["dbname"]; db != "" {
			return db
		}
	}
	return src.VectorPath()
}

func backendName(src core.Source) string {
	if src.Provider == core.ProviderOGR {
		return BackendContainer
	}
	return BackendSpatiaLite
}

// Connect opens the database file. The file must already exist.
func (a *Adapter) Connect(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("no database file in locator")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("could not open data source: %w", err)
	}

	a.Logger.Debug("opening sqlite database", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	a.DB = db
	return nil
}

// Execute opens the file, runs sql in a transaction and closes the file again.
func (a *Adapter) Execute(ctx context.Context, src core.Source, sqlStr string) (*core.Result, error) {
	backend := backendName(src)

	if err := a.Connect(ctx, FilePath(src)); err != nil {
		return nil, &adapter.ExecError{Backend: backend, Err: err}
	}
	defer func() { _ = a.Close() }()

	res, err := a.Run(ctx, sqlStr)
	if err != nil {
		return nil, &adapter.ExecError{Backend: backend, Err: err}
	}
	return res, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
