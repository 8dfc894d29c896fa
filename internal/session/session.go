// Package session ties the pieces of one interactive geoprompt session together:
// the model client, the optional database connection and the SQL pipeline from
// response text to executed statement.
//
// A Session is meant for a single operator. It holds at most one database
// connection and allows one inference request at a time.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/leapstack-labs/geoprompt/internal/ollama"
	"github.com/leapstack-labs/geoprompt/internal/schema"
	"github.com/leapstack-labs/geoprompt/pkg/adapter"
	"github.com/leapstack-labs/geoprompt/pkg/adapters/postgres"
	"github.com/leapstack-labs/geoprompt/pkg/core"
)

// ConnParams are the database connection parameters.
type ConnParams = postgres.ConnConfig

var (
	// ErrRequestInFlight is returned when Ask is called while a request is running.
	ErrRequestInFlight = errors.New("a request is already in progress")
	// ErrNotConnected is returned by operations that need the database connection.
	ErrNotConnected = errors.New("not connected to a database")
	// ErrAlreadyConnected is returned by Connect while a connection is open.
	ErrAlreadyConnected = errors.New("already connected, disconnect first")
	// ErrNoSQL is returned when there is no extracted SQL to execute.
	ErrNoSQL = errors.New("no SQL to execute")
)

// LLM is the model client used by Ask.
type LLM interface {
	CheckModel(ctx context.Context, model string) error
	Generate(ctx context.Context, req ollama.GenerateRequest, onUpdate func(full string)) (string, error)
}

// Executor runs SQL against a configured data source.
type Executor interface {
	Execute(ctx context.Context, src core.Source, sql string) (*core.Result, error)
}

// State is the user-facing state carried between operations.
type State struct {
	// SelectedTables limits the schema context; empty means all tables.
	SelectedTables []string
	// IncludeSchema prepends the schema description to prompts when connected.
	IncludeSchema bool
	// ExtractedSQL is the statement found in the last response, or set by hand.
	ExtractedSQL string
	// Image is attached to every prompt until cleared.
	Image *ollama.Image
	// Response is the full text of the last response.
	Response string
}

// Session owns the model client and the database connection.
type Session struct {
	llm      LLM
	executor Executor
	logger   *slog.Logger
	model    string

	params ConnParams
	db     *sql.DB
	tables []string

	busy atomic.Bool
}

// New creates a session. If logger is nil, a discard logger is used.
func New(llm LLM, executor Executor, model string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if executor == nil {
		executor = adapter.NewDispatcher(logger)
	}
	return &Session{
		llm:      llm,
		executor: executor,
		logger:   logger,
		model:    model,
	}
}

// Model returns the model used for prompts.
func (s *Session) Model() string {
	return s.model
}

// SetModel changes the model used for prompts.
func (s *Session) SetModel(model string) {
	s.model = strings.TrimSpace(model)
}

// Connected reports whether a database connection is open.
func (s *Session) Connected() bool {
	return s.db != nil
}

// Params returns a copy of the active connection parameters.
func (s *Session) Params() ConnParams {
	return s.params
}

// DB returns the open connection, or nil.
func (s *Session) DB() *sql.DB {
	return s.db
}

// Connect opens the database connection. Parameters are validated before any
// network access.
func (s *Session) Connect(ctx context.Context, p ConnParams) error {
	if s.db != nil {
		return ErrAlreadyConnected
	}
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return err
	}

	s.logger.Debug("connecting to database",
		slog.String("host", p.Host),
		slog.Int("port", p.Port),
		slog.String("database", p.Database))

	db, err := postgres.Open(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", p.Database, err)
	}
	return s.Attach(p, db)
}

// Attach adopts an already open connection.
func (s *Session) Attach(p ConnParams, db *sql.DB) error {
	if s.db != nil {
		return ErrAlreadyConnected
	}
	s.params = p
	s.db = db
	return nil
}

// Disconnect closes the connection and clears the table list and selection.
// Disconnecting while disconnected is a no-op.
func (s *Session) Disconnect(st State) (State, error) {
	st.SelectedTables = nil
	s.tables = nil
	if s.db == nil {
		return st, nil
	}

	err := s.db.Close()
	s.db = nil
	s.params = ConnParams{}
	if err != nil {
		return st, fmt.Errorf("failed to close connection: %w", err)
	}
	return st, nil
}

// Close releases the connection.
func (s *Session) Close() error {
	_, err := s.Disconnect(State{})
	return err
}

// Tables fetches the public base tables and caches them.
func (s *Session) Tables(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}
	names, err := schema.ListTables(ctx, s.db)
	if err != nil {
		return nil, err
	}
	s.tables = names
	return names, nil
}

// KnownTables returns the table list from the last Tables call.
func (s *Session) KnownTables() []string {
	return s.tables
}

// Select replaces the table selection. Names are checked against the known
// table list when one has been fetched.
func (s *Session) Select(st State, names []string) (State, error) {
	var selected []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if len(s.tables) > 0 && !slices.Contains(s.tables, n) {
			return st, fmt.Errorf("unknown table %q", n)
		}
		selected = append(selected, n)
	}
	st.SelectedTables = selected
	return st, nil
}

// Schema renders the schema description for the current selection.
func (s *Session) Schema(ctx context.Context, st State) (string, error) {
	if s.db == nil {
		return "", ErrNotConnected
	}
	return schema.Describe(ctx, s.db, s.params.Database, st.SelectedTables)
}
