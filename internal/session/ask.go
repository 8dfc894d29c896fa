package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/geoprompt/internal/ollama"
	"github.com/leapstack-labs/geoprompt/pkg/adapters/postgres"
	"github.com/leapstack-labs/geoprompt/pkg/core"
	"github.com/leapstack-labs/geoprompt/pkg/sqltext"
)

// Reply describes the outcome of Ask beyond the updated State.
type Reply struct {
	// Text is the full response.
	Text string
	// SQL is the extracted statement, or "" when none was found.
	SQL string
	// SchemaIncluded is true when the schema description was prepended.
	SchemaIncluded bool
	// SchemaErr is set when the schema could not be fetched. The prompt was
	// sent without it.
	SchemaErr error
	// Invalid is the validation failure of SQL, if any.
	Invalid error
}

// Ask sends prompt to the model and extracts SQL from the response.
//
// Only one Ask may run at a time; a concurrent call fails with
// ErrRequestInFlight. An empty response yields ollama.ErrNoResponse together
// with the updated state.
func (s *Session) Ask(ctx context.Context, st State, prompt string, onUpdate func(full string)) (State, *Reply, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return st, nil, ollama.ErrEmptyPrompt
	}
	if s.model == "" {
		return st, nil, ollama.ErrNoModel
	}

	if !s.busy.CompareAndSwap(false, true) {
		return st, nil, ErrRequestInFlight
	}
	defer s.busy.Store(false)

	if err := s.llm.CheckModel(ctx, s.model); err != nil {
		return st, nil, err
	}

	reply := &Reply{}
	full := prompt
	if st.IncludeSchema && s.db != nil {
		desc, err := s.Schema(ctx, st)
		switch {
		case err != nil:
			s.logger.Warn("schema unavailable, sending prompt without it", slog.String("error", err.Error()))
			reply.SchemaErr = err
		case desc != "":
			full = desc + prompt
			reply.SchemaIncluded = true
		}
	}

	req := ollama.GenerateRequest{Model: s.model, Prompt: full}
	if st.Image != nil {
		req.Images = []string{st.Image.Data}
	}

	text, err := s.llm.Generate(ctx, req, onUpdate)
	if err != nil && !errors.Is(err, ollama.ErrNoResponse) {
		return st, nil, err
	}

	st.Response = text
	st.ExtractedSQL = ""
	reply.Text = text
	if sql, ok := sqltext.Extract(text); ok {
		st.ExtractedSQL = sql
		reply.SQL = sql
		reply.Invalid = sqltext.Validate(sql)
	}
	return st, reply, err
}

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Edit replaces the extracted SQL by hand.
func (s *Session) Edit(st State, sql string) State {
	st.ExtractedSQL = strings.TrimSpace(sql)
	return st
}

// Execute runs the extracted SQL on the session's own connection.
func (s *Session) Execute(ctx context.Context, st State) (*core.Result, error) {
	sql, err := checkSQL(st)
	if err != nil {
		return nil, err
	}
	if s.db == nil {
		return nil, ErrNotConnected
	}

	s.logger.Debug("executing sql on session connection", slog.String("database", s.params.Database))
	src := core.Source{Name: s.params.Database, Provider: core.ProviderPostgres}
	return postgres.NewShared(s.db, s.logger).Execute(ctx, src, sql)
}

// Run executes the extracted SQL on a configured source.
func (s *Session) Run(ctx context.Context, st State, src core.Source) (*core.Result, error) {
	sql, err := checkSQL(st)
	if err != nil {
		return nil, err
	}
	return s.executor.Execute(ctx, src, sql)
}

func checkSQL(st State) (string, error) {
	sql := strings.TrimSpace(st.ExtractedSQL)
	if sql == "" {
		return "", ErrNoSQL
	}
	if err := sqltext.Validate(sql); err != nil {
		return "", fmt.Errorf("execution blocked: %w", err)
	}
	return sql, nil
}
