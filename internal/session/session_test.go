package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/geoprompt/internal/ollama"
	"github.com/leapstack-labs/geoprompt/internal/testutil"
	"github.com/leapstack-labs/geoprompt/pkg/core"
	"github.com/leapstack-labs/geoprompt/pkg/sqltext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	mu       sync.Mutex
	checkErr error
	text     string
	genErr   error
	block    chan struct{}
	started  chan struct{}
	requests []ollama.GenerateRequest
}

func (f *fakeLLM) CheckModel(context.Context, string) error { return f.checkErr }

func (f *fakeLLM) Generate(_ context.Context, req ollama.GenerateRequest, onUpdate func(string)) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	if onUpdate != nil && f.text != "" {
		onUpdate(f.text)
	}
	return f.text, f.genErr
}

type fakeExecutor struct {
	src core.Source
	sql string
}

func (f *fakeExecutor) Execute(_ context.Context, src core.Source, sql string) (*core.Result, error) {
	f.src, f.sql = src, sql
	return &core.Result{Label: "SQL executed successfully (no rows returned)"}, nil
}

func newSession(t *testing.T, llm LLM) *Session {
	t.Helper()
	return New(llm, &fakeExecutor{}, "llava", testutil.NewTestLogger(t))
}

func attachMock(t *testing.T, s *Session) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, s.Attach(ConnParams{Host: "localhost", Port: 5432, Database: "gis", User: "me"}, db))
	return mock
}

func TestAsk_ExtractsSQL(t *testing.T) {
	llm := &fakeLLM{text: "Here you go:\n```sql\nSELECT name FROM roads;\n```"}
	s := newSession(t, llm)

	var shown string
	st, reply, err := s.Ask(context.Background(), State{}, "  list roads  ", func(full string) { shown = full })
	require.NoError(t, err)

	assert.Equal(t, llm.text, shown)
	assert.Equal(t, llm.text, st.Response)
	assert.Equal(t, "SELECT name FROM roads;", st.ExtractedSQL)
	assert.Equal(t, st.ExtractedSQL, reply.SQL)
	assert.NoError(t, reply.Invalid)
	assert.False(t, reply.SchemaIncluded)
	require.Len(t, llm.requests, 1)
	assert.Equal(t, "list roads", llm.requests[0].Prompt)
	assert.False(t, s.Busy())
}

func TestAsk_FlagsIncompleteSQL(t *testing.T) {
	s := newSession(t, &fakeLLM{text: "SELECT 1;"})

	st, reply, err := s.Ask(context.Background(), State{}, "one", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;", st.ExtractedSQL)

	var vErr *sqltext.ValidationError
	assert.ErrorAs(t, reply.Invalid, &vErr)
}

func TestAsk_ClearsStaleSQL(t *testing.T) {
	s := newSession(t, &fakeLLM{text: "No SQL needed for that."})

	st, reply, err := s.Ask(context.Background(), State{ExtractedSQL: "SELECT * FROM old"}, "hello", nil)
	require.NoError(t, err)
	assert.Empty(t, st.ExtractedSQL)
	assert.Empty(t, reply.SQL)
}

func TestAsk_AttachesImage(t *testing.T) {
	llm := &fakeLLM{text: "a map"}
	s := newSession(t, llm)

	_, _, err := s.Ask(context.Background(), State{Image: &ollama.Image{Name: "m.png", Data: "aGk="}}, "describe", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"aGk="}, llm.requests[0].Images)
}

func TestAsk_PrependsSchema(t *testing.T) {
	llm := &fakeLLM{text: "ok"}
	s := newSession(t, llm)
	mock := attachMock(t, s)
	mock.ExpectQuery("FROM information_schema.tables t").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type", "character_maximum_length", "numeric_precision"}).
			AddRow("cities", "ID", "integer", nil, 32))

	_, reply, err := s.Ask(context.Background(), State{IncludeSchema: true}, "count cities", nil)
	require.NoError(t, err)
	assert.True(t, reply.SchemaIncluded)

	prompt := llm.requests[0].Prompt
	assert.Contains(t, prompt, "--- POSTGRESQL DATABASE SCHEMA ---\nDatabase: gis\n")
	assert.Contains(t, prompt, `  - "ID" (integer, precision: 32)`)
	assert.True(t, len(prompt) > len("count cities"))
	assert.Equal(t, "count cities", prompt[len(prompt)-len("count cities"):])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAsk_SchemaFailureIsNotFatal(t *testing.T) {
	llm := &fakeLLM{text: "ok"}
	s := newSession(t, llm)
	mock := attachMock(t, s)
	mock.ExpectQuery("FROM information_schema.tables t").WillReturnError(errors.New("permission denied"))

	_, reply, err := s.Ask(context.Background(), State{IncludeSchema: true}, "count cities", nil)
	require.NoError(t, err)
	assert.Error(t, reply.SchemaErr)
	assert.Equal(t, "count cities", llm.requests[0].Prompt)
}

func TestAsk_ValidationBeforeIO(t *testing.T) {
	llm := &fakeLLM{text: "ok"}
	s := newSession(t, llm)

	_, _, err := s.Ask(context.Background(), State{}, "   ", nil)
	assert.ErrorIs(t, err, ollama.ErrEmptyPrompt)

	s.SetModel("")
	_, _, err = s.Ask(context.Background(), State{}, "hi", nil)
	assert.ErrorIs(t, err, ollama.ErrNoModel)
	assert.Empty(t, llm.requests)
}

func TestAsk_ModelCheckFailure(t *testing.T) {
	llm := &fakeLLM{checkErr: &ollama.ModelNotFoundError{Model: "llava"}}
	s := newSession(t, llm)

	st, _, err := s.Ask(context.Background(), State{Response: "previous"}, "hi", nil)
	var nf *ollama.ModelNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "previous", st.Response)
	assert.Empty(t, llm.requests)
	assert.False(t, s.Busy())
}

func TestAsk_NoResponse(t *testing.T) {
	s := newSession(t, &fakeLLM{genErr: ollama.ErrNoResponse})

	st, reply, err := s.Ask(context.Background(), State{Response: "previous"}, "hi", nil)
	assert.ErrorIs(t, err, ollama.ErrNoResponse)
	require.NotNil(t, reply)
	assert.Empty(t, st.Response)
}

func TestAsk_SingleRequestInFlight(t *testing.T) {
	llm := &fakeLLM{text: "ok", block: make(chan struct{}), started: make(chan struct{})}
	s := newSession(t, llm)

	done := make(chan error, 1)
	go func() {
		_, _, err := s.Ask(context.Background(), State{}, "first", nil)
		done <- err
	}()
	<-llm.started

	assert.True(t, s.Busy())
	_, _, err := s.Ask(context.Background(), State{}, "second", nil)
	assert.ErrorIs(t, err, ErrRequestInFlight)

	close(llm.block)
	require.NoError(t, <-done)
	assert.False(t, s.Busy())
}

func TestExecute(t *testing.T) {
	s := newSession(t, &fakeLLM{})
	ctx := context.Background()

	_, err := s.Execute(ctx, State{})
	assert.ErrorIs(t, err, ErrNoSQL)

	_, err = s.Execute(ctx, State{ExtractedSQL: "SELECT * FROM"})
	var vErr *sqltext.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = s.Execute(ctx, State{ExtractedSQL: "SELECT name FROM cities"})
	assert.ErrorIs(t, err, ErrNotConnected)

	mock := attachMock(t, s)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name FROM cities").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Oslo").AddRow("Bergen"))
	mock.ExpectCommit()

	res, err := s.Execute(ctx, State{ExtractedSQL: "SELECT name FROM cities"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, res.Columns)
	assert.Len(t, res.Rows, 2)
	assert.NoError(t, mock.ExpectationsWereMet())

	// the shared connection stays open
	assert.True(t, s.Connected())
}

func TestRun_UsesExecutor(t *testing.T) {
	exec := &fakeExecutor{}
	s := New(&fakeLLM{}, exec, "llava", nil)
	src := core.Source{Name: "roads", Provider: core.ProviderOGR, Locator: "/data/roads.shp"}

	res, err := s.Run(context.Background(), State{ExtractedSQL: " SELECT * FROM roads "}, src)
	require.NoError(t, err)
	assert.Equal(t, "SQL executed successfully (no rows returned)", res.Label)
	assert.Equal(t, src, exec.src)
	assert.Equal(t, "SELECT * FROM roads", exec.sql)
}

func TestConnect_ValidatesFirst(t *testing.T) {
	s := newSession(t, &fakeLLM{})

	err := s.Connect(context.Background(), ConnParams{Database: "gis"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user is required")
	assert.False(t, s.Connected())
}

func TestDisconnect_ClearsSelection(t *testing.T) {
	s := newSession(t, &fakeLLM{})
	mock := attachMock(t, s)
	mock.ExpectQuery("SELECT table_name").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("cities").AddRow("roads"))
	mock.ExpectClose()

	err := s.Connect(context.Background(), ConnParams{Database: "gis", User: "me"})
	assert.ErrorIs(t, err, ErrAlreadyConnected)

	tables, err := s.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cities", "roads"}, tables)

	st, err := s.Select(State{}, []string{"roads", " "})
	require.NoError(t, err)
	assert.Equal(t, []string{"roads"}, st.SelectedTables)

	_, err = s.Select(st, []string{"rivers"})
	assert.Error(t, err)

	st, err = s.Disconnect(st)
	require.NoError(t, err)
	assert.Empty(t, st.SelectedTables)
	assert.Empty(t, s.KnownTables())
	assert.False(t, s.Connected())
	assert.Equal(t, ConnParams{}, s.Params())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEdit(t *testing.T) {
	s := newSession(t, &fakeLLM{})
	st := s.Edit(State{ExtractedSQL: "SELECT 1"}, "  SELECT * FROM parks  ")
	assert.Equal(t, "SELECT * FROM parks", st.ExtractedSQL)
}
