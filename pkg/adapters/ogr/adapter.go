package ogr

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/leapstack-labs/geoprompt/pkg/adapter"
	"github.com/leapstack-labs/geoprompt/pkg/core"
	"github.com/leapstack-labs/geoprompt/pkg/sqltext"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// BackendName is the display name used in execution errors.
const BackendName = "OGR"

// Adapter implements adapter.Adapter for flat vector files.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new vector adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Connect opens an in-memory DuckDB and prepares the session.
func (a *Adapter) Connect(ctx context.Context, params *Params) error {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	// session state (extensions, settings, views) lives on a single connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}
	a.DB = db

	if err := a.setup(ctx, params); err != nil {
		_ = a.Close()
		return err
	}
	return nil
}

func (a *Adapter) setup(ctx context.Context, params *Params) error {
	for _, ext := range params.extensions() {
		a.Logger.Debug("loading duckdb extension", slog.String("extension", ext))
		if _, err := a.DB.ExecContext(ctx, "INSTALL "+ext); err != nil {
			return fmt.Errorf("failed to install extension %s: %w", ext, err)
		}
		if _, err := a.DB.ExecContext(ctx, "LOAD "+ext); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	for k, v := range params.Settings {
		if _, err := a.DB.ExecContext(ctx, fmt.Sprintf("SET %s = %s", k, quoteLiteral(v))); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}

	for i, s := range params.Secrets {
		if _, err := a.DB.ExecContext(ctx, secretSQL(fmt.Sprintf("geoprompt_secret_%d", i), s)); err != nil {
			return fmt.Errorf("failed to create %s secret: %w", s.Type, err)
		}
	}
	return nil
}

// Execute mounts the source's layer and runs sql against it.
// Structure-changing statements are rejected before the file is touched.
func (a *Adapter) Execute(ctx context.Context, src core.Source, sqlStr string) (*core.Result, error) {
	stmt := StripTerminator(sqlStr)
	if err := CheckSupported(stmt); err != nil {
		return nil, err
	}

	params, err := parseParams(src.Params)
	if err != nil {
		return nil, &adapter.ExecError{Backend: BackendName, Err: err}
	}

	if err := a.Connect(ctx, params); err != nil {
		return nil, &adapter.ExecError{Backend: BackendName, Err: err}
	}
	defer func() { _ = a.Close() }()

	if err := a.mount(ctx, src); err != nil {
		return nil, &adapter.ExecError{Backend: BackendName, Err: fmt.Errorf("could not open data source: %w", err)}
	}

	res, err := a.run(ctx, stmt)
	if err != nil {
		execErr := &adapter.ExecError{Backend: BackendName, Err: err}
		if shouldEnrich(err) {
			execErr.Hint = a.describeLayer(ctx, src, stmt)
		}
		return nil, execErr
	}
	return res, nil
}

// mount creates a view over the source's layer.
func (a *Adapter) mount(ctx context.Context, src core.Source) error {
	path := src.VectorPath()
	layer := src.LayerName()
	a.Logger.Debug("mounting vector layer", slog.String("path", path), slog.String("layer", layer))

	fields, err := a.layerFields(ctx, src)
	if err != nil {
		return err
	}
	var geoms []string
	for _, f := range fields {
		if f.geometry() {
			geoms = append(geoms, f.Name)
		}
	}

	_, err = a.DB.ExecContext(ctx, viewSQL(layer, path, src.VectorOptions()["layername"], geoms))
	return err
}

type layerField struct {
	Name string
	Type string
}

func (f layerField) geometry() bool {
	return strings.HasPrefix(strings.ToUpper(f.Type), "GEOMETRY")
}

// layerFields describes the columns ST_Read yields for the source's layer.
func (a *Adapter) layerFields(ctx context.Context, src core.Source) ([]layerField, error) {
	query := "DESCRIBE SELECT * FROM " + stReadCall(src.VectorPath(), src.VectorOptions()["layername"])
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	res, err := adapter.CollectRows(rows)
	if err != nil {
		return nil, err
	}

	nameIdx, typeIdx := slices.Index(res.Columns, "column_name"), slices.Index(res.Columns, "column_type")
	if nameIdx < 0 || typeIdx < 0 {
		return nil, fmt.Errorf("unexpected DESCRIBE columns: %v", res.Columns)
	}
	fields := make([]layerField, 0, len(res.Rows))
	for _, row := range res.Rows {
		name, _ := row[nameIdx].(string)
		typ, _ := row[typeIdx].(string)
		fields = append(fields, layerField{Name: name, Type: typ})
	}
	return fields, nil
}

func (a *Adapter) run(ctx context.Context, stmt string) (*core.Result, error) {
	if sqltext.Classify(stmt).ReturnsRows() {
		rows, err := a.DB.QueryContext(ctx, stmt)
		if err != nil {
			return nil, err
		}
		return adapter.CollectRows(rows)
	}

	res, err := a.DB.ExecContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	out := &core.Result{Label: sqltext.OutcomeLabel(stmt)}
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	return out, nil
}

// describeLayer lists the layer's attribute fields for error messages. It
// returns "" when the layer cannot be described.
func (a *Adapter) describeLayer(ctx context.Context, src core.Source, stmt string) string {
	fields, err := a.layerFields(ctx, src)
	if err != nil {
		a.Logger.Debug("describe layer failed", slog.String("error", err.Error()))
		return ""
	}

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Name != "" && !f.geometry() {
			names = append(names, f.Name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return fieldHint(src.LayerName(), names, stmt)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
