package adapter

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/geoprompt/pkg/core"
)

// embeddedContainerExts are vector formats that are really SQLite databases.
var embeddedContainerExts = map[string]bool{
	".gpkg":   true,
	".sqlite": true,
	".db":     true,
}

// SupportedProviders lists the provider kinds Route understands.
func SupportedProviders() []string {
	return []string{string(core.ProviderPostgres), string(core.ProviderSpatiaLite), string(core.ProviderOGR)}
}

// IsEmbeddedContainer reports whether path names a SQLite-based vector container.
func IsEmbeddedContainer(path string) bool {
	return embeddedContainerExts[strings.ToLower(filepath.Ext(path))]
}

// Route picks the strategy for a source. Rules are evaluated in order:
//
//  1. postgres sources always use the postgres strategy.
//  2. spatialite sources use the embedded SQLite strategy.
//  3. ogr sources whose file is a .gpkg/.sqlite/.db container also use the embedded SQLite strategy.
//  4. other ogr sources use the vector SQL strategy.
//  5. anything else is unsupported.
func Route(src core.Source) (string, error) {
	switch src.Provider {
	case core.ProviderPostgres:
		return StrategyPostgres, nil
	case core.ProviderSpatiaLite:
		return StrategySpatiaLite, nil
	case core.ProviderOGR:
		if IsEmbeddedContainer(src.VectorPath()) {
			return StrategySpatiaLite, nil
		}
		return StrategyOGR, nil
	default:
		return "", &UnsupportedProviderError{Provider: src.Provider}
	}
}

// Dispatcher routes SQL to the registered strategy for each source.
type Dispatcher struct {
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher. If logger is nil, a discard logger is used.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{logger: logger}
}

// Execute routes src, builds the matching adapter and runs sql on it.
func (d *Dispatcher) Execute(ctx context.Context, src core.Source, sql string) (*core.Result, error) {
	name, err := Route(src)
	if err != nil {
		return nil, err
	}

	a, err := NewAdapter(name, d.logger)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("dispatching sql",
		slog.String("source", src.Name),
		slog.String("provider", string(src.Provider)),
		slog.String("strategy", name))

	return a.Execute(ctx, src, sql)
}
