// Package ogr provides the generic vector execution strategy for geoprompt.
//
// Flat vector files (Shapefile, GeoJSON, FlatGeobuf, ...) have no SQL engine of
// their own, so the file is mounted as a view in an in-memory DuckDB database
// through the spatial extension's ST_Read and queried there.
//
// This file registers the adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/geoprompt/pkg/adapters/ogr"
package ogr

import (
	"log/slog"

	"github.com/leapstack-labs/geoprompt/pkg/adapter"
)

func init() {
	adapter.Register(adapter.StrategyOGR, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
