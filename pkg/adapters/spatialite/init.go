// Package spatialite provides the embedded SQLite execution strategy for geoprompt.
// It serves SpatiaLite databases and SQLite-based vector containers such as
// GeoPackage, connecting to the file directly rather than through a vector driver.
//
// This file registers the adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/geoprompt/pkg/adapters/spatialite"
package spatialite

import (
	"log/slog"

	"github.com/leapstack-labs/geoprompt/pkg/adapter"
)

func init() {
	adapter.Register(adapter.StrategySpatiaLite, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
