// Package postgres provides the PostgreSQL/PostGIS execution strategy for geoprompt.
//
// This file registers the adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/geoprompt/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/geoprompt/pkg/adapter"
)

func init() {
	adapter.Register(adapter.StrategyPostgres, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
