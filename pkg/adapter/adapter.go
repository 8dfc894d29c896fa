// Package adapter provides the execution strategy contract for geoprompt's
// data backends, the registry that maps strategy names to implementations,
// and the routing that picks a strategy for a data source.
//
// Concrete strategies live in pkg/adapters/ subdirectories and register
// themselves from init().
package adapter

import (
	"context"

	"github.com/leapstack-labs/geoprompt/pkg/core"
)

// Strategy names, as registered by the concrete adapters.
const (
	StrategyPostgres   = "postgres"
	StrategySpatiaLite = "spatialite"
	StrategyOGR        = "ogr"
)

// Adapter executes one SQL statement against a data source.
//
// Implementations own the whole lifecycle of whatever connection they need:
// they open it, run the statement, commit or roll back, and release it before
// returning. Errors are returned as *ExecError naming the backend.
type Adapter interface {
	Execute(ctx context.Context, src core.Source, sql string) (*core.Result, error)
}
