// Package main provides the geoprompt CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/geoprompt/internal/cli"

	// Register the execution backends.
	_ "github.com/leapstack-labs/geoprompt/pkg/adapters/ogr"
	_ "github.com/leapstack-labs/geoprompt/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/geoprompt/pkg/adapters/spatialite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
