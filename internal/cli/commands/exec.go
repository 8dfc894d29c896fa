package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/geoprompt/pkg/adapter"
	"github.com/leapstack-labs/geoprompt/pkg/core"
)

// ExecOptions holds options for the exec command.
type ExecOptions struct {
	Source   string
	Provider string
	Locator  string
	Input    string
	Format   string
}

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	opts := &ExecOptions{}

	cmd := &cobra.Command{
		Use:   "exec [SQL]",
		Short: "Execute SQL against a data source",
		Long: `Execute one SQL statement against the configured database or a data source.

The statement runs in its own transaction. Statements that do not return rows
(CREATE VIEW, INSERT, ...) are committed and reported by a short label.

Without --source or --provider the statement runs on the database configured
under "database:". SQL is read from the arguments, --input, or piped stdin.`,
		Example: `  # Run on the configured PostgreSQL database
  geoprompt exec "SELECT name, ST_Area(geom) FROM parcels LIMIT 5"

  # Run on a configured source
  geoprompt exec --source roads "SELECT highway, count(*) FROM roads GROUP BY highway"

  # Run on an ad-hoc GeoPackage layer
  geoprompt exec --provider ogr --locator "data.gpkg|layername=rivers" "SELECT * FROM rivers"

  # Read SQL from a file, print JSON
  geoprompt exec -i query.sql -f json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Source, "source", "", "Configured source name")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "Provider of an ad-hoc source (postgres, spatialite, ogr)")
	cmd.Flags().StringVar(&opts.Locator, "locator", "", "Locator of an ad-hoc source")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", FormatTable, "Output format: table, json, csv, md")

	_ = cmd.RegisterFlagCompletionFunc("source", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return getConfig().SourceNames(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("provider", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return adapter.SupportedProviders(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runExec(cmd *cobra.Command, args []string, opts *ExecOptions) error {
	if err := checkFormat(opts.Format); err != nil {
		return err
	}

	cmdCtx := NewCommandContext(cmd)

	sqlText, ok, err := readInput(cmd, args, opts.Input)
	if err != nil {
		return err
	}
	sqlText = strings.TrimSpace(sqlText)
	if !ok || sqlText == "" {
		return fmt.Errorf("no SQL given (pass it as an argument, with --input, or on stdin)")
	}

	src, err := resolveSource(cmdCtx, opts.Source, opts.Provider, opts.Locator)
	if err != nil {
		return err
	}

	res, err := adapter.NewDispatcher(cmdCtx.Logger).Execute(cmd.Context(), src, sqlText)
	if err != nil {
		return err
	}
	return renderResult(cmd.OutOrStdout(), res, opts.Format, cmdCtx.Cfg.Display.MaxRows)
}

// resolveSource picks the data source for a statement: a configured source by
// name, an ad-hoc provider/locator pair, or the configured database.
func resolveSource(cmdCtx *CommandContext, name, provider, locator string) (core.Source, error) {
	cfg := cmdCtx.Cfg
	switch {
	case name != "" && (provider != "" || locator != ""):
		return core.Source{}, fmt.Errorf("--source cannot be combined with --provider or --locator")
	case name != "":
		return cfg.Source(name)
	case provider != "" || locator != "":
		if provider == "" || locator == "" {
			return core.Source{}, fmt.Errorf("--provider and --locator must be given together")
		}
		return cfg.AdHocSource(provider, locator), nil
	}

	db := cfg.Database.WithDefaults()
	if err := db.Validate(); err != nil {
		return core.Source{}, fmt.Errorf("no source given and the configured database is incomplete: %w", err)
	}
	return core.Source{
		Name:     db.Database,
		Provider: core.ProviderPostgres,
		Locator:  db.Locator(),
	}, nil
}
