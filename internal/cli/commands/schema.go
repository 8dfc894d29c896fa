package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/geoprompt/internal/cli/output"
	"github.com/leapstack-labs/geoprompt/internal/schema"
	"github.com/leapstack-labs/geoprompt/internal/session"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	var tables []string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the schema description sent to the model",
		Long: `Print the description of the configured database's public tables, exactly as it
is prepended to prompts. With -o json the tables and columns are printed as JSON.`,
		Example: `  geoprompt schema
  geoprompt schema --tables parcels,zoning
  geoprompt schema -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchema(cmd, tables)
		},
	}

	cmd.Flags().StringSliceVar(&tables, "tables", nil, "Only describe these tables")

	return cmd
}

func runSchema(cmd *cobra.Command, tables []string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	sess := cmdCtx.Session()
	defer func() { _ = sess.Close() }()

	if err := sess.Connect(ctx, cmdCtx.Cfg.Database); err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		loaded, err := schema.Load(ctx, sess.DB(), tables)
		if err != nil {
			return err
		}
		return r.JSON(loaded)
	}

	st, err := sess.Select(session.State{}, tables)
	if err != nil {
		return err
	}
	desc, err := sess.Schema(ctx, st)
	if err != nil {
		return err
	}
	if desc == "" {
		r.Warning(fmt.Sprintf("No tables found in %s", sess.Params().Database))
		return nil
	}
	r.Write(desc)
	return nil
}
