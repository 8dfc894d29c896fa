package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/geoprompt/internal/cli/output"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the public tables of the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			r := cmdCtx.Renderer
			ctx := cmd.Context()

			sess := cmdCtx.Session()
			defer func() { _ = sess.Close() }()

			if err := sess.Connect(ctx, cmdCtx.Cfg.Database); err != nil {
				return err
			}
			names, err := sess.Tables(ctx)
			if err != nil {
				return err
			}

			switch r.EffectiveMode() {
			case output.ModeJSON:
				if names == nil {
					names = []string{}
				}
				return r.JSON(names)
			case output.ModeMarkdown:
				for _, name := range names {
					r.Printf("- %s\n", name)
				}
			default:
				for _, name := range names {
					r.Println(name)
				}
			}
			if len(names) == 0 {
				r.Warning("No tables found in the public schema")
			}
			return nil
		},
	}
}
