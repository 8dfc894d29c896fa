package commands

import (
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/geoprompt/internal/cli/output"
	"github.com/leapstack-labs/geoprompt/internal/ollama"
)

// NewModelsCommand creates the models command.
func NewModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models installed in Ollama",
		Long: `List the models installed on the Ollama server, with their size and details.
The configured model is marked with *.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			models, err := cmdCtx.Ollama().ListModels(cmd.Context())
			if err != nil {
				return err
			}
			return renderModels(cmdCtx.Renderer, models, cmdCtx.Cfg.Ollama.Model)
		},
	}
}

func renderModels(r *output.Renderer, models []ollama.Model, current string) error {
	mode := r.EffectiveMode()
	if mode == output.ModeJSON {
		if models == nil {
			models = []ollama.Model{}
		}
		return r.JSON(models)
	}

	if len(models) == 0 {
		r.Warning("No models found. To pull a model, run in terminal:\n  ollama pull " + current)
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"", "Name", "Size", "Parameters", "Quantization", "Modified"})

	for _, m := range models {
		marker := ""
		if ollama.MatchModel(current, m.Name) {
			marker = "*"
		}
		modified := ""
		if !m.ModifiedAt.IsZero() {
			modified = humanize.Time(m.ModifiedAt)
		}
		t.AppendRow(table.Row{
			marker,
			m.Name,
			humanize.Bytes(uint64(max(m.Size, 0))), //nolint:gosec // clamped to non-negative
			m.Details.ParameterSize,
			m.Details.QuantizationLevel,
			modified,
		})
	}

	if mode == output.ModeMarkdown {
		t.RenderMarkdown()
		return nil
	}
	t.Render()
	return nil
}
