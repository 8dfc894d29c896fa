package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/geoprompt/internal/cli/output"
	"github.com/leapstack-labs/geoprompt/pkg/sqltext"
)

// ErrNoSQLFound is returned when a text contains no SQL statement.
var ErrNoSQLFound = errors.New("no SQL found")

// ExtractOutput is the JSON output for the extract command.
type ExtractOutput struct {
	SQL   string `json:"sql"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract and validate SQL from a model response",
		Long: `Extract the SQL statement from a text, as done for every model reply, and check it
for truncation. The text is read from the file or from stdin.

The command fails when no SQL is found or when the SQL looks incomplete.`,
		Example: `  geoprompt extract response.md
  pbpaste | geoprompt extract -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) > 0 {
				file = args[0]
			}
			text, ok, err := readInput(cmd, nil, file)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no input (pass a file or pipe text on stdin)")
			}
			return runExtract(NewCommandContext(cmd).Renderer, text)
		},
	}
}

func runExtract(r *output.Renderer, text string) error {
	sql, found := sqltext.Extract(text)
	if !found {
		if r.EffectiveMode() == output.ModeJSON {
			_ = r.JSON(ExtractOutput{Error: ErrNoSQLFound.Error()})
		}
		return ErrNoSQLFound
	}

	invalid := sqltext.Validate(sql)
	if r.EffectiveMode() == output.ModeJSON {
		out := ExtractOutput{SQL: sql, Valid: invalid == nil}
		if invalid != nil {
			out.Error = invalid.Error()
		}
		if err := r.JSON(out); err != nil {
			return err
		}
		return invalid
	}

	r.Println(r.SQL(sql))
	if invalid != nil {
		return invalid
	}
	r.Success("SQL looks complete")
	return nil
}
