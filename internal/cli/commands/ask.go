package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/geoprompt/internal/cli/output"
	"github.com/leapstack-labs/geoprompt/internal/ollama"
	"github.com/leapstack-labs/geoprompt/internal/session"
	"github.com/leapstack-labs/geoprompt/pkg/core"
)

// AskOptions holds options for the ask command.
type AskOptions struct {
	Image  string
	Schema bool
	Tables []string
	Exec   bool
	Source string
	Format string
}

// AskOutput is the JSON output for the ask command.
type AskOutput struct {
	Model           string       `json:"model"`
	Response        string       `json:"response"`
	SQL             string       `json:"sql,omitempty"`
	Valid           bool         `json:"valid"`
	ValidationError string       `json:"validation_error,omitempty"`
	SchemaIncluded  bool         `json:"schema_included"`
	Result          *core.Result `json:"result,omitempty"`
	Notice          string       `json:"notice,omitempty"`
}

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	opts := &AskOptions{}

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Ask the model for SQL",
		Long: `Send one prompt to the Ollama model, stream the reply and extract the SQL it contains.

With --schema the description of the configured database (or only the tables
given with --tables) is prepended to the prompt. With --image a picture is
attached for multimodal models. With --exec the extracted SQL is validated and
executed, on the configured database or on --source.`,
		Example: `  # Plain prompt
  geoprompt ask "count the parcels larger than one hectare"

  # Include the schema of two tables and run the result
  geoprompt ask --schema --tables parcels,zoning --exec "parcels in residential zones"

  # Ask about a map screenshot
  geoprompt ask --image map.png "write SQL that selects the highlighted roads"

  # Prompt from stdin, run on a configured source
  echo "longest river" | geoprompt ask --exec --source rivers`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Image, "image", "", "Attach an image (png, jpg, jpeg, gif, bmp, webp)")
	cmd.Flags().BoolVar(&opts.Schema, "schema", false, "Prepend the database schema to the prompt")
	cmd.Flags().StringSliceVar(&opts.Tables, "tables", nil, "Limit the schema to these tables")
	cmd.Flags().BoolVar(&opts.Exec, "exec", false, "Execute the extracted SQL")
	cmd.Flags().StringVar(&opts.Source, "source", "", "Execute on this configured source instead of the database")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", FormatTable, "Result format: table, json, csv, md")

	_ = cmd.RegisterFlagCompletionFunc("source", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return getConfig().SourceNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runAsk(cmd *cobra.Command, args []string, opts *AskOptions) error {
	if err := checkFormat(opts.Format); err != nil {
		return err
	}

	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	prompt, ok, err := readInput(cmd, args, "")
	if err != nil {
		return err
	}
	if !ok {
		return ollama.ErrEmptyPrompt
	}

	sess := cmdCtx.Session()
	defer func() { _ = sess.Close() }()

	st := session.State{IncludeSchema: opts.Schema || len(opts.Tables) > 0}

	if opts.Image != "" {
		img, err := ollama.LoadImage(opts.Image)
		if err != nil {
			return err
		}
		st.Image = img
		r.Muted("Attached " + img.String())
	}

	needDB := st.IncludeSchema || (opts.Exec && opts.Source == "")
	if needDB {
		if err := sess.Connect(ctx, cmdCtx.Cfg.Database); err != nil {
			return err
		}
	}
	if len(opts.Tables) > 0 {
		if _, err := sess.Tables(ctx); err != nil {
			return err
		}
		if st, err = sess.Select(st, opts.Tables); err != nil {
			return err
		}
	}

	jsonMode := r.EffectiveMode() == output.ModeJSON
	var onUpdate func(string)
	if !jsonMode {
		onUpdate = streamTo(r)
	}

	st, reply, err := sess.Ask(ctx, st, prompt, onUpdate)
	noResponse := errors.Is(err, ollama.ErrNoResponse)
	if err != nil && !noResponse {
		return err
	}
	if !jsonMode {
		r.Println("")
	}

	out := &AskOutput{
		Model:          sess.Model(),
		Response:       reply.Text,
		SQL:            reply.SQL,
		Valid:          reply.SQL != "" && reply.Invalid == nil,
		SchemaIncluded: reply.SchemaIncluded,
	}
	if reply.Invalid != nil {
		out.ValidationError = reply.Invalid.Error()
	}

	switch {
	case noResponse && jsonMode:
		out.Notice = err.Error()
	case noResponse:
		r.Warning(err.Error())
	case !jsonMode:
		reportReply(r, reply)
	}

	if opts.Exec && reply.SQL != "" {
		res, err := executeState(cmd, cmdCtx, sess, st, opts.Source)
		if err != nil {
			return err
		}
		if jsonMode {
			out.Result = res
		} else if err := renderResult(cmd.OutOrStdout(), res, opts.Format, cmdCtx.Cfg.Display.MaxRows); err != nil {
			return err
		}
	}

	if jsonMode {
		return r.JSON(out)
	}
	return nil
}

// streamTo returns an update callback that writes only the new part of the response.
func streamTo(r *output.Renderer) func(full string) {
	printed := 0
	return func(full string) {
		if len(full) <= printed {
			return
		}
		r.Write(full[printed:])
		printed = len(full)
	}
}

// reportReply prints the notices that follow a streamed response.
func reportReply(r *output.Renderer, reply *session.Reply) {
	if reply.SchemaErr != nil {
		r.Warning("Schema not included: " + reply.SchemaErr.Error())
	} else if reply.SchemaIncluded {
		r.Muted("Schema included in prompt")
	}

	if reply.SQL == "" {
		r.Warning("No SQL found in the response")
		return
	}

	r.Println("")
	r.Println(r.Styles().Header2.Render("Extracted SQL:"))
	r.Println(r.SQL(reply.SQL))
	if reply.Invalid != nil {
		r.Warning(reply.Invalid.Error())
	}
}

// executeState runs the extracted SQL on a configured source, or on the
// session connection when source is empty.
func executeState(cmd *cobra.Command, cmdCtx *CommandContext, sess *session.Session, st session.State, source string) (*core.Result, error) {
	if source == "" {
		return sess.Execute(cmd.Context(), st)
	}
	src, err := cmdCtx.Cfg.Source(source)
	if err != nil {
		return nil, err
	}
	res, err := sess.Run(cmd.Context(), st, src)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source, err)
	}
	return res, nil
}
