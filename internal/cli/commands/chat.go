package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/geoprompt/internal/cli/output"
	"github.com/leapstack-labs/geoprompt/internal/ollama"
	"github.com/leapstack-labs/geoprompt/internal/session"
	"github.com/leapstack-labs/geoprompt/pkg/adapters/postgres"
	"github.com/leapstack-labs/geoprompt/pkg/core"
	"github.com/leapstack-labs/geoprompt/pkg/sqltext"
)

const (
	chatPrompt         = "geoprompt> "
	defaultHistoryFile = ".geoprompt_history"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// ChatOptions holds options for the chat command.
type ChatOptions struct {
	Connect bool
	Schema  bool
	Format  string
}

// NewChatCommand creates the chat command.
func NewChatCommand() *cobra.Command {
	opts := &ChatOptions{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive prompt session",
		Long: `Start an interactive session with the Ollama model.

Plain lines are sent as prompts. The SQL found in each reply is kept and can be
validated, edited, copied and executed with dot-commands. Type .help for the list.`,
		Example: `  # Start a session
  geoprompt chat

  # Connect to the configured database and include its schema in every prompt
  geoprompt chat --connect --schema`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Connect, "connect", false, "Connect to the configured database on start")
	cmd.Flags().BoolVar(&opts.Schema, "schema", false, "Include the schema in prompts")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", FormatTable, "Result format: table, json, csv, md")

	return cmd
}

// chatREPL holds the state of one interactive session.
type chatREPL struct {
	cmdCtx *CommandContext
	r      *output.Renderer
	sess   *session.Session
	st     session.State
	format string
}

func newChatREPL(cmdCtx *CommandContext, sess *session.Session, format string) *chatREPL {
	return &chatREPL{
		cmdCtx: cmdCtx,
		r:      cmdCtx.Renderer,
		sess:   sess,
		format: format,
	}
}

func runChat(cmd *cobra.Command, opts *ChatOptions) error {
	if err := checkFormat(opts.Format); err != nil {
		return err
	}

	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()

	sess := cmdCtx.Session()
	defer func() { _ = sess.Close() }()

	repl := newChatREPL(cmdCtx, sess, opts.Format)
	repl.st.IncludeSchema = opts.Schema
	if opts.Connect {
		repl.connect(ctx, nil)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          chatPrompt,
		HistoryFile:     historyFile(cmdCtx.Cfg.REPL.HistoryFile),
		AutoComplete:    repl.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "geoprompt chat (model: %s, server: %s)\n", sess.Model(), cmdCtx.Cfg.Ollama.URL)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type a prompt, .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if quit := repl.handleLine(ctx, line); quit {
			break
		}
	}
	return nil
}

// historyFile returns the configured history path, or ~/.geoprompt_history.
func historyFile(configured string) string {
	if configured != "" {
		return configured
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, defaultHistoryFile)
}

// handleLine processes one line of input and reports whether the REPL should exit.
func (c *chatREPL) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, ".") {
		return c.handleDotCommand(ctx, line)
	}

	// Ctrl-C cancels the request in flight instead of exiting.
	askCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	c.ask(askCtx, line)
	return false
}

func (c *chatREPL) ask(ctx context.Context, prompt string) {
	st, reply, err := c.sess.Ask(ctx, c.st, prompt, streamTo(c.r))
	c.r.Println("")
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.r.Warning("Request cancelled")
			return
		}
		if errors.Is(err, ollama.ErrNoResponse) {
			c.st = st
			c.r.Warning(err.Error())
			return
		}
		c.r.Error(err.Error())
		return
	}
	c.st = st
	reportReply(c.r, reply)
	c.r.Println("")
}

// handleDotCommand runs a dot-command and reports whether the REPL should exit.
func (c *chatREPL) handleDotCommand(ctx context.Context, line string) bool {
	command, rest, _ := strings.Cut(line, " ")
	command = strings.ToLower(command)
	rest = strings.TrimSpace(rest)

	switch command {
	case ".quit", ".exit":
		return true
	case ".help":
		printChatHelp(c.r.Out())
	case ".clear":
		c.r.Write("\033[H\033[2J")

	case ".connect":
		c.connect(ctx, core.ParseKeyValueLocator(rest))
	case ".disconnect":
		st, err := c.sess.Disconnect(c.st)
		c.st = st
		if err != nil {
			c.r.Error(err.Error())
			return false
		}
		c.r.Success("Disconnected")
	case ".tables":
		c.listTables(ctx)
	case ".select":
		c.selectTables(rest)
	case ".schema":
		c.schema(ctx, rest)

	case ".attach":
		c.attach(rest)
	case ".detach":
		c.st.Image = nil
		c.r.Success("Image detached")
	case ".model":
		c.model(rest)

	case ".sql":
		if c.st.ExtractedSQL == "" {
			c.r.Warning("No SQL extracted yet")
			return false
		}
		c.r.Println(c.r.SQL(c.st.ExtractedSQL))
	case ".edit":
		if rest == "" {
			c.r.Error("Usage: .edit <sql>")
			return false
		}
		c.st = c.sess.Edit(c.st, rest)
		c.r.Success("SQL replaced")
	case ".validate":
		c.validate()
	case ".exec":
		c.execute(ctx, "")
	case ".run":
		if rest == "" {
			c.r.Error("Usage: .run <source>")
			return false
		}
		c.execute(ctx, rest)
	case ".copy":
		c.copySQL()
	case ".sources":
		c.listSources()

	default:
		c.r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

// connect opens the configured database, with key=value overrides such as
// "dbname=gis user=me".
func (c *chatREPL) connect(ctx context.Context, overrides map[string]string) {
	p := c.cmdCtx.Cfg.Database
	for k, v := range overrides {
		switch k {
		case "host":
			p.Host = v
		case "port":
			port, err := strconv.Atoi(v)
			if err != nil {
				c.r.Error(fmt.Sprintf("invalid port %q", v))
				return
			}
			p.Port = port
		case "dbname", "name":
			p.Database = v
		case "user":
			p.User = v
		case "password":
			p.Password = v
		case "sslmode":
			p.SSLMode = v
		}
	}

	if err := c.sess.Connect(ctx, p); err != nil {
		c.r.Error(err.Error())
		return
	}
	c.r.Success(fmt.Sprintf("Connected to %s", describeConn(c.sess.Params())))

	if c.st.IncludeSchema {
		c.listTables(ctx)
	}
}

func describeConn(p postgres.ConnConfig) string {
	return fmt.Sprintf("%s@%s:%d/%s", p.User, p.Host, p.Port, p.Database)
}

func (c *chatREPL) listTables(ctx context.Context) {
	names, err := c.sess.Tables(ctx)
	if err != nil {
		c.r.Error(err.Error())
		return
	}
	if len(names) == 0 {
		c.r.Warning("No tables found in the public schema")
		return
	}
	for _, name := range names {
		marker := " "
		if slices.Contains(c.st.SelectedTables, name) {
			marker = "*"
		}
		c.r.Printf("%s %s\n", marker, name)
	}
}

func (c *chatREPL) selectTables(arg string) {
	names := strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' })
	st, err := c.sess.Select(c.st, names)
	if err != nil {
		c.r.Error(err.Error())
		return
	}
	c.st = st
	if len(st.SelectedTables) == 0 {
		c.r.Success("Selection cleared, the schema covers all tables")
		return
	}
	c.r.Success("Selected: " + strings.Join(st.SelectedTables, ", "))
}

func (c *chatREPL) schema(ctx context.Context, arg string) {
	switch strings.ToLower(arg) {
	case "on":
		c.st.IncludeSchema = true
		c.r.Success("Schema will be included in prompts")
		if c.sess.Connected() && len(c.sess.KnownTables()) == 0 {
			c.listTables(ctx)
		}
	case "off":
		c.st.IncludeSchema = false
		c.r.Success("Schema will not be included in prompts")
	case "show", "":
		desc, err := c.sess.Schema(ctx, c.st)
		if err != nil {
			c.r.Error(err.Error())
			return
		}
		c.r.Println(desc)
	default:
		c.r.Error("Usage: .schema on|off|show")
	}
}

func (c *chatREPL) attach(path string) {
	if path == "" {
		c.r.Error("Usage: .attach <image>")
		return
	}
	img, err := ollama.LoadImage(path)
	if err != nil {
		c.r.Error(err.Error())
		return
	}
	c.st.Image = img
	c.r.Success("Attached " + img.String())
}

func (c *chatREPL) model(name string) {
	if name == "" {
		c.r.Println(c.sess.Model())
		return
	}
	c.sess.SetModel(name)
	c.r.Success("Model set to " + c.sess.Model())
}

func (c *chatREPL) validate() {
	if c.st.ExtractedSQL == "" {
		c.r.Warning("No SQL extracted yet")
		return
	}
	if err := sqltext.Validate(c.st.ExtractedSQL); err != nil {
		c.r.Error(err.Error())
		return
	}
	c.r.Success("SQL looks complete")
}

func (c *chatREPL) execute(ctx context.Context, source string) {
	var (
		res *core.Result
		err error
	)
	if source == "" {
		res, err = c.sess.Execute(ctx, c.st)
	} else {
		var src core.Source
		if src, err = c.cmdCtx.Cfg.Source(source); err == nil {
			res, err = c.sess.Run(ctx, c.st, src)
		}
	}
	if err != nil {
		c.r.Error(err.Error())
		return
	}
	if err := renderResult(c.r.Out(), res, c.format, c.cmdCtx.Cfg.Display.MaxRows); err != nil {
		c.r.Error(err.Error())
	}
}

func (c *chatREPL) copySQL() {
	if c.st.ExtractedSQL == "" {
		c.r.Warning("No SQL to copy")
		return
	}
	if err := writeClipboard(c.st.ExtractedSQL); err != nil {
		c.r.Error("failed to copy to clipboard: " + err.Error())
		return
	}
	c.r.Success("SQL copied to clipboard")
}

func (c *chatREPL) listSources() {
	names := c.cmdCtx.Cfg.SourceNames()
	if len(names) == 0 {
		c.r.Warning("No sources configured")
		return
	}
	for _, name := range names {
		src := c.cmdCtx.Cfg.Sources[name]
		c.r.Printf("%-16s %-10s %s\n", name, src.Provider, src.Locator)
	}
}

func printChatHelp(w io.Writer) {
	help := `
Connection:
  .connect [k=v ...]  Connect to the configured database (overrides: host, port, dbname, user, password, sslmode)
  .disconnect         Close the connection
  .tables             List the public tables (* marks the selection)
  .select [a,b]       Limit the schema to these tables (no argument clears)
  .schema on|off|show Include the schema in prompts, or print it

Prompt context:
  .attach <image>     Attach an image to the next prompts
  .detach             Remove the attached image
  .model [name]       Show or change the model

SQL:
  .sql                Show the extracted SQL
  .edit <sql>         Replace the extracted SQL
  .validate           Check the extracted SQL for truncation
  .exec               Execute the SQL on the connected database
  .run <source>       Execute the SQL on a configured source
  .copy               Copy the SQL to the clipboard

Other:
  .sources            List configured sources
  .clear              Clear the screen
  .help               Show this help message
  .quit / .exit       Exit

Tips:
  - Any other line is sent to the model as a prompt
  - Ctrl-C cancels a request in progress
`
	_, _ = fmt.Fprintln(w, help)
}

// completer creates a readline completer for dot-commands, table names and sources.
func (c *chatREPL) completer() *readline.PrefixCompleter {
	tables := func(string) []string { return c.sess.KnownTables() }
	sources := func(string) []string { return c.cmdCtx.Cfg.SourceNames() }

	return readline.NewPrefixCompleter(
		readline.PcItem(".connect"),
		readline.PcItem(".disconnect"),
		readline.PcItem(".tables"),
		readline.PcItem(".select", readline.PcItemDynamic(tables)),
		readline.PcItem(".schema", readline.PcItem("on"), readline.PcItem("off"), readline.PcItem("show")),
		readline.PcItem(".attach"),
		readline.PcItem(".detach"),
		readline.PcItem(".model"),
		readline.PcItem(".sql"),
		readline.PcItem(".edit"),
		readline.PcItem(".validate"),
		readline.PcItem(".exec"),
		readline.PcItem(".run", readline.PcItemDynamic(sources)),
		readline.PcItem(".copy"),
		readline.PcItem(".sources"),
		readline.PcItem(".clear"),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
