package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/geoprompt/internal/cli/config"
	"github.com/leapstack-labs/geoprompt/internal/cli/output"
	"github.com/leapstack-labs/geoprompt/internal/ollama"
	"github.com/leapstack-labs/geoprompt/pkg/adapter"
	"github.com/leapstack-labs/geoprompt/pkg/adapters/postgres"
	"github.com/leapstack-labs/geoprompt/pkg/adapters/spatialite"
	"github.com/leapstack-labs/geoprompt/pkg/core"
	"github.com/spf13/cobra"
)

// Check statuses.
const (
	StatusPass = "pass"
	StatusWarn = "warn"
	StatusFail = "fail"
	StatusSkip = "skip"
)

// Check groups, in report order.
const (
	GroupOllama   = "ollama"
	GroupDatabase = "database"
	GroupSources  = "sources"
)

// ErrChecksFailed is returned when at least one doctor check fails.
var ErrChecksFailed = errors.New("some checks failed")

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	ConfigFile string        `json:"config_file,omitempty"`
	Checks     []HealthCheck `json:"checks"`
	Failed     int           `json:"failed"`
	Warnings   int           `json:"warnings"`
}

// HealthCheck represents a single check result.
type HealthCheck struct {
	Group  string `json:"group"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the Ollama server, the database and the configured sources",
		Long: `Check that everything geoprompt needs is in place:
- the Ollama server answers and the configured model is installed
- the configured database accepts a connection
- every configured source routes to an available backend and its file exists

Checks run concurrently. The command fails when any check fails.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  geoprompt doctor
  geoprompt doctor -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			out := runChecks(cmd.Context(), cmdCtx)
			out.ConfigFile = config.GetConfigFileUsed()

			r := cmdCtx.Renderer
			var err error
			switch r.EffectiveMode() {
			case output.ModeJSON:
				err = r.JSON(out)
			case output.ModeMarkdown:
				renderDoctorMarkdown(r, out)
			default:
				renderDoctorText(r, out)
			}
			if err != nil {
				return err
			}
			if out.Failed > 0 {
				return fmt.Errorf("%w: %d of %d", ErrChecksFailed, out.Failed, len(out.Checks))
			}
			return nil
		},
	}
}

// runChecks runs every check group concurrently and collects the results in
// report order.
func runChecks(ctx context.Context, cmdCtx *CommandContext) *DoctorOutput {
	cfg := cmdCtx.Cfg
	var ollamaChecks, dbChecks, sourceChecks []HealthCheck

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ollamaChecks = checkOllama(gctx, cmdCtx.Ollama(), cfg.Ollama.Model)
		return nil
	})
	g.Go(func() error {
		dbChecks = checkDatabase(gctx, cfg.Database)
		return nil
	})
	g.Go(func() error {
		sourceChecks = checkSources(cfg)
		return nil
	})
	_ = g.Wait()

	out := &DoctorOutput{}
	out.Checks = append(out.Checks, ollamaChecks...)
	out.Checks = append(out.Checks, dbChecks...)
	out.Checks = append(out.Checks, sourceChecks...)
	for _, c := range out.Checks {
		switch c.Status {
		case StatusFail:
			out.Failed++
		case StatusWarn:
			out.Warnings++
		}
	}
	return out
}

func checkOllama(ctx context.Context, client *ollama.Client, model string) []HealthCheck {
	server := HealthCheck{Group: GroupOllama, Name: "server"}
	modelCheck := HealthCheck{Group: GroupOllama, Name: "model " + model}

	models, err := client.ListModels(ctx)
	if err != nil {
		server.Status = StatusFail
		server.Detail = err.Error()
		modelCheck.Status = StatusSkip
		modelCheck.Detail = "server unreachable"
		return []HealthCheck{server, modelCheck}
	}
	server.Status = StatusPass
	server.Detail = fmt.Sprintf("%s (%d models)", client.URL(), len(models))

	modelCheck.Status = StatusFail
	modelCheck.Detail = "not installed, run: ollama pull " + model
	for _, m := range models {
		if ollama.MatchModel(model, m.Name) {
			modelCheck.Status = StatusPass
			modelCheck.Detail = m.Name
			break
		}
	}
	return []HealthCheck{server, modelCheck}
}

func checkDatabase(ctx context.Context, db config.DatabaseConfig) []HealthCheck {
	check := HealthCheck{Group: GroupDatabase, Name: "connection"}
	if db.Database == "" {
		check.Status = StatusSkip
		check.Detail = "no database configured"
		return []HealthCheck{check}
	}

	db = db.WithDefaults()
	if err := db.Validate(); err != nil {
		check.Status = StatusFail
		check.Detail = err.Error()
		return []HealthCheck{check}
	}

	conn, err := postgres.Open(ctx, db)
	if err != nil {
		check.Status = StatusFail
		check.Detail = err.Error()
		return []HealthCheck{check}
	}
	_ = conn.Close()

	check.Status = StatusPass
	check.Detail = fmt.Sprintf("%s@%s:%d/%s", db.User, db.Host, db.Port, db.Database)
	return []HealthCheck{check}
}

func checkSources(cfg *config.Config) []HealthCheck {
	names := cfg.SourceNames()
	checks := make([]HealthCheck, 0, len(names))
	for _, name := range names {
		src, err := cfg.Source(name)
		if err != nil {
			checks = append(checks, HealthCheck{Group: GroupSources, Name: name, Status: StatusFail, Detail: err.Error()})
			continue
		}
		checks = append(checks, checkSource(src))
	}
	return checks
}

func checkSource(src core.Source) HealthCheck {
	check := HealthCheck{Group: GroupSources, Name: src.Name}

	strategy, err := adapter.Route(src)
	if err != nil {
		check.Status = StatusFail
		check.Detail = err.Error()
		return check
	}
	if !adapter.IsRegistered(strategy) {
		check.Status = StatusFail
		check.Detail = fmt.Sprintf("backend %q is not available in this build", strategy)
		return check
	}

	if strategy != adapter.StrategyPostgres {
		path := spatialite.FilePath(src)
		if strategy == adapter.StrategyOGR {
			path = src.VectorPath()
		}
		if !isRemotePath(path) {
			if _, err := os.Stat(path); err != nil {
				check.Status = StatusFail
				check.Detail = fmt.Sprintf("file not found: %s", path)
				return check
			}
		}
	}

	check.Status = StatusPass
	check.Detail = fmt.Sprintf("%s via %s", src.Provider, strategy)
	return check
}

// isRemotePath reports whether path is read over the network by the vector backend.
func isRemotePath(path string) bool {
	for _, prefix := range []string{"s3://", "http://", "https://", "gs://", "az://"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func statusIcon(styles *output.Styles, status string) string {
	switch status {
	case StatusPass:
		return styles.StatusSuccess.String()
	case StatusWarn:
		return styles.StatusWarning.String()
	case StatusFail:
		return styles.StatusFailed.String()
	default:
		return styles.Muted.Render("-")
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("geoprompt Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	if out.ConfigFile != "" {
		r.Println(styles.Muted.Render("Config: " + out.ConfigFile))
	}
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			if currentGroup != "" {
				r.Println("")
			}
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		line := fmt.Sprintf("   %s %s", statusIcon(styles, check.Status), check.Name)
		if check.Detail != "" {
			line += styles.Muted.Render(": " + check.Detail)
		}
		r.Println(line)
	}
	if len(out.Checks) == 0 {
		r.Println(styles.Muted.Render("   no checks"))
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	switch {
	case out.Failed > 0:
		r.Println("   " + styles.Error.Render(fmt.Sprintf("%d failed", out.Failed)))
	case out.Warnings > 0:
		r.Println("   " + styles.Warning.Render(fmt.Sprintf("%d warnings", out.Warnings)))
	default:
		r.Println("   " + styles.Success.Render("All checks passed"))
	}
	r.Println("")
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) {
	r.Println("# geoprompt Health Report")
	r.Println("")
	if out.ConfigFile != "" {
		r.Printf("Config: `%s`\n", out.ConfigFile)
		r.Println("")
	}

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			if currentGroup != "" {
				r.Println("")
			}
			currentGroup = check.Group
			r.Println("## " + titleCaser.String(currentGroup))
			r.Println("")
		}

		r.Printf("- **[%s]** %s", strings.ToUpper(check.Status), check.Name)
		if check.Detail != "" {
			r.Printf(": %s", check.Detail)
		}
		r.Println("")
	}
	r.Println("")

	r.Println("## Summary")
	r.Println("")
	r.Printf("- **Failed**: %d\n", out.Failed)
	r.Printf("- **Warnings**: %d\n", out.Warnings)
}
