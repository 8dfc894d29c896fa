package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/geoprompt/internal/cli/config"
)

const configFileName = "geoprompt.yaml"

const starterHeader = `geoprompt configuration.

Every key can be overridden with a GEOPROMPT_ environment variable
(GEOPROMPT_OLLAMA_MODEL, GEOPROMPT_DATABASE_NAME, ...) or a command-line flag.
${VAR} references are expanded in database credentials and source locators.

Sources are data sets SQL can be run on with --source or .run:
  sources:
    parcels:
      provider: ogr                  # postgres, spatialite or ogr
      locator: data/parcels.gpkg|layername=parcels`

// starterFile is the layout written by init. Durations are strings so the
// file stays readable.
type starterFile struct {
	Ollama   starterOllama                  `yaml:"ollama"`
	Database config.DatabaseConfig          `yaml:"database"`
	Vector   config.VectorConfig            `yaml:"vector"`
	Display  config.DisplayConfig           `yaml:"display"`
	Sources  map[string]config.SourceConfig `yaml:"sources,omitempty"`
}

type starterOllama struct {
	URL         string `yaml:"url"`
	Model       string `yaml:"model"`
	Timeout     string `yaml:"timeout"`
	TagsTimeout string `yaml:"tags_timeout"`
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter geoprompt.yaml",
		Long: `Write a geoprompt.yaml with the current settings to the given directory.

Values given with flags (--model, --db-name, ...) or environment variables end
up in the file. The database password is never written; reference it with
${VAR} instead.`,
		Example: `  # Initialize in current directory
  geoprompt init

  # Start from a model and a database
  geoprompt init --model llava:13b --db-name gis --db-user analyst

  # Force overwrite existing config
  geoprompt init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := NewCommandContext(cmd).Renderer

			path, err := writeStarterConfig(getConfig(), dir, force)
			if err != nil {
				return err
			}

			r.StatusLine(path, true, "")
			r.Println("")
			r.Success("geoprompt initialized!")
			r.Println("")
			r.Println("Next steps:")
			r.Println("  1. Set database.name and database.user")
			r.Println("  2. Run 'geoprompt doctor' to check Ollama and the database")
			r.Println("  3. Run 'geoprompt chat' to start prompting")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

// writeStarterConfig writes cfg as dir/geoprompt.yaml and returns the path.
func writeStarterConfig(cfg *config.Config, dir string, force bool) (string, error) {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	path := filepath.Join(dir, configFileName)
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists. Use --force to overwrite", configFileName)
	}

	content, err := marshalStarter(cfg)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func marshalStarter(cfg *config.Config) ([]byte, error) {
	db := cfg.Database.WithDefaults()
	db.Password = ""

	starter := starterFile{
		Ollama: starterOllama{
			URL:         cfg.Ollama.URL,
			Model:       cfg.Ollama.Model,
			Timeout:     cfg.Ollama.Timeout.String(),
			TagsTimeout: cfg.Ollama.TagsTimeout.String(),
		},
		Database: db,
		Vector:   cfg.Vector,
		Display:  cfg.Display,
		Sources:  cfg.Sources,
	}

	var buf bytes.Buffer
	for _, line := range strings.Split(starterHeader, "\n") {
		buf.WriteString(strings.TrimRight("# "+line, " ") + "\n")
	}
	buf.WriteString("\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(starter); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
