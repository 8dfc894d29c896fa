// Package config provides configuration management for the geoprompt CLI.
//
// Configuration is layered with koanf: built-in defaults, a geoprompt.yaml file,
// GEOPROMPT_ environment variables and finally command-line flags.
package config

import (
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/leapstack-labs/geoprompt/internal/ollama"
	"github.com/leapstack-labs/geoprompt/pkg/adapters/postgres"
	"github.com/leapstack-labs/geoprompt/pkg/core"
)

// DatabaseConfig is the connection used by chat, schema, tables and exec.
type DatabaseConfig = postgres.ConnConfig

// OllamaConfig configures the inference server.
type OllamaConfig struct {
	URL         string        `koanf:"url" yaml:"url"`
	Model       string        `koanf:"model" yaml:"model"`
	Timeout     time.Duration `koanf:"timeout" yaml:"timeout"`
	TagsTimeout time.Duration `koanf:"tags_timeout" yaml:"tags_timeout"`
}

// ClientConfig converts to the client's configuration.
func (o OllamaConfig) ClientConfig() ollama.Config {
	return ollama.Config{
		URL:             o.URL,
		TagsTimeout:     o.TagsTimeout,
		GenerateTimeout: o.Timeout,
	}
}

// SourceConfig declares a named data source SQL can be run against.
type SourceConfig struct {
	Provider string         `koanf:"provider" yaml:"provider"`
	Locator  string         `koanf:"locator" yaml:"locator"`
	Params   map[string]any `koanf:"params" yaml:"params,omitempty"`
}

// VectorConfig holds defaults for ogr sources.
type VectorConfig struct {
	Extensions []string `koanf:"extensions" yaml:"extensions"`
}

// DisplayConfig controls result rendering.
type DisplayConfig struct {
	MaxRows int `koanf:"max_rows" yaml:"max_rows"`
}

// REPLConfig configures the chat REPL.
type REPLConfig struct {
	HistoryFile string `koanf:"history_file" yaml:"history_file,omitempty"`
}

// Config holds all CLI configuration options.
type Config struct {
	Ollama       OllamaConfig            `koanf:"ollama" yaml:"ollama"`
	Database     DatabaseConfig          `koanf:"database" yaml:"database"`
	Sources      map[string]SourceConfig `koanf:"sources" yaml:"sources,omitempty"`
	Vector       VectorConfig            `koanf:"vector" yaml:"vector"`
	Display      DisplayConfig           `koanf:"display" yaml:"display"`
	REPL         REPLConfig              `koanf:"repl" yaml:"repl,omitempty"`
	Verbose      bool                    `koanf:"verbose" yaml:"-"`
	OutputFormat string                  `koanf:"output" yaml:"-"`
}

// Default configuration values.
const (
	DefaultOllamaURL   = ollama.DefaultURL
	DefaultModel       = ollama.DefaultModel
	DefaultTimeout     = ollama.DefaultGenerateTimeout
	DefaultTagsTimeout = ollama.DefaultTagsTimeout
	DefaultMaxRows     = 10
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// DefaultVectorExtensions are loaded for every ogr source.
var DefaultVectorExtensions = []string{"spatial"}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			URL:         DefaultOllamaURL,
			Model:       DefaultModel,
			Timeout:     DefaultTimeout,
			TagsTimeout: DefaultTagsTimeout,
		},
		Database:     postgres.ConnConfig{}.WithDefaults(),
		Vector:       VectorConfig{Extensions: DefaultVectorExtensions},
		Display:      DisplayConfig{MaxRows: DefaultMaxRows},
		OutputFormat: DefaultOutput,
	}
}

// SourceNames returns the configured source names, sorted.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source resolves a configured source by name. For ogr sources the configured
// vector extensions are added unless the source sets its own.
func (c *Config) Source(name string) (core.Source, error) {
	sc, ok := c.Sources[name]
	if !ok {
		return core.Source{}, fmt.Errorf("unknown source %q (configured: %v)", name, c.SourceNames())
	}
	return c.buildSource(name, sc), nil
}

// AdHocSource builds a source from a provider and locator given on the command line.
func (c *Config) AdHocSource(provider, locator string) core.Source {
	return c.buildSource("", SourceConfig{Provider: provider, Locator: locator})
}

func (c *Config) buildSource(name string, sc SourceConfig) core.Source {
	params := make(map[string]any, len(sc.Params)+1)
	maps.Copy(params, sc.Params)

	provider := core.ProviderKind(sc.Provider)
	if provider == core.ProviderOGR {
		if _, ok := params["extensions"]; !ok && len(c.Vector.Extensions) > 0 {
			params["extensions"] = c.Vector.Extensions
		}
	}

	return core.Source{
		Name:     name,
		Provider: provider,
		Locator:  expandEnvVars(sc.Locator),
		Params:   params,
	}
}
