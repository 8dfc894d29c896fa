package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/geoprompt/pkg/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geoprompt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOllamaURL, cfg.Ollama.URL)
	assert.Equal(t, DefaultModel, cfg.Ollama.Model)
	assert.Equal(t, 20*time.Minute, cfg.Ollama.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Ollama.TagsTimeout)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, DefaultMaxRows, cfg.Display.MaxRows)
	assert.Equal(t, []string{"spatial"}, cfg.Vector.Extensions)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, `ollama:
  model: llava:13b
  timeout: 90s
database:
  host: gis.example.com
  port: 5433
  name: gis
  user: ${GEOPROMPT_TEST_USER}
display:
  max_rows: 25
sources:
  parcels:
    provider: ogr
    locator: /data/parcels.shp
`)
	t.Setenv("GEOPROMPT_TEST_USER", "mapper")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, "llava:13b", cfg.Ollama.Model)
	assert.Equal(t, 90*time.Second, cfg.Ollama.Timeout)
	assert.Equal(t, "gis.example.com", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "gis", cfg.Database.Database)
	assert.Equal(t, "mapper", cfg.Database.User)
	assert.Equal(t, 25, cfg.Display.MaxRows)
	assert.Equal(t, []string{"parcels"}, cfg.SourceNames())
}

func TestLoadConfig_FindsFileUpward(t *testing.T) {
	ResetConfig()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "geoprompt.yml"), []byte("ollama:\n  model: bakllava\n"), 0600))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "bakllava", cfg.Ollama.Model)
	assert.Equal(t, "geoprompt.yml", filepath.Base(GetConfigFileUsed()))
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, "ollama:\n  model: from_file\n")
	t.Setenv("GEOPROMPT_OLLAMA_MODEL", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("model", "", "model")
	require.NoError(t, flags.Set("model", "from_flag"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "from_flag", cfg.Ollama.Model, "flag value should override config file and env var")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, "ollama:\n  model: from_file\n  tags_timeout: 1s\n")
	t.Setenv("GEOPROMPT_OLLAMA_MODEL", "from_env")
	t.Setenv("GEOPROMPT_OLLAMA_TAGS_TIMEOUT", "3s")
	t.Setenv("GEOPROMPT_DISPLAY_MAX_ROWS", "7")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Ollama.Model, "env var should override config file")
	assert.Equal(t, 3*time.Second, cfg.Ollama.TagsTimeout)
	assert.Equal(t, 7, cfg.Display.MaxRows)
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, "ollama:\n  model: from_file\n")
	t.Setenv("GEOPROMPT_OLLAMA_MODEL", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("model", "", "model")

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Ollama.Model, "env var should be used when flag is not set")
}

func TestLoadConfig_DatabaseFlags(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db-host", "", "")
	flags.Int("db-port", 0, "")
	flags.String("db-name", "", "")
	flags.Int("max-rows", 0, "")
	require.NoError(t, flags.Set("db-host", "db.internal"))
	require.NoError(t, flags.Set("db-port", "6543"))
	require.NoError(t, flags.Set("db-name", "osm"))
	require.NoError(t, flags.Set("max-rows", "3"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "osm", cfg.Database.Database)
	assert.Equal(t, 3, cfg.Display.MaxRows)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, "sources:\n  bad:\n    provider: oracle\n    locator: x\n")
	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), `unknown provider "oracle"`)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"GEOPROMPT_OLLAMA_MODEL":        "ollama.model",
		"GEOPROMPT_OLLAMA_TAGS_TIMEOUT": "ollama.tags_timeout",
		"GEOPROMPT_DATABASE_SSLMODE":    "database.sslmode",
		"GEOPROMPT_DISPLAY_MAX_ROWS":    "display.max_rows",
		"GEOPROMPT_VERBOSE":             "verbose",
		"GEOPROMPT_OUTPUT":              "output",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestFlagKey(t *testing.T) {
	assert.Equal(t, "ollama.model", flagKey("model"))
	assert.Equal(t, "database.sslmode", flagKey("db-sslmode"))
	assert.Equal(t, "verbose", flagKey("verbose"))
	assert.Equal(t, "some_flag", flagKey("some-flag"))
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single variable", input: "${TEST_VAR_ONE}", expected: "value_one"},
		{name: "multiple variables", input: "${TEST_VAR_ONE}/${TEST_VAR_TWO}", expected: "value_one/value_two"},
		{name: "variable in path", input: "/path/to/${TEST_VAR_ONE}/file", expected: "/path/to/value_one/file"},
		{name: "unset variable stays as-is", input: "${UNSET_VARIABLE}", expected: "${UNSET_VARIABLE}"},
		{name: "no variables", input: "plain string", expected: "plain string"},
		{name: "empty string", input: "", expected: ""},
		{name: "mixed set and unset", input: "${TEST_VAR_ONE}:${UNSET_VAR}", expected: "value_one:${UNSET_VAR}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestConfig_Source(t *testing.T) {
	t.Setenv("GEOPROMPT_TEST_DATA", "/srv/data")

	cfg := Default()
	cfg.Sources = map[string]SourceConfig{
		"roads":  {Provider: "ogr", Locator: "${GEOPROMPT_TEST_DATA}/roads.shp"},
		"custom": {Provider: "ogr", Locator: "x.geojson", Params: map[string]any{"extensions": []string{"httpfs"}}},
		"local":  {Provider: "spatialite", Locator: "dbname=/tmp/a.sqlite"},
	}

	t.Run("vector extensions merged", func(t *testing.T) {
		src, err := cfg.Source("roads")
		require.NoError(t, err)
		assert.Equal(t, "roads", src.Name)
		assert.Equal(t, core.ProviderOGR, src.Provider)
		assert.Equal(t, "/srv/data/roads.shp", src.Locator)
		assert.Equal(t, []string{"spatial"}, src.Params["extensions"])
	})

	t.Run("source extensions kept", func(t *testing.T) {
		src, err := cfg.Source("custom")
		require.NoError(t, err)
		assert.Equal(t, []string{"httpfs"}, src.Params["extensions"])
	})

	t.Run("non vector source untouched", func(t *testing.T) {
		src, err := cfg.Source("local")
		require.NoError(t, err)
		assert.NotContains(t, src.Params, "extensions")
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := cfg.Source("rivers")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown source "rivers"`)
		assert.Contains(t, err.Error(), "custom")
	})

	t.Run("configured map not mutated", func(t *testing.T) {
		_, _ = cfg.Source("roads")
		assert.Nil(t, cfg.Sources["roads"].Params)
	})
}

func TestConfig_AdHocSource(t *testing.T) {
	cfg := Default()
	src := cfg.AdHocSource("ogr", "a.gpkg|layername=b")
	assert.Empty(t, src.Name)
	assert.Equal(t, "b", src.LayerName())
	assert.Equal(t, []string{"spatial"}, src.Params["extensions"])
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "port out of range", mutate: func(c *Config) { c.Database.Port = 70000 }, errSubstr: "out of range"},
		{name: "negative max rows", mutate: func(c *Config) { c.Display.MaxRows = -1 }, errSubstr: "max_rows"},
		{name: "bad output", mutate: func(c *Config) { c.OutputFormat = "xml" }, errSubstr: "xml"},
		{
			name: "empty locator",
			mutate: func(c *Config) {
				c.Sources = map[string]SourceConfig{"x": {Provider: "postgres", Locator: " "}}
			},
			errSubstr: "locator is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}
