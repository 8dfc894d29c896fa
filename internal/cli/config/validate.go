package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/geoprompt/internal/cli/output"
	"github.com/leapstack-labs/geoprompt/pkg/adapter"
)

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port %d is out of range", c.Database.Port)
	}
	if c.Display.MaxRows < 0 {
		return fmt.Errorf("display.max_rows must not be negative")
	}
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		return err
	}

	supported := adapter.SupportedProviders()
	for _, name := range c.SourceNames() {
		src := c.Sources[name]
		if !slices.Contains(supported, src.Provider) {
			return fmt.Errorf("source %q: unknown provider %q\nHint: use one of %s", name, src.Provider, strings.Join(supported, ", "))
		}
		if strings.TrimSpace(src.Locator) == "" {
			return fmt.Errorf("source %q: locator is required", name)
		}
	}
	return nil
}
