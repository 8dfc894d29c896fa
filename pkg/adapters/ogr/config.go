package ogr

import (
	"fmt"
	"slices"

	"github.com/go-viper/mapstructure/v2"
)

// SpatialExtension is always loaded; ST_Read lives there.
const SpatialExtension = "spatial"

// Params holds DuckDB-specific configuration for vector sources.
// Parsed from core.Source.Params using mapstructure.
type Params struct {
	// Extensions to install and load in addition to spatial (e.g., "httpfs")
	Extensions []string `mapstructure:"extensions"`

	// Secrets for reading vector files from cloud storage
	Secrets []SecretConfig `mapstructure:"secrets"`

	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`
}

// SecretConfig defines a DuckDB secret for remote vector files.
type SecretConfig struct {
	// Type: "s3", "gcs", "azure", "r2"
	Type string `mapstructure:"type"`

	// Provider: "config", "credential_chain", ...
	Provider string `mapstructure:"provider"`

	Region   string `mapstructure:"region,omitempty"`
	Scope    string `mapstructure:"scope,omitempty"`
	KeyID    string `mapstructure:"key_id,omitempty"`
	Secret   string `mapstructure:"secret,omitempty"`
	Endpoint string `mapstructure:"endpoint,omitempty"`
}

func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid ogr params: %w", err)
	}
	return p, nil
}

// extensions returns the extensions to load, spatial first, without duplicates.
func (p *Params) extensions() []string {
	out := []string{SpatialExtension}
	for _, ext := range p.Extensions {
		if ext == "" || slices.Contains(out, ext) {
			continue
		}
		out = append(out, ext)
	}
	return out
}
