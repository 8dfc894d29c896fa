package core

import (
	"path/filepath"
	"strings"
)

// ProviderKind identifies the backend family a data source belongs to.
type ProviderKind string

// Known provider kinds.
const (
	// ProviderPostgres is a network relational database (PostgreSQL/PostGIS).
	ProviderPostgres ProviderKind = "postgres"
	// ProviderSpatiaLite is an embedded SQLite/SpatiaLite file.
	ProviderSpatiaLite ProviderKind = "spatialite"
	// ProviderOGR is a generic vector source (GeoPackage, Shapefile, GeoJSON, ...).
	ProviderOGR ProviderKind = "ogr"
)

// Source describes a data source that SQL can be executed against.
type Source struct {
	Name     string
	Provider ProviderKind
	// Locator is provider specific: a key=value connection string for relational
	// providers, a filesystem path optionally suffixed with "|layername=..." for
	// vector sources.
	Locator string
	Params  map[string]any
}

// VectorPath returns the filesystem part of a vector locator ("a.gpkg|layername=b" -> "a.gpkg").
func (s Source) VectorPath() string {
	path, _, _ := strings.Cut(s.Locator, "|")
	return strings.TrimSpace(path)
}

// VectorOptions returns the "|key=value" suffixes of a vector locator.
func (s Source) VectorOptions() map[string]string {
	opts := make(map[string]string)
	parts := strings.Split(s.Locator, "|")
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		opts[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return opts
}

// LayerName returns the layer a vector locator points at. It falls back to the
// file name without its extension, which is what single-layer formats use.
func (s Source) LayerName() string {
	if name := s.VectorOptions()["layername"]; name != "" {
		return name
	}
	base := filepath.Base(s.VectorPath())
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseKeyValueLocator parses a connection string of the form
//
//	dbname='gis' host=localhost port=5432 user='me' password='s3cr3t' table="public"."roads" (geom)
//
// Values may be single-quoted (with backslash escapes) or bare. Tokens that are not
// key=value pairs, such as a trailing "(geom)", are ignored. Keys are lower-cased.
func ParseKeyValueLocator(s string) map[string]string {
	out := make(map[string]string)
	i := 0
	for i < len(s) {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		start := i
		for i < len(s) && s[i] != '=' && s[i] != ' ' {
			i++
		}
		if i >= len(s) || s[i] != '=' {
			// bare token, skip to next space
			for i < len(s) && s[i] != ' ' {
				i++
			}
			continue
		}
		key := strings.ToLower(s[start:i])
		i++ // '='

		var val strings.Builder
		if i < len(s) && s[i] == '\'' {
			i++
			for i < len(s) && s[i] != '\'' {
				if s[i] == '\\' && i+1 < len(s) {
					i++
				}
				val.WriteByte(s[i])
				i++
			}
			i++ // closing quote
		} else {
			for i < len(s) && s[i] != ' ' {
				val.WriteByte(s[i])
				i++
			}
		}
		if key != "" {
			out[key] = val.String()
		}
	}
	return out
}
