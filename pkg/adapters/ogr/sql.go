package ogr

import (
	"fmt"
	"sort"
	"strings"
)

// Statements the vector dialect cannot run. The file is mounted read-only.
var unsupportedPrefixes = []string{
	"CREATE OR REPLACE VIEW",
	"CREATE OR REPLACE TABLE",
	"CREATE VIEW",
	"CREATE TABLE",
	"ALTER TABLE",
	"DROP TABLE",
	"DROP VIEW",
}

// UnsupportedOperationError is returned for statements that would modify the
// layer's structure.
type UnsupportedOperationError struct {
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s is not supported for OGR vector sources: only read queries can run against flat vector files\n"+
		"Hint: convert the layer to GeoPackage or load it into PostgreSQL to create tables or views", e.Operation)
}

// StripTerminator removes one trailing statement terminator.
func StripTerminator(sql string) string {
	sql = strings.TrimSpace(sql)
	sql = strings.TrimSuffix(sql, ";")
	return strings.TrimSpace(sql)
}

// CheckSupported rejects structure-changing statements. Whitespace runs are
// collapsed before matching, so "DROP\tTABLE" and `DROP TABLE"x"` are caught.
func CheckSupported(sql string) error {
	norm := strings.Join(strings.Fields(strings.ToUpper(sql)), " ")
	for _, prefix := range unsupportedPrefixes {
		if strings.HasPrefix(norm, prefix) {
			return &UnsupportedOperationError{Operation: prefix}
		}
	}
	return nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// stReadCall builds the ST_Read table function call for a file and optional layer.
func stReadCall(path, layer string) string {
	if layer == "" {
		return fmt.Sprintf("ST_Read(%s)", quoteLiteral(path))
	}
	return fmt.Sprintf("ST_Read(%s, layer=%s)", quoteLiteral(path), quoteLiteral(layer))
}

// viewSQL mounts a vector layer as a view named after it. Geometry columns
// are exposed as WKT text so results stay printable.
func viewSQL(view, path, layer string, geoms []string) string {
	sel := "*"
	if len(geoms) > 0 {
		excluded := make([]string, len(geoms))
		casts := make([]string, len(geoms))
		for i, g := range geoms {
			excluded[i] = quoteIdent(g)
			casts[i] = fmt.Sprintf("ST_AsText(%s) AS %s", quoteIdent(g), quoteIdent(g))
		}
		sel = fmt.Sprintf("* EXCLUDE (%s), %s", strings.Join(excluded, ", "), strings.Join(casts, ", "))
	}
	return fmt.Sprintf("CREATE VIEW %s AS SELECT %s FROM %s", quoteIdent(view), sel, stReadCall(path, layer))
}

// secretSQL builds a CREATE SECRET statement.
func secretSQL(name string, s SecretConfig) string {
	opts := []string{"TYPE " + s.Type}
	if s.Provider != "" {
		opts = append(opts, "PROVIDER "+s.Provider)
	}
	kv := map[string]string{
		"REGION":   s.Region,
		"SCOPE":    s.Scope,
		"KEY_ID":   s.KeyID,
		"SECRET":   s.Secret,
		"ENDPOINT": s.Endpoint,
	}
	keys := make([]string, 0, len(kv))
	for k, v := range kv {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		opts = append(opts, k+" "+quoteLiteral(kv[k]))
	}
	return fmt.Sprintf("CREATE SECRET %s (%s)", name, strings.Join(opts, ", "))
}

var enrichTriggers = []string{"syntax error", "unexpected", "not found"}

// shouldEnrich reports whether an engine error is likely a field-name mistake.
func shouldEnrich(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, t := range enrichTriggers {
		if strings.Contains(msg, t) {
			return true
		}
	}
	return false
}

func fieldHint(layer string, fields []string, sql string) string {
	return fmt.Sprintf("Layer '%s' has fields: %s\nField names are case-sensitive; match them exactly.\nSQL: %s",
		layer, strings.Join(fields, ", "), sql)
}
