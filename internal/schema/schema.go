// Package schema introspects a PostgreSQL database and renders its tables as
// prompt context for the model.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/leapstack-labs/geoprompt/pkg/core"
)

// Querier is the subset of *sql.DB used here.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const columnsQuery = `
	SELECT
		t.table_name,
		c.column_name,
		c.data_type,
		c.character_maximum_length,
		c.numeric_precision
	FROM information_schema.tables t
	JOIN information_schema.columns c
		ON c.table_schema = t.table_schema AND c.table_name = t.table_name
	WHERE t.table_schema = 'public'
		AND t.table_type = 'BASE TABLE'`

const tablesQuery = `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = 'public'
		AND table_type = 'BASE TABLE'
	ORDER BY table_name`

// Load reads the public base tables and their columns in ordinal order.
// A non-empty selected restricts the result to those table names.
func Load(ctx context.Context, q Querier, selected []string) ([]core.Table, error) {
	query := columnsQuery
	var args []any
	if len(selected) > 0 {
		query += "\n\t\tAND t.table_name = ANY($1)"
		args = append(args, selected)
	}
	query += "\n\tORDER BY t.table_name, c.ordinal_position"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch database schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []core.Table
	for rows.Next() {
		var (
			table, column, dataType string
			length, precision       sql.NullInt64
		)
		if err := rows.Scan(&table, &column, &dataType, &length, &precision); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}

		if len(tables) == 0 || tables[len(tables)-1].Name != table {
			tables = append(tables, core.Table{Name: table})
		}
		t := &tables[len(tables)-1]
		t.Columns = append(t.Columns, core.Column{
			Name:      column,
			Type:      dataType,
			Length:    nullInt(length),
			Precision: nullInt(precision),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	return tables, nil
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// Describe loads the schema and renders it with Render. It returns "" when no
// tables match.
func Describe(ctx context.Context, q Querier, database string, selected []string) (string, error) {
	tables, err := Load(ctx, q, selected)
	if err != nil {
		return "", err
	}
	return Render(database, tables, len(selected) > 0), nil
}

// ListTables returns the names of the public base tables, sorted.
func ListTables(ctx context.Context, q Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return names, nil
}

const quotingRules = "IMPORTANT SQL SYNTAX RULES:\n" +
	"- Column and table names with uppercase letters MUST be enclosed in double quotes\n" +
	"- Example: WHERE \"POPULATION\" > 10000 (NOT WHERE POPULATION > 10000)\n" +
	"- Example: SELECT \"CityName\", \"POPULATION\" FROM \"MyTable\"\n" +
	"- Column names shown with quotes below REQUIRE quotes in SQL queries\n" +
	"- Column names without quotes can be used without quotes\n\n"

// Render formats tables as the schema preamble prepended to prompts.
// selected switches the heading between "Selected tables" and "All available tables".
func Render(database string, tables []core.Table, selected bool) string {
	if len(tables) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\n--- POSTGRESQL DATABASE SCHEMA ---\n")
	fmt.Fprintf(&sb, "Database: %s\n\n", database)

	for _, t := range tables {
		if t.NeedsQuoting() {
			sb.WriteString(quotingRules)
			break
		}
	}

	if selected {
		fmt.Fprintf(&sb, "Selected tables (%d):\n\n", len(tables))
	} else {
		fmt.Fprintf(&sb, "All available tables (%d):\n\n", len(tables))
	}

	for _, t := range tables {
		fmt.Fprintf(&sb, "Table: %s\n", core.QuoteIdent(t.Name))
		sb.WriteString("Columns:\n")
		for _, c := range t.Columns {
			sb.WriteString("  - " + formatColumn(c) + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("--- END DATABASE SCHEMA ---\n\n")
	sb.WriteString("Based on the schema above, please help with the following request:\n\n")
	return sb.String()
}

func formatColumn(c core.Column) string {
	s := core.QuoteIdent(c.Name) + " (" + c.Type
	if c.Length != nil && *c.Length != 0 {
		s += fmt.Sprintf(", length: %d", *c.Length)
	}
	if c.Precision != nil && *c.Precision != 0 {
		s += fmt.Sprintf(", precision: %d", *c.Precision)
	}
	return s + ")"
}
