package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/geoprompt/pkg/core"
)

// Result formats accepted by -f.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
)

// resultFormats lists the accepted -f values.
var resultFormats = []string{FormatTable, FormatJSON, FormatCSV, FormatMarkdown, "markdown"}

func checkFormat(format string) error {
	if !slices.Contains(resultFormats, format) {
		return fmt.Errorf("invalid format %q (want one of table, json, csv, md)", format)
	}
	return nil
}

// renderResult writes res in format. The table format shows at most maxRows
// rows (0 means all); machine formats always carry every row.
func renderResult(w io.Writer, res *core.Result, format string, maxRows int) error {
	if !res.HasRows() {
		return renderOutcome(w, res, format)
	}

	switch format {
	case FormatJSON:
		return renderJSON(w, res)
	case FormatCSV:
		return renderCSV(w, res)
	case FormatMarkdown, "markdown":
		return renderMarkdown(w, res)
	default:
		return renderTable(w, res, maxRows)
	}
}

// renderOutcome prints the label of a statement that returned no rows.
func renderOutcome(w io.Writer, res *core.Result, format string) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"label":         res.Label,
			"rows_affected": res.RowsAffected,
		})
	}
	_, _ = fmt.Fprintln(w, res.Label)
	return nil
}

func renderTable(w io.Writer, res *core.Result, maxRows int) error {
	total := len(res.Rows)
	_, _ = fmt.Fprintf(w, "Rows returned: %d\n", total)
	if total == 0 {
		return nil
	}

	shown := res.Rows
	if maxRows > 0 && total > maxRows {
		shown = res.Rows[:maxRows]
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, values := range shown {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}
	t.Render()

	if rest := total - len(shown); rest > 0 {
		_, _ = fmt.Fprintf(w, "... and %d more rows\n", rest)
	}
	return nil
}

func renderJSON(w io.Writer, res *core.Result) error {
	results := make([]map[string]any, 0, len(res.Rows))
	for _, values := range res.Rows {
		row := make(map[string]any, len(res.Columns))
		for i, col := range res.Columns {
			if i < len(values) {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func renderCSV(w io.Writer, res *core.Result) error {
	header := make([]string, len(res.Columns))
	for i, col := range res.Columns {
		header[i] = escapeCSV(col)
	}
	_, _ = fmt.Fprintln(w, strings.Join(header, ","))

	for _, values := range res.Rows {
		fields := make([]string, len(values))
		for i, v := range values {
			fields[i] = escapeCSV(formatValue(v))
		}
		_, _ = fmt.Fprintln(w, strings.Join(fields, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, res *core.Result) error {
	if len(res.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(res.Columns, " | "))
	seps := make([]string, len(res.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, values := range res.Rows {
		fields := make([]string, len(values))
		for i, v := range values {
			fields[i] = strings.ReplaceAll(formatValue(v), "|", `\|`)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(fields, " | "))
	}
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
