package output

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Renderer writes user-facing output. Notices go to errOut so that stdout stays
// clean for results when piped.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal flag.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}

	lg := lipgloss.NewRenderer(out)
	if !isTTY || mode == ModeMarkdown || mode == ModeJSON {
		lg.SetColorProfile(termenv.Ascii)
	}

	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
		styles: newStyles(lg),
	}
}

// Out returns the result writer.
func (r *Renderer) Out() io.Writer { return r.out }

// ErrOut returns the notice writer.
func (r *Renderer) ErrOut() io.Writer { return r.errOut }

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Styles returns the renderer's styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// EffectiveMode resolves auto to text or markdown.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// Println writes a line to stdout.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to stdout.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Write writes streamed text to stdout without a newline.
func (r *Renderer) Write(s string) {
	_, _ = io.WriteString(r.out, s)
}

// Success prints a success notice.
func (r *Renderer) Success(msg string) {
	r.notice(r.styles.StatusSuccess.String(), r.styles.Success, msg)
}

// Warning prints a warning notice.
func (r *Renderer) Warning(msg string) {
	r.notice(r.styles.StatusWarning.String(), r.styles.Warning, msg)
}

// Error prints an error notice.
func (r *Renderer) Error(msg string) {
	r.notice(r.styles.StatusFailed.String(), r.styles.Error, msg)
}

// Info prints an informational notice.
func (r *Renderer) Info(msg string) {
	_, _ = fmt.Fprintln(r.errOut, msg)
}

// Muted prints a de-emphasized notice.
func (r *Renderer) Muted(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Muted.Render(msg))
}

func (r *Renderer) notice(icon string, style lipgloss.Style, msg string) {
	if r.EffectiveMode() != ModeText {
		_, _ = fmt.Fprintf(r.errOut, "%s %s\n", icon, msg)
		return
	}
	_, _ = fmt.Fprintf(r.errOut, "%s %s\n", icon, style.Render(msg))
}

// StatusLine prints "icon name: detail" for check-style output.
func (r *Renderer) StatusLine(name string, ok bool, detail string) {
	icon := r.styles.StatusSuccess.String()
	if !ok {
		icon = r.styles.StatusFailed.String()
	}
	line := fmt.Sprintf("%s %s", icon, name)
	if detail != "" {
		line += ": " + r.styles.Muted.Render(detail)
	}
	r.Println(line)
}

// JSON writes v as indented JSON to stdout.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	sqlKeywordPattern = regexp.MustCompile(`(?i)\b(SELECT|FROM|WHERE|AND|OR|NOT|IN|AS|JOIN|LEFT|RIGHT|INNER|OUTER|ON|GROUP|BY|ORDER|HAVING|LIMIT|OFFSET|INSERT|INTO|VALUES|UPDATE|SET|DELETE|CREATE|ALTER|DROP|TABLE|VIEW|REPLACE|DISTINCT|UNION|ALL|CASE|WHEN|THEN|ELSE|END|IS|NULL|LIKE|ILIKE|BETWEEN|WITH)\b`)
	sqlStringPattern  = regexp.MustCompile(`'[^']*'`)
)

// SQL formats a statement for display: highlighted in a terminal, fenced in markdown.
func (r *Renderer) SQL(sql string) string {
	switch r.EffectiveMode() {
	case ModeText:
		return r.highlightSQL(sql)
	case ModeMarkdown:
		return "```sql\n" + sql + "\n```"
	default:
		return sql
	}
}

// highlightSQL styles keywords outside string literals, and the literals themselves.
func (r *Renderer) highlightSQL(sql string) string {
	var sb strings.Builder
	keywords := func(s string) string {
		return sqlKeywordPattern.ReplaceAllStringFunc(s, func(kw string) string {
			return r.styles.SQLKeyword.Render(kw)
		})
	}

	last := 0
	for _, loc := range sqlStringPattern.FindAllStringIndex(sql, -1) {
		sb.WriteString(keywords(sql[last:loc[0]]))
		sb.WriteString(r.styles.SQLString.Render(sql[loc[0]:loc[1]]))
		last = loc[1]
	}
	sb.WriteString(keywords(sql[last:]))
	return sb.String()
}
