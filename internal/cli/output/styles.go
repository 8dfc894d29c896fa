package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette, 256-color codes.
const (
	colorAccent  = "205"
	colorSuccess = "78"
	colorWarning = "214"
	colorError   = "196"
	colorKeyword = "86"
	colorString  = "220"
	colorFaint   = "241"
)

// Styles are the lipgloss styles used by a Renderer.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	SQLKeyword lipgloss.Style
	SQLString  lipgloss.Style

	// StatusSuccess and StatusFailed are pre-rendered status icons.
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
	StatusWarning lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: r.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent)),
		Header2: r.NewStyle().Bold(true),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color(colorFaint)),
		Success: r.NewStyle().Foreground(lipgloss.Color(colorSuccess)),
		Warning: r.NewStyle().Foreground(lipgloss.Color(colorWarning)),
		Error:   r.NewStyle().Foreground(lipgloss.Color(colorError)).Bold(true),

		SQLKeyword: r.NewStyle().Foreground(lipgloss.Color(colorKeyword)).Bold(true),
		SQLString:  r.NewStyle().Foreground(lipgloss.Color(colorString)),

		StatusSuccess: r.NewStyle().Foreground(lipgloss.Color(colorSuccess)).SetString("✓"),
		StatusFailed:  r.NewStyle().Foreground(lipgloss.Color(colorError)).SetString("✗"),
		StatusWarning: r.NewStyle().Foreground(lipgloss.Color(colorWarning)).SetString("!"),
	}
}
