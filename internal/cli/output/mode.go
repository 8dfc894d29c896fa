// Package output renders CLI output for terminals, pipes and machines.
//
// A Renderer picks between styled text, plain markdown and JSON. In auto mode
// it uses text when stdout is a terminal and markdown otherwise.
package output

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Mode selects the output format.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Modes lists the accepted mode names.
func Modes() []string {
	return []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON)}
}

// ParseMode validates a mode name. "" and "md" are accepted as auto and markdown.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeAuto):
		return ModeAuto, nil
	case string(ModeText):
		return ModeText, nil
	case string(ModeMarkdown), "md":
		return ModeMarkdown, nil
	case string(ModeJSON):
		return ModeJSON, nil
	}
	return "", fmt.Errorf("invalid output mode %q (want one of auto, text, markdown, json)", s)
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// StdinIsTerminal reports whether stdin is interactive.
func StdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // file descriptors fit in int
}
