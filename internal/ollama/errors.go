package ollama

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnreachable is returned when the server cannot be reached.
	ErrUnreachable = errors.New("cannot connect to Ollama")
	// ErrTimeout is returned when a request exceeds its deadline.
	ErrTimeout = errors.New("request timed out, the model might be taking too long to respond")
	// ErrNoResponse is returned when a stream finished without any text.
	// Callers should treat it as a notice rather than a failure.
	ErrNoResponse = errors.New("no response received from Ollama, the model might not be available")
	// ErrEmptyPrompt is returned by Generate for a blank prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrNoModel is returned when no model name is configured.
	ErrNoModel = errors.New("no model specified")
)

// HTTPError is returned for non-2xx responses. Message holds the server's
// "error" field when the body carried one.
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error: %d - %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP error: %d - %s", e.StatusCode, e.Status)
}

// StreamError is an error reported by the server in the middle of a stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "ollama: " + e.Message
}

// ModelNotFoundError is returned by CheckModel when the model is not installed.
type ModelNotFoundError struct {
	Model     string
	Available []string
}

func (e *ModelNotFoundError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "model '%s' is not available in Ollama\n\n", e.Model)
	if len(e.Available) > 0 {
		sb.WriteString("Available models:\n")
		for _, m := range e.Available {
			sb.WriteString("  - " + m + "\n")
		}
		sb.WriteString("\nTo pull a model, run in terminal:\n")
	} else {
		sb.WriteString("No models found. To pull a model, run in terminal:\n")
	}
	sb.WriteString("  ollama pull " + e.Model)
	return sb.String()
}
