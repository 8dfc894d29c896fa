package adapter

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/geoprompt/pkg/core"
)

// UnknownAdapterError is returned when a routed strategy has no registered implementation.
// It usually means the adapter package was not imported.
type UnknownAdapterError struct {
	Name      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("no adapter registered for strategy %q\nAvailable adapters: %v", e.Name, e.Available)
}

// UnsupportedProviderError is returned when a source's provider kind has no route.
type UnsupportedProviderError struct {
	Provider core.ProviderKind
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("provider type %q not yet supported for SQL execution\nHint: use one of %s in the sources section of geoprompt.yaml",
		string(e.Provider), strings.Join(SupportedProviders(), ", "))
}

// ExecError wraps a failure raised while executing SQL on a backend.
type ExecError struct {
	// Backend is a display name such as "PostgreSQL" or "OGR".
	Backend string
	Err     error
	// Hint carries optional diagnostics appended to the message.
	Hint string
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s error: %v", e.Backend, e.Err)
	if e.Hint != "" {
		msg += "\n\n" + e.Hint
	}
	return msg
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
