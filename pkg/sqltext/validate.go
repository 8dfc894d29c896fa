package sqltext

import (
	"fmt"
	"strings"
)

// MinStatementLength is the shortest trimmed statement Validate accepts.
const MinStatementLength = 10

// ValidationError explains why a statement was blocked before execution.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("SQL statement appears to be incomplete: %s", e.Reason)
}

// Validate applies shallow checks for statements cut off mid-stream.
// It returns a *ValidationError when execution should be blocked.
func Validate(sql string) error {
	trimmed := strings.TrimSpace(sql)
	upper := strings.ToUpper(trimmed)

	if strings.Contains(upper, "SELECT * FROM") && lastToken(upper) == "FROM" {
		return &ValidationError{Reason: "missing the table name after 'FROM'"}
	}
	if len(trimmed) < MinStatementLength {
		return &ValidationError{Reason: "too short or incomplete"}
	}
	return nil
}

func lastToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
