package sqltext

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind is the coarse category of a statement, decided by its leading keyword.
type Kind int

const (
	// KindQuery is anything not recognized as DDL or DML; it is expected to return rows.
	KindQuery Kind = iota
	// KindDDL covers CREATE, ALTER and DROP.
	KindDDL
	// KindDML covers INSERT, UPDATE and DELETE.
	KindDML
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindDDL:
		return "DDL"
	case KindDML:
		return "DML"
	default:
		return "unknown"
	}
}

// ReturnsRows reports whether rows should be fetched for this kind.
func (k Kind) ReturnsRows() bool {
	return k == KindQuery
}

var (
	ddlPrefixes = []string{"CREATE", "ALTER", "DROP"}
	dmlPrefixes = []string{"INSERT", "UPDATE", "DELETE"}

	createViewRe  = regexp.MustCompile(`(?i)^CREATE\s+(?:OR\s+REPLACE\s+)?VIEW\b`)
	viewNameRe    = regexp.MustCompile(`(?i)CREATE\s+(?:OR\s+REPLACE\s+)?VIEW\s+(\w+)`)
	createTableRe = regexp.MustCompile(`(?i)^CREATE\s+TABLE\b`)
)

// Classify returns the kind of sql based on its upper-cased trimmed prefix.
func Classify(sql string) Kind {
	upper := strings.ToUpper(strings.TrimSpace(sql))
	for _, p := range ddlPrefixes {
		if strings.HasPrefix(upper, p) {
			return KindDDL
		}
	}
	for _, p := range dmlPrefixes {
		if strings.HasPrefix(upper, p) {
			return KindDML
		}
	}
	return KindQuery
}

// ViewName extracts the view name from a CREATE [OR REPLACE] VIEW statement.
// It returns "view" when the name cannot be found.
func ViewName(sql string) string {
	if m := viewNameRe.FindStringSubmatch(sql); m != nil {
		return m[1]
	}
	return "view"
}

// OutcomeLabel describes what a statement that returns no rows did.
// It returns "" for row-returning statements.
func OutcomeLabel(sql string) string {
	trimmed := strings.TrimSpace(sql)
	upper := strings.ToUpper(trimmed)

	switch Classify(trimmed) {
	case KindDDL:
		switch {
		case createViewRe.MatchString(trimmed):
			return fmt.Sprintf("View '%s' created", ViewName(trimmed))
		case createTableRe.MatchString(trimmed):
			return "Table created"
		case strings.HasPrefix(upper, "ALTER"):
			return "Table altered"
		case strings.HasPrefix(upper, "DROP"):
			return "Object dropped"
		default:
			return "DDL statement executed"
		}
	case KindDML:
		return "SQL executed successfully (no rows returned)"
	default:
		return ""
	}
}
