package core

import (
	"strings"
	"unicode"
)

// Column describes one column of a table as reported by the database.
type Column struct {
	Name      string
	Type      string
	Length    *int
	Precision *int
}

// Table is a named, ordered list of columns.
type Table struct {
	Name    string
	Columns []Column
}

// NeedsQuoting reports whether an identifier contains an uppercase letter.
// PostgreSQL folds unquoted identifiers to lower case, so such names only
// resolve when double-quoted.
func NeedsQuoting(ident string) bool {
	for _, r := range ident {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// QuoteIdent wraps ident in double quotes when NeedsQuoting is true.
func QuoteIdent(ident string) string {
	if !NeedsQuoting(ident) {
		return ident
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// NeedsQuoting reports whether the column name needs quoting.
func (c Column) NeedsQuoting() bool { return NeedsQuoting(c.Name) }

// NeedsQuoting reports whether the table name or any of its columns needs quoting.
func (t Table) NeedsQuoting() bool {
	if NeedsQuoting(t.Name) {
		return true
	}
	for _, c := range t.Columns {
		if c.NeedsQuoting() {
			return true
		}
	}
	return false
}
