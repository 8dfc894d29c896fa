package core

// Result is the normalized outcome of executing one SQL statement.
//
// A row-returning statement fills Columns and Rows. A statement that returns no
// rows (DDL or DML) leaves Rows nil and sets Label to a human-readable description
// of what happened.
type Result struct {
	Columns      []string
	Rows         [][]any
	Label        string
	RowsAffected int64
}

// HasRows reports whether the result carries a row set.
func (r *Result) HasRows() bool {
	return r != nil && r.Label == ""
}
