// Package sqltext works on SQL as plain text: it pulls candidate statements out of
// free-form LLM responses, applies shallow pre-execution checks, and classifies
// statements by their leading keyword.
//
// Nothing here parses SQL. The heuristics guard against obviously truncated or
// mis-extracted output; the database remains the judge of validity.
package sqltext
