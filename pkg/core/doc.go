// Package core defines the shared language of geoprompt.
//
// This package contains:
//   - Data source descriptors and locator parsing (Source, ProviderKind)
//   - Execution results (Result)
//   - Schema descriptors (Table, Column)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
