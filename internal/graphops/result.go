// Package graphops implements component I: Join, Deduplicate, Normalize,
// Prune, Append, and Split over a graphdb.DB, plus the typed Result every
// operation reports back.
package graphops

import (
	"fmt"
	"time"

	"github.com/kgxflow/kgxflow/internal/graphdb"
)

// Result is the typed outcome every operation in this package returns:
// per-step statistics, timing, and accumulated warnings (non-fatal,
// recoverable conditions the operation proceeded past).
type Result struct {
	Stats    map[string]int64
	Duration time.Duration
	Warnings []string
	Errors   []string

	// SchemaReport holds each loaded file's column schema, captured before
	// UNION ALL BY NAME unification collapses per-file detail into the
	// shared nodes/edges tables. Populated only by Join, keyed by temp
	// table name.
	SchemaReport map[string][]graphdb.ColumnSchema
}

func newResult() *Result {
	return &Result{Stats: make(map[string]int64)}
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
