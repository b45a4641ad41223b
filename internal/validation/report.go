package validation

import "github.com/kgxflow/kgxflow/internal/config"

// Severity classifies how serious a violation is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Violation is one failed constraint check, per §4.J.
type Violation struct {
	ConstraintKind ConstraintKind
	Slot           string
	Table          string
	Severity       Severity
	Description    string
	Count          int64
	TotalRecords   int64
	Percent        float64
	Samples        []map[string]any
}

// Report aggregates every violation from one validation run plus the
// per-severity counts and overall compliance percentage.
type Report struct {
	Profile config.ValidationProfile

	Violations []Violation

	ErrorCount   int64
	WarningCount int64
	InfoCount    int64

	TablesValidated []string

	// CompliancePercent = (total_records - error_count) / total_records * 100,
	// computed over the validated tables' combined record count.
	CompliancePercent float64
}

// HasErrors reports whether any violation carries error severity.
func (r *Report) HasErrors() bool {
	return r.ErrorCount > 0
}

func (r *Report) add(v Violation) {
	r.Violations = append(r.Violations, v)
	switch v.Severity {
	case SeverityError:
		r.ErrorCount++
	case SeverityWarning:
		r.WarningCount++
	case SeverityInfo:
		r.InfoCount++
	}
}
