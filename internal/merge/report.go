// Package merge sequences the graph-operations pipeline (join ->
// deduplicate -> normalize -> prune -> validate -> export) per a single
// MergeConfig (§4.K).
package merge

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/graphdb"
	"github.com/kgxflow/kgxflow/internal/validation"
)

// Report is the YAML document a merge run (or, independently, a single
// graph operation) writes out: metadata, a summary, and exactly one of
// schema_analysis, violations, or stats, matching spec.md §6 "Report
// files."
type Report struct {
	Metadata ReportMetadata `yaml:"metadata"`
	Summary  ReportSummary  `yaml:"summary"`

	SchemaAnalysis map[string]any         `yaml:"schema_analysis,omitempty"`
	Violations     []validation.Violation `yaml:"violations,omitempty"`
	Stats          map[string]int64       `yaml:"stats,omitempty"`
}

// ReportMetadata identifies when and against what a report was produced.
type ReportMetadata struct {
	GeneratedAt time.Time `yaml:"generated_at"`
	GraphName   string    `yaml:"graph_name"`
	ReportType  string    `yaml:"report_type"` // "merge", "join", "validation", ...
}

// ReportSummary holds the aggregate counts and table list every report
// carries regardless of its detail section.
type ReportSummary struct {
	TablesValidated   []string `yaml:"tables_validated,omitempty"`
	ErrorCount        int64    `yaml:"error_count"`
	WarningCount      int64    `yaml:"warning_count"`
	InfoCount         int64    `yaml:"info_count"`
	CompliancePercent float64  `yaml:"compliance_percent,omitempty"`
}

// WriteReport marshals report to path as YAML, creating parent
// directories as needed.
func WriteReport(path string, report *Report) error {
	if report.Metadata.GeneratedAt.IsZero() {
		report.Metadata.GeneratedAt = time.Now().UTC()
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return errors.Wrapf(err, errors.KindConfig, "marshal report")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, errors.KindIO, "create report dir %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.KindIO, "write report %s", path)
	}
	return nil
}

// ReportFromValidation builds a violations-section report from a
// validation run.
func ReportFromValidation(graphName string, report *validation.Report) *Report {
	return &Report{
		Metadata: ReportMetadata{GraphName: graphName, ReportType: "validation"},
		Summary: ReportSummary{
			TablesValidated:   report.TablesValidated,
			ErrorCount:        report.ErrorCount,
			WarningCount:      report.WarningCount,
			InfoCount:         report.InfoCount,
			CompliancePercent: report.CompliancePercent,
		},
		Violations: report.Violations,
	}
}

// ReportFromSchema builds a schema_analysis-section report from Join's
// per-file schema detail, captured before unification collapses it.
func ReportFromSchema(graphName string, schemaReport map[string][]graphdb.ColumnSchema) *Report {
	analysis := make(map[string]any, len(schemaReport))
	for table, cols := range schemaReport {
		analysis[table] = cols
	}
	return &Report{
		Metadata:       ReportMetadata{GraphName: graphName, ReportType: "join"},
		SchemaAnalysis: analysis,
	}
}

// ReportFromStats builds a stats-section report from any graph
// operation's cumulative counters (join, deduplicate, normalize, prune,
// append all report through this shape).
func ReportFromStats(graphName, reportType string, stats map[string]int64) *Report {
	return &Report{
		Metadata: ReportMetadata{GraphName: graphName, ReportType: reportType},
		Stats:    stats,
	}
}
