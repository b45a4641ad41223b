package merge

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/graphdb"
	"github.com/kgxflow/kgxflow/internal/graphops"
	"github.com/kgxflow/kgxflow/internal/validation"
)

// Outcome is everything a merge run produces: the per-step results (for
// whichever steps actually ran), the final validation report (if
// validation ran), the step errors downgraded under
// continue_on_pipeline_step_error, and the run's duration.
type Outcome struct {
	JoinResult        *graphops.Result
	DeduplicateResult *graphops.Result
	NormalizeResult   *graphops.Result
	PruneResult       *graphops.Result
	ValidationReport  *validation.Report

	// StepErrors collects steps downgraded to a warning under
	// continue_on_pipeline_step_error, in step order.
	StepErrors []string

	Duration time.Duration
}

// Run sequences join -> deduplicate -> normalize -> prune -> validate ->
// export per cfg (§4.K). A step's failure aborts the pipeline and returns
// the error unless cfg.ContinueOnPipelineStepError, in which case the
// failure is recorded in Outcome.StepErrors and the pipeline proceeds to
// the next step.
func Run(ctx context.Context, cfg config.MergeConfig) (*Outcome, error) {
	start := time.Now()
	out := &Outcome{}

	dbPath := cfg.DatabasePath
	ownsTempFile := false
	if dbPath == "" {
		f, err := os.CreateTemp("", "kgxflow-merge-*.db")
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindIO, "create temp database")
		}
		dbPath = f.Name()
		f.Close()
		ownsTempFile = true
	}

	db, err := graphdb.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		db.Close()
		if ownsTempFile {
			os.Remove(dbPath)
		}
	}()

	// Step 2: join is mandatory and never downgraded, since every later
	// step depends on nodes/edges existing.
	joinResult, err := graphops.Join(ctx, db, config.JoinConfig{
		NodeFiles: cfg.NodeFiles,
		EdgeFiles: cfg.EdgeFiles,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.KindSchema, "merge: join")
	}
	out.JoinResult = joinResult

	if !cfg.SkipDeduplicate {
		result, stepErr := graphops.Deduplicate(ctx, db, config.DeduplicateConfig{
			DeduplicateNodes: true,
			DeduplicateEdges: true,
		})
		if stepErr != nil {
			if !cfg.ContinueOnPipelineStepError {
				return nil, errors.Wrap(stepErr, errors.KindSchema, "merge: deduplicate")
			}
			out.StepErrors = append(out.StepErrors, "deduplicate: "+stepErr.Error())
		} else {
			out.DeduplicateResult = result
		}
	}

	skipNormalize := cfg.SkipNormalize || len(cfg.MappingFiles) == 0
	if !skipNormalize {
		result, stepErr := graphops.Normalize(ctx, db, config.NormalizeConfig{
			MappingFiles: cfg.MappingFiles,
		})
		if stepErr != nil {
			if !cfg.ContinueOnPipelineStepError {
				return nil, errors.Wrap(stepErr, errors.KindSchema, "merge: normalize")
			}
			out.StepErrors = append(out.StepErrors, "normalize: "+stepErr.Error())
		} else {
			out.NormalizeResult = result
		}
	}

	if !cfg.SkipPrune {
		result, stepErr := graphops.Prune(ctx, db, config.PruneConfig{
			SingletonPolicy: cfg.SingletonPolicy,
		})
		if stepErr != nil {
			if !cfg.ContinueOnPipelineStepError {
				return nil, errors.Wrap(stepErr, errors.KindSchema, "merge: prune")
			}
			out.StepErrors = append(out.StepErrors, "prune: "+stepErr.Error())
		} else {
			out.PruneResult = result
		}
	}

	if !cfg.SkipValidation {
		schema, schemaErr := validation.LoadSchema(cfg.Validation.SchemaPath)
		if schemaErr != nil {
			if !cfg.ContinueOnPipelineStepError {
				return nil, errors.Wrap(schemaErr, errors.KindValidation, "merge: load schema")
			}
			out.StepErrors = append(out.StepErrors, "validate: "+schemaErr.Error())
		} else {
			v := validation.NewValidator(db, schema)
			report, valErr := v.Validate(ctx, cfg.Validation)
			if valErr != nil {
				if !cfg.ContinueOnPipelineStepError {
					return nil, errors.Wrap(valErr, errors.KindValidation, "merge: validate")
				}
				out.StepErrors = append(out.StepErrors, "validate: "+valErr.Error())
			} else {
				out.ValidationReport = report
				if cfg.ValidationErrorsHalt && report.HasErrors() {
					return out, errors.ValidationError("merge: validation report has errors and validation_errors_halt is set")
				}
			}
		}
	}

	if cfg.ExportFinal {
		exportErr := db.Export(ctx, config.ExportConfig{
			OutputDir:   cfg.ExportDir,
			Format:      cfg.ExportFormat,
			Target:      cfg.ExportTarget,
			ArchiveGzip: cfg.ExportGzip,
			GraphName:   cfg.GraphName,
		})
		if exportErr != nil {
			if !cfg.ContinueOnPipelineStepError {
				return nil, errors.Wrap(exportErr, errors.KindIO, "merge: export")
			}
			out.StepErrors = append(out.StepErrors, "export: "+exportErr.Error())
		}
	}

	out.Duration = time.Since(start)
	return out, nil
}

// WriteReports emits one YAML report per step that ran, into dir, matching
// report.py's reuse of the same report shape across operations (§10 item 1).
func (o *Outcome) WriteReports(dir, graphName string) error {
	if o.JoinResult != nil && len(o.JoinResult.SchemaReport) > 0 {
		if err := WriteReport(filepath.Join(dir, "join_report.yaml"), ReportFromSchema(graphName, o.JoinResult.SchemaReport)); err != nil {
			return err
		}
	}
	if o.DeduplicateResult != nil {
		if err := WriteReport(filepath.Join(dir, "deduplicate_report.yaml"), ReportFromStats(graphName, "deduplicate", o.DeduplicateResult.Stats)); err != nil {
			return err
		}
	}
	if o.NormalizeResult != nil {
		if err := WriteReport(filepath.Join(dir, "normalize_report.yaml"), ReportFromStats(graphName, "normalize", o.NormalizeResult.Stats)); err != nil {
			return err
		}
	}
	if o.PruneResult != nil {
		if err := WriteReport(filepath.Join(dir, "prune_report.yaml"), ReportFromStats(graphName, "prune", o.PruneResult.Stats)); err != nil {
			return err
		}
	}
	if o.ValidationReport != nil {
		if err := WriteReport(filepath.Join(dir, "validation_report.yaml"), ReportFromValidation(graphName, o.ValidationReport)); err != nil {
			return err
		}
	}
	return WriteReport(filepath.Join(dir, "merge_report.yaml"), o.mergeSummary(graphName))
}

// mergeSummary builds the top-level merge_report.yaml stats section: one
// flattened map across every step that ran, plus the step-error list.
func (o *Outcome) mergeSummary(graphName string) *Report {
	stats := make(map[string]int64)
	for _, r := range []*graphops.Result{o.JoinResult, o.DeduplicateResult, o.NormalizeResult, o.PruneResult} {
		if r == nil {
			continue
		}
		for k, v := range r.Stats {
			stats[k] = v
		}
	}
	report := ReportFromStats(graphName, "merge", stats)
	if o.ValidationReport != nil {
		report.Summary.TablesValidated = o.ValidationReport.TablesValidated
		report.Summary.ErrorCount = o.ValidationReport.ErrorCount
		report.Summary.WarningCount = o.ValidationReport.WarningCount
		report.Summary.InfoCount = o.ValidationReport.InfoCount
		report.Summary.CompliancePercent = o.ValidationReport.CompliancePercent
	}
	return report
}
