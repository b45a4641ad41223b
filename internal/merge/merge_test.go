package merge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kgxflow/kgxflow/internal/config"
)

func writeMergeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeMergeSchema(t *testing.T, dir string) string {
	t.Helper()
	return writeMergeFixture(t, dir, "schema.yaml", `
name: test-schema
categories: ["biolink:Gene", "biolink:Disease"]
predicates: ["biolink:related_to"]
classes:
  - name: "named thing"
    slots:
      - name: id
        required: true
      - name: category
        required: true
  - name: association
    slots:
      - name: subject
        required: true
      - name: predicate
        required: true
      - name: object
        required: true
`)
}

func TestRun_FullPipelineProducesCompliantReport(t *testing.T) {
	dir := t.TempDir()
	nodesPath := writeMergeFixture(t, dir, "a_nodes.tsv",
		"id\tcategory\nNCBIGene:1\tbiolink:Gene\nMONDO:1\tbiolink:Disease\n")
	edgesPath := writeMergeFixture(t, dir, "a_edges.tsv",
		"subject\tpredicate\tobject\nNCBIGene:1\tbiolink:related_to\tMONDO:1\n")
	schemaPath := writeMergeSchema(t, dir)
	exportDir := filepath.Join(dir, "export")

	cfg := config.MergeConfig{
		NodeFiles: []config.FileSpec{{Path: nodesPath, Format: config.FormatTSV}},
		EdgeFiles: []config.FileSpec{{Path: edgesPath, Format: config.FormatTSV}},
		Validation: config.ValidationContext{
			Profile:    config.ProfileFull,
			SchemaPath: schemaPath,
		},
		ExportFinal:  true,
		ExportDir:    exportDir,
		ExportFormat: config.FormatTSV,
		ExportTarget: config.ExportLoose,
		GraphName:    "merged",
	}

	out, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.JoinResult == nil {
		t.Fatal("JoinResult is nil")
	}
	if out.ValidationReport == nil {
		t.Fatal("ValidationReport is nil")
	}
	if out.ValidationReport.HasErrors() {
		t.Errorf("ValidationReport has errors: %+v", out.ValidationReport.Violations)
	}

	if _, err := os.Stat(filepath.Join(exportDir, "merged_nodes.tsv")); err != nil {
		t.Errorf("expected exported nodes file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(exportDir, "merged_edges.tsv")); err != nil {
		t.Errorf("expected exported edges file: %v", err)
	}

	reportDir := filepath.Join(dir, "reports")
	if err := out.WriteReports(reportDir, "merged"); err != nil {
		t.Fatalf("WriteReports() error = %v", err)
	}
	for _, name := range []string{"join_report.yaml", "validation_report.yaml", "merge_report.yaml"} {
		if _, err := os.Stat(filepath.Join(reportDir, name)); err != nil {
			t.Errorf("expected report %s: %v", name, err)
		}
	}
}

func TestRun_ValidationErrorsHaltStopsPipeline(t *testing.T) {
	dir := t.TempDir()
	nodesPath := writeMergeFixture(t, dir, "a_nodes.tsv", "id\nNCBIGene:1\n") // missing required category
	schemaPath := writeMergeSchema(t, dir)

	cfg := config.MergeConfig{
		NodeFiles: []config.FileSpec{{Path: nodesPath, Format: config.FormatTSV}},
		Validation: config.ValidationContext{
			Profile:    config.ProfileMinimal,
			SchemaPath: schemaPath,
		},
		ValidationErrorsHalt: true,
	}

	out, err := Run(context.Background(), cfg)
	if err == nil {
		t.Fatal("Run() error = nil, want a validation-halt error")
	}
	if out == nil || out.ValidationReport == nil {
		t.Fatal("expected a partial Outcome with the validation report attached")
	}
	if !out.ValidationReport.HasErrors() {
		t.Error("expected the validation report to carry errors")
	}
}

func TestRun_ContinueOnPipelineStepErrorDowngradesFailure(t *testing.T) {
	dir := t.TempDir()
	nodesPath := writeMergeFixture(t, dir, "a_nodes.tsv", "id\tcategory\nNCBIGene:1\tbiolink:Gene\n")

	cfg := config.MergeConfig{
		NodeFiles: []config.FileSpec{{Path: nodesPath, Format: config.FormatTSV}},
		Validation: config.ValidationContext{
			Profile:    config.ProfileMinimal,
			SchemaPath: filepath.Join(dir, "does-not-exist.yaml"),
		},
		ContinueOnPipelineStepError: true,
	}

	out, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil (step error downgraded)", err)
	}
	if len(out.StepErrors) == 0 {
		t.Error("expected a recorded step error for the missing schema file")
	}
	if out.ValidationReport != nil {
		t.Error("ValidationReport should be nil when schema loading failed")
	}
}
