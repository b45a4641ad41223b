package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/graphdb"
	"github.com/kgxflow/kgxflow/internal/merge"
	"github.com/kgxflow/kgxflow/internal/validation"
)

var (
	validateDatabasePath string
	validateSchemaPath   string
	validateProfile      string
	validateReportPath   string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a graph DB's nodes/edges against a Biolink-like schema",
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateDatabasePath, "database", "", "graph DB path")
	validateCmd.Flags().StringVar(&validateSchemaPath, "schema", "", "schema YAML path")
	validateCmd.Flags().StringVar(&validateProfile, "profile", "standard", "minimal|standard|full")
	validateCmd.Flags().StringVar(&validateReportPath, "report", "", "write a validation_report.yaml to this path")
	validateCmd.MarkFlagRequired("database")
	validateCmd.MarkFlagRequired("schema")
}

func runValidate(cmd *cobra.Command, args []string) error {
	schema, err := validation.LoadSchema(validateSchemaPath)
	if err != nil {
		return err
	}

	db, err := graphdb.Open(validateDatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	v := validation.NewValidator(db, schema)
	report, err := v.Validate(context.Background(), config.ValidationContext{
		Profile:    config.ValidationProfile(validateProfile),
		SchemaPath: validateSchemaPath,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "validated %d table(s), %.1f%% compliant\n", len(report.TablesValidated), report.CompliancePercent)
	fmt.Fprintf(out, "  errors: %d, warnings: %d, info: %d\n", report.ErrorCount, report.WarningCount, report.InfoCount)
	for _, v := range report.Violations {
		fmt.Fprintf(out, "  [%s] %s.%s: %s\n", v.Severity, v.Table, v.Slot, v.Description)
	}

	if validateReportPath != "" {
		if err := merge.WriteReport(validateReportPath, merge.ReportFromValidation("validate", report)); err != nil {
			return err
		}
	}

	if report.HasErrors() {
		return fmt.Errorf("validation found %d error(s)", report.ErrorCount)
	}
	return nil
}
