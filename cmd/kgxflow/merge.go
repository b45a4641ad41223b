package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/merge"
)

var mergeReportDir string

var mergeCmd = &cobra.Command{
	Use:   "merge <config.yaml>",
	Short: "Sequence join, deduplicate, normalize, prune, validate, and export",
	Long: `merge runs the full graph-operations pipeline over one MergeConfig:
join -> deduplicate -> normalize -> prune -> validate -> export, writing a
report for every step that ran.`,
	Args: cobra.ExactArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeReportDir, "report-dir", "", "directory to write per-step report YAML files into")
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadMergeConfig(args[0])
	if err != nil {
		return err
	}

	outcome, err := merge.Run(context.Background(), *cfg)
	out := cmd.OutOrStdout()
	if outcome != nil {
		fmt.Fprintf(out, "merge finished in %s\n", outcome.Duration)
		if len(outcome.StepErrors) > 0 {
			fmt.Fprintln(out, "step errors (downgraded to warnings):")
			for _, stepErr := range outcome.StepErrors {
				fmt.Fprintf(out, "  %s\n", stepErr)
			}
		}
		if outcome.ValidationReport != nil {
			fmt.Fprintf(out, "validation: %d error(s), %d warning(s), %.1f%% compliant\n",
				outcome.ValidationReport.ErrorCount, outcome.ValidationReport.WarningCount, outcome.ValidationReport.CompliancePercent)
		}

		reportDir := mergeReportDir
		if reportDir == "" && cfg.ExportDir != "" {
			reportDir = cfg.ExportDir
		}
		if reportDir != "" {
			if writeErr := outcome.WriteReports(reportDir, cfg.GraphName); writeErr != nil {
				return writeErr
			}
		}
	}
	if err != nil {
		return err
	}
	return nil
}
