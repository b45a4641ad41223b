package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/mapping"
	"github.com/kgxflow/kgxflow/internal/source"
	"github.com/kgxflow/kgxflow/internal/transform"
	"github.com/kgxflow/kgxflow/internal/writer"
)

var (
	transformInputFiles   []string
	transformInputFormat  string
	transformOutputDir    string
	transformOutputFormat string
	transformLimit        int
	transformProgress     bool
	transformQuiet        bool
)

var transformCmd = &cobra.Command{
	Use:   "transform <config.yaml>",
	Short: "Run a declarative transform over one or more source files",
	Long: `transform loads a source config (reader + transform + writer), runs
the registered transform module over every matching input row, and writes
KGX node/edge output.

A transform module itself is a Go value registered in-process before this
command runs (transform.Register); kgxflow does not execute user scripts
at runtime.`,
	Args: cobra.ExactArgs(1),
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().StringSliceVarP(&transformInputFiles, "input-file", "i", nil, "override reader.files (repeatable)")
	transformCmd.Flags().StringVar(&transformInputFormat, "input-format", "", "override reader.format (csv|tsv|jsonl|json|yaml)")
	transformCmd.Flags().StringVar(&transformOutputDir, "output-dir", "", "override writer output directory")
	transformCmd.Flags().StringVar(&transformOutputFormat, "output-format", "", "override writer.format (tsv|jsonl|passthrough)")
	transformCmd.Flags().IntVar(&transformLimit, "limit", 0, "override reader.row_limit")
	transformCmd.Flags().BoolVar(&transformProgress, "progress", false, "log row-count progress")
	transformCmd.Flags().BoolVar(&transformQuiet, "quiet", false, "suppress per-row logging")
}

func runTransform(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	raw, err := readFile(configPath)
	if err != nil {
		return err
	}

	cfg, err := config.LoadSourceConfig(configPath)
	if err != nil {
		return err
	}
	applyTransformOverrides(cfg)

	baseDir := filepath.Dir(configPath)
	outputDir := transformOutputDir
	if outputDir == "" {
		outputDir = filepath.Join(baseDir, settings.OutputDir)
	}

	mappings, err := mapping.LoadAll(cfg.Transform.Mappings, baseDir)
	if err != nil {
		return err
	}

	onFailure := transform.OnMapFailureWarning
	if cfg.Transform.OnMapFailure == "error" {
		onFailure = transform.OnMapFailureError
	}

	factory, ok := transform.Lookup(configPath, transform.HashConfig(raw))
	if !ok {
		return errors.ContractErrorf(
			"no transform module registered for %s; register one with transform.Register before invoking this command", configPath)
	}
	xf := factory()

	src, err := source.New(cfg.Reader, baseDir)
	if err != nil {
		return err
	}
	defer src.Close()

	if transformProgress {
		src.SetProgress(func(rows int64) {
			if !transformQuiet {
				fmt.Fprintf(cmd.OutOrStdout(), "\r%d rows processed", rows)
			}
		})
	}

	w, err := writer.New(cfg.Writer, outputDir, cfg.Name)
	if err != nil {
		return err
	}

	ctx := transform.NewContext(mappings, onFailure)
	if err := transform.Run(ctx, src, xf, w); err != nil {
		return err
	}

	if transformProgress && !transformQuiet {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	if !transformQuiet {
		fmt.Fprintf(cmd.OutOrStdout(), "transform %q complete, wrote output to %s\n", cfg.Name, outputDir)
	}
	return nil
}

// applyTransformOverrides layers CLI flags on top of the loaded config, per
// spec.md §6's CLI surface ("--input-file/-i PATTERN ... --output-format").
func applyTransformOverrides(cfg *config.SourceConfig) {
	if len(transformInputFiles) > 0 {
		cfg.Reader.Files = transformInputFiles
	}
	if transformInputFormat != "" {
		cfg.Reader.Format = config.Format(transformInputFormat)
	}
	if transformOutputFormat != "" {
		cfg.Writer.Format = config.Format(transformOutputFormat)
	}
	if transformLimit > 0 {
		cfg.Reader.RowLimit = transformLimit
	}
	if transformProgress {
		cfg.Reader.Progress = true
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "read config %s", path)
	}
	return data, nil
}
