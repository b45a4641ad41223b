package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/graphdb"
	"github.com/kgxflow/kgxflow/internal/graphops"
)

// printResult renders a *graphops.Result the way every graph-operation
// subcommand reports back: sorted stats, then warnings, matching the
// summary shape a Report.Stats section also carries.
func printResult(cmd *cobra.Command, label string, result *graphops.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s complete in %s\n", label, result.Duration)

	keys := make([]string, 0, len(result.Stats))
	for k := range result.Stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %d\n", k, result.Stats[k])
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}
}

var joinCmd = &cobra.Command{
	Use:   "join <config.yaml>",
	Short: "Load configured node/edge files into the graph DB and unify them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg config.JoinConfig
		if err := config.LoadYAML(args[0], &cfg); err != nil {
			return err
		}
		db, err := graphdb.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := graphops.Join(context.Background(), db, cfg)
		if err != nil {
			return err
		}
		if !cfg.Quiet {
			printResult(cmd, "join", result)
		}
		return nil
	},
}

var deduplicateCmd = &cobra.Command{
	Use:   "deduplicate <config.yaml>",
	Short: "Deduplicate nodes and/or edges already loaded into the graph DB",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg config.DeduplicateConfig
		if err := config.LoadYAML(args[0], &cfg); err != nil {
			return err
		}
		db, err := graphdb.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := graphops.Deduplicate(context.Background(), db, cfg)
		if err != nil {
			return err
		}
		if !cfg.Quiet {
			printResult(cmd, "deduplicate", result)
		}
		return nil
	},
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <config.yaml>",
	Short: "Rewrite node/edge identifiers through configured SSSOM mappings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg config.NormalizeConfig
		if err := config.LoadYAML(args[0], &cfg); err != nil {
			return err
		}
		db, err := graphdb.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := graphops.Normalize(context.Background(), db, cfg)
		if err != nil {
			return err
		}
		if !cfg.Quiet {
			printResult(cmd, "normalize", result)
		}
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune <config.yaml>",
	Short: "Remove dangling edges and apply the configured singleton-node policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg config.PruneConfig
		if err := config.LoadYAML(args[0], &cfg); err != nil {
			return err
		}
		db, err := graphdb.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := graphops.Prune(context.Background(), db, cfg)
		if err != nil {
			return err
		}
		if !cfg.Quiet {
			printResult(cmd, "prune", result)
		}
		return nil
	},
}

var appendCmd = &cobra.Command{
	Use:   "append <config.yaml>",
	Short: "Append additional node/edge files onto an existing graph DB",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg config.AppendConfig
		if err := config.LoadYAML(args[0], &cfg); err != nil {
			return err
		}
		db, err := graphdb.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := graphops.Append(context.Background(), db, cfg)
		if err != nil {
			return err
		}
		if !cfg.Quiet {
			printResult(cmd, "append", result)
		}
		return nil
	},
}

var splitCmd = &cobra.Command{
	Use:   "split <config.yaml>",
	Short: "Split one KGX file into several by column value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg config.SplitConfig
		if err := config.LoadYAML(args[0], &cfg); err != nil {
			return err
		}

		result, err := graphops.Split(context.Background(), cfg)
		if err != nil {
			return err
		}
		if !cfg.Quiet {
			printResult(cmd, "split", result)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <config.yaml>",
	Short: "Export the graph DB's nodes/edges tables to flat files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg config.ExportConfig
		if err := config.LoadYAML(args[0], &cfg); err != nil {
			return err
		}
		db, err := graphdb.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Export(context.Background(), cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", cfg.OutputDir)
		return nil
	},
}
