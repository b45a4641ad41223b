package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	quiet   bool
	settings *config.Settings
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kgxflow",
	Short: "kgxflow - transform, join, and validate KGX knowledge graphs",
	Long: `kgxflow runs declarative transforms over flat biomedical source
files into KGX node/edge streams, and joins, normalizes, validates, and
exports the result into a merged knowledge graph.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		settings, err = config.LoadSettings(cfgFile)
		if err != nil {
			settings = config.DefaultSettings()
		}

		level := logging.INFO
		switch {
		case verbose:
			level = logging.DEBUG
		case quiet:
			level = logging.ERROR
		}
		return logging.Initialize(logging.Config{Level: level})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default: ./kgxflow.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose (debug) logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress info logging")

	rootCmd.SetVersionTemplate(`kgxflow {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(deduplicateCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(appendCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(mergeCmd)
}
