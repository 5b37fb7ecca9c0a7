package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/digger/internal/cli"
	"github.com/rohankatakam/digger/internal/config"
	"github.com/rohankatakam/digger/internal/errors"
	"github.com/rohankatakam/digger/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile      string
	verbose      bool
	repoDir      string
	outputFormat string
	logger       *logging.Logger
	cfg          *config.Config
)

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		logger.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err, verbose))
		os.Exit(cli.ExitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "digger",
	Short: "Digger - release metadata from commit history",
	Long: `Digger walks the commit graph of a git repository to group commits into
release contributions, decide the next semantic version and guard tag creation.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "failed to load config")
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if outputFormat != "" {
			cfg.Output.Format = outputFormat
		}

		logger, err = logging.New(cfg.Log)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "failed to initialize logging")
		}
		logger.WithField("config", cfgFile).Debug("configuration loaded")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .digger.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&repoDir, "repo", "C", ".", "path inside the git repository")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: json, yaml or text")

	// Set custom version template
	rootCmd.SetVersionTemplate(`Digger {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	// Add subcommands
	rootCmd.AddCommand(currentCmd)
	rootCmd.AddCommand(allCmd)
	rootCmd.AddCommand(trunkCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
}
