package main

import (
	stderrors "errors"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/digger/internal/config"
	"github.com/rohankatakam/digger/internal/errors"
	"github.com/rohankatakam/digger/internal/models"
	"github.com/rohankatakam/digger/internal/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List saved runs, or show the contributions of one run",
	Long: `Without arguments, list the runs saved with "digger all --save" for this
repository, newest first. With a run id, or "latest", print that run's
contributions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, config.SectionStorage, config.SectionOutput)
		if err != nil {
			return err
		}
		defer a.Close()

		printer, err := newPrinter()
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 0 {
			runs, err := store.ListRuns(ctx, a.repoID, historyLimit)
			if err != nil {
				return err
			}
			return printer.Runs(runs)
		}

		runID := args[0]
		if runID == "latest" {
			run, err := store.LatestRun(ctx, a.repoID)
			if stderrors.Is(err, storage.ErrNotFound) {
				return errors.PreconditionErrorf("no saved runs for %s", a.repoID)
			}
			if err != nil {
				return err
			}
			runID = run.ID
		}

		stored, err := store.GetContributions(ctx, runID)
		if err != nil {
			return err
		}
		if len(stored) == 0 {
			return errors.PreconditionErrorf("run %s not found", runID)
		}
		contributions := make([]models.Contribution, 0, len(stored))
		for _, sc := range stored {
			c, err := storage.Decode(sc)
			if err != nil {
				return err
			}
			contributions = append(contributions, c)
		}
		return printer.Contributions(contributions)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs to list")
}
