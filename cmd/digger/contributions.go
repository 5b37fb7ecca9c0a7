package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/digger/internal/config"
	"github.com/rohankatakam/digger/internal/storage"
)

var saveRun bool

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the contribution not yet covered by a tag",
	Long: `Aggregate the commits between HEAD and the most recent tag on the trunk.
When HEAD itself is tagged, show the release it was tagged with instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, repoSections...)
		if err != nil {
			return err
		}
		defer a.Close()

		printer, err := newPrinter()
		if err != nil {
			return err
		}

		c, err := a.service().CurrentContribution(ctx)
		if err != nil {
			return err
		}
		return printer.Contribution(*c)
	},
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Show every contribution along the trunk, newest first",
	Long: `Split the trunk at each tagged commit and aggregate every window.

With --save the contributions are also stored as one history run in the
configured sqlite or postgres store.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, allSections()...)
		if err != nil {
			return err
		}
		defer a.Close()

		printer, err := newPrinter()
		if err != nil {
			return err
		}

		contributions, err := a.service().AllContributions(ctx)
		if err != nil {
			return err
		}

		if saveRun {
			head, err := a.src.HeadCommitID(ctx)
			if err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.SaveRun(ctx, a.repoID, head, contributions)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "saved run %s (%d contributions)\n", run.ID, len(contributions))
		}

		return printer.Contributions(contributions)
	},
}

var trunkCmd = &cobra.Command{
	Use:   "trunk",
	Short: "Show the selected trunk and the tags on it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, repoSections...)
		if err != nil {
			return err
		}
		defer a.Close()

		printer, err := newPrinter()
		if err != nil {
			return err
		}

		result, err := a.service().Trunk(ctx)
		if err != nil {
			return err
		}
		return printer.Trunk(result)
	},
}

func allSections() []config.Section {
	if saveRun {
		return append(append([]config.Section{}, repoSections...), config.SectionStorage)
	}
	return repoSections
}

func openStore() (storage.Store, error) {
	return storage.Open(cfg.Storage.Type, cfg.Storage.LocalPath, cfg.Storage.PostgresDSN, logger)
}

func init() {
	allCmd.Flags().BoolVar(&saveRun, "save", false, "store the contributions as a history run")
}
