package main

import (
	"github.com/spf13/cobra"

	"github.com/rohankatakam/digger/internal/config"
	"github.com/rohankatakam/digger/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show repository and release status",
	Long: `Show HEAD, its tag, the branch and upstream state, the number of tags and
the size of the trunk cache.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, config.SectionCache, config.SectionOutput)
		if err != nil {
			return err
		}
		defer a.Close()

		printer, err := newPrinter()
		if err != nil {
			return err
		}

		head, err := a.src.HeadCommitID(ctx)
		if err != nil {
			return err
		}
		status, err := a.src.Status(ctx)
		if err != nil {
			return err
		}
		tags, err := a.src.ListTags(ctx)
		if err != nil {
			return err
		}

		report := output.StatusReport{
			RepoID:        a.repoID,
			Head:          head,
			Status:        *status,
			ReleaseBranch: cfg.Tagger.ReleaseBranch,
			TagCount:      len(tags),
		}
		if tag, err := a.src.TagAt(ctx, head); err != nil {
			return err
		} else if tag != nil {
			report.HeadTag = tag.Name
		}

		if a.cache != nil {
			stats, err := a.cache.Stats()
			if err != nil {
				logger.WithError(err).Warn("failed to read trunk cache stats")
			} else {
				report.CachedTrunks = &stats.Entries
			}
		}

		return printer.Status(report)
	},
}
