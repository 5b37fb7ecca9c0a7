package main

import (
	"github.com/spf13/cobra"

	"github.com/rohankatakam/digger/internal/config"
	"github.com/rohankatakam/digger/internal/errors"
	"github.com/rohankatakam/digger/internal/models"
	"github.com/rohankatakam/digger/internal/tagger"
)

var (
	releaseBranch    string
	forceSnapshot    bool
	implicitPatch    bool
	warningsAsErrors bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Decide the next version",
	Long: `Compute the next semantic version from the newest reachable tag and the
commit messages since it. The version is a SNAPSHOT when the working tree is
dirty, out of sync with its upstream, off the release branch, unchanged since
the last tag, or when a snapshot is forced.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyTaggerFlags(cmd)

		ctx := cmd.Context()
		a, cfgErr, err := openApp(ctx, config.SectionDigger, config.SectionOutput)
		if err != nil {
			return err
		}
		defer a.Close()

		decision, err := a.calculator(cfgErr).Calculate(ctx)
		if err != nil {
			return err
		}

		printer, err := newPrinter()
		if err != nil {
			return err
		}
		return printer.Decision(*decision)
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag [version]",
	Short: "Create and push an annotated tag for HEAD",
	Long: `Tag HEAD with the given version, or with the computed next version when
none is given, then push tags to the remote.

No tag is created for a SNAPSHOT version, when HEAD is already tagged, or
off the release branch. These are warnings unless warnings_as_errors is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyTaggerFlags(cmd)

		sections := []config.Section{config.SectionIdentity, config.SectionOutput}
		if len(args) == 0 {
			sections = append(sections, config.SectionDigger)
		}

		ctx := cmd.Context()
		a, cfgErr, err := openApp(ctx, sections...)
		if err != nil {
			return err
		}
		defer a.Close()

		var ver string
		if len(args) == 1 {
			problems := &errors.MultiError{}
			problems.Add(cfgErr)
			if cfg.Tagger.ReleaseBranch == "" {
				problems.Add(errors.ConfigError("no release branch configured"))
			}
			if err := problems.ErrorOrNil(); err != nil {
				return err
			}
			ver = args[0]
		} else {
			decision, err := a.calculator(cfgErr).Calculate(ctx)
			if err != nil {
				return err
			}
			ver = decision.Version
		}

		printer, err := newPrinter()
		if err != nil {
			return err
		}

		guard := tagger.NewGuard(a.src, cfg.Tagger.WarningsAsErrors, logger)
		result, err := guard.Attempt(ctx, ver, cfg.Tagger.ReleaseBranch, tagIdentity())
		if err != nil {
			return err
		}
		return printer.TagResult(result)
	},
}

// tagIdentity is the configured tagger, or nil to use git's own identity
func tagIdentity() *models.Identity {
	if cfg.Tagger.UserName == "" && cfg.Tagger.UserEmail == "" {
		return nil
	}
	return &models.Identity{Name: cfg.Tagger.UserName, Email: cfg.Tagger.UserEmail}
}

// applyTaggerFlags overrides configuration with flags given on the command line
func applyTaggerFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("release-branch") {
		cfg.Tagger.ReleaseBranch = releaseBranch
	}
	if flags.Changed("force-snapshot") {
		cfg.Tagger.ForceSnapshot = forceSnapshot
	}
	if flags.Changed("implicit-patch") {
		cfg.Tagger.ImplicitPatch = implicitPatch
	}
	if flags.Changed("warnings-as-errors") {
		cfg.Tagger.WarningsAsErrors = warningsAsErrors
	}
}

func init() {
	for _, cmd := range []*cobra.Command{versionCmd, tagCmd} {
		cmd.Flags().StringVar(&releaseBranch, "release-branch", "", "branch releases are cut from (overrides config)")
		cmd.Flags().BoolVar(&forceSnapshot, "force-snapshot", false, "always produce a SNAPSHOT version")
		cmd.Flags().BoolVar(&implicitPatch, "implicit-patch", true, "treat unmarked commits as a patch change")
	}
	tagCmd.Flags().BoolVar(&warningsAsErrors, "warnings-as-errors", false, "fail instead of skipping when the tag cannot be created")
}
