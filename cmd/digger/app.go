package main

import (
	"context"
	"os"

	"github.com/rohankatakam/digger/internal/cache"
	"github.com/rohankatakam/digger/internal/cli"
	"github.com/rohankatakam/digger/internal/config"
	"github.com/rohankatakam/digger/internal/contribution"
	"github.com/rohankatakam/digger/internal/digger"
	"github.com/rohankatakam/digger/internal/errors"
	"github.com/rohankatakam/digger/internal/git"
	"github.com/rohankatakam/digger/internal/output"
	"github.com/rohankatakam/digger/internal/version"
)

// repoSections are the configuration sections read by the contribution commands
var repoSections = []config.Section{config.SectionDigger, config.SectionCache, config.SectionOutput}

// app holds the components shared by repository commands
type app struct {
	root   string
	repoID string
	src    *git.CLISource
	digger *digger.Digger
	cache  *cache.Manager
}

// newApp validates the configuration sections a command uses and opens the
// repository at repoDir. The trunk cache is optional: failing to open it
// only logs a warning.
func newApp(ctx context.Context, sections ...config.Section) (*app, error) {
	a, cfgErr, err := openApp(ctx, sections...)
	if err != nil {
		return nil, err
	}
	if cfgErr != nil {
		a.Close()
		return nil, cfgErr
	}
	return a, nil
}

// openApp is newApp for commands that report configuration problems along
// with their own: those problems come back as cfgErr while the repository
// is still opened. The digger is only built when SectionDigger is requested
// and valid.
func openApp(ctx context.Context, sections ...config.Section) (a *app, cfgErr error, err error) {
	result := cfg.ValidateSections(sections...)
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	cfgErr = result.Errs()

	root, err := cli.GetRepoRoot(ctx, repoDir)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypePrecondition, errors.SeverityCritical, "not a git repository")
	}

	a = &app{
		root:   root,
		repoID: cli.DetectRepoID(ctx, root),
		src:    git.NewCLISource(root, logger),
	}

	if wants(sections, config.SectionDigger) {
		if d, err := digger.New(cfg.Digger); err == nil {
			a.digger = d
		}
	}

	if cfg.Cache.Enabled && wants(sections, config.SectionCache) {
		m, err := cache.Open(cfg.Cache.Path, cfg.Cache.TTL, logger)
		if err != nil {
			logger.WithError(err).Warn("trunk cache unavailable, continuing without it")
		} else {
			a.cache = m
		}
	}

	logger.WithField("root", root).WithField("repo_id", a.repoID).Debug("repository opened")
	return a, cfgErr, nil
}

func wants(sections []config.Section, s config.Section) bool {
	for _, have := range sections {
		if have == s {
			return true
		}
	}
	return false
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.WithError(err).Warn("failed to close trunk cache")
		}
	}
}

// label is the configured label, or the repository id
func (a *app) label() string {
	if cfg.Label != "" {
		return cfg.Label
	}
	return a.repoID
}

func (a *app) service() *contribution.Service {
	opts := []contribution.Option{
		contribution.WithLabel(a.label()),
		contribution.WithLogger(logger),
	}
	if a.cache != nil {
		opts = append(opts, contribution.WithCache(a.cache))
	}
	return contribution.NewService(a.src, a.digger, opts...)
}

// calculator builds the version calculator. Problems passed in are
// reported together with the ones it finds itself.
func (a *app) calculator(problems ...error) *version.Calculator {
	var classifier version.Classifier
	if a.digger != nil {
		classifier = a.digger
	}
	return version.NewCalculator(a.src, classifier, version.Settings{
		ReleaseBranch: cfg.Tagger.ReleaseBranch,
		ImplicitPatch: cfg.Tagger.ImplicitPatch,
		ForceSnapshot: cfg.Tagger.ForceSnapshot,
	}, logger).WithProblems(problems...)
}

func newPrinter() (*output.Printer, error) {
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "invalid output format")
	}
	return output.NewPrinter(os.Stdout, format), nil
}
