package version

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/digger/internal/errors"
	"github.com/rohankatakam/digger/internal/git"
	"github.com/rohankatakam/digger/internal/models"
)

// Settings configures version calculation
type Settings struct {
	ReleaseBranch string
	ImplicitPatch bool
	ForceSnapshot bool
}

// Calculator computes version decisions for one repository
type Calculator struct {
	src        git.Source
	classifier Classifier
	settings   Settings
	prior      []error
	logger     logrus.FieldLogger
}

// NewCalculator creates a Calculator
func NewCalculator(src git.Source, classifier Classifier, settings Settings, logger logrus.FieldLogger) *Calculator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Calculator{
		src:        src,
		classifier: classifier,
		settings:   settings,
		logger:     logger.WithField("component", "version"),
	}
}

// WithProblems adds problems the caller already found, such as invalid
// configuration, to those Calculate reports. Nil errors are ignored.
func (c *Calculator) WithProblems(errs ...error) *Calculator {
	for _, err := range errs {
		if err != nil {
			c.prior = append(c.prior, err)
		}
	}
	return c
}

// Calculate returns the next version. Configuration and precondition
// problems are all collected and returned together; git failures are
// returned as soon as they happen.
func (c *Calculator) Calculate(ctx context.Context) (*models.VersionDecision, error) {
	problems := &errors.MultiError{}
	for _, err := range c.prior {
		problems.Add(err)
	}

	if c.settings.ReleaseBranch == "" {
		problems.Add(errors.ConfigError("no release branch configured"))
	}

	status, err := c.src.Status(ctx)
	if err != nil {
		return nil, err
	}
	if !status.HasUpstream() {
		problems.Add(errors.PreconditionErrorf("branch %q has no configured upstream", status.CurrentBranch))
	}

	previous, err := c.previousTag(ctx)
	if err != nil {
		return nil, err
	}

	var prevVersion Version
	if previous == nil {
		problems.Add(errors.PreconditionError("repository has no tags; cut an initial release tag such as 0.0.0"))
	} else {
		prevVersion, err = Parse(previous.Name)
		problems.Add(err)
	}

	if err := problems.ErrorOrNil(); err != nil {
		return nil, err
	}
	if c.classifier == nil {
		return nil, errors.InternalError("version calculator has no commit classifier")
	}

	commits, err := c.src.LogRange(ctx, previous.CommitID, "")
	if err != nil {
		return nil, err
	}

	decision := Decide(Input{
		Previous:      prevVersion,
		Commits:       commits,
		Classifier:    c.classifier,
		ImplicitPatch: c.settings.ImplicitPatch,
		Status:        *status,
		ReleaseBranch: c.settings.ReleaseBranch,
		ForceSnapshot: c.settings.ForceSnapshot,
	})

	c.logger.WithFields(logrus.Fields{
		"previous_tag": previous.Name,
		"commits":      len(commits),
		"version":      decision.Version,
		"reasons":      decision.SnapshotReasons,
	}).Debug("calculated version")

	return &decision, nil
}

// previousTag returns the newest tag reachable from HEAD, or nil
func (c *Calculator) previousTag(ctx context.Context) (*models.Tag, error) {
	tags, err := c.src.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}

	log, err := c.src.Log(ctx)
	if err != nil {
		return nil, err
	}
	reachable := make(map[string]bool, len(log))
	for _, commit := range log {
		reachable[commit.ID] = true
	}

	var newest *models.Tag
	for i := range tags {
		t := tags[i]
		if !reachable[t.CommitID] {
			continue
		}
		if newest == nil || t.Timestamp.After(newest.Timestamp) {
			newest = &t
		}
	}
	return newest, nil
}
