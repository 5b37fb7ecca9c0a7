// Package tagger creates release tags once a version is known to be
// releasable.
package tagger

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/digger/internal/errors"
	"github.com/rohankatakam/digger/internal/git"
	"github.com/rohankatakam/digger/internal/models"
	"github.com/rohankatakam/digger/internal/version"
)

// Guard checks tagging preconditions and creates the release tag
type Guard struct {
	src              git.Source
	warningsAsErrors bool
	logger           logrus.FieldLogger
}

// NewGuard creates a Guard. With warningsAsErrors unset, a blocked tag is
// reported as a skipped success instead of an error.
func NewGuard(src git.Source, warningsAsErrors bool, logger logrus.FieldLogger) *Guard {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Guard{
		src:              src,
		warningsAsErrors: warningsAsErrors,
		logger:           logger.WithField("component", "tagger"),
	}
}

// Reasons returns every precondition that blocks tagging HEAD with ver
func (g *Guard) Reasons(ctx context.Context, ver, releaseBranch string) ([]models.TagReason, string, error) {
	reasons := []models.TagReason{}

	if version.IsSnapshot(ver) {
		reasons = append(reasons, models.TagReasonSnapshot)
	}

	head, err := g.src.HeadCommitID(ctx)
	if err != nil {
		return nil, "", err
	}
	existing, err := g.src.TagAt(ctx, head)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		reasons = append(reasons, models.TagReasonAlreadyTagged)
	}

	status, err := g.src.Status(ctx)
	if err != nil {
		return nil, "", err
	}
	if status.CurrentBranch != releaseBranch {
		reasons = append(reasons, models.TagReasonNotReleaseBranch)
	}

	return reasons, head, nil
}

// Attempt tags HEAD with ver and pushes tags. Blocking reasons are all
// reported together; git failures are returned unchanged.
func (g *Guard) Attempt(ctx context.Context, ver, releaseBranch string, identity *models.Identity) (models.TagResult, error) {
	reasons, head, err := g.Reasons(ctx, ver, releaseBranch)
	if err != nil {
		return models.TagResult{}, err
	}

	if len(reasons) > 0 {
		msg := fmt.Sprintf("tag %s not created: %s", ver, joinReasons(reasons))
		if g.warningsAsErrors {
			return models.TagResult{TagName: ver, Message: msg, Reasons: reasons},
				errors.PreconditionError(msg).WithContext("reasons", reasons)
		}
		g.logger.WithField("reasons", reasons).Warn(msg)
		return models.TagResult{Success: true, TagName: ver, Message: msg, Reasons: reasons}, nil
	}

	if err := g.src.CreateAnnotatedTag(ctx, ver, head, identity); err != nil {
		return models.TagResult{}, err
	}
	if err := g.src.PushTags(ctx); err != nil {
		return models.TagResult{}, err
	}

	g.logger.WithFields(logrus.Fields{"tag": ver, "commit": head}).Info("created release tag")
	return models.TagResult{
		Success: true,
		TagName: ver,
		Message: fmt.Sprintf("tagged %s as %s", shortID(head), ver),
		Reasons: reasons,
	}, nil
}

func joinReasons(reasons []models.TagReason) string {
	parts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ", ")
}

func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
