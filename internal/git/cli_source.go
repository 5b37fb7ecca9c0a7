package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/digger/internal/errors"
	"github.com/rohankatakam/digger/internal/models"
)

const (
	unitSep   = "\x1f"
	recordSep = "\x1e"

	// id, author email, committer email, committer date, parents, raw body
	logFormat = "--format=%H%x1f%ae%x1f%ce%x1f%cI%x1f%P%x1f%B%x1e"

	// name, object, dereferenced object (annotated tags), creation date
	tagFormat = "--format=%(refname:short)%1f%(objectname)%1f%(*objectname)%1f%(creatordate:iso-strict)"
)

// CLISource implements Source by running the git binary in a working directory
type CLISource struct {
	repoPath string
	logger   logrus.FieldLogger
}

// NewCLISource creates a Source for the repository at repoPath
func NewCLISource(repoPath string, logger logrus.FieldLogger) *CLISource {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CLISource{
		repoPath: repoPath,
		logger:   logger.WithField("component", "git"),
	}
}

// RepoPath returns the working directory git runs in
func (s *CLISource) RepoPath() string {
	return s.repoPath
}

// run executes git with args and returns stdout. Failures carry git's stderr.
func (s *CLISource) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.logger.WithField("args", args).Debug("running git")

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", errors.ExternalErrorf(err, "git %s failed: %s", args[0], msg).
			WithContext("args", strings.Join(args, " ")).
			WithContext("dir", s.repoPath)
	}

	return stdout.String(), nil
}

// HeadCommitID implements Source
func (s *CLISource) HeadCommitID(ctx context.Context) (string, error) {
	out, err := s.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Log implements Source
func (s *CLISource) Log(ctx context.Context) ([]models.Commit, error) {
	return s.LogRange(ctx, "", "")
}

// LogRange implements Source
func (s *CLISource) LogRange(ctx context.Context, excludeFrom, includeTo string) ([]models.Commit, error) {
	if includeTo == "" {
		includeTo = "HEAD"
	}
	args := []string{"log", logFormat, includeTo}
	if excludeFrom != "" {
		args = append(args, "^"+excludeFrom)
	}
	args = append(args, "--")

	out, err := s.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return ParseLog(out)
}

// ListTags implements Source
func (s *CLISource) ListTags(ctx context.Context) ([]models.Tag, error) {
	out, err := s.run(ctx, "for-each-ref", "refs/tags", tagFormat)
	if err != nil {
		return nil, err
	}
	return ParseTags(out)
}

// TagAt implements Source
func (s *CLISource) TagAt(ctx context.Context, commitID string) (*models.Tag, error) {
	tags, err := s.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	return NewestTagAt(tags, commitID), nil
}

// Status implements Source
func (s *CLISource) Status(ctx context.Context) (*models.RepoStatus, error) {
	out, err := s.run(ctx, "status", "--porcelain=v2", "--branch")
	if err != nil {
		return nil, err
	}
	return ParseStatus(out)
}

// CreateAnnotatedTag implements Source
func (s *CLISource) CreateAnnotatedTag(ctx context.Context, name, atCommit string, identity *models.Identity) error {
	var args []string
	if identity != nil {
		if identity.Name != "" {
			args = append(args, "-c", "user.name="+identity.Name)
		}
		if identity.Email != "" {
			args = append(args, "-c", "user.email="+identity.Email)
		}
	}
	args = append(args, "tag", "-a", name, "-m", name, atCommit)

	_, err := s.run(ctx, args...)
	return err
}

// PushTags implements Source
func (s *CLISource) PushTags(ctx context.Context) error {
	_, err := s.run(ctx, "push", "--tags")
	return err
}

// ParseLog parses output produced with logFormat
func ParseLog(out string) ([]models.Commit, error) {
	var commits []models.Commit

	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimLeft(record, "\r\n")
		if record == "" {
			continue
		}

		fields := strings.SplitN(record, unitSep, 6)
		if len(fields) != 6 {
			return nil, errors.ValidationErrorf("malformed git log record: %q", record)
		}

		ts, err := time.Parse(time.RFC3339, fields[3])
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, errors.SeverityHigh,
				fmt.Sprintf("invalid commit date for %s", fields[0]))
		}

		commits = append(commits, models.Commit{
			ID:             fields[0],
			AuthorEmail:    fields[1],
			CommitterEmail: fields[2],
			Timestamp:      ts,
			ParentIDs:      strings.Fields(fields[4]),
			FullMessage:    strings.TrimRight(fields[5], "\n"),
		})
	}

	return commits, nil
}

// ParseTags parses output produced with tagFormat. Annotated tags resolve to
// the commit they dereference to.
func ParseTags(out string) ([]models.Tag, error) {
	var tags []models.Tag

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, unitSep)
		if len(fields) != 4 {
			return nil, errors.ValidationErrorf("malformed tag record: %q", line)
		}

		commitID := fields[2]
		if commitID == "" {
			commitID = fields[1]
		}

		ts, err := time.Parse(time.RFC3339, fields[3])
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, errors.SeverityHigh,
				fmt.Sprintf("invalid date for tag %s", fields[0]))
		}

		tags = append(tags, models.Tag{Name: fields[0], CommitID: commitID, Timestamp: ts})
	}

	return tags, nil
}

// NewestTagAt returns the most recently created tag pointing at commitID
func NewestTagAt(tags []models.Tag, commitID string) *models.Tag {
	var matches []models.Tag
	for _, t := range tags {
		if t.CommitID == commitID {
			matches = append(matches, t)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Timestamp.After(matches[j].Timestamp)
	})
	return &matches[0]
}

// ParseStatus parses `git status --porcelain=v2 --branch` output
func ParseStatus(out string) (*models.RepoStatus, error) {
	status := &models.RepoStatus{Clean: true}

	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "# ") {
			status.Clean = false
			continue
		}

		fields := strings.Fields(strings.TrimPrefix(line, "# "))
		if len(fields) < 2 {
			continue
		}

		switch fields[0] {
		case "branch.head":
			if fields[1] != "(detached)" {
				status.CurrentBranch = fields[1]
			}
		case "branch.upstream":
			status.UpstreamName = fields[1]
		case "branch.ab":
			if len(fields) != 3 {
				return nil, errors.ValidationErrorf("malformed branch.ab line: %q", line)
			}
			ahead, err := strconv.Atoi(strings.TrimPrefix(fields[1], "+"))
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeValidation, errors.SeverityHigh, "invalid ahead count")
			}
			behind, err := strconv.Atoi(strings.TrimPrefix(fields[2], "-"))
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeValidation, errors.SeverityHigh, "invalid behind count")
			}
			status.Ahead = ahead
			status.Behind = behind
		}
	}

	return status, nil
}
