// Package gittest provides an in-memory git.Source for tests.
package gittest

import (
	"context"
	"fmt"
	"time"

	"github.com/rohankatakam/digger/internal/models"
)

// Epoch is the timestamp of the first commit created by a FakeSource.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// CreatedTag records a CreateAnnotatedTag call
type CreatedTag struct {
	Name     string
	CommitID string
	Identity *models.Identity
}

// FakeSource is a hand-built commit graph implementing git.Source
type FakeSource struct {
	Head       string
	Commits    map[string]models.Commit
	Order      []string
	Tags       []models.Tag
	RepoStatus models.RepoStatus

	Created []CreatedTag
	Pushes  int

	LogErr    error
	CreateErr error
	PushErr   error

	clock int
}

// New returns an empty fake on branch main with a clean tree and an upstream
func New() *FakeSource {
	return &FakeSource{
		Commits: make(map[string]models.Commit),
		RepoStatus: models.RepoStatus{
			Clean:         true,
			CurrentBranch: "main",
			UpstreamName:  "origin/main",
		},
	}
}

func (f *FakeSource) tick() time.Time {
	f.clock++
	return Epoch.Add(time.Duration(f.clock) * time.Hour)
}

// Commit adds a commit authored by author and moves HEAD to it
func (f *FakeSource) Commit(id, message, author string, parents ...string) *FakeSource {
	f.Commits[id] = models.Commit{
		ID:             id,
		AuthorEmail:    author,
		CommitterEmail: author,
		Timestamp:      f.tick(),
		ParentIDs:      parents,
		FullMessage:    message,
	}
	f.Order = append([]string{id}, f.Order...)
	f.Head = id
	return f
}

// Tag adds a tag pointing at commitID
func (f *FakeSource) Tag(name, commitID string) *FakeSource {
	f.Tags = append(f.Tags, models.Tag{Name: name, CommitID: commitID, Timestamp: f.tick()})
	return f
}

// HeadCommitID implements git.Source
func (f *FakeSource) HeadCommitID(ctx context.Context) (string, error) {
	if f.Head == "" {
		return "", fmt.Errorf("no commits")
	}
	return f.Head, nil
}

// Log implements git.Source
func (f *FakeSource) Log(ctx context.Context) ([]models.Commit, error) {
	return f.LogRange(ctx, "", "")
}

// LogRange implements git.Source
func (f *FakeSource) LogRange(ctx context.Context, excludeFrom, includeTo string) ([]models.Commit, error) {
	if f.LogErr != nil {
		return nil, f.LogErr
	}
	if includeTo == "" {
		includeTo = f.Head
	}
	included := f.reachable(includeTo)
	excluded := map[string]bool{}
	if excludeFrom != "" {
		excluded = f.reachable(excludeFrom)
	}

	var commits []models.Commit
	for _, id := range f.Order {
		if included[id] && !excluded[id] {
			commits = append(commits, f.Commits[id])
		}
	}
	return commits, nil
}

func (f *FakeSource) reachable(from string) map[string]bool {
	seen := make(map[string]bool)
	stack := []string{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		c, ok := f.Commits[id]
		if !ok {
			continue
		}
		seen[id] = true
		stack = append(stack, c.ParentIDs...)
	}
	return seen
}

// ListTags implements git.Source
func (f *FakeSource) ListTags(ctx context.Context) ([]models.Tag, error) {
	return append([]models.Tag(nil), f.Tags...), nil
}

// TagAt implements git.Source
func (f *FakeSource) TagAt(ctx context.Context, commitID string) (*models.Tag, error) {
	var newest *models.Tag
	for i := range f.Tags {
		t := f.Tags[i]
		if t.CommitID == commitID && (newest == nil || t.Timestamp.After(newest.Timestamp)) {
			newest = &t
		}
	}
	return newest, nil
}

// Status implements git.Source
func (f *FakeSource) Status(ctx context.Context) (*models.RepoStatus, error) {
	status := f.RepoStatus
	return &status, nil
}

// CreateAnnotatedTag implements git.Source
func (f *FakeSource) CreateAnnotatedTag(ctx context.Context, name, atCommit string, identity *models.Identity) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.Created = append(f.Created, CreatedTag{Name: name, CommitID: atCommit, Identity: identity})
	f.Tag(name, atCommit)
	return nil
}

// PushTags implements git.Source
func (f *FakeSource) PushTags(ctx context.Context) error {
	if f.PushErr != nil {
		return f.PushErr
	}
	f.Pushes++
	return nil
}
