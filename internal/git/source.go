package git

import (
	"context"

	"github.com/rohankatakam/digger/internal/models"
)

// Source supplies commits, tags and working-tree status for one repository.
// Implementations own all process invocation and output parsing; callers
// only see typed records.
type Source interface {
	// HeadCommitID returns the id of the commit HEAD points at
	HeadCommitID(ctx context.Context) (string, error)

	// Log returns every commit reachable from HEAD, newest first
	Log(ctx context.Context) ([]models.Commit, error)

	// LogRange returns commits reachable from includeTo but not from
	// excludeFrom, newest first. An empty excludeFrom excludes nothing and
	// an empty includeTo means HEAD.
	LogRange(ctx context.Context, excludeFrom, includeTo string) ([]models.Commit, error)

	// ListTags returns every tag in the repository
	ListTags(ctx context.Context) ([]models.Tag, error)

	// TagAt returns the newest tag pointing at commitID, or nil
	TagAt(ctx context.Context, commitID string) (*models.Tag, error)

	// Status reports cleanliness, upstream tracking and the current branch
	Status(ctx context.Context) (*models.RepoStatus, error)

	// CreateAnnotatedTag tags atCommit. A nil identity uses the ambient git identity.
	CreateAnnotatedTag(ctx context.Context, name, atCommit string, identity *models.Identity) error

	// PushTags pushes local tags to the default remote
	PushTags(ctx context.Context) error
}
