package models

import (
	"time"
)

// Commit represents a git commit as read from the repository log
type Commit struct {
	ID             string    `json:"id" db:"id"`
	AuthorEmail    string    `json:"author_email" db:"author_email"`
	CommitterEmail string    `json:"committer_email" db:"committer_email"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
	ParentIDs      []string  `json:"parent_ids"`
	FullMessage    string    `json:"full_message" db:"full_message"`
}

// IsRoot reports whether the commit has no parents
func (c Commit) IsRoot() bool {
	return len(c.ParentIDs) == 0
}

// IsMerge reports whether the commit has two or more parents
func (c Commit) IsMerge() bool {
	return len(c.ParentIDs) > 1
}

// ShortID returns the first 8 characters of the commit id
func (c Commit) ShortID() string {
	if len(c.ID) < 8 {
		return c.ID
	}
	return c.ID[:8]
}

// Tag represents a git tag. Timestamp is the tag creation time, not the
// time of the commit it points at.
type Tag struct {
	Name      string    `json:"name" yaml:"name" db:"name"`
	CommitID  string    `json:"commit_id" yaml:"commit_id" db:"commit_id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp" db:"timestamp"`
}

// Identity is the name/email pair used when creating a tag
type Identity struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// RepoStatus describes the live state of a working tree
type RepoStatus struct {
	Clean         bool   `json:"clean" yaml:"clean"`
	Ahead         int    `json:"ahead" yaml:"ahead"`
	Behind        int    `json:"behind" yaml:"behind"`
	CurrentBranch string `json:"current_branch" yaml:"current_branch"`
	UpstreamName  string `json:"upstream_name" yaml:"upstream_name"`
}

// HasUpstream reports whether the current branch tracks a remote branch
func (s RepoStatus) HasUpstream() bool {
	return s.UpstreamName != ""
}

// SemverType is the version impact a commit declares
type SemverType string

const (
	SemverMajor SemverType = "Major"
	SemverMinor SemverType = "Minor"
	SemverPatch SemverType = "Patch"
	SemverNone  SemverType = "None"
)

// Priority orders semver types: Major > Minor > Patch > None
func (s SemverType) Priority() int {
	switch s {
	case SemverMajor:
		return 3
	case SemverMinor:
		return 2
	case SemverPatch:
		return 1
	default:
		return 0
	}
}

// Ptr returns a pointer to a copy of s
func (s SemverType) Ptr() *SemverType {
	return &s
}

// HighestSemver returns whichever of a and b has the higher priority.
// A nil argument is treated as absent.
func HighestSemver(a, b *SemverType) *SemverType {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Priority() > a.Priority():
		return b
	default:
		return a
	}
}

// MessageDigResult is what the message digger extracts from one commit message
type MessageDigResult struct {
	Semver    *SemverType `json:"semver,omitempty"`
	StoryID   *string     `json:"storyId,omitempty"`
	Ease      *int        `json:"ease,omitempty"`
	CoAuthors []string    `json:"coAuthors"`
}

// Contribution summarizes a window of commits
type Contribution struct {
	LastCommit      string      `json:"lastCommit" yaml:"lastCommit"`
	LastCommitTime  time.Time   `json:"dateTime" yaml:"dateTime"`
	FirstCommit     string      `json:"firstCommit" yaml:"firstCommit"`
	FirstCommitTime time.Time   `json:"firstCommitDateTime" yaml:"firstCommitDateTime"`
	Authors         []string    `json:"authors" yaml:"authors"`
	Label           string      `json:"label,omitempty" yaml:"label,omitempty"`
	Ease            *int        `json:"ease,omitempty" yaml:"ease,omitempty"`
	StoryID         *string     `json:"storyId,omitempty" yaml:"storyId,omitempty"`
	TagName         *string     `json:"tagName,omitempty" yaml:"tagName,omitempty"`
	TagTime         *time.Time  `json:"tagDateTime,omitempty" yaml:"tagDateTime,omitempty"`
	CommitCount     int         `json:"commitCount" yaml:"commitCount"`
	Semver          *SemverType `json:"semver,omitempty" yaml:"semver,omitempty"`
}

// SnapshotReason explains why a computed version is not release-eligible
type SnapshotReason string

const (
	SnapshotDirty            SnapshotReason = "DIRTY"
	SnapshotAhead            SnapshotReason = "AHEAD"
	SnapshotBehind           SnapshotReason = "BEHIND"
	SnapshotNotReleaseBranch SnapshotReason = "NOT_RELEASE_BRANCH"
	SnapshotNoNewChanges     SnapshotReason = "NO_NEW_CHANGES"
	SnapshotForced           SnapshotReason = "FORCED"
)

// VersionDecision is the outcome of version calculation.
// IsSnapshot is true iff SnapshotReasons is non-empty.
type VersionDecision struct {
	Version         string           `json:"version" yaml:"version"`
	PreviousVersion string           `json:"previousVersion,omitempty" yaml:"previousVersion,omitempty"`
	IsSnapshot      bool             `json:"isSnapshot" yaml:"isSnapshot"`
	SnapshotReasons []SnapshotReason `json:"snapshotReasons" yaml:"snapshotReasons"`
}

// HasReason reports whether reason is among the snapshot reasons
func (d VersionDecision) HasReason(reason SnapshotReason) bool {
	for _, r := range d.SnapshotReasons {
		if r == reason {
			return true
		}
	}
	return false
}

// TagReason explains why a tag could not be created
type TagReason string

const (
	TagReasonSnapshot         TagReason = "SNAPSHOT"
	TagReasonAlreadyTagged    TagReason = "ALREADY_TAGGED"
	TagReasonNotReleaseBranch TagReason = "NOT_RELEASE_BRANCH"
)

// TagResult is the outcome of a tag attempt. A skipped attempt is still
// Success when warnings are not treated as errors; Reasons names the skip.
type TagResult struct {
	Success bool        `json:"success" yaml:"success"`
	TagName string      `json:"tagName,omitempty" yaml:"tagName,omitempty"`
	Message string      `json:"message" yaml:"message"`
	Reasons []TagReason `json:"reasons,omitempty" yaml:"reasons,omitempty"`
}

// Run is one persisted invocation of the contribution history
type Run struct {
	ID        string    `json:"id" yaml:"id" db:"id"`
	RepoID    string    `json:"repoId" yaml:"repoId" db:"repo_id"`
	Head      string    `json:"head" yaml:"head" db:"head"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt" db:"created_at"`
}

// StoredContribution is a contribution persisted by a run. Payload is the
// JSON encoding of the Contribution.
type StoredContribution struct {
	RunID      string    `json:"run_id" db:"run_id"`
	RepoID     string    `json:"repo_id" db:"repo_id"`
	Position   int       `json:"position" db:"position"`
	LastCommit string    `json:"last_commit" db:"last_commit"`
	TagName    *string   `json:"tag_name,omitempty" db:"tag_name"`
	Payload    string    `json:"payload" db:"payload"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
