package version

import (
	"github.com/rohankatakam/digger/internal/models"
)

// Classifier returns the semver marker declared by a commit message, or nil
type Classifier interface {
	Semver(message string) *models.SemverType
}

// Input is everything the decision needs
type Input struct {
	Previous      Version
	Commits       []models.Commit
	Classifier    Classifier
	ImplicitPatch bool
	Status        models.RepoStatus
	ReleaseBranch string
	ForceSnapshot bool
}

// ChangeFor returns the highest-priority change across commits. Commits
// without a marker count as Patch when implicitPatch is set. Nil means no
// commit was classified.
func ChangeFor(commits []models.Commit, classifier Classifier, implicitPatch bool) *models.SemverType {
	var change *models.SemverType
	for _, c := range commits {
		semver := classifier.Semver(c.FullMessage)
		if semver == nil && implicitPatch {
			semver = models.SemverPatch.Ptr()
		}
		change = models.HighestSemver(change, semver)
	}
	return change
}

// Decide computes the next version and every reason it must be a snapshot
func Decide(in Input) models.VersionDecision {
	next := in.Previous
	if change := ChangeFor(in.Commits, in.Classifier, in.ImplicitPatch); change != nil {
		next = in.Previous.Increment(*change)
	}

	reasons := SnapshotReasons(in.Status, in.ReleaseBranch, next == in.Previous, in.ForceSnapshot)

	decision := models.VersionDecision{
		Version:         next.String(),
		PreviousVersion: in.Previous.String(),
		IsSnapshot:      len(reasons) > 0,
		SnapshotReasons: reasons,
	}
	if decision.IsSnapshot {
		decision.Version += SnapshotSuffix
	}
	return decision
}

// SnapshotReasons evaluates each snapshot condition independently
func SnapshotReasons(status models.RepoStatus, releaseBranch string, unchanged, forced bool) []models.SnapshotReason {
	reasons := []models.SnapshotReason{}
	if !status.Clean {
		reasons = append(reasons, models.SnapshotDirty)
	}
	if status.Ahead > 0 {
		reasons = append(reasons, models.SnapshotAhead)
	}
	if status.Behind > 0 {
		reasons = append(reasons, models.SnapshotBehind)
	}
	if status.CurrentBranch != releaseBranch {
		reasons = append(reasons, models.SnapshotNotReleaseBranch)
	}
	if unchanged {
		reasons = append(reasons, models.SnapshotNoNewChanges)
	}
	if forced {
		reasons = append(reasons, models.SnapshotForced)
	}
	return reasons
}
