package contribution

import (
	"context"
	"sort"

	"github.com/rohankatakam/digger/internal/git"
	"github.com/rohankatakam/digger/internal/graph"
	"github.com/rohankatakam/digger/internal/models"
)

// Window is a contiguous run of commits, newest first, bounded by Tag.
// Tag is nil for the unreleased window ending at HEAD.
type Window struct {
	Tag     *models.Tag
	Commits []models.Commit
}

// FilterTags keeps tags on the trunk, one per commit (the newest), sorted
// oldest first.
func FilterTags(tags []models.Tag, trunk graph.Path) []models.Tag {
	onTrunk := make(map[string]bool, len(trunk))
	for _, id := range trunk {
		onTrunk[id] = true
	}

	byCommit := make(map[string]models.Tag)
	for _, t := range tags {
		if !onTrunk[t.CommitID] {
			continue
		}
		if existing, ok := byCommit[t.CommitID]; !ok || newer(t, existing) {
			byCommit[t.CommitID] = t
		}
	}

	filtered := make([]models.Tag, 0, len(byCommit))
	for _, t := range byCommit {
		filtered = append(filtered, t)
	}
	SortTags(filtered)
	return filtered
}

// SortTags orders tags by creation time, oldest first, breaking ties by name
func SortTags(tags []models.Tag) {
	sort.SliceStable(tags, func(i, j int) bool {
		if !tags[i].Timestamp.Equal(tags[j].Timestamp) {
			return tags[i].Timestamp.Before(tags[j].Timestamp)
		}
		return tags[i].Name < tags[j].Name
	})
}

func newer(a, b models.Tag) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.Name > b.Name
}

// AllWindows partitions history into tag-exclusive ranges, newest first.
// tags must be sorted oldest first. Empty windows are dropped.
func AllWindows(ctx context.Context, src git.Source, tags []models.Tag, head string) ([]Window, error) {
	var windows []Window

	newestTag := ""
	if len(tags) > 0 {
		newestTag = tags[len(tags)-1].CommitID
	}
	untagged, err := src.LogRange(ctx, newestTag, head)
	if err != nil {
		return nil, err
	}
	if len(untagged) > 0 {
		windows = append(windows, Window{Commits: untagged})
	}

	for i := len(tags) - 1; i >= 0; i-- {
		exclude := ""
		if i > 0 {
			exclude = tags[i-1].CommitID
		}
		commits, err := src.LogRange(ctx, exclude, tags[i].CommitID)
		if err != nil {
			return nil, err
		}
		if len(commits) == 0 {
			continue
		}
		tag := tags[i]
		windows = append(windows, Window{Tag: &tag, Commits: commits})
	}

	return windows, nil
}

// CurrentWindow returns the most recent window. When HEAD is tagged it is
// the range between that tag and the one before it, so a just-cut release
// can still be inspected. Otherwise it is everything since the newest tag,
// or the whole log when there are no tags.
func CurrentWindow(ctx context.Context, src git.Source, tags []models.Tag, head string) (Window, error) {
	headTag, err := src.TagAt(ctx, head)
	if err != nil {
		return Window{}, err
	}

	if headTag != nil {
		idx := -1
		for i, t := range tags {
			if t.CommitID == head {
				idx = i
			}
		}
		if idx >= 0 {
			headTag = &tags[idx]
		}

		exclude := ""
		if idx > 0 {
			exclude = tags[idx-1].CommitID
		} else if idx < 0 && len(tags) > 0 {
			exclude = tags[len(tags)-1].CommitID
		}
		commits, err := src.LogRange(ctx, exclude, head)
		if err != nil {
			return Window{}, err
		}
		tag := *headTag
		return Window{Tag: &tag, Commits: commits}, nil
	}

	if len(tags) == 0 {
		commits, err := src.Log(ctx)
		if err != nil {
			return Window{}, err
		}
		return Window{Commits: commits}, nil
	}

	commits, err := src.LogRange(ctx, tags[len(tags)-1].CommitID, head)
	if err != nil {
		return Window{}, err
	}
	return Window{Commits: commits}, nil
}
