package graph

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/digger/internal/models"
)

// SelectTrunk picks the path through the most tagged commits, preferring
// the shortest among equally tagged paths. The first such path wins ties.
// It returns nil when paths is empty.
func SelectTrunk(paths []Path, tagged map[string]bool) Path {
	var best Path
	bestCount := -1

	for _, p := range paths {
		count := p.CountIn(tagged)
		if count > bestCount || (count == bestCount && len(p) < len(best)) {
			best = p
			bestCount = count
		}
	}

	return best
}

// FirstParentPath follows only first parents from head until it reaches a
// commit without parents or leaves the log.
func FirstParentPath(commits map[string]models.Commit, head string) Path {
	var path Path
	id := head
	for {
		commit, ok := commits[id]
		if !ok {
			return path
		}
		path = append(path, id)
		if commit.IsRoot() {
			return path
		}
		id = commit.ParentIDs[0]
	}
}

// FindTrunk enumerates paths from head, biased toward paths through the
// tagged commits, and selects the trunk. It falls back to the first-parent
// line when enumeration yields nothing or the log has no unique root.
func FindTrunk(log []models.Commit, head string, taggedIDs []string, logger logrus.FieldLogger) (Path, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	tagged := make(map[string]bool, len(taggedIDs))
	for _, id := range taggedIDs {
		tagged[id] = true
	}

	enumerator, err := NewEnumerator(log, logger)
	if errors.Is(err, ErrNoUniqueRoot) {
		logger.WithError(err).Warn("falling back to first-parent history")
		return FirstParentPath(indexByID(log), head), nil
	}
	if err != nil {
		return nil, err
	}

	paths, err := enumerator.AllPaths(head, taggedIDs)
	if err != nil {
		return nil, err
	}

	if trunk := SelectTrunk(paths, tagged); trunk != nil {
		return trunk, nil
	}
	return FirstParentPath(enumerator.Commits(), head), nil
}

func indexByID(log []models.Commit) map[string]models.Commit {
	commits := make(map[string]models.Commit, len(log))
	for _, c := range log {
		commits[c.ID] = c
	}
	return commits
}
