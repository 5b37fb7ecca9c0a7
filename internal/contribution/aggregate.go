// Package contribution splits history into tag-bounded windows and folds
// each window into a Contribution summary.
package contribution

import (
	"sort"
	"strings"

	"github.com/rohankatakam/digger/internal/models"
)

// MessageDigger classifies a single commit message
type MessageDigger interface {
	Dig(message string) models.MessageDigResult
}

// commitResult is the per-commit input to the fold
type commitResult struct {
	commit models.Commit
	dig    models.MessageDigResult
	emails []string
}

// Aggregate folds commits (newest first) into one Contribution. Label and
// tag fields are left for the caller.
func Aggregate(commits []models.Commit, digger MessageDigger) models.Contribution {
	if len(commits) == 0 {
		return models.Contribution{Authors: []string{}}
	}

	results := make([]commitResult, 0, len(commits))
	for _, c := range commits {
		dig := digger.Dig(c.FullMessage)
		emails := append([]string{c.AuthorEmail, c.CommitterEmail}, dig.CoAuthors...)
		results = append(results, commitResult{commit: c, dig: dig, emails: emails})
	}

	authors := make(map[string]bool)
	stories := make(map[string]bool)
	var ease *int
	var semver *models.SemverType

	for _, r := range results {
		for _, email := range r.emails {
			email = strings.ToLower(strings.TrimSpace(email))
			if email != "" {
				authors[email] = true
			}
		}
		if r.dig.StoryID != nil {
			for _, story := range strings.Split(*r.dig.StoryID, ",") {
				if story = strings.TrimSpace(story); story != "" {
					stories[story] = true
				}
			}
		}
		if r.dig.Ease != nil && (ease == nil || *r.dig.Ease > *ease) {
			value := *r.dig.Ease
			ease = &value
		}
		semver = models.HighestSemver(semver, r.dig.Semver)
	}

	newest := commits[0]
	oldest := commits[len(commits)-1]

	return models.Contribution{
		LastCommit:      newest.ID,
		LastCommitTime:  newest.Timestamp,
		FirstCommit:     oldest.ID,
		FirstCommitTime: oldest.Timestamp,
		Authors:         sortedKeys(authors),
		Ease:            ease,
		StoryID:         joinOrNil(sortedKeys(stories)),
		CommitCount:     len(commits),
		Semver:          semver,
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinOrNil(values []string) *string {
	if len(values) == 0 {
		return nil
	}
	joined := strings.Join(values, ",")
	return &joined
}
