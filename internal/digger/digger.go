// Package digger classifies commit messages. A single composite regular
// expression is built from the configured fragments and scanned over the
// whole message to find semver markers, story ids, ease ratings and
// co-author trailers.
package digger

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rohankatakam/digger/internal/errors"
	"github.com/rohankatakam/digger/internal/models"
)

// Named groups recognized in the composite pattern.
const (
	GroupMajor    = "major"
	GroupMinor    = "minor"
	GroupPatch    = "patch"
	GroupNone     = "none"
	GroupStoryID  = "storyId"
	GroupEase     = "ease"
	groupCoAuthor = "coAuthor"
)

// coAuthorPattern matches "Co-authored-by: Name <email>" trailers.
const coAuthorPattern = `Co-authored-by:[^\n<]*<(?P<coAuthor>[^>\n]*)>`

// Config holds the regular expressions the digger is built from. When
// VersionRegex is set it replaces the four individual semver fragments and
// must carry the groups major, minor, patch and none.
type Config struct {
	MajorRegex   string `mapstructure:"major_regex" yaml:"major_regex"`
	MinorRegex   string `mapstructure:"minor_regex" yaml:"minor_regex"`
	PatchRegex   string `mapstructure:"patch_regex" yaml:"patch_regex"`
	NoneRegex    string `mapstructure:"none_regex" yaml:"none_regex"`
	VersionRegex string `mapstructure:"version_regex" yaml:"version_regex"`
	StoryIDRegex string `mapstructure:"story_id_regex" yaml:"story_id_regex"`
	EaseRegex    string `mapstructure:"ease_regex" yaml:"ease_regex"`
}

// DefaultConfig returns the bracket-marker conventions:
// [major] [minor] [patch] [none], [ABC-123] story ids and -3- ease ratings.
func DefaultConfig() Config {
	return Config{
		MajorRegex:   `\[major\]`,
		MinorRegex:   `\[minor\]`,
		PatchRegex:   `\[patch\]`,
		NoneRegex:    `\[none\]`,
		StoryIDRegex: `\[(?P<storyId>[A-Za-z][A-Za-z0-9]*-\d+)\]`,
		EaseRegex:    `-(?P<ease>[1-5])-`,
	}
}

// Digger extracts a MessageDigResult from commit messages
type Digger struct {
	pattern *regexp.Regexp
	major   int
	minor   int
	patch   int
	none    int
	storyID int
	ease    int
	coAuthr int
}

// New validates cfg and compiles the composite pattern. A story-id regex
// without a storyId group, an ease regex without an ease group, or a
// version regex missing any semver group is a configuration error.
func New(cfg Config) (*Digger, error) {
	problems := &errors.MultiError{}

	var parts []string
	if cfg.VersionRegex != "" {
		if err := requireGroups("version_regex", cfg.VersionRegex, GroupMajor, GroupMinor, GroupPatch, GroupNone); err != nil {
			problems.Add(err)
		}
		parts = append(parts, "(?:"+cfg.VersionRegex+")")
	} else {
		fragments := []struct{ group, expr, key string }{
			{GroupMajor, cfg.MajorRegex, "major_regex"},
			{GroupMinor, cfg.MinorRegex, "minor_regex"},
			{GroupPatch, cfg.PatchRegex, "patch_regex"},
			{GroupNone, cfg.NoneRegex, "none_regex"},
		}
		for _, f := range fragments {
			if f.expr == "" {
				continue
			}
			if err := requireGroups(f.key, f.expr); err != nil {
				problems.Add(err)
			}
			parts = append(parts, "(?P<"+f.group+">"+f.expr+")")
		}
	}

	if cfg.StoryIDRegex != "" {
		if err := requireGroups("story_id_regex", cfg.StoryIDRegex, GroupStoryID); err != nil {
			problems.Add(err)
		}
		parts = append(parts, "(?:"+cfg.StoryIDRegex+")")
	}
	if cfg.EaseRegex != "" {
		if err := requireGroups("ease_regex", cfg.EaseRegex, GroupEase); err != nil {
			problems.Add(err)
		}
		parts = append(parts, "(?:"+cfg.EaseRegex+")")
	}
	parts = append(parts, coAuthorPattern)

	if err := problems.ErrorOrNil(); err != nil {
		return nil, err
	}

	pattern, err := regexp.Compile("(?im)" + strings.Join(parts, "|"))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "failed to compile message pattern")
	}

	return &Digger{
		pattern: pattern,
		major:   pattern.SubexpIndex(GroupMajor),
		minor:   pattern.SubexpIndex(GroupMinor),
		patch:   pattern.SubexpIndex(GroupPatch),
		none:    pattern.SubexpIndex(GroupNone),
		storyID: pattern.SubexpIndex(GroupStoryID),
		ease:    pattern.SubexpIndex(GroupEase),
		coAuthr: pattern.SubexpIndex(groupCoAuthor),
	}, nil
}

// requireGroups compiles expr on its own and checks it declares every group
func requireGroups(key, expr string, groups ...string) error {
	re, err := regexp.Compile(expr)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, key+" is not a valid regular expression")
	}
	var missing []string
	for _, g := range groups {
		if re.SubexpIndex(g) < 0 {
			missing = append(missing, g)
		}
	}
	if len(missing) > 0 {
		return errors.ConfigErrorf("%s must contain named group(s) %s: %q", key, strings.Join(missing, ", "), expr)
	}
	return nil
}

// Dig classifies message. Semver keeps the highest-priority marker, story id
// and ease keep the first match, and every co-author email is collected in
// message order.
func (d *Digger) Dig(message string) models.MessageDigResult {
	result := models.MessageDigResult{CoAuthors: []string{}}

	for _, m := range d.pattern.FindAllStringSubmatchIndex(message, -1) {
		if semver := d.semverOf(m); semver != nil {
			result.Semver = models.HighestSemver(result.Semver, semver)
		}
		if result.StoryID == nil && matched(m, d.storyID) {
			story := group(message, m, d.storyID)
			result.StoryID = &story
		}
		if result.Ease == nil && matched(m, d.ease) {
			if ease, err := strconv.Atoi(group(message, m, d.ease)); err == nil {
				result.Ease = &ease
			}
		}
		if matched(m, d.coAuthr) {
			result.CoAuthors = append(result.CoAuthors, group(message, m, d.coAuthr))
		}
	}

	return result
}

// Semver returns only the semver classification of message
func (d *Digger) Semver(message string) *models.SemverType {
	return d.Dig(message).Semver
}

func (d *Digger) semverOf(m []int) *models.SemverType {
	switch {
	case matched(m, d.major):
		return models.SemverMajor.Ptr()
	case matched(m, d.minor):
		return models.SemverMinor.Ptr()
	case matched(m, d.patch):
		return models.SemverPatch.Ptr()
	case matched(m, d.none):
		return models.SemverNone.Ptr()
	}
	return nil
}

func matched(m []int, idx int) bool {
	return idx >= 0 && 2*idx+1 < len(m) && m[2*idx] >= 0
}

func group(s string, m []int, idx int) string {
	return s[m[2*idx]:m[2*idx+1]]
}
