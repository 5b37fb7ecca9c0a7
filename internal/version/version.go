// Package version computes the next release version from the commits since
// the previous release tag and decides whether it must be a snapshot.
package version

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rohankatakam/digger/internal/errors"
	"github.com/rohankatakam/digger/internal/models"
)

// SnapshotSuffix marks a version that must not be released
const SnapshotSuffix = "-SNAPSHOT"

// Version is a MAJOR.MINOR.PATCH triple
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Increment applies change to v. Major and Minor reset the lower
// components; None, or an unknown change, leaves v unchanged.
func (v Version) Increment(change models.SemverType) Version {
	switch change {
	case models.SemverMajor:
		return Version{Major: v.Major + 1}
	case models.SemverMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1}
	case models.SemverPatch:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	default:
		return v
	}
}

// Parse extracts a version from a tag name. Any leading non-digit prefix
// ("v", "release-") and any suffix after the numeric part ("-rc1", "+build")
// is ignored. The remaining text must be exactly three integers joined by
// dots.
func Parse(tagName string) (Version, error) {
	trimmed := strings.TrimLeftFunc(tagName, func(r rune) bool { return !unicode.IsDigit(r) })

	end := strings.IndexFunc(trimmed, func(r rune) bool { return !unicode.IsDigit(r) && r != '.' })
	if end >= 0 {
		trimmed = trimmed[:end]
	}

	parts := strings.Split(trimmed, ".")
	if len(parts) != 3 {
		return Version{}, errors.ConfigErrorf("tag %q does not resolve to a MAJOR.MINOR.PATCH version", tagName)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, errors.ConfigErrorf("tag %q does not resolve to a MAJOR.MINOR.PATCH version", tagName)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// IsSnapshot reports whether a version string is a snapshot version
func IsSnapshot(v string) bool {
	return strings.HasSuffix(v, SnapshotSuffix)
}
