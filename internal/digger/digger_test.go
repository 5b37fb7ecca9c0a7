package digger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/digger/internal/errors"
	"github.com/rohankatakam/digger/internal/models"
)

const unifiedVersionRegex = `\[(?P<major>major)\]|\[(?P<minor>minor)\]|\[(?P<patch>patch)\]|\[(?P<none>none)\]`

func newDefault(t *testing.T) *Digger {
	t.Helper()
	d, err := New(DefaultConfig())
	require.NoError(t, err)
	return d
}

func TestDig_SemverHighestPriorityWins(t *testing.T) {
	d := newDefault(t)

	tests := []struct {
		name     string
		message  string
		expected *models.SemverType
	}{
		{"major among all", "[minor] [major] [none] [patch]", models.SemverMajor.Ptr()},
		{"minor beats patch and none", "[minor] [none] [patch]", models.SemverMinor.Ptr()},
		{"patch beats none", "[none] fix it [patch]", models.SemverPatch.Ptr()},
		{"none alone", "chore [none]", models.SemverNone.Ptr()},
		{"case insensitive", "Breaking [MAJOR]", models.SemverMajor.Ptr()},
		{"unmarked", "just a commit", nil},
		{"marker on later line", "subject\n\nbody [minor]\n", models.SemverMinor.Ptr()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := d.Dig(tt.message)
			assert.Equal(t, tt.expected, result.Semver)
		})
	}
}

func TestDig_EaseFirstMatchWins(t *testing.T) {
	d := newDefault(t)

	result := d.Dig("-3- -4- -5-")
	require.NotNil(t, result.Ease)
	assert.Equal(t, 3, *result.Ease)

	result = d.Dig("-3- -4- -5- [minor] [none] [patch]")
	require.NotNil(t, result.Ease)
	assert.Equal(t, 3, *result.Ease)
	assert.Equal(t, models.SemverMinor.Ptr(), result.Semver)
}

func TestDig_StoryIDFirstMatchWins(t *testing.T) {
	d := newDefault(t)

	result := d.Dig("[COUP-12] [COUP-99] did things")
	require.NotNil(t, result.StoryID)
	assert.Equal(t, "COUP-12", *result.StoryID)

	assert.Nil(t, d.Dig("no story here").StoryID)
}

func TestDig_CoAuthorsCollectedInOrder(t *testing.T) {
	d := newDefault(t)

	message := `Pair on parser [patch]

Co-authored-by: Some One <Some.One@Example.com>
Co-authored-by: Other Person <other@example.com>`

	result := d.Dig(message)
	assert.Equal(t, []string{"Some.One@Example.com", "other@example.com"}, result.CoAuthors)
	assert.Equal(t, models.SemverPatch.Ptr(), result.Semver)
}

func TestDig_NoMatchesYieldsEmptyResult(t *testing.T) {
	d := newDefault(t)

	result := d.Dig("")
	assert.Nil(t, result.Semver)
	assert.Nil(t, result.StoryID)
	assert.Nil(t, result.Ease)
	assert.Empty(t, result.CoAuthors)
}

func TestDig_Idempotent(t *testing.T) {
	d := newDefault(t)
	message := "[ABC-1] -2- [minor]\nCo-authored-by: A <a@b.c>"

	assert.Equal(t, d.Dig(message), d.Dig(message))
}

func TestDig_UnifiedVersionRegex(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VersionRegex = unifiedVersionRegex

	d, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, models.SemverMajor.Ptr(), d.Semver("[patch] [major] [minor]"))
	assert.Equal(t, models.SemverPatch.Ptr(), d.Semver("[none] [patch]"))
	assert.Nil(t, d.Semver("nothing"))
}

func TestNew_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "story regex without storyId group",
			mutate: func(c *Config) { c.StoryIDRegex = `\[(.*?)\]` },
			want:   "story_id_regex must contain named group(s) storyId",
		},
		{
			name:   "ease regex without ease group",
			mutate: func(c *Config) { c.EaseRegex = `-([1-5])-` },
			want:   "ease_regex must contain named group(s) ease",
		},
		{
			name:   "version regex missing groups",
			mutate: func(c *Config) { c.VersionRegex = `\[(?P<major>major)\]|\[(?P<minor>minor)\]` },
			want:   "version_regex must contain named group(s) patch, none",
		},
		{
			name:   "invalid fragment",
			mutate: func(c *Config) { c.MajorRegex = `[major` },
			want:   "major_regex is not a valid regular expression",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			d, err := New(cfg)
			assert.Nil(t, d)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, errors.HasType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestNew_ReportsEveryConfigurationError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StoryIDRegex = `\[(.*?)\]`
	cfg.EaseRegex = `-([1-5])-`

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "story_id_regex")
	assert.Contains(t, err.Error(), "ease_regex")
}
