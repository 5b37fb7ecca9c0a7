package contribution

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/digger/internal/git/gittest"
	"github.com/rohankatakam/digger/internal/graph"
	"github.com/rohankatakam/digger/internal/models"
)

// memoryCache is an in-memory TrunkCache
type memoryCache struct {
	trunks map[string]graph.Path
	gets   int
	puts   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{trunks: make(map[string]graph.Path)}
}

func (m *memoryCache) GetTrunk(key string) (graph.Path, bool, error) {
	m.gets++
	p, ok := m.trunks[key]
	return p, ok, nil
}

func (m *memoryCache) PutTrunk(key string, trunk graph.Path) error {
	m.puts++
	m.trunks[key] = trunk
	return nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// releasedHistory builds a -> 1.0.0, b, c -> 1.1.0, d (HEAD)
func releasedHistory() *gittest.FakeSource {
	src := gittest.New()
	src.Commit("a", "initial -2- [patch]", "one@example.com")
	src.Tag("1.0.0", "a")
	src.Commit("b", "[minor] [ABC-1]", "two@example.com", "a")
	src.Commit("c", "-4- [ABC-2]", "one@example.com", "b")
	src.Tag("1.1.0", "c")
	src.Commit("d", "[major] rewrite", "three@example.com", "c")
	return src
}

func ids(commits []models.Commit) []string {
	out := make([]string, 0, len(commits))
	for _, c := range commits {
		out = append(out, c.ID)
	}
	return out
}

func TestAllWindows_TagExclusiveRanges(t *testing.T) {
	src := releasedHistory()
	ctx := context.Background()

	windows, err := AllWindows(ctx, src, src.Tags, src.Head)
	require.NoError(t, err)
	require.Len(t, windows, 3)

	assert.Nil(t, windows[0].Tag)
	assert.Equal(t, []string{"d"}, ids(windows[0].Commits))
	assert.Equal(t, "1.1.0", windows[1].Tag.Name)
	assert.Equal(t, []string{"c", "b"}, ids(windows[1].Commits))
	assert.Equal(t, "1.0.0", windows[2].Tag.Name)
	assert.Equal(t, []string{"a"}, ids(windows[2].Commits))
}

func TestAllWindows_DropsEmptyHeadWindow(t *testing.T) {
	src := releasedHistory()
	src.Tag("2.0.0", "d")

	windows, err := AllWindows(context.Background(), src, src.Tags, src.Head)
	require.NoError(t, err)
	require.Len(t, windows, 3)
	assert.Equal(t, "2.0.0", windows[0].Tag.Name)
}

func TestAllWindows_NoTags(t *testing.T) {
	src := releasedHistory()

	windows, err := AllWindows(context.Background(), src, nil, src.Head)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Nil(t, windows[0].Tag)
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids(windows[0].Commits))
}

func TestCurrentWindow(t *testing.T) {
	ctx := context.Background()

	t.Run("untagged head", func(t *testing.T) {
		src := releasedHistory()
		w, err := CurrentWindow(ctx, src, src.Tags, src.Head)
		require.NoError(t, err)
		assert.Nil(t, w.Tag)
		assert.Equal(t, []string{"d"}, ids(w.Commits))
	})

	t.Run("tagged head spans the two newest tags", func(t *testing.T) {
		src := releasedHistory()
		src.Tag("2.0.0", "d")
		w, err := CurrentWindow(ctx, src, src.Tags, src.Head)
		require.NoError(t, err)
		require.NotNil(t, w.Tag)
		assert.Equal(t, "2.0.0", w.Tag.Name)
		assert.Equal(t, []string{"d"}, ids(w.Commits))
	})

	t.Run("only tag is at head", func(t *testing.T) {
		src := gittest.New()
		src.Commit("a", "one", "x@y.z")
		src.Commit("b", "two", "x@y.z", "a")
		src.Tag("1.0.0", "b")
		w, err := CurrentWindow(ctx, src, src.Tags, src.Head)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, ids(w.Commits))
	})

	t.Run("no tags", func(t *testing.T) {
		src := releasedHistory()
		w, err := CurrentWindow(ctx, src, nil, src.Head)
		require.NoError(t, err)
		assert.Len(t, w.Commits, 4)
	})
}

func TestFilterTags(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tags := []models.Tag{
		{Name: "late", CommitID: "c2", Timestamp: now.Add(3 * time.Hour)},
		{Name: "side", CommitID: "x", Timestamp: now.Add(2 * time.Hour)},
		{Name: "early", CommitID: "c1", Timestamp: now.Add(time.Hour)},
		{Name: "late-again", CommitID: "c2", Timestamp: now.Add(4 * time.Hour)},
	}

	filtered := FilterTags(tags, graph.Path{"c3", "c2", "c1"})

	require.Len(t, filtered, 2)
	assert.Equal(t, "early", filtered[0].Name)
	assert.Equal(t, "late-again", filtered[1].Name)
}

func TestService_AllContributions(t *testing.T) {
	src := releasedHistory()
	svc := NewService(src, defaultDigger(t), WithLabel("digger"), WithLogger(quietLogger()))

	contributions, err := svc.AllContributions(context.Background())
	require.NoError(t, err)
	require.Len(t, contributions, 3)

	current := contributions[0]
	assert.Equal(t, "digger", current.Label)
	assert.Nil(t, current.TagName)
	assert.Equal(t, models.SemverMajor.Ptr(), current.Semver)
	assert.Equal(t, []string{"three@example.com"}, current.Authors)

	release := contributions[1]
	require.NotNil(t, release.TagName)
	assert.Equal(t, "1.1.0", *release.TagName)
	require.NotNil(t, release.TagTime)
	assert.Equal(t, "c", release.LastCommit)
	assert.Equal(t, "b", release.FirstCommit)
	assert.Equal(t, 2, release.CommitCount)
	assert.Equal(t, "ABC-1,ABC-2", *release.StoryID)
	assert.Equal(t, 4, *release.Ease)
	assert.Equal(t, models.SemverMinor.Ptr(), release.Semver)

	first := contributions[2]
	assert.Equal(t, "1.0.0", *first.TagName)
	assert.Equal(t, models.SemverPatch.Ptr(), first.Semver)
}

func TestService_CurrentContribution(t *testing.T) {
	src := releasedHistory()
	svc := NewService(src, defaultDigger(t), WithLogger(quietLogger()))

	c, err := svc.CurrentContribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "d", c.LastCommit)
	assert.Equal(t, 1, c.CommitCount)
	assert.Nil(t, c.TagName)
}

func TestService_TrunkIgnoresSideBranchTags(t *testing.T) {
	src := gittest.New()
	src.Commit("root", "init", "a@x.y")
	src.Tag("1.0.0", "root")
	src.Commit("side", "side work", "b@x.y", "root")
	src.Tag("side-1", "side")
	src.Commit("main1", "main work", "a@x.y", "root")
	src.Tag("1.1.0", "main1")
	src.Commit("main2", "more main work", "a@x.y", "main1")
	src.Tag("1.2.0", "main2")
	src.Commit("merge", "merge side", "a@x.y", "main2", "side")

	svc := NewService(src, defaultDigger(t), WithLogger(quietLogger()))
	result, err := svc.Trunk(context.Background())
	require.NoError(t, err)

	assert.Equal(t, graph.Path{"merge", "main2", "main1", "root"}, result.Trunk)
	names := make([]string, 0, len(result.Tags))
	for _, tag := range result.Tags {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"1.0.0", "1.1.0", "1.2.0"}, names)
}

func TestService_UsesTrunkCache(t *testing.T) {
	src := releasedHistory()
	cache := newMemoryCache()
	svc := NewService(src, defaultDigger(t), WithCache(cache), WithLogger(quietLogger()))
	ctx := context.Background()

	first, err := svc.Trunk(ctx)
	require.NoError(t, err)
	second, err := svc.Trunk(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Trunk, second.Trunk)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.puts)
}

func TestService_PropagatesSourceErrors(t *testing.T) {
	src := releasedHistory()
	src.LogErr = fmt.Errorf("git log failed: boom")
	svc := NewService(src, defaultDigger(t), WithLogger(quietLogger()))

	_, err := svc.AllContributions(context.Background())
	assert.EqualError(t, err, "git log failed: boom")
}

func TestTrunkKey(t *testing.T) {
	assert.Equal(t, TrunkKey("h", []string{"a", "b"}), TrunkKey("h", []string{"a", "b"}))
	assert.NotEqual(t, TrunkKey("h", []string{"a"}), TrunkKey("h", []string{"a", "b"}))
	assert.NotEqual(t, TrunkKey("h1", nil), TrunkKey("h2", nil))
}
