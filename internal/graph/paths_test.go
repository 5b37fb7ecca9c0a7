package graph

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/digger/internal/models"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func commit(id string, parents ...string) models.Commit {
	return models.Commit{ID: id, ParentIDs: parents, Timestamp: base}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// diamonds builds n stacked diamonds on top of a root: every merge has two
// parents that both descend from the previous merge.
func diamonds(n int) ([]models.Commit, string) {
	log := []models.Commit{commit("root")}
	prev := "root"
	for i := 0; i < n; i++ {
		left := fmt.Sprintf("l%d", i)
		right := fmt.Sprintf("r%d", i)
		merge := fmt.Sprintf("m%d", i)
		log = append(log, commit(left, prev), commit(right, prev), commit(merge, left, right))
		prev = merge
	}
	return log, prev
}

func assertValidPaths(t *testing.T, e *Enumerator, start string, paths []Path) {
	t.Helper()
	seen := make(map[string]bool)
	for _, p := range paths {
		require.NotEmpty(t, p)
		assert.Equal(t, start, p[0])
		assert.Equal(t, e.Root(), p[len(p)-1])
		for i := 0; i+1 < len(p); i++ {
			assert.Contains(t, e.Commits()[p[i]].ParentIDs, p[i+1], "%s -> %s is not a parent edge", p[i], p[i+1])
		}
		key := strings.Join(p, ",")
		assert.False(t, seen[key], "duplicate path %s", key)
		seen[key] = true
	}
}

func TestAllPaths_MergeHistory(t *testing.T) {
	log := []models.Commit{
		commit("M", "C", "B"),
		commit("C", "A"),
		commit("B", "A"),
		commit("A"),
	}
	e, err := NewEnumerator(log, quietLogger())
	require.NoError(t, err)

	paths, err := e.AllPaths("M", nil)
	require.NoError(t, err)

	assert.Equal(t, []Path{{"M", "C", "A"}, {"M", "B", "A"}}, paths)
}

func TestAllPaths_LinearHistory(t *testing.T) {
	log := []models.Commit{commit("c3", "c2"), commit("c2", "c1"), commit("c1")}
	e, err := NewEnumerator(log, quietLogger())
	require.NoError(t, err)

	paths, err := e.AllPaths("c3", nil)
	require.NoError(t, err)
	assert.Equal(t, []Path{{"c3", "c2", "c1"}}, paths)
}

func TestAllPaths_StartAtRoot(t *testing.T) {
	e, err := NewEnumerator([]models.Commit{commit("only")}, quietLogger())
	require.NoError(t, err)

	paths, err := e.AllPaths("only", nil)
	require.NoError(t, err)
	assert.Equal(t, []Path{{"only"}}, paths)
}

func TestAllPaths_StackedDiamondsUseCache(t *testing.T) {
	log, head := diamonds(6)
	e, err := NewEnumerator(log, quietLogger())
	require.NoError(t, err)

	paths, err := e.AllPaths(head, nil)
	require.NoError(t, err)

	assert.Len(t, paths, 64)
	assertValidPaths(t, e, head, paths)

	// every commit is expanded once; the second visit to each diamond's
	// base is answered from the suffix cache
	w := e.walk(head, nil)
	assert.Equal(t, paths, w.found)
	assert.Equal(t, len(log), w.expanded)
	assert.Equal(t, 6, w.spliced)
	assert.Len(t, w.suffixes, len(log))
}

func TestAllPaths_StopsAtPreferredCommits(t *testing.T) {
	log, head := diamonds(4)
	e, err := NewEnumerator(log, quietLogger())
	require.NoError(t, err)

	// First-parent exploration reaches l0 on the very first path.
	paths, err := e.AllPaths(head, []string{"l0", "l3"})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.True(t, paths[0].Contains("l0"))
	assert.True(t, paths[0].Contains("l3"))

	// r0 is first reached on the second path.
	paths, err = e.AllPaths(head, []string{"r0"})
	require.NoError(t, err)
	assert.True(t, paths[len(paths)-1].Contains("r0"))
	assert.Less(t, len(paths), 16)
	assertValidPaths(t, e, head, paths)
}

func TestAllPaths_PathCap(t *testing.T) {
	log, head := diamonds(6)
	e, err := NewEnumerator(log, quietLogger())
	require.NoError(t, err)
	e.maxPaths = 10

	paths, err := e.AllPaths(head, nil)
	require.NoError(t, err)
	assert.Len(t, paths, 10)
	assertValidPaths(t, e, head, paths)
}

func TestAllPaths_UnknownStart(t *testing.T) {
	e, err := NewEnumerator([]models.Commit{commit("a")}, quietLogger())
	require.NoError(t, err)

	_, err = e.AllPaths("missing", nil)
	assert.ErrorIs(t, err, ErrCommitNotFound)
}

func TestAllPaths_SkipsParentsOutsideLog(t *testing.T) {
	log := []models.Commit{
		commit("m", "a", "shallow"),
		commit("a"),
	}
	e, err := NewEnumerator(log, quietLogger())
	require.NoError(t, err)

	paths, err := e.AllPaths("m", nil)
	require.NoError(t, err)
	assert.Equal(t, []Path{{"m", "a"}}, paths)
}

func TestAllPaths_PanicsOnSecondRoot(t *testing.T) {
	e := &Enumerator{
		commits: map[string]models.Commit{
			"m":     commit("m", "a", "stray"),
			"a":     commit("a"),
			"stray": commit("stray"),
		},
		root:     "a",
		maxPaths: MaxPaths,
		logger:   quietLogger(),
	}

	assert.Panics(t, func() {
		_, _ = e.AllPaths("m", nil)
	})
}

func TestNewEnumerator_RequiresUniqueRoot(t *testing.T) {
	_, err := NewEnumerator([]models.Commit{commit("a"), commit("b")}, quietLogger())
	assert.ErrorIs(t, err, ErrNoUniqueRoot)

	_, err = NewEnumerator([]models.Commit{commit("a", "b")}, quietLogger())
	assert.ErrorIs(t, err, ErrNoUniqueRoot)
}

// countPaths is the straightforward recursive count used as an oracle.
func countPaths(commits map[string]models.Commit, id string, memo map[string]int) int {
	if n, ok := memo[id]; ok {
		return n
	}
	c := commits[id]
	if c.IsRoot() {
		memo[id] = 1
		return 1
	}
	n := 0
	for _, p := range c.ParentIDs {
		n += countPaths(commits, p, memo)
	}
	memo[id] = n
	return n
}

func TestAllPaths_RandomDAGs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 25; trial++ {
		size := 5 + rng.Intn(14)
		log := []models.Commit{commit("c0")}
		for i := 1; i < size; i++ {
			parents := []string{fmt.Sprintf("c%d", i-1)}
			if i > 1 && rng.Intn(2) == 0 {
				other := fmt.Sprintf("c%d", rng.Intn(i-1))
				parents = append(parents, other)
			}
			log = append(log, commit(fmt.Sprintf("c%d", i), parents...))
		}
		head := fmt.Sprintf("c%d", size-1)

		e, err := NewEnumerator(log, quietLogger())
		require.NoError(t, err)
		paths, err := e.AllPaths(head, nil)
		require.NoError(t, err)

		expected := countPaths(e.Commits(), head, map[string]int{})
		if expected > MaxPaths {
			expected = MaxPaths
		}
		assert.Len(t, paths, expected, "trial %d", trial)
		assertValidPaths(t, e, head, paths)
	}
}
