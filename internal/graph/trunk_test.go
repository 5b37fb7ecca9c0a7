package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/digger/internal/models"
)

func TestSelectTrunk_MostTaggedWins(t *testing.T) {
	paths := []Path{
		{"h", "a", "root"},
		{"h", "x", "y", "z", "root"},
		{"h", "b", "c", "root"},
	}
	tagged := map[string]bool{"y": true, "z": true, "c": true}

	assert.Equal(t, Path{"h", "x", "y", "z", "root"}, SelectTrunk(paths, tagged))
}

func TestSelectTrunk_ShortestAmongTies(t *testing.T) {
	paths := []Path{
		{"h", "a", "b", "t", "root"},
		{"h", "t", "root"},
		{"h", "c", "t", "root"},
	}
	tagged := map[string]bool{"t": true}

	assert.Equal(t, Path{"h", "t", "root"}, SelectTrunk(paths, tagged))
}

func TestSelectTrunk_FirstFoundAmongEqualPaths(t *testing.T) {
	paths := []Path{
		{"h", "a", "root"},
		{"h", "b", "root"},
	}

	assert.Equal(t, Path{"h", "a", "root"}, SelectTrunk(paths, nil))
}

func TestSelectTrunk_Empty(t *testing.T) {
	assert.Nil(t, SelectTrunk(nil, map[string]bool{"a": true}))
}

func TestSelectTrunk_CoverageProperty(t *testing.T) {
	log, head := diamonds(5)
	e, err := NewEnumerator(log, quietLogger())
	require.NoError(t, err)
	paths, err := e.AllPaths(head, nil)
	require.NoError(t, err)

	tagged := map[string]bool{"r0": true, "r2": true, "l3": true, "m1": true}
	trunk := SelectTrunk(paths, tagged)

	for _, p := range paths {
		assert.GreaterOrEqual(t, trunk.CountIn(tagged), p.CountIn(tagged))
		if p.CountIn(tagged) == trunk.CountIn(tagged) {
			assert.LessOrEqual(t, len(trunk), len(p))
		}
	}
	assert.Equal(t, 4, trunk.CountIn(tagged))
}

func TestFirstParentPath(t *testing.T) {
	commits := map[string]models.Commit{
		"m": commit("m", "c", "b"),
		"c": commit("c", "a"),
		"b": commit("b", "a"),
		"a": commit("a"),
	}

	assert.Equal(t, Path{"m", "c", "a"}, FirstParentPath(commits, "m"))
	assert.Nil(t, FirstParentPath(commits, "unknown"))
}

func TestFindTrunk_PrefersTaggedBranch(t *testing.T) {
	log := []models.Commit{
		commit("M", "C", "B"),
		commit("C", "A"),
		commit("B", "A"),
		commit("A"),
	}

	trunk, err := FindTrunk(log, "M", []string{"B"}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, Path{"M", "B", "A"}, trunk)

	trunk, err = FindTrunk(log, "M", nil, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, Path{"M", "C", "A"}, trunk)
}

func TestFindTrunk_FallsBackWithoutUniqueRoot(t *testing.T) {
	log := []models.Commit{
		commit("M", "C", "orphan"),
		commit("C", "A"),
		commit("A"),
		commit("orphan"),
	}

	trunk, err := FindTrunk(log, "M", nil, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, Path{"M", "C", "A"}, trunk)
}
