package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/digger/internal/errors"
	"github.com/rohankatakam/digger/internal/models"
)

func TestParseLog(t *testing.T) {
	out := "aaa\x1fdev@example.com\x1fci@example.com\x1f2024-03-01T10:00:00Z\x1fbbb ccc\x1fMerge things [minor]\n\nCo-authored-by: X <x@y.z>\n\x1e\n" +
		"bbb\x1fdev@example.com\x1fdev@example.com\x1f2024-02-01T10:00:00+02:00\x1f\x1finitial\n\x1e\n"

	commits, err := ParseLog(out)
	require.NoError(t, err)
	require.Len(t, commits, 2)

	assert.Equal(t, "aaa", commits[0].ID)
	assert.Equal(t, "dev@example.com", commits[0].AuthorEmail)
	assert.Equal(t, "ci@example.com", commits[0].CommitterEmail)
	assert.Equal(t, []string{"bbb", "ccc"}, commits[0].ParentIDs)
	assert.Equal(t, "Merge things [minor]\n\nCo-authored-by: X <x@y.z>", commits[0].FullMessage)
	assert.True(t, commits[0].Timestamp.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))

	assert.True(t, commits[1].IsRoot())
	assert.Equal(t, "initial", commits[1].FullMessage)
	assert.True(t, commits[1].Timestamp.Equal(time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)))
}

func TestParseLog_Empty(t *testing.T) {
	commits, err := ParseLog("")
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestParseLog_Malformed(t *testing.T) {
	_, err := ParseLog("aaa\x1fonly-two\x1e")
	require.Error(t, err)
	assert.True(t, errors.HasType(err, errors.ErrorTypeValidation))
}

func TestParseTags(t *testing.T) {
	out := "1.0.0\x1ftagobj\x1fcommit1\x1f2024-01-01T00:00:00Z\n" +
		"light\x1fcommit2\x1f\x1f2024-01-02T00:00:00Z\n"

	tags, err := ParseTags(out)
	require.NoError(t, err)
	require.Len(t, tags, 2)

	assert.Equal(t, models.Tag{Name: "1.0.0", CommitID: "commit1", Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}, tags[0])
	assert.Equal(t, "commit2", tags[1].CommitID)
}

func TestNewestTagAt(t *testing.T) {
	tags := []models.Tag{
		{Name: "old", CommitID: "c1", Timestamp: time.Unix(100, 0)},
		{Name: "new", CommitID: "c1", Timestamp: time.Unix(200, 0)},
		{Name: "other", CommitID: "c2", Timestamp: time.Unix(300, 0)},
	}

	tag := NewestTagAt(tags, "c1")
	require.NotNil(t, tag)
	assert.Equal(t, "new", tag.Name)
	assert.Nil(t, NewestTagAt(tags, "c3"))
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name     string
		out      string
		expected models.RepoStatus
	}{
		{
			name: "clean and tracking",
			out:  "# branch.oid abc\n# branch.head main\n# branch.upstream origin/main\n# branch.ab +0 -0\n",
			expected: models.RepoStatus{
				Clean: true, CurrentBranch: "main", UpstreamName: "origin/main",
			},
		},
		{
			name: "dirty, ahead and behind",
			out:  "# branch.head feature\n# branch.upstream origin/feature\n# branch.ab +2 -3\n1 .M N... 100644 100644 100644 a b file.go\n",
			expected: models.RepoStatus{
				Clean: false, Ahead: 2, Behind: 3, CurrentBranch: "feature", UpstreamName: "origin/feature",
			},
		},
		{
			name:     "untracked file without upstream",
			out:      "# branch.head main\n? new.txt\n",
			expected: models.RepoStatus{Clean: false, CurrentBranch: "main"},
		},
		{
			name:     "detached head",
			out:      "# branch.oid abc\n# branch.head (detached)\n",
			expected: models.RepoStatus{Clean: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := ParseStatus(tt.out)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, *status)
		})
	}
}

// testRepo is a throwaway repository driven through the git binary
type testRepo struct {
	t    *testing.T
	dir  string
	tick int
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available, skipping integration test")
	}
	r := &testRepo{t: t, dir: t.TempDir()}
	r.git("init", "-q")
	r.git("symbolic-ref", "HEAD", "refs/heads/main")
	return r
}

func (r *testRepo) git(args ...string) string {
	r.t.Helper()
	r.tick++
	date := time.Date(2024, 1, 1, 0, 0, r.tick, 0, time.UTC).Format(time.RFC3339)

	cmd := exec.Command("git", append([]string{"-c", "user.name=Test", "-c", "user.email=Test@Example.com", "-c", "commit.gpgsign=false", "-c", "tag.gpgsign=false"}, args...)...)
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(), "GIT_AUTHOR_DATE="+date, "GIT_COMMITTER_DATE="+date)
	out, err := cmd.CombinedOutput()
	require.NoError(r.t, err, "git %v: %s", args, out)
	return string(out)
}

func (r *testRepo) commit(message string) {
	r.git("commit", "-q", "--allow-empty", "-m", message)
}

func TestCLISource_Integration(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	src := NewCLISource(repo.dir, logger)

	repo.commit("initial")
	repo.git("tag", "-a", "1.0.0", "-m", "1.0.0")
	repo.git("checkout", "-q", "-b", "feature")
	repo.commit("feature work [minor]")
	repo.git("checkout", "-q", "main")
	repo.commit("main work")
	repo.git("merge", "-q", "--no-ff", "-m", "merge feature", "feature")

	head, err := src.HeadCommitID(ctx)
	require.NoError(t, err)

	log, err := src.Log(ctx)
	require.NoError(t, err)
	require.Len(t, log, 4)
	assert.Equal(t, head, log[0].ID)
	assert.True(t, log[0].IsMerge())
	assert.Equal(t, "Test@Example.com", log[0].AuthorEmail)
	assert.Equal(t, "merge feature", log[0].FullMessage)

	tags, err := src.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "1.0.0", tags[0].Name)
	assert.Equal(t, log[len(log)-1].ID, tags[0].CommitID)

	since, err := src.LogRange(ctx, tags[0].CommitID, "")
	require.NoError(t, err)
	assert.Len(t, since, 3)

	status, err := src.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Clean)
	assert.Equal(t, "main", status.CurrentBranch)
	assert.False(t, status.HasUpstream())

	require.NoError(t, os.WriteFile(fmt.Sprintf("%s/dirty.txt", repo.dir), []byte("x"), 0644))
	status, err = src.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Clean)

	err = src.CreateAnnotatedTag(ctx, "1.1.0", head, &models.Identity{Name: "Releaser", Email: "release@example.com"})
	require.NoError(t, err)
	tag, err := src.TagAt(ctx, head)
	require.NoError(t, err)
	require.NotNil(t, tag)
	assert.Equal(t, "1.1.0", tag.Name)

	err = src.PushTags(ctx)
	require.Error(t, err)
	assert.True(t, errors.HasType(err, errors.ErrorTypeExternal))
}
