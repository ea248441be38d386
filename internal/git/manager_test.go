package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyverge/sake/internal/shell"
)

// setupTestRepo creates a temporary directory with an initialized Git
// repository containing a single commit. A local user.name and user.email
// are configured so that commits work without a global git identity.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	runTestGit(t, dir, "init")
	runTestGit(t, dir, "config", "user.email", "test@example.com")
	runTestGit(t, dir, "config", "user.name", "Test User")

	err := os.WriteFile(filepath.Join(dir, "changelog.txt"), []byte("*** Test Plugin Changelog ***\n"), 0644)
	require.NoError(t, err, "failed to create initial file")

	runTestGit(t, dir, "add", ".")
	runTestGit(t, dir, "commit", "-m", "initial commit")

	return dir
}

// runTestGit runs a git command in dir and fails the test on a non-zero exit.
func runTestGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
	return string(output)
}

func newTestManager() *Manager {
	return NewManager(shell.NewExecRunner(nil))
}

func TestGetRepoRoot(t *testing.T) {
	repo := setupTestRepo(t)
	m := newTestManager()

	sub := filepath.Join(repo, "includes")
	require.NoError(t, os.MkdirAll(sub, 0755))

	root, err := m.GetRepoRoot(context.Background(), sub)
	require.NoError(t, err)

	// macOS temp dirs live behind a /private symlink.
	expected, _ := filepath.EvalSymlinks(repo)
	actual, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, expected, actual)
}

func TestGetCurrentBranch(t *testing.T) {
	repo := setupTestRepo(t)
	runTestGit(t, repo, "checkout", "-b", "release")

	branch, err := newTestManager().GetCurrentBranch(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, "release", branch)
}

func TestEnsureClean(t *testing.T) {
	repo := setupTestRepo(t)
	m := newTestManager()
	ctx := context.Background()

	require.NoError(t, m.EnsureClean(ctx, repo))

	// untracked files do not make the working copy dirty
	require.NoError(t, os.WriteFile(filepath.Join(repo, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, m.EnsureClean(ctx, repo))

	require.NoError(t, os.WriteFile(filepath.Join(repo, "changelog.txt"), []byte("changed"), 0644))
	err := m.EnsureClean(ctx, repo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "changelog.txt")
}

func TestCommitAll(t *testing.T) {
	repo := setupTestRepo(t)
	m := newTestManager()
	ctx := context.Background()

	committed, err := m.CommitAll(ctx, repo, "nothing")
	require.NoError(t, err)
	assert.False(t, committed, "nothing staged means no commit")

	require.NoError(t, os.WriteFile(filepath.Join(repo, "changelog.txt"), []byte("1.2.3"), 0644))
	committed, err = m.CommitAll(ctx, repo, "Test Plugin: 1.2.3 Versioning", "Closes #12")
	require.NoError(t, err)
	assert.True(t, committed)

	log := runTestGit(t, repo, "log", "-1", "--format=%B")
	assert.Contains(t, log, "Test Plugin: 1.2.3 Versioning")
	assert.Contains(t, log, "Closes #12")

	_, err = m.CommitAll(ctx, repo)
	assert.Error(t, err)
}

func TestStashAndApply(t *testing.T) {
	repo := setupTestRepo(t)
	m := newTestManager()
	ctx := context.Background()

	path := filepath.Join(repo, "changelog.txt")
	require.NoError(t, os.WriteFile(path, []byte("wip"), 0644))

	require.NoError(t, m.Stash(ctx, repo))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "*** Test Plugin Changelog ***\n", string(data))

	require.NoError(t, m.StashApply(ctx, repo))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "wip", string(data))
}

func TestHasRemote(t *testing.T) {
	repo := setupTestRepo(t)
	m := newTestManager()
	ctx := context.Background()

	ok, err := m.HasRemote(ctx, repo, "origin")
	require.NoError(t, err)
	assert.False(t, ok)

	runTestGit(t, repo, "remote", "add", "origin", "git@github.com:skyverge/test-plugin.git")
	ok, err = m.HasRemote(ctx, repo, "origin")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubtreePull_AddsMissingRemote(t *testing.T) {
	rec := shell.NewRecorder()
	rec.Responses["git -C /repo remote"] = "origin\n"
	m := NewManager(rec)

	err := m.SubtreePull(context.Background(), "/repo", "lib/skyverge", "wc-plugin-framework",
		"git@github.com:skyverge/wc-plugin-framework.git", "master")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"git -C /repo remote",
		"git -C /repo remote add wc-plugin-framework git@github.com:skyverge/wc-plugin-framework.git",
		"git -C /repo fetch wc-plugin-framework master",
		"git -C /repo subtree pull --prefix lib/skyverge wc-plugin-framework master --squash",
	}, rec.Lines())
}
