package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/skyverge/sake/internal/model"
	"github.com/skyverge/sake/internal/shell"
)

// Manager provides the Git operations the release pipeline needs by
// invoking the git CLI through a shell.Runner.
//
// All methods take the repository path explicitly and pass it to git via
// -C, so the process working directory never changes.
type Manager struct {
	runner shell.Runner
}

// NewManager creates a Manager that executes git through the given runner.
func NewManager(runner shell.Runner) *Manager {
	return &Manager{runner: runner}
}

// GetRepoRoot returns the absolute path to the top-level directory of the
// Git repository containing the given path.
func (m *Manager) GetRepoRoot(ctx context.Context, path string) (string, error) {
	output, err := m.run(ctx, path, false, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// GetCurrentBranch returns the short name of the checked-out branch.
// Returns "HEAD" when the repository is in a detached HEAD state.
func (m *Manager) GetCurrentBranch(ctx context.Context, path string) (string, error) {
	output, err := m.run(ctx, path, false, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// Changes returns the porcelain status lines for tracked files.
// Untracked files are ignored: a deploy only cares about modifications
// that would be swept into the versioning commit by accident.
func (m *Manager) Changes(ctx context.Context, path string) ([]string, error) {
	output, err := m.run(ctx, path, false, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// EnsureClean fails when tracked files have uncommitted changes.
func (m *Manager) EnsureClean(ctx context.Context, path string) error {
	changes, err := m.Changes(ctx, path)
	if err != nil {
		return err
	}
	if len(changes) > 0 {
		return model.NewCLIError(model.ExitGeneralError,
			model.BulletList("Working copy is not clean, commit or stash your changes first:", changes))
	}
	return nil
}

// Stash stashes local modifications.
func (m *Manager) Stash(ctx context.Context, path string) error {
	_, err := m.run(ctx, path, true, "stash")
	return err
}

// StashApply re-applies the most recent stash.
func (m *Manager) StashApply(ctx context.Context, path string) error {
	_, err := m.run(ctx, path, true, "stash", "apply")
	return err
}

// CommitAll stages every change and commits it. Each message becomes its
// own paragraph (git commit -m a -m b). Returns false without committing
// when there is nothing staged.
func (m *Manager) CommitAll(ctx context.Context, path string, messages ...string) (bool, error) {
	if len(messages) == 0 {
		return false, fmt.Errorf("commit message must not be empty")
	}
	if _, err := m.run(ctx, path, true, "add", "-A"); err != nil {
		return false, err
	}

	staged, err := m.run(ctx, path, false, "diff", "--cached", "--name-only")
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(staged) == "" {
		return false, nil
	}

	args := []string{"commit"}
	for _, msg := range messages {
		args = append(args, "-m", msg)
	}
	if _, err := m.run(ctx, path, true, args...); err != nil {
		return false, err
	}
	return true, nil
}

// Push pushes the current branch to its upstream.
func (m *Manager) Push(ctx context.Context, path string) error {
	_, err := m.run(ctx, path, true, "push")
	return err
}

// HasRemote reports whether a remote with the given name is configured.
func (m *Manager) HasRemote(ctx context.Context, path, name string) (bool, error) {
	output, err := m.run(ctx, path, false, "remote")
	if err != nil {
		return false, err
	}
	for _, remote := range strings.Fields(output) {
		if remote == name {
			return true, nil
		}
	}
	return false, nil
}

// SubtreePull updates a git subtree at prefix from remote/branch, adding
// the remote first when it is missing. This is how v4 framework copies
// under lib/skyverge are refreshed.
func (m *Manager) SubtreePull(ctx context.Context, path, prefix, remote, remoteURL, branch string) error {
	ok, err := m.HasRemote(ctx, path, remote)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := m.run(ctx, path, true, "remote", "add", remote, remoteURL); err != nil {
			return err
		}
	}
	if _, err := m.run(ctx, path, true, "fetch", remote, branch); err != nil {
		return err
	}
	_, err = m.run(ctx, path, true, "subtree", "pull", "--prefix", prefix, remote, branch, "--squash")
	return err
}

// run executes git with -C repoPath. mutates marks commands that change
// the repository or a remote, so dry runs can skip them.
func (m *Manager) run(ctx context.Context, repoPath string, mutates bool, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	return m.runner.Run(ctx, shell.Command{Name: "git", Args: fullArgs, Mutates: mutates})
}
