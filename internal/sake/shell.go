package sake

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/model"
	"github.com/skyverge/sake/internal/shell"
	"github.com/skyverge/sake/internal/svn"
)

const (
	frameworkRemote    = "wc-plugin-framework"
	frameworkRemoteURL = "git@github.com:skyverge/wc-plugin-framework.git"

	// frameworkV4Branch carries the v4 framework; master is v5.
	frameworkV4Branch = "legacy-v4"
)

func (s *Sake) gitEnsureClean(ctx context.Context) error {
	return s.Git.EnsureClean(ctx, s.Config.WorkDir)
}

func (s *Sake) gitStash(ctx context.Context) error {
	return s.Git.Stash(ctx, s.Config.WorkDir)
}

func (s *Sake) gitStashApply(ctx context.Context) error {
	return s.Git.StashApply(ctx, s.Config.WorkDir)
}

// versionCommitMessages are the paragraphs of the release commit.
func (s *Sake) versionCommitMessages() []string {
	msgs := []string{fmt.Sprintf("%s: %s Versioning", s.Plugin.Name, s.PluginVersion())}
	if n := s.releaseIssueToClose(); n > 0 {
		msgs = append(msgs, fmt.Sprintf("Closes #%d", n))
	}
	return msgs
}

func (s *Sake) gitPushUpdate(ctx context.Context) error {
	committed, err := s.Git.CommitAll(ctx, s.Config.WorkDir, s.versionCommitMessages()...)
	if err != nil {
		return err
	}
	if !committed {
		s.Log.Info("Nothing to commit")
	}
	if err := s.Git.Push(ctx, s.Config.WorkDir); err != nil {
		return err
	}
	s.Log.Info("git up to date!")
	return nil
}

// composer runs composer in the working directory when there is a
// composer.json.
func (s *Sake) composer(ctx context.Context, mutates bool, args ...string) (string, error) {
	if s.Config.Composer == nil {
		s.Log.Info("No composer.json found, skipping composer " + args[0])
		return "", nil
	}
	return s.Runner.Run(ctx, shell.Command{
		Name:    "composer",
		Args:    args,
		Dir:     s.Config.WorkDir,
		Stream:  mutates,
		Mutates: mutates,
	})
}

// composerStatus refuses to wipe the vendor dir while installed packages
// have local edits.
func (s *Sake) composerStatus(ctx context.Context) error {
	out, err := s.composer(ctx, false, "status")
	if err != nil {
		return model.WrapCLIError(model.ExitCommandFailed, "Composer packages have local changes, commit them upstream or discard them first", err)
	}
	if out = strings.TrimSpace(out); out != "" && !strings.HasPrefix(out, "No local changes") {
		s.Log.Warn(out)
	}
	return nil
}

func (s *Sake) composerInstall(ctx context.Context) error {
	_, err := s.composer(ctx, true, "install")
	return err
}

func (s *Sake) composerUpdate(ctx context.Context) error {
	_, err := s.composer(ctx, true, "update")
	return err
}

// svnClient returns the client for the WordPress.org checkout under tmp.
func (s *Sake) svnClient() (*svn.Client, error) {
	prod := s.Config.Deploy.Production
	if s.Config.Deploy.Type != model.DeployWordPress || prod == nil {
		return nil, model.NewCLIError(model.ExitConfigError, "WordPress.org deploys are not configured for this plugin")
	}
	return svn.NewClient(s.Runner, filepath.Join(s.Config.TmpDir(), prod.Name), prod.User), nil
}

func (s *Sake) svnCheckout(ctx context.Context) error {
	client, err := s.svnClient()
	if err != nil {
		return err
	}
	if s.Options.DryRun {
		s.Log.Info("[dry-run] would check out "+s.Config.Deploy.Production.URL, zap.String("dir", client.Path))
		return nil
	}
	if err := s.Fs.MkdirAll(s.Config.TmpDir(), 0755); err != nil {
		return err
	}
	return client.Checkout(ctx, s.Config.Deploy.Production.URL)
}

func (s *Sake) svnCommitTrunk(ctx context.Context) error {
	client, err := s.svnClient()
	if err != nil {
		return err
	}
	if s.svnDryRun("commit trunk") {
		return nil
	}
	if err := client.Sync(ctx, client.Trunk()); err != nil {
		return err
	}
	return client.Commit(ctx, client.Trunk(), "Committing "+s.PluginVersion()+" to trunk")
}

func (s *Sake) svnCommitTag(ctx context.Context) error {
	client, err := s.svnClient()
	if err != nil {
		return err
	}
	if s.svnDryRun("tag " + s.PluginVersion()) {
		return nil
	}
	v := s.PluginVersion()
	if err := client.CopyTag(ctx, v); err != nil {
		return err
	}
	return client.Commit(ctx, client.Tag(v), "Tagging "+v)
}

func (s *Sake) svnCommitAssets(ctx context.Context) error {
	client, err := s.svnClient()
	if err != nil {
		return err
	}
	if s.svnDryRun("commit assets") {
		return nil
	}
	if err := client.Sync(ctx, client.Assets()); err != nil {
		return err
	}
	return client.Commit(ctx, client.Assets(), "Committing assets for "+s.PluginVersion())
}

// svnDryRun logs the svn step a dry run leaves out. Nothing is checked out
// in a dry run, so even read-only svn commands have no working copy.
func (s *Sake) svnDryRun(step string) bool {
	if !s.Options.DryRun {
		return false
	}
	s.Log.Info("[dry-run] would " + step + " in the WordPress.org checkout")
	return true
}

// shellUpdateFramework refreshes the framework copy: composer update for
// v5, a subtree pull for v4.
func (s *Sake) shellUpdateFramework(ctx context.Context) error {
	switch s.Config.Framework {
	case model.FrameworkV5:
		return s.composerUpdate(ctx)
	case model.FrameworkV4:
		if ok, _ := afero.DirExists(s.Fs, s.Config.FrameworkDir()); !ok {
			s.Log.Info("No subtree to update")
			return nil
		}
		root, err := s.Git.GetRepoRoot(ctx, s.Config.WorkDir)
		if err != nil {
			return err
		}
		prefix, err := filepath.Rel(root, s.Config.FrameworkDir())
		if err != nil {
			return err
		}
		branch := s.Options.Branch
		if branch == "" {
			branch = frameworkV4Branch
		}
		if err := s.Git.SubtreePull(ctx, root, filepath.ToSlash(prefix), frameworkRemote, frameworkRemoteURL, branch); err != nil {
			return err
		}
		s.Log.Info("Subtree up to date!", zap.String("branch", branch))
		return nil
	}
	return model.NewCLIError(model.ExitConfigError, "Not a frameworked plugin, aborting")
}

func (s *Sake) shellUpdateFrameworkCommit(ctx context.Context) error {
	msg := s.Plugin.Name + ": Update readme.txt"
	if ok, _ := afero.DirExists(s.Fs, s.Config.FrameworkDir()); ok && s.Config.Framework != model.FrameworkNone {
		msg = s.Plugin.Name + ": Update framework to v" + s.Plugin.FrameworkVersion
	}
	_, err := s.Git.CommitAll(ctx, s.Config.WorkDir, msg)
	return err
}
