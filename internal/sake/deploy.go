package sake

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/config"
	"github.com/skyverge/sake/internal/fileset"
	"github.com/skyverge/sake/internal/model"
	"github.com/skyverge/sake/internal/plugin"
	"github.com/skyverge/sake/internal/replace"
	"github.com/skyverge/sake/internal/task"
)

const changelogDateFormat = "2006.01.02"

// deploySteps lays out the deploy pipeline. Conditions are evaluated when
// a step is reached, so they see the state earlier steps left behind.
func (s *Sake) deploySteps() []task.Step {
	o := &s.Options
	code := func() bool { return !o.WithoutCodeChanges }
	interactive := func() bool { return !o.NonInteractive && !o.WithoutCodeChanges }
	deployType := s.Config.Deploy.Type

	return []task.Step{
		{Name: "validate environment", Run: s.validateDeployEnv},
		{Name: "ensure clean working copy", When: func() bool { return !o.DryRun }, Run: s.gitEnsureClean},
		{Name: "ensure deployable", When: code, Run: s.ensureDeployable},
		{Name: "validate readme headers", Run: s.validateReadmeHeaders},
		{Name: "lint scripts", When: func() bool { return code() && !o.SkipLinting }, Run: s.tasks.Series("lint:scripts")},
		{Name: "select release issue", When: interactive, Run: s.getReleaseIssue},
		{Name: "choose version", When: code, Run: s.promptDeploy},
		{Name: "stamp version", When: code, Run: s.stampRelease},
		{Name: "build zip", When: code, Run: s.tasks.Series("zip")},
		{Name: "commit and push", When: code, Run: s.gitPushUpdate},
		{
			Name: "create GitHub release",
			When: func() bool { return code() && (s.Config.Deploy.GitHubRelease || o.Release) },
			Run:  s.createRelease,
		},
		{Name: "store deploy", When: func() bool { return deployType != model.DeployNone }, Run: s.storeDeploy},
		{Name: "docs issue", When: func() bool { return interactive() && s.Plugin.HasNewFeatures() }, Run: s.createDocsIssue},
		{
			Name: "update Trello card",
			When: func() bool { return code() && s.Config.TrelloBoard != "" && deployType == model.DeployWooCommerce },
			Run:  s.updateTrelloCard,
		},
	}
}

// deploy releases the plugin: it versions and tags the code, publishes the
// GitHub release and ships the package to the configured store.
func (s *Sake) deploy(ctx context.Context) error {
	p := &task.Pipeline{Name: "deploy", Steps: s.deploySteps(), Log: s.Log}
	rep, err := p.Run(ctx)
	if err != nil {
		s.Log.Error("Deploy of "+s.Plugin.DisplayName(false)+" stopped",
			zap.Strings("completed", rep.Completed), zap.Error(err))
		return err
	}

	title := fmt.Sprintf("Deployed %s %s", s.Plugin.DisplayName(false), s.PluginVersion())
	if s.Options.DryRun {
		title = "[dry-run] " + title
	}
	fmt.Fprintln(s.Out, success(title))
	for _, name := range rep.Completed {
		fmt.Fprintln(s.Out, "  "+success("✔")+" "+name)
	}
	for _, name := range rep.Skipped {
		fmt.Fprintln(s.Out, muted("  - "+name+" (skipped)"))
	}
	if u := s.currentReleaseURL(); u != "" {
		fmt.Fprintln(s.Out, "Release: "+highlight(u))
	}
	return nil
}

// validateDeployEnv checks the credentials and settings the deploy will
// need before anything is changed.
func (s *Sake) validateDeployEnv(_ context.Context) error {
	names := []string{config.EnvGitHubAPIKey}
	switch s.Config.Deploy.Type {
	case model.DeployWooCommerce:
		if s.Options.WithoutCodeChanges {
			return model.NewCLIError(model.ExitConfigError,
				"WooCommerce.com only accepts versioned packages, deploys without code changes are limited to WordPress.org")
		}
		names = append(names, config.EnvWCUsername, config.EnvWCApplicationPassword)
	case model.DeployWordPress:
		names = append(names, config.EnvWPSVNUser)
	}

	var errs error
	if err := config.ValidateEnv(s.Env, names...); err != nil {
		errs = multierr.Append(errs, err)
	}
	if s.Config.Deploy.Type == model.DeployWooCommerce && s.Config.Deploy.WooID == 0 {
		errs = multierr.Append(errs, model.NewCLIError(model.ExitConfigError, "deploy.wooId is not configured"))
	}
	if errs == nil {
		return nil
	}
	if all := multierr.Errors(errs); len(all) == 1 {
		return all[0]
	}
	return model.WrapCLIError(model.ExitEnvInvalid, "Deploy failed, check your environment and config", errs)
}

// stampRelease writes the chosen version into the changelog header, the
// readme stable tag, prerelease @since tags and the plugin headers.
func (s *Sake) stampRelease(ctx context.Context) error {
	version := s.PluginVersion()

	if cl := s.Plugin.Changelog; cl != nil && cl.File != "" {
		if err := s.stampChangelog(cl.File, version); err != nil {
			return err
		}
	}

	if s.Config.Deploy.Type == model.DeployWordPress {
		readme := filepath.Join(s.Config.SrcDir(), "readme.txt")
		if err := s.writeFiles([]string{readme}, []replace.Rule{replace.StableTag(version)}); err != nil {
			return err
		}
	}

	if prereleases := plugin.PrereleaseVersions(s.Plugin.Version.Current); len(prereleases) > 0 {
		files, err := s.phpFiles(false)
		if err != nil {
			return err
		}
		for i, f := range files {
			files[i] = filepath.Join(s.Config.SrcDir(), filepath.FromSlash(f))
		}
		if err := s.writeFiles(files, []replace.Rule{replace.PrereleaseSince(prereleases, version)}); err != nil {
			return err
		}
	}

	return s.tasks.Run(ctx, "bump")
}

func (s *Sake) stampChangelog(file, version string) error {
	data, err := afero.ReadFile(s.Fs, file)
	if err != nil {
		return err
	}
	out, ok := plugin.StampRelease(string(data), s.Now().Format(changelogDateFormat), version)
	if !ok {
		s.Log.Warn("No changelog entry header found in " + filepath.Base(file))
		return nil
	}
	if s.Options.DryRun {
		s.Log.Info("[dry-run] would stamp " + filepath.Base(file) + " with version " + version)
		return nil
	}
	return afero.WriteFile(s.Fs, file, []byte(out), 0644)
}

// storeDeploy ships the release to WooCommerce.com or WordPress.org.
func (s *Sake) storeDeploy(ctx context.Context) error {
	switch s.Config.Deploy.Type {
	case model.DeployWooCommerce:
		return s.tasks.Run(ctx, "wc:deploy")
	case model.DeployWordPress:
		if s.Options.WithoutCodeChanges {
			return s.wpDeployMetadata(ctx)
		}
		return s.tasks.Series(
			"shell:svn_checkout",
			"clean:wp_trunk",
			"copy:wp_trunk",
			"shell:svn_commit_trunk",
			"shell:svn_commit_tag",
			"copy:wp_assets",
			"shell:svn_commit_assets",
		)(ctx)
	}
	return nil
}

// wpDeployMetadata updates readme.txt in trunk and the current stable tag,
// then the plugin directory assets, without releasing a new version.
func (s *Sake) wpDeployMetadata(ctx context.Context) error {
	if err := s.tasks.Run(ctx, "shell:svn_checkout"); err != nil {
		return err
	}
	client, err := s.svnClient()
	if err != nil {
		return err
	}

	if s.svnDryRun("update readme.txt in trunk and the stable tag") {
		return s.tasks.Series("copy:wp_assets", "shell:svn_commit_assets")(ctx)
	}

	readme := filepath.Join(s.Config.SrcDir(), "readme.txt")
	data, err := afero.ReadFile(s.Fs, readme)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "Failed to read readme.txt", err)
	}
	targets := []string{filepath.Join(client.Trunk(), "readme.txt")}
	stable, ok := plugin.ReadmeHeader(string(data), "Stable tag")
	if ok && stable != "" && !strings.EqualFold(stable, "trunk") {
		if exists, _ := afero.DirExists(s.Fs, client.Tag(stable)); exists {
			targets = append(targets, filepath.Join(client.Tag(stable), "readme.txt"))
		} else {
			s.Log.Warn("Stable tag " + stable + " not found in the SVN checkout, updating trunk only")
		}
	}
	for _, t := range targets {
		if err := fileset.CopyFile(s.Fs, readme, t); err != nil {
			return err
		}
	}
	if err := client.Commit(ctx, client.Path, "Updating readme.txt"); err != nil {
		return err
	}
	return s.tasks.Series("copy:wp_assets", "shell:svn_commit_assets")(ctx)
}
