package sake

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/config"
	"github.com/skyverge/sake/internal/github"
	"github.com/skyverge/sake/internal/prompt"
)

const (
	docsOwner = "skyverge"
	docsRepo  = "wc-plugins-sales-docs"
)

func (s *Sake) githubClient() (*github.Client, error) {
	if err := config.ValidateEnv(s.Env, config.EnvGitHubAPIKey); err != nil {
		return nil, err
	}
	opts := []github.Option{github.WithLogger(s.Log)}
	if s.Endpoints.GitHub != "" {
		opts = append(opts, github.WithBaseURL(s.Endpoints.GitHub))
	}
	return github.NewClient(s.Env[config.EnvGitHubAPIKey], opts...)
}

// releaseRepo returns the repository releases and milestones go to:
// --owner/--repo, then the dev repository.
func (s *Sake) releaseRepo() (owner, repo string) {
	dev := s.Config.Deploy.Dev
	owner = firstOf(s.Options.Owner, dev.Owner, "skyverge")
	repo = firstOf(s.Options.Repo, dev.Name, s.Plugin.ID)
	return owner, repo
}

func (s *Sake) releaseTag() string {
	if s.Options.PrefixReleaseTag {
		return s.Plugin.ID + "-" + s.PluginVersion()
	}
	return s.PluginVersion()
}

// getReleaseIssue asks which open release issue the release closes. A
// failing lookup is logged and leaves no issue selected.
func (s *Sake) getReleaseIssue(ctx context.Context) error {
	client, err := s.githubClient()
	if err != nil {
		return err
	}
	dev := s.Config.Deploy.Dev
	labels := []string{"release"}
	if s.Config.MultiPluginRepo {
		labels = append(labels, s.Plugin.ShortID())
	}

	issues, err := client.OpenIssues(ctx, dev.Owner, dev.Name, labels...)
	if err != nil {
		s.Log.Error("Could not get release issue", zap.Error(err))
		return nil
	}
	if len(issues) == 0 {
		return nil
	}

	options := make([]prompt.Option, 0, len(issues)+1)
	for _, i := range issues {
		options = append(options, prompt.Option{
			Label: fmt.Sprintf("Close issue #%d: %s", i.Number, i.HTMLURL),
			Value: strconv.Itoa(i.Number),
		})
	}
	options = append(options, prompt.Option{Label: "None", Value: "none"})

	answer, err := s.Prompt.Select(ctx,
		"Release issues exist for "+s.Plugin.DisplayName(true)+". Select an issue this release should close.",
		options, 0)
	if err != nil {
		return err
	}
	if answer == "none" {
		s.Log.Warn("No issues will be closed for release of " + s.Plugin.DisplayName(true))
		return nil
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		return err
	}
	s.setReleaseIssue(n)
	return nil
}

func (s *Sake) docsIssueRequest() github.IssueRequest {
	body := s.Plugin.ChangesText()
	if n := s.releaseIssueToClose(); n > 0 {
		body += fmt.Sprintf("\r\n\r\nSee %s#%d", s.Config.Deploy.Dev.Slug(), n)
	}
	return github.IssueRequest{
		Owner:  docsOwner,
		Repo:   docsRepo,
		Title:  s.Plugin.DisplayName(true) + ": Updated to " + s.PluginVersion(),
		Body:   body,
		Labels: []string{s.Plugin.ShortID(), "docs", "sales"},
	}
}

func (s *Sake) createDocsIssue(ctx context.Context) error {
	message := "Should a Docs issue be created for " + s.Plugin.DisplayName(true) + "?"
	if s.Plugin.HasNewFeatures() {
		message += warning("\n\nThe changelog below contains new features and/or tweaks.\nA docs issue should always be created for releases with new features or user-facing changes.")
	}
	message += "\n\nChangelog: \n\n" + s.Plugin.ChangesText() + "\n"

	create, err := s.Prompt.Confirm(ctx, message, s.Plugin.HasNewFeatures())
	if err != nil {
		return err
	}
	if !create {
		s.Log.Warn("No docs issue was created for " + s.Plugin.DisplayName(true))
		return nil
	}

	req := s.docsIssueRequest()
	if s.Options.DryRun {
		s.Log.Info("[dry-run] would create docs issue", zap.String("repo", req.Owner+"/"+req.Repo), zap.String("title", req.Title))
		return nil
	}
	client, err := s.githubClient()
	if err != nil {
		return err
	}
	issue, err := client.CreateIssue(ctx, req)
	if err != nil {
		return err
	}
	s.Log.Info("Docs issue created!", zap.String("url", issue.HTMLURL))
	return nil
}

// createRelease publishes a GitHub release with the plugin zip attached,
// building the zip first when it is missing.
func (s *Sake) createRelease(ctx context.Context) error {
	client, err := s.githubClient()
	if err != nil {
		return err
	}
	zip, err := s.ensureZip(ctx)
	if err != nil {
		return err
	}

	owner, repo := s.releaseRepo()
	version := s.PluginVersion()
	req := github.ReleaseRequest{
		Owner: owner,
		Repo:  repo,
		Tag:   s.releaseTag(),
		Name:  s.Plugin.DisplayName(false) + " v" + version,
		Body:  s.Plugin.ChangesText(),
	}
	s.Log.Info(fmt.Sprintf("Creating GH release %s for %s/%s", version, owner, repo))
	if s.Options.DryRun {
		s.Log.Info("[dry-run] would create release "+req.Tag, zap.String("asset", filepath.Base(zip)))
		return nil
	}

	rel, err := client.CreateRelease(ctx, req)
	if err != nil {
		return err
	}
	s.setReleaseURL(rel.HTMLURL)
	s.Log.Info("GH release created", zap.String("url", rel.HTMLURL))

	f, err := s.Fs.Open(zip)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if err := client.UploadAsset(ctx, owner, repo, rel.ID, github.Asset{
		Name:        filepath.Base(zip),
		Size:        info.Size(),
		ContentType: "application/zip",
		Content:     f,
	}); err != nil {
		return err
	}
	s.Log.Info("Plugin zip uploaded")
	return nil
}

func (s *Sake) milestoneYear() int {
	if s.Options.Year > 0 {
		return s.Options.Year
	}
	return s.Now().Year()
}

func (s *Sake) createReleaseMilestones(ctx context.Context) error {
	return s.createMilestones(ctx, github.ReleaseMilestones(s.milestoneYear(), s.Now().Location()))
}

func (s *Sake) createMonthMilestones(ctx context.Context) error {
	return s.createMilestones(ctx, github.MonthMilestones(s.milestoneYear(), s.Now().Location()))
}

// createMilestones logs individual failures without failing the task.
func (s *Sake) createMilestones(ctx context.Context, milestones []github.Milestone) error {
	owner, repo := s.releaseRepo()
	if s.Options.DryRun {
		for _, m := range milestones {
			s.Log.Info("[dry-run] would create milestone "+m.Title, zap.String("repo", owner+"/"+repo))
		}
		return nil
	}
	client, err := s.githubClient()
	if err != nil {
		return err
	}

	created := 0
	for _, res := range client.CreateMilestones(ctx, owner, repo, milestones, nil) {
		if res.Err != nil {
			s.Log.Error("Failed to create milestone "+res.Milestone.Title, zap.Error(res.Err))
			continue
		}
		created++
	}
	s.Log.Info(success(fmt.Sprintf("Created %d of %d milestones", created, len(milestones))), zap.String("repo", owner+"/"+repo))
	return nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
