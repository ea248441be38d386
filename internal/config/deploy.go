package config

import (
	"path/filepath"
	"strings"

	"github.com/skyverge/sake/internal/git"
	"github.com/skyverge/sake/internal/model"
)

// Deploy configures releases. The raw repo inputs from the config file are
// resolved into Dev and Production once the config is loaded.
type Deploy struct {
	Type model.DeployType `mapstructure:"type" json:"type" yaml:"type"`

	DevInput        string `mapstructure:"dev" json:"-" yaml:"-"`
	ProductionInput string `mapstructure:"production" json:"-" yaml:"-"`
	RepoInput       string `mapstructure:"repo" json:"-" yaml:"-"`

	// WooID is the WooCommerce.com product id.
	WooID int `mapstructure:"wooId" json:"wooId,omitempty" yaml:"wooId,omitempty"`

	// GitHubRelease creates a GitHub release as part of every deploy.
	GitHubRelease bool `mapstructure:"githubRelease" json:"githubRelease" yaml:"githubRelease"`

	// Dev is the development repository.
	Dev model.Repo `mapstructure:"-" json:"dev" yaml:"dev"`

	// Production is the store repository, nil when store deploys are off.
	Production *model.Repo `mapstructure:"-" json:"production,omitempty" yaml:"production,omitempty"`
}

// resolveDeploy determines the dev and production repositories.
//
// Dev: DEPLOY_DEV, deploy.dev, the origin remote, then the plugin id.
// Production, only with a deploy type: DEPLOY_PRODUCTION,
// deploy.production, deploy.repo, then the plugin id.
func (c *Config) resolveDeploy(opts Options) {
	devInput := firstNonEmpty(opts.Env["DEPLOY_DEV"], c.Deploy.DevInput)
	if devInput == "" && opts.RemoteURL != nil {
		dir := c.WorkDir
		if c.MultiPluginRepo {
			dir = filepath.Dir(dir)
		}
		devInput = opts.RemoteURL(dir)
	}
	if devInput == "" {
		devInput = c.Plugin.ID
	}
	c.Deploy.Dev = ParseRepo(devInput, false, c.Deploy.Type, opts.Env)

	if c.Deploy.Type == model.DeployNone {
		c.Deploy.Production = nil
		return
	}
	prodInput := firstNonEmpty(opts.Env["DEPLOY_PRODUCTION"], c.Deploy.ProductionInput, c.Deploy.RepoInput, c.Plugin.ID)
	prod := ParseRepo(prodInput, true, c.Deploy.Type, opts.Env)
	c.Deploy.Production = &prod

	if c.Deploy.Type == model.DeployWordPress && c.Paths.WPAssets == "" {
		c.Paths.WPAssets = "wp-assets"
	}
}

// ParseRepo expands a repository reference into a Repo.
//
//   - anything mentioning github is parsed as a GitHub URL
//   - production wp repos are WordPress.org SVN urls or plugin slugs
//   - "owner/name" is a GitHub repository
//   - a bare name belongs to woocommerce (production) or skyverge (dev)
func ParseRepo(input string, production bool, deployType model.DeployType, env map[string]string) model.Repo {
	input = strings.TrimSpace(input)

	switch {
	case strings.Contains(input, "github"):
		owner, name, _ := git.ParseGitHubURL(input)
		return model.Repo{URL: input, Owner: owner, Name: name}

	case production && deployType == model.DeployWordPress:
		repo := model.Repo{
			URL:  "http://plugins.svn.wordpress.org/" + input,
			Name: input,
			User: firstNonEmpty(env["WP_SVN_USER"], "SkyVerge"),
		}
		if strings.Contains(input, "://") {
			trimmed := strings.TrimSuffix(input, "/")
			repo.URL = input
			repo.Name = trimmed[strings.LastIndex(trimmed, "/")+1:]
		}
		return repo

	case strings.Contains(input, "/"):
		owner, name, _ := git.ParseGitHubURL(input)
		return model.Repo{URL: "git@github.com:" + input, Owner: owner, Name: name}

	default:
		owner := "skyverge"
		if production {
			owner = "woocommerce"
		}
		return model.Repo{URL: "git@github.com:" + owner + "/" + input, Owner: owner, Name: input}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// OriginURL returns the origin remote of the repository holding dir, or
// an empty string. It is the RemoteURL used outside tests.
func OriginURL(dir string) string {
	u, err := git.RemoteURL(dir, "origin")
	if err != nil {
		return ""
	}
	return u
}
