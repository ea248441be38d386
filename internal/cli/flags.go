package cli

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/skyverge/sake/internal/sake"
)

// taskFlags holds the task options bound to flags of the root command.
type taskFlags struct {
	opts sake.Options
}

// register binds every task option to fs. Options are spelled with
// hyphens; underscore spellings (--framework_version) are accepted too.
func (f *taskFlags) register(fs *pflag.FlagSet) {
	o := &f.opts
	fs.SetNormalizeFunc(normalizeFlagName)

	// run modes
	fs.BoolVar(&o.DryRun, "dry-run", false, "Log commands, uploads and file rewrites instead of performing them")
	fs.BoolVar(&o.NonInteractive, "non-interactive", false, "Answer every prompt with its default")

	// deploy
	fs.StringVar(&o.NewVersion, "new-version", "", "Version to deploy: prerelease, patch, minor, major or an explicit version")
	fs.BoolVar(&o.Release, "release", false, "Create a GitHub release even when deploy.githubRelease is off")
	fs.BoolVar(&o.WithoutCodeChanges, "without-code-changes", false, "Deploy readme.txt and assets only (WordPress.org)")

	// build
	fs.BoolVar(&o.SkipLinting, "skip-linting", false, "Skip lint tasks")
	fs.BoolVar(&o.SkipPot, "skip-pot", false, "Skip generating the translation catalog")
	fs.BoolVar(&o.SkipComposer, "skip-composer", false, "Skip composer install during build")
	fs.BoolVar(&o.SkipComposerUpdate, "skip-composer-update", false, "Update the framework without running composer update")
	fs.BoolVar(&o.Minify, "minify", true, "Minify compiled scripts and styles")
	fs.StringVar(&o.ZipDest, "zip-dest", "", "Directory the plugin zip is written to (default: the build dir)")

	// lint
	fs.BoolVar(&o.Fix, "fix", false, "Let linters fix what they can")
	fs.BoolVar(&o.LintErrorsFail, "lint-errors-fail", false, "Fail when linters report errors")
	fs.BoolVar(&o.ShowFiles, "show-files", false, "Log every linted file")
	fs.StringVar(&o.CoffeelintFile, "coffeelint-file", "", "coffeelint config file")
	fs.StringVar(&o.EslintConfigFile, "eslint-config-file", "", "ESLint config file")

	// config task
	fs.StringVar(&o.Property, "property", "", "Print a single config value, e.g. deploy.production.url")
	fs.StringVar(&o.Format, "format", "json", "Config output format: json or yaml")

	// github
	fs.StringVar(&o.Owner, "owner", "", "GitHub owner for releases and milestones")
	fs.StringVar(&o.Repo, "repo", "", "GitHub repository for releases and milestones")
	fs.BoolVar(&o.PrefixReleaseTag, "prefix-release-tag", false, "Prefix release tags with the plugin id")
	fs.IntVar(&o.Year, "year", 0, "Milestone year (default: the current year)")

	// framework and requirements
	fs.StringVar(&o.Branch, "branch", "", "Framework branch pulled on v4 plugins (default: legacy-v4)")
	fs.StringVar(&o.FrameworkVersion, "framework-version", "", "Framework version for upfw and bump")
	fs.StringVar(&o.MinimumPHPVersion, "minimum-php-version", "", "Minimum PHP version")
	fs.StringVar(&o.MinimumWPVersion, "minimum-wp-version", "", "Minimum WordPress version")
	fs.StringVar(&o.TestedUpToWPVersion, "tested-up-to-wp-version", "", "WordPress version tested up to")
	fs.StringVar(&o.MinimumWCVersion, "minimum-wc-version", "", "Minimum WooCommerce version")
	fs.StringVar(&o.TestedUpToWCVersion, "tested-up-to-wc-version", "", "WooCommerce version tested up to")
	fs.StringVar(&o.BackwardsCompatible, "backwards-compatible", "", "Backwards compatible framework version (v4)")
}

func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}
