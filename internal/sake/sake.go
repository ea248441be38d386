// Package sake defines every task of the sake CLI and the context they
// share: the loaded configuration, the plugin metadata, the filesystem, the
// command runner and the prompter.
//
// Tasks are registered on a task.Registry by Register. Each task is a
// method on Sake so it can read and update per-run state, such as the
// version chosen during a deploy or the URL of the GitHub release.
package sake

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/config"
	"github.com/skyverge/sake/internal/git"
	"github.com/skyverge/sake/internal/plugin"
	"github.com/skyverge/sake/internal/prompt"
	"github.com/skyverge/sake/internal/replace"
	"github.com/skyverge/sake/internal/shell"
	"github.com/skyverge/sake/internal/task"
)

// Options are the command line options tasks read.
type Options struct {
	// DryRun logs commands, remote calls and source rewrites instead of
	// performing them. The build directory is still written.
	DryRun bool

	// NonInteractive answers every prompt with its default.
	NonInteractive bool

	// NewVersion is an increment keyword or an explicit version for deploys.
	NewVersion string

	// Release forces a GitHub release during deploy.
	Release bool

	// WithoutCodeChanges deploys readme and assets only.
	WithoutCodeChanges bool

	SkipLinting        bool
	SkipPot            bool
	SkipComposer       bool
	SkipComposerUpdate bool

	Fix            bool
	LintErrorsFail bool
	ShowFiles      bool

	// Minify compresses compiled scripts and styles.
	Minify bool

	CoffeelintFile   string
	EslintConfigFile string

	// ZipDest overrides the directory the plugin zip is written to.
	ZipDest string

	// Property and Format shape the config task output.
	Property string
	Format   string

	// Owner, Repo and PrefixReleaseTag shape GitHub releases and milestones.
	Owner            string
	Repo             string
	PrefixReleaseTag bool

	// Year selects the milestone year. Zero means the current year.
	Year int

	// Branch is the framework branch pulled by upfw on v4 plugins.
	Branch string

	FrameworkVersion    string
	MinimumPHPVersion   string
	MinimumWPVersion    string
	TestedUpToWPVersion string
	MinimumWCVersion    string
	TestedUpToWCVersion string
	BackwardsCompatible string
}

// Endpoints override the remote API hosts.
type Endpoints struct {
	GitHub      string
	WooCommerce string
	Trello      string
}

// Params carries the dependencies of New.
type Params struct {
	Config  *config.Config
	Plugin  *plugin.Plugin
	Options Options
	Env     map[string]string

	Fs     afero.Fs
	Runner shell.Runner
	Prompt prompt.Prompter
	Log    *zap.Logger

	// Out receives task output meant for stdout (config, tasks).
	Out io.Writer

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	Endpoints Endpoints
}

// Sake is the shared task context.
type Sake struct {
	Config  *config.Config
	Plugin  *plugin.Plugin
	Options Options
	Env     map[string]string

	Fs     afero.Fs
	Runner shell.Runner
	Git    *git.Manager
	Prompt prompt.Prompter
	Log    *zap.Logger
	Out    io.Writer
	Now    func() time.Time

	Endpoints Endpoints

	tasks *task.Registry

	mu           sync.Mutex
	newVersion   string
	releaseIssue int
	releaseURL   string
	zipPath      string
}

// New builds the task context and registers every task.
func New(p Params) *Sake {
	if p.Fs == nil {
		p.Fs = afero.NewOsFs()
	}
	if p.Log == nil {
		p.Log = zap.NewNop()
	}
	if p.Out == nil {
		p.Out = os.Stdout
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Prompt == nil {
		p.Prompt = prompt.Defaults{}
	}
	if p.Env == nil {
		p.Env = config.Environ()
	}
	if p.Runner == nil {
		p.Runner = shell.NewExecRunner(p.Log)
	}

	s := &Sake{
		Config:    p.Config,
		Plugin:    p.Plugin,
		Options:   p.Options,
		Env:       p.Env,
		Fs:        p.Fs,
		Runner:    p.Runner,
		Git:       git.NewManager(p.Runner),
		Prompt:    p.Prompt,
		Log:       p.Log,
		Out:       p.Out,
		Now:       p.Now,
		Endpoints: p.Endpoints,
		tasks:     task.NewRegistry(p.Log),
	}
	s.register()
	return s
}

// Tasks returns the task registry.
func (s *Sake) Tasks() *task.Registry {
	return s.tasks
}

// PluginVersion returns the version being released: the version chosen
// during a deploy, or the changelog version.
func (s *Sake) PluginVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.newVersion != "" {
		return s.newVersion
	}
	return s.Plugin.Version.Current
}

func (s *Sake) setNewVersion(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newVersion = v
	s.zipPath = ""
}

func (s *Sake) setReleaseIssue(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseIssue = n
}

func (s *Sake) releaseIssueToClose() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseIssue
}

func (s *Sake) setReleaseURL(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseURL = u
}

func (s *Sake) currentReleaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseURL
}

// path resolves a path from the config against the working directory.
func (s *Sake) path(p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Config.WorkDir, p)
}

// srcRel returns p, a config path relative to the working directory,
// relative to the source directory. ok is false when p lies outside src.
func (s *Sake) srcRel(p string) (string, bool) {
	rel, err := filepath.Rel(s.Config.SrcDir(), s.path(p))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// mainFile returns the absolute path of the main plugin file.
func (s *Sake) mainFile() string {
	return filepath.Join(s.Config.SrcDir(), s.Plugin.MainFile)
}

// zipFile returns where compress writes the plugin zip.
func (s *Sake) zipFile() string {
	s.mu.Lock()
	p := s.zipPath
	s.mu.Unlock()
	if p != "" {
		return p
	}
	dest := s.Config.BuildDir()
	if s.Options.ZipDest != "" {
		dest = s.path(expandHome(s.Options.ZipDest, s.Env))
	}
	return filepath.Join(dest, s.Plugin.ZipName(s.PluginVersion()))
}

// writeFiles applies rules to paths, writing them unless this is a dry
// run, and logs what changed.
func (s *Sake) writeFiles(paths []string, rules []replace.Rule) error {
	results, err := replace.Files(s.Fs, paths, rules, !s.Options.DryRun)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Changes == 0 {
			continue
		}
		rel, _ := filepath.Rel(s.Config.WorkDir, r.Path)
		if s.Options.DryRun {
			s.Log.Info("[dry-run] would update "+rel, zap.Int("changes", r.Changes))
		} else {
			s.Log.Info("Updated "+rel, zap.Int("changes", r.Changes))
		}
	}
	return nil
}

// expandHome resolves a leading "~" against HOME.
func expandHome(p string, env map[string]string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home := env["HOME"]
		if home == "" {
			home, _ = os.UserHomeDir()
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}
