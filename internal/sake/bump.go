package sake

import (
	"context"
	"path/filepath"

	"github.com/skyverge/sake/internal/config"
	"github.com/skyverge/sake/internal/model"
	"github.com/skyverge/sake/internal/plugin"
	"github.com/skyverge/sake/internal/replace"
)

// bump writes the plugin version into the main file, and the v5 Plugin
// class.
func (s *Sake) bump(_ context.Context) error {
	files := []string{s.mainFile()}
	if s.Config.Framework == model.FrameworkV5 {
		files = append(files, filepath.Join(s.Config.SrcDir(), "includes", "Plugin.php"))
	}
	return s.writeFiles(files, replace.PluginVersion(s.PluginVersion()))
}

// requirements collects the requirement flags, with integer versions
// written as N.0.
func (s *Sake) requirements() replace.Requirements {
	o := s.Options
	req := replace.Requirements{
		MinimumPHPVersion:   o.MinimumPHPVersion,
		MinimumWPVersion:    plugin.NormalizeRequirement(o.MinimumWPVersion),
		TestedUpToWPVersion: plugin.NormalizeRequirement(o.TestedUpToWPVersion),
		MinimumWCVersion:    plugin.NormalizeRequirement(o.MinimumWCVersion),
		TestedUpToWCVersion: plugin.NormalizeRequirement(o.TestedUpToWCVersion),
		FrameworkVersion:    plugin.NormalizeRequirement(o.FrameworkVersion),
		FrameworkV4:         s.Config.Framework == model.FrameworkV4,
	}
	if req.FrameworkV4 {
		req.BackwardsCompatible = plugin.NormalizeRequirement(o.BackwardsCompatible)
	}
	return req
}

func (s *Sake) bumpMinReqs(_ context.Context) error {
	req := s.requirements()
	values := req
	values.FrameworkV4 = false
	if values.IsZero() {
		s.Log.Info("No minimum requirements to update")
		return nil
	}
	files := []string{s.mainFile(), filepath.Join(s.Config.SrcDir(), "readme.txt")}
	return s.writeFiles(files, replace.MinimumRequirements(req))
}

func (s *Sake) bumpFrameworkVersion(_ context.Context) error {
	v := plugin.NormalizeRequirement(s.Options.FrameworkVersion)
	if v == "" {
		return nil
	}
	files, err := s.phpFiles(true)
	if err != nil {
		return err
	}
	for i, f := range files {
		files[i] = filepath.Join(s.Config.SrcDir(), filepath.FromSlash(f))
	}
	return s.writeFiles(files, replace.FrameworkNamespace(v))
}

// reloadPlugin rereads the plugin metadata after files were rewritten.
func (s *Sake) reloadPlugin() error {
	p, err := plugin.Load(s.Fs, LoadOptions(s.Config, false))
	if err != nil {
		return err
	}
	s.Plugin = p
	return nil
}

// LoadOptions derives the plugin.LoadOptions for cfg.
func LoadOptions(cfg *config.Config, allowMissingMainFile bool) plugin.LoadOptions {
	return plugin.LoadOptions{
		SrcDir:                   cfg.SrcDir(),
		ID:                       cfg.Plugin.ID,
		WorkDir:                  cfg.WorkDir,
		Framework:                cfg.Framework,
		FrameworkBase:            filepath.FromSlash(cfg.Paths.Framework.Base),
		RequiredFrameworkVersion: cfg.Composer.RequiredFrameworkVersion(),
		AllowMissingMainFile:     allowMissingMainFile,
	}
}
