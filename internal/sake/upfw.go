package sake

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/composer"
	"github.com/skyverge/sake/internal/model"
)

// updateFramework updates the vendored framework, rewrites the plugin for
// the new version and commits the result.
func (s *Sake) updateFramework(ctx context.Context) error {
	var before []string
	switch s.Config.Framework {
	case model.FrameworkV5:
		if s.Options.SkipComposerUpdate {
			s.Options.FrameworkVersion = s.Plugin.FrameworkVersion
		} else {
			if s.Options.FrameworkVersion == "" {
				return model.NewCLIError(model.ExitGeneralError, "Framework version not specified")
			}
			if err := s.setFrameworkRequire(); err != nil {
				return err
			}
			before = append(before, "shell:composer_update")
		}
		before = append(before, "bump:framework_version")
	case model.FrameworkV4:
		before = append(before, "shell:update_framework")
	default:
		return model.NewCLIError(model.ExitConfigError, "Not a frameworked plugin, aborting")
	}

	if err := s.tasks.Series(before...)(ctx); err != nil {
		return err
	}
	if err := s.reloadPlugin(); err != nil {
		return err
	}
	s.Log.Info("Framework version is now "+highlight(s.Plugin.FrameworkVersion), zap.String("plugin", s.Plugin.ID))
	return s.tasks.Series("bump:minreqs", "shell:update_framework_commit")(ctx)
}

// setFrameworkRequire points composer.json at the requested framework
// version, leaving the rest of the file untouched.
func (s *Sake) setFrameworkRequire() error {
	p := filepath.Join(s.Config.WorkDir, "composer.json")
	raw, err := afero.ReadFile(s.Fs, p)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "Failed to read composer.json", err)
	}
	out, err := composer.SetRequire(raw, composer.FrameworkPackage, s.Options.FrameworkVersion)
	if err != nil {
		return err
	}
	if s.Options.DryRun {
		s.Log.Info("[dry-run] would require " + composer.FrameworkPackage + " " + s.Options.FrameworkVersion)
		return nil
	}
	return afero.WriteFile(s.Fs, p, out, 0644)
}
