package sake

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/archive"
	"github.com/skyverge/sake/internal/model"
	"github.com/skyverge/sake/internal/plugin"
)

// buildSteps are the tasks build runs, in order.
func (s *Sake) buildSteps() []string {
	if s.Options.SkipComposer {
		return []string{"clean:build", "compile", "bundle", "copy:build"}
	}
	return []string{"clean:build", "shell:composer_status", "clean:composer", "shell:composer_install", "compile", "bundle", "copy:build"}
}

func (s *Sake) build(ctx context.Context) error {
	return s.tasks.Series(s.buildSteps()...)(ctx)
}

// compress zips the build into <zip dest>/<id>.<version>.zip.
func (s *Sake) compress(_ context.Context) error {
	dest := s.zipFile()
	entries, err := archive.Zip(s.Fs, archive.Options{
		BuildDir: s.Config.BuildDir(),
		PluginID: s.Plugin.ID,
		Dest:     dest,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.zipPath = dest
	s.mu.Unlock()

	s.Log.Info("Created "+filepath.Base(dest), zap.Int("files", len(entries)), zap.String("path", dest))
	return nil
}

// ensureZip builds the zip unless compress already wrote it.
func (s *Sake) ensureZip(ctx context.Context) (string, error) {
	zip := s.zipFile()
	if ok, _ := afero.Exists(s.Fs, zip); ok {
		return zip, nil
	}
	if err := s.tasks.Run(ctx, "zip"); err != nil {
		return "", err
	}
	return s.zipFile(), nil
}

// ensureDeployable fails with the changelog problems that block a release.
func (s *Sake) ensureDeployable(_ context.Context) error {
	if err := s.Plugin.DeployErrors(); err != nil {
		return model.NewCLIError(model.ExitNotDeployable,
			model.BulletList("Plugin is not deployable: ", plugin.ErrorMessages(err)))
	}
	return nil
}

func (s *Sake) prerelease(ctx context.Context) error {
	if _, err := s.prereleasePath(); err != nil {
		return err
	}
	if err := s.ensureDeployable(ctx); err != nil {
		return err
	}
	return s.tasks.Series("bump", "zip", "clean:prerelease", "copy:prerelease", "clean:build")(ctx)
}

func (s *Sake) validateReadmeHeaders(_ context.Context) error {
	readme := filepath.Join(s.Config.SrcDir(), "readme.txt")
	data, err := afero.ReadFile(s.Fs, readme)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "Failed to read readme.txt", err)
	}

	required := plugin.RequiredReadmeHeaders(s.Config.Deploy.Type)
	var problems []string
	for _, h := range required {
		s.Log.Debug("Validating readme.txt header " + h)
	}
	for _, e := range plugin.ValidateReadmeHeaders(string(data), required) {
		problems = append(problems, e.Message)
	}
	if len(problems) > 0 {
		return model.NewCLIError(model.ExitGeneralError, model.BulletList("Invalid readme.txt:", problems))
	}
	return nil
}
