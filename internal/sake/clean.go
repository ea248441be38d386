package sake

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/config"
	"github.com/skyverge/sake/internal/fileset"
	"github.com/skyverge/sake/internal/model"
)

func (s *Sake) cleanDev(_ context.Context) error {
	rules, err := fileset.NewRules(fileset.Join(s.Config.Paths.Assets, "**/*.map"))
	if err != nil {
		return err
	}
	removed, err := fileset.Remove(s.Fs, s.Config.SrcDir(), rules)
	if err != nil {
		return err
	}
	s.Log.Debug("removed source maps", zap.Int("files", len(removed)))
	return nil
}

func (s *Sake) cleanBuild(_ context.Context) error {
	if err := fileset.Empty(s.Fs, s.Config.PluginBuildDir()); err != nil {
		return err
	}
	_, err := fileset.Remove(s.Fs, s.Config.BuildDir(), fileset.MustRules(s.Plugin.ID+"*.zip"))
	return err
}

func (s *Sake) cleanComposer(_ context.Context) error {
	if s.Config.Composer == nil {
		return nil
	}
	vendor := s.path(s.Config.Paths.Vendor)
	if s.Options.DryRun {
		s.Log.Info("[dry-run] would remove " + vendor)
		return nil
	}
	return s.Fs.RemoveAll(vendor)
}

func (s *Sake) cleanPrerelease(_ context.Context) error {
	dir, err := s.prereleasePath()
	if err != nil {
		return err
	}
	_, err = fileset.Remove(s.Fs, dir, fileset.MustRules(s.Plugin.ID+"*.zip", s.Plugin.ID+"*.txt"))
	return err
}

// cleanWPTrunk removes everything in trunk except svn metadata.
func (s *Sake) cleanWPTrunk(_ context.Context) error {
	client, err := s.svnClient()
	if err != nil {
		return err
	}
	trunk := client.Trunk()
	if s.svnDryRun("empty trunk") {
		return nil
	}
	entries, err := afero.ReadDir(s.Fs, trunk)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if err := s.Fs.RemoveAll(filepath.Join(trunk, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// prereleasePath returns SAKE_PRE_RELEASE_PATH after checking it exists.
func (s *Sake) prereleasePath() (string, error) {
	if err := config.ValidateEnv(s.Env, config.EnvPreReleasePath); err != nil {
		return "", err
	}
	dir := expandHome(s.Env[config.EnvPreReleasePath], s.Env)
	if ok, _ := afero.DirExists(s.Fs, dir); !ok {
		return "", model.NewCLIError(model.ExitEnvInvalid,
			model.BulletList("Environment variables missing or invalid: ", []string{config.EnvPreReleasePath + " (" + dir + ") does not exist"}))
	}
	return dir, nil
}
