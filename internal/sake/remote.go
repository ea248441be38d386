package sake

import (
	"context"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/config"
	"github.com/skyverge/sake/internal/glotpress"
	"github.com/skyverge/sake/internal/model"
	"github.com/skyverge/sake/internal/trello"
)

// getPomo downloads the po and mo exports of every locale of the
// configured GlotPress project into the languages dir.
func (s *Sake) getPomo(ctx context.Context) error {
	tr := s.Config.Translations
	if tr.GlotPress == "" || tr.Project == "" {
		return model.NewCLIError(model.ExitConfigError, "translations.glotpress and translations.project must be configured")
	}

	dir := filepath.Join(s.Config.SrcDir(), filepath.FromSlash(s.Config.Tasks.Makepot.DomainPath))
	client := glotpress.NewClient(tr.GlotPress, s.Log)
	s.Log.Info("Fetching translations from " + client.ProjectURL(tr.Project))

	if s.Options.DryRun {
		locales, err := client.Locales(ctx, tr.Project)
		if err != nil {
			return err
		}
		s.Log.Info("[dry-run] would download translations", zap.Int("locales", len(locales)), zap.String("dir", dir))
		return nil
	}

	written, err := client.Download(ctx, s.Fs, tr.Project, s.Plugin.ID, dir)
	if err != nil {
		return err
	}
	s.Log.Info("Downloaded translations", zap.Int("files", len(written)))
	return nil
}

// updateTrelloCard moves the plugin's card to the deploy list and links
// the release.
func (s *Sake) updateTrelloCard(ctx context.Context) error {
	if s.Config.Deploy.Type != model.DeployWooCommerce {
		return model.NewCLIError(model.ExitConfigError, "Invalid deploy type for plugin: "+s.Config.Deploy.Type.String())
	}
	if s.Config.TrelloBoard == "" {
		return model.NewCLIError(model.ExitConfigError, "No Trello board configured")
	}
	if err := config.ValidateEnv(s.Env, config.EnvTrelloAPIKey, config.EnvTrelloAPIToken); err != nil {
		return err
	}

	releaseURL := s.currentReleaseURL()
	if releaseURL == "" {
		dev := s.Config.Deploy.Dev
		releaseURL = "https://github.com/" + path.Join(dev.Owner, dev.Name, "releases/tag", s.releaseTag())
	}
	if s.Options.DryRun {
		s.Log.Info("[dry-run] would move the Trello card for "+s.Plugin.ID+" to "+trello.DeployListName, zap.String("release", releaseURL))
		return nil
	}

	client := trello.NewClient(s.Env[config.EnvTrelloAPIKey], s.Env[config.EnvTrelloAPIToken], s.Log)
	if s.Endpoints.Trello != "" {
		client.BaseURL = s.Endpoints.Trello
	}
	card, err := client.UpdateDeployCard(ctx, s.Config.TrelloBoard, s.Plugin.ID, releaseURL)
	if err != nil {
		return err
	}
	s.Log.Info("Moved Trello card "+highlight(card.Name)+" to "+trello.DeployListName)
	return nil
}
