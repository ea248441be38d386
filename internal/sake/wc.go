package sake

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/config"
	"github.com/skyverge/sake/internal/model"
	"github.com/skyverge/sake/internal/wccom"
)

func (s *Sake) wcClient() (*wccom.Client, error) {
	if err := config.ValidateEnv(s.Env, config.EnvWCUsername, config.EnvWCApplicationPassword); err != nil {
		return nil, err
	}
	if s.Config.Deploy.WooID == 0 {
		return nil, model.NewCLIError(model.ExitConfigError, "deploy.wooId is not configured")
	}
	c := wccom.NewClient(s.Env[config.EnvWCUsername], s.Env[config.EnvWCApplicationPassword], s.Log)
	if s.Endpoints.WooCommerce != "" {
		c.BaseURL = s.Endpoints.WooCommerce
	}
	return c, nil
}

func (s *Sake) wcValidate(ctx context.Context) error {
	c, err := s.wcClient()
	if err != nil {
		return err
	}
	return c.Validate(ctx, s.Config.Deploy.WooID, s.PluginVersion())
}

func (s *Sake) wcUpload(ctx context.Context) error {
	c, err := s.wcClient()
	if err != nil {
		return err
	}
	zip, err := s.ensureZip(ctx)
	if err != nil {
		return err
	}
	if s.Options.DryRun {
		s.Log.Info("[dry-run] would upload "+filepath.Base(zip)+" to WooCommerce.com", zap.Int("product", s.Config.Deploy.WooID))
		return nil
	}

	f, err := s.Fs.Open(zip)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := c.Upload(ctx, s.Config.Deploy.WooID, s.PluginVersion(), filepath.Base(zip), f); err != nil {
		return err
	}
	s.Log.Info("Plugin zip uploaded to WooCommerce.com")
	return nil
}

func (s *Sake) wcStatus(ctx context.Context) error {
	c, err := s.wcClient()
	if err != nil {
		return err
	}
	if s.Options.DryRun {
		s.Log.Info("[dry-run] would wait for the WooCommerce.com submission", zap.Int("product", s.Config.Deploy.WooID))
		return nil
	}
	st, err := c.WaitForResult(ctx, s.Config.Deploy.WooID)
	if err != nil {
		return err
	}
	s.Log.Info(success("WooCommerce.com accepted version "+st.Version), zap.String("status", st.Status))
	return nil
}
