package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/skyverge/sake/internal/model"
)

// Environment variables read by sake.
const (
	EnvGitHubAPIKey          = "GITHUB_API_KEY"
	EnvGitHubUsername        = "GITHUB_USERNAME"
	EnvWCUsername            = "WC_USERNAME"
	EnvWCApplicationPassword = "WC_APPLICATION_PASSWORD"
	EnvWPSVNUser             = "WP_SVN_USER"
	EnvPreReleasePath        = "SAKE_PRE_RELEASE_PATH"
	EnvDeployDev             = "DEPLOY_DEV"
	EnvDeployProduction      = "DEPLOY_PRODUCTION"
	EnvTrelloAPIKey          = "TRELLO_API_KEY"
	EnvTrelloAPIToken        = "TRELLO_API_TOKEN"
)

// LoadDotEnv reads dir/.env. A missing file yields an empty map.
func LoadDotEnv(fsys afero.Fs, dir string) (map[string]string, error) {
	f, err := fsys.Open(filepath.Join(dir, ".env"))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid .env file", err)
	}
	return vars, nil
}

// Overload applies vars to the process environment and env, replacing
// values that are already set.
func Overload(vars map[string]string, env map[string]string) error {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := os.Setenv(k, vars[k]); err != nil {
			return err
		}
		if env != nil {
			env[k] = vars[k]
		}
	}
	return nil
}

// ValidateEnv reports every name that is unset or empty in env, in one
// error with exit code ExitEnvInvalid.
func ValidateEnv(env map[string]string, names ...string) error {
	var errs error
	for _, name := range names {
		if env[name] == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s not set", name))
		}
	}
	if errs == nil {
		return nil
	}

	var items []string
	for _, e := range multierr.Errors(errs) {
		items = append(items, e.Error())
	}
	return model.NewCLIError(model.ExitEnvInvalid, model.BulletList("Environment variables missing or invalid: ", items))
}
