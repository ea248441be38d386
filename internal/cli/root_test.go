package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyverge/sake/internal/model"
	"github.com/skyverge/sake/internal/prompt"
	"github.com/skyverge/sake/internal/shell"
)

const workDir = "/repos/woocommerce-foo"

// testApp is a plugin checkout on an in-memory filesystem.
type testApp struct {
	*app
	rec    *shell.Recorder
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newTestApp(t *testing.T, files map[string]string, env map[string]string) *testApp {
	t.Helper()

	defaults := map[string]string{
		"woocommerce-foo.php": "<?php\n/**\n * Plugin Name: WooCommerce Foo\n * Version: 1.2.0-dev.1\n */\n",
		"changelog.txt":       "*** WooCommerce Foo Changelog ***\n\n2024.nn.nn - version 1.2.0-dev.1\n * Fix - Prevent a notice\n",
		"sake.config.json":    `{"framework": false}`,
	}
	for k, v := range files {
		defaults[k] = v
	}

	fsys := afero.NewMemMapFs()
	for name, content := range defaults {
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(workDir, name), []byte(content), 0644))
	}
	if env == nil {
		env = map[string]string{}
	}

	ta := &testApp{rec: shell.NewRecorder(), out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	ta.app = &app{
		fs:       fsys,
		workDir:  func() (string, error) { return workDir, nil },
		env:      func() map[string]string { return env },
		stdout:   ta.out,
		stderr:   ta.errOut,
		runner:   ta.rec,
		prompter: &prompt.Scripted{},
	}
	return ta
}

func (ta *testApp) run(args ...string) error {
	cmd := newRootCommand(ta.app)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func requireExitCode(t *testing.T, err error, code model.ExitCode) *model.CLIError {
	t.Helper()
	require.Error(t, err)
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr), "expected a CLIError, got %v", err)
	assert.Equal(t, code, cliErr.Code)
	return cliErr
}

func TestRun_ConfigProperty(t *testing.T) {
	ta := newTestApp(t, nil, nil)

	require.NoError(t, ta.run("config", "--property", "deploy.dev.url", "--quiet"))
	assert.Equal(t, "git@github.com:skyverge/woocommerce-foo\n", ta.out.String())
	assert.Empty(t, ta.errOut.String())
}

func TestRun_DotEnvOverridesEnvironment(t *testing.T) {
	t.Setenv("DEPLOY_DEV", "")
	ta := newTestApp(t,
		map[string]string{".env": "DEPLOY_DEV=acme/foo\n"},
		map[string]string{"DEPLOY_DEV": "skyverge/other"},
	)

	require.NoError(t, ta.run("config", "--property", "deploy.dev.url"))
	assert.Equal(t, "git@github.com:acme/foo\n", ta.out.String())
	assert.Contains(t, ta.errOut.String(), "Loading ENV variables from .env file")
}

func TestTaskFlags_UnderscoreSpelling(t *testing.T) {
	f := &taskFlags{}
	fs := pflag.NewFlagSet("sake", pflag.ContinueOnError)
	f.register(fs)

	require.NoError(t, fs.Parse([]string{"--minimum_wc_version", "9.1", "--framework-version=5.12.0", "--skip_pot"}))
	assert.Equal(t, "9.1", f.opts.MinimumWCVersion)
	assert.Equal(t, "5.12.0", f.opts.FrameworkVersion)
	assert.True(t, f.opts.SkipPot)
	assert.True(t, f.opts.Minify)
	assert.Equal(t, "json", f.opts.Format)
}

func TestRun_DefaultTask(t *testing.T) {
	ta := newTestApp(t, map[string]string{"assets/js/admin.js": "var a = 1;"}, nil)

	require.NoError(t, ta.run("--skip-linting", "--skip-pot"))
	assert.Equal(t, []string{
		"esbuild admin.js --outdir=. --outbase=. --out-extension:.js=.min.js --sourcemap --log-level=warning --minify",
	}, ta.rec.Lines())
}

func TestRun_DryRunSkipsMutatingCommands(t *testing.T) {
	ta := newTestApp(t, map[string]string{"assets/js/admin.js": "var a = 1;"}, nil)

	require.NoError(t, ta.run("compile:js", "--dry-run", "--minify=false"))
	assert.Empty(t, ta.rec.Lines())
	assert.Contains(t, ta.errOut.String(), "[dry-run] would run")
}

func TestRun_UnknownTask(t *testing.T) {
	ta := newTestApp(t, nil, nil)

	err := ta.run("build", "nope")
	requireExitCode(t, err, model.ExitUnknownTask)
	assert.Empty(t, ta.rec.Lines())
}

func TestRun_NotAPluginDirectory(t *testing.T) {
	ta := newTestApp(t, nil, nil)
	require.NoError(t, ta.fs.Remove(filepath.Join(workDir, "woocommerce-foo.php")))

	err := ta.run("build")
	requireExitCode(t, err, model.ExitNotPluginDir)
}

func TestRun_RepoLevelTasksInMultiPluginRepo(t *testing.T) {
	ta := newTestApp(t, map[string]string{"sake.config.json": `{"framework": false, "multiPluginRepo": true}`}, nil)
	require.NoError(t, ta.fs.Remove(filepath.Join(workDir, "woocommerce-foo.php")))

	require.NoError(t, ta.run("tasks"))
	assert.Contains(t, ta.out.String(), "deploy")
}

func TestRepoLevel(t *testing.T) {
	assert.True(t, repoLevel([]string{"config", "tasks"}))
	assert.False(t, repoLevel([]string{"config", "build"}))
}

func TestNormalizeFlagName(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	assert.Equal(t, pflag.NormalizedName("framework-version"), normalizeFlagName(fs, "framework_version"))
	assert.Equal(t, pflag.NormalizedName("dry-run"), normalizeFlagName(fs, "dry-run"))
}

func TestHandleError(t *testing.T) {
	t.Cleanup(func() { jsonOutput = false })

	tests := []struct {
		name     string
		json     bool
		err      error
		wantCode model.ExitCode
		wantOut  string
	}{
		{
			name:     "cli error",
			err:      model.NewCLIError(model.ExitNotDeployable, "Plugin is not deployable"),
			wantCode: model.ExitNotDeployable,
			wantOut:  "Error: Plugin is not deployable\n",
		},
		{
			name:     "wrapped cli error",
			err:      model.WrapCLIError(model.ExitRemoteError, "WC API request failed", errors.New("timeout")),
			wantCode: model.ExitRemoteError,
			wantOut:  "Error: WC API request failed: timeout\n",
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			wantCode: model.ExitGeneralError,
			wantOut:  "Error: boom\n",
		},
		{
			name:     "json",
			json:     true,
			err:      model.WrapCLIError(model.ExitConfigError, "invalid config file", errors.New("bad")),
			wantCode: model.ExitConfigError,
			wantOut:  "{\n  \"error\": {\n    \"detail\": \"bad\",\n    \"message\": \"invalid config file\"\n  }\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jsonOutput = tt.json
			var buf bytes.Buffer
			assert.Equal(t, tt.wantCode, handleError(&buf, tt.err))
			assert.Equal(t, tt.wantOut, buf.String())
		})
	}
}
