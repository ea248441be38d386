package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/config"
	"github.com/skyverge/sake/internal/logging"
	"github.com/skyverge/sake/internal/model"
	"github.com/skyverge/sake/internal/plugin"
	"github.com/skyverge/sake/internal/prompt"
	"github.com/skyverge/sake/internal/sake"
	"github.com/skyverge/sake/internal/shell"
)

// defaultTask runs when no task is named.
const defaultTask = "default"

// app holds the process-level dependencies of a run. Tests swap them for
// an in-memory filesystem and a recording runner.
type app struct {
	fs      afero.Fs
	workDir func() (string, error)
	env     func() map[string]string
	stdout  io.Writer
	stderr  io.Writer

	// runner executes external commands. Nil uses an ExecRunner.
	runner shell.Runner

	// prompter answers questions. Nil uses the terminal, or defaults
	// with --non-interactive.
	prompter prompt.Prompter

	// remoteURL looks up the origin remote for deploy.dev.
	remoteURL func(dir string) string

	endpoints sake.Endpoints
}

func defaultApp() *app {
	return &app{
		fs:        afero.NewOsFs(),
		workDir:   os.Getwd,
		env:       config.Environ,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		remoteURL: config.OriginURL,
	}
}

// runTasks loads the configuration and plugin in the working directory
// and runs the named tasks in series.
func runTasks(ctx context.Context, a *app, names []string, flags *taskFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(names) == 0 {
		names = []string{defaultTask}
	}

	log, err := logging.GetLogger(logging.Options{Level: logLevel(), JSON: jsonOutput, Output: a.stderr})
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to create logger", err)
	}
	defer func() { _ = log.Sync() }()

	workDir, err := a.workDir()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	env := a.env()
	vars, err := config.LoadDotEnv(a.fs, workDir)
	if err != nil {
		return err
	}
	if len(vars) > 0 {
		log.Warn("Loading ENV variables from .env file")
		if err := config.Overload(vars, env); err != nil {
			return model.WrapCLIError(model.ExitConfigError, "failed to apply .env", err)
		}
	}

	cfg, err := config.Load(config.Options{
		Fs:        a.fs,
		WorkDir:   workDir,
		Env:       env,
		RemoteURL: a.remoteURL,
		Log:       log,
	})
	if err != nil {
		return err
	}

	p, err := plugin.Load(a.fs, sake.LoadOptions(cfg, cfg.MultiPluginRepo && repoLevel(names)))
	if err != nil {
		var cliErr *model.CLIError
		if errors.Is(err, plugin.ErrNotPluginDir) || (errors.As(err, &cliErr) && cliErr.Code == model.ExitNotPluginDir) {
			return model.WrapCLIError(model.ExitNotPluginDir,
				"No plugin file found in "+cfg.SrcDir()+", run sake from a plugin directory", err)
		}
		return model.WrapCLIError(model.ExitGeneralError, "failed to load plugin", err)
	}
	log.Debug("plugin loaded",
		zap.String("id", p.ID),
		zap.String("version", p.Version.Current),
		zap.Strings("config", cfg.Files))

	opts := flags.opts
	runner := a.runner
	if runner == nil {
		runner = shell.NewExecRunner(log)
	}
	if opts.DryRun {
		runner = &shell.DryRunner{Next: runner, Log: log}
	}
	prompter := a.prompter
	switch {
	case opts.NonInteractive:
		prompter = prompt.Defaults{}
	case prompter == nil:
		prompter = prompt.NewTerminal()
	}

	s := sake.New(sake.Params{
		Config:    cfg,
		Plugin:    p,
		Options:   opts,
		Env:       env,
		Fs:        a.fs,
		Runner:    runner,
		Prompt:    prompter,
		Log:       log,
		Out:       a.stdout,
		Endpoints: a.endpoints,
	})

	if err := s.Tasks().Validate(names...); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Tasks().Series(names...)(ctx)
}

// repoLevel reports whether every task can run without a main plugin file.
func repoLevel(names []string) bool {
	for _, n := range names {
		if !slices.Contains(sake.RepoLevelTasks, n) {
			return false
		}
	}
	return true
}
