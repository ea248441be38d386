// Package shell runs the external programs sake delegates to: git, svn,
// composer, npm and the asset toolchain (sass, esbuild, coffee, eslint,
// stylelint, php, wp-cli).
//
// Every invocation goes through the Runner interface so that tasks can be
// exercised in tests with a recording fake, and so that --dry-run can
// replace real execution with a log line.
package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/model"
)

// Command describes a single program invocation.
type Command struct {
	// Name is the program to execute (looked up in PATH).
	Name string

	// Args are the program arguments.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string

	// Stream connects the program's stdout/stderr to the terminal instead
	// of capturing them. Used for long-running, chatty tools such as
	// composer install and npm install.
	Stream bool

	// Mutates marks commands with side effects outside the build directory.
	// Dry runs skip these and only log them.
	Mutates bool
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner executes commands and returns their captured stdout.
type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Stdout and Stderr receive output of streaming commands.
	// They default to the process stdout/stderr.
	Stdout io.Writer
	Stderr io.Writer

	Log *zap.Logger
}

// NewExecRunner creates an ExecRunner that logs command lines at debug level.
func NewExecRunner(log *zap.Logger) *ExecRunner {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr, Log: log}
}

// Run executes the command.
//
// On failure it returns a model.CLIError with ExitCommandFailed whose
// message includes the command line and any stderr output, so the user can
// see why git, svn or composer refused.
func (r *ExecRunner) Run(ctx context.Context, c Command) (string, error) {
	r.Log.Debug("exec", zap.String("cmd", c.String()), zap.String("dir", c.Dir))

	// #nosec G204 -- commands are assembled by sake tasks, not taken from input
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr strings.Builder
	if c.Stream {
		cmd.Stdin = os.Stdin
		cmd.Stdout = io.MultiWriter(r.Stdout, &stdout)
		cmd.Stderr = io.MultiWriter(r.Stderr, &stderr)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("%s failed", c.String())
		if stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return stdout.String(), model.WrapCLIError(model.ExitCommandFailed, message, err)
	}

	return stdout.String(), nil
}

// DryRunner wraps a Runner and skips mutating commands, logging them instead.
// Read-only commands (git status, svn status, composer status) still run so
// that the rest of the pipeline sees real state.
type DryRunner struct {
	Next Runner
	Log  *zap.Logger
}

// Run implements Runner.
func (d *DryRunner) Run(ctx context.Context, c Command) (string, error) {
	if c.Mutates {
		d.Log.Info("[dry-run] would run", zap.String("cmd", c.String()), zap.String("dir", c.Dir))
		return "", nil
	}
	return d.Next.Run(ctx, c)
}

// Which reports whether a program is available in PATH.
func Which(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
