// Package cli implements the cobra-based command line of sake.
//
// sake has a single root command: its positional arguments name the tasks
// to run in order (`sake clean:build zip`), and every task option is a flag
// on that command. This file defines the root command, the global output
// flags and the mapping from errors to exit codes.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/skyverge/sake/internal/logging"
	"github.com/skyverge/sake/internal/model"
)

// Global flag variables shared by the root command and error output.
var (
	// jsonOutput switches logs and error output to JSON.
	jsonOutput bool

	// verbose enables debug logging, including every command sake runs.
	verbose bool

	// quiet limits logging to warnings and errors.
	quiet bool
)

// Version, Commit and Date are set at build time via ldflags from the
// main package.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates the sake command, wired to the real filesystem,
// process environment and terminal.
func NewRootCommand() *cobra.Command {
	return newRootCommand(defaultApp())
}

func newRootCommand(a *app) *cobra.Command {
	flags := &taskFlags{}

	rootCmd := &cobra.Command{
		Use:   "sake [task...]",
		Short: "Build, lint and release WooCommerce and WordPress plugins",
		Long: `sake builds, lints and releases WooCommerce and WordPress plugins.

Run it from a plugin directory with the names of the tasks to run. Tasks
run in the order given; without a task, "default" compiles the assets.

Examples:
  sake
  sake zip
  sake deploy --new-version minor
  sake config --property deploy.production.url
  sake tasks`,

		// Tasks are validated against the registry before anything runs.
		Args: cobra.ArbitraryArgs,

		// Errors are printed by Execute, in text or JSON.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runTasks(cmd.Context(), a, args, flags)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs and errors in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	flags.register(rootCmd.Flags())
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	return rootCmd
}

// Execute runs the root command and exits with the code of the error, if
// any. CLIErrors carry their own exit code; anything else exits with 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(int(handleError(os.Stderr, err)))
	}
}

// handleError prints err and returns the exit code for it.
func handleError(w io.Writer, err error) model.ExitCode {
	if errors.Is(err, context.Canceled) {
		printError(w, "Interrupted", nil)
		return model.ExitUserCancelled
	}

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(w, cliErr.Message, cliErr.Err)
		return cliErr.Code
	}
	printError(w, err.Error(), nil)
	return model.ExitGeneralError
}

// printError writes an error message in the format selected by --json.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]any{
			"error": map[string]any{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]any); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// logLevel maps the global output flags to a logging level.
func logLevel() string {
	switch {
	case verbose:
		return logging.LevelDebug
	case quiet:
		return logging.LevelWarn
	}
	return logging.LevelInfo
}
