package model

import (
	"fmt"
	"strings"
)

// DeployType identifies the store a plugin is released to.
// The deploy type drives which preflight checks run and which remote
// destination the deploy orchestrator pushes the built package to.
type DeployType string

const (
	// DeployWooCommerce deploys the packaged zip to WooCommerce.com.
	DeployWooCommerce DeployType = "wc"

	// DeployWordPress deploys to the WordPress.org plugin SVN repository.
	DeployWordPress DeployType = "wp"

	// DeployNone disables store deploys. The plugin can still be built,
	// prereleased and released on GitHub.
	DeployNone DeployType = ""
)

// String returns the string representation of DeployType.
func (d DeployType) String() string {
	if d == DeployNone {
		return "none"
	}
	return string(d)
}

// IsValid checks whether the DeployType value is one of the predefined types.
func (d DeployType) IsValid() bool {
	switch d {
	case DeployWooCommerce, DeployWordPress, DeployNone:
		return true
	default:
		return false
	}
}

// ParseDeployType converts a config value to a DeployType.
// "false", "none" and the empty string all disable store deploys.
func ParseDeployType(s string) (DeployType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "none":
		return DeployNone, nil
	}
	d := DeployType(strings.ToLower(s))
	if !d.IsValid() {
		return "", fmt.Errorf("invalid deploy type: %q (valid: wc, wp, false)", s)
	}
	return d, nil
}

// Framework identifies the major version of the SkyVerge plugin framework
// vendored into a plugin. Framework layout, version discovery and
// namespace rewriting all differ between majors.
type Framework string

const (
	// FrameworkV5 is the composer-installed framework
	// (vendor/skyverge/wc-plugin-framework by default).
	FrameworkV5 Framework = "v5"

	// FrameworkV4 is the git-subtree framework under lib/skyverge.
	FrameworkV4 Framework = "v4"

	// FrameworkNone means the plugin does not use the framework.
	FrameworkNone Framework = ""
)

// String returns the string representation of Framework.
func (f Framework) String() string {
	if f == FrameworkNone {
		return "none"
	}
	return string(f)
}

// IsValid checks whether the Framework value is one of the predefined values.
func (f Framework) IsValid() bool {
	switch f {
	case FrameworkV5, FrameworkV4, FrameworkNone:
		return true
	default:
		return false
	}
}

// ParseFramework converts a config value to a Framework.
func ParseFramework(s string) (Framework, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "none":
		return FrameworkNone, nil
	}
	f := Framework(strings.ToLower(s))
	if !f.IsValid() {
		return "", fmt.Errorf("invalid framework: %q (valid: v5, v4, false)", s)
	}
	return f, nil
}

// Increment names a version bump kind, as offered by the deploy prompt
// and accepted by --new-version.
type Increment string

const (
	IncrementPrerelease Increment = "prerelease"
	IncrementPatch      Increment = "patch"
	IncrementMinor      Increment = "minor"
	IncrementMajor      Increment = "major"

	// IncrementCustom asks the user for an explicit version.
	IncrementCustom Increment = "custom"

	// IncrementSkip aborts the deploy for this plugin.
	IncrementSkip Increment = "skip"
)

// String returns the string representation of Increment.
func (i Increment) String() string {
	return string(i)
}

// IsValid checks whether the Increment value is one of the predefined kinds.
func (i Increment) IsValid() bool {
	switch i {
	case IncrementPrerelease, IncrementPatch, IncrementMinor, IncrementMajor, IncrementCustom, IncrementSkip:
		return true
	default:
		return false
	}
}

// ParseIncrement converts a string to an Increment.
// Returns an error if the string does not match any valid kind.
func ParseIncrement(s string) (Increment, error) {
	i := Increment(strings.ToLower(s))
	if !i.IsValid() {
		return "", fmt.Errorf("invalid version increment: %q (valid: prerelease, patch, minor, major, custom, skip)", s)
	}
	return i, nil
}

// Repo holds the coordinates of a deploy repository: a GitHub repository
// for dev and WooCommerce production repos, or a WordPress.org SVN
// repository for wp production deploys.
type Repo struct {
	// URL is the clone/checkout URL (git@github.com:owner/name or an SVN URL).
	URL string `json:"url" yaml:"url"`

	// Owner is the GitHub organisation or user. Empty for SVN repos.
	Owner string `json:"owner,omitempty" yaml:"owner,omitempty"`

	// Name is the repository name, or the SVN plugin slug.
	Name string `json:"name" yaml:"name"`

	// User is the SVN username used for commits. Only set for wp production repos.
	User string `json:"user,omitempty" yaml:"user,omitempty"`
}

// Slug returns "owner/name", or just the name when there is no owner.
func (r Repo) Slug() string {
	if r.Owner == "" {
		return r.Name
	}
	return r.Owner + "/" + r.Name
}

// ExitCode defines the process exit codes sake returns, so that scripts
// and CI jobs can tell why a task chain stopped.
type ExitCode int

const (
	// ExitSuccess indicates every requested task completed.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates a config file could not be read or evaluated.
	ExitConfigError ExitCode = 2

	// ExitNotPluginDir indicates no main plugin file was found.
	ExitNotPluginDir ExitCode = 3

	// ExitEnvInvalid indicates required environment variables are missing
	// or point to paths that do not exist.
	ExitEnvInvalid ExitCode = 4

	// ExitNotDeployable indicates the changelog does not describe a
	// deployable version.
	ExitNotDeployable ExitCode = 5

	// ExitCommandFailed indicates an external command (git, svn, composer,
	// npm, compilers) exited with a non-zero status.
	ExitCommandFailed ExitCode = 6

	// ExitRemoteError indicates a remote API (GitHub, WooCommerce.com,
	// GlotPress, Trello) rejected a request.
	ExitRemoteError ExitCode = 7

	// ExitUserCancelled indicates the user cancelled an interactive prompt
	// or chose to skip the deploy.
	ExitUserCancelled ExitCode = 8

	// ExitUnknownTask indicates a task name that is not registered.
	ExitUnknownTask ExitCode = 9

	// ExitLintFailed indicates lint errors with --lint-errors-fail set.
	ExitLintFailed ExitCode = 10
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// BulletList renders a heading followed by one " * item" line per entry,
// the format sake uses for aggregated validation failures.
func BulletList(heading string, items []string) string {
	var b strings.Builder
	b.WriteString(heading)
	for _, item := range items {
		b.WriteString("\n * ")
		b.WriteString(item)
	}
	return b.String()
}
