// Package plugin reads the metadata sake needs about the plugin being
// built: name and version from the changelog, the main plugin file, the
// vendored framework version and whether the plugin is a payment gateway.
//
// Everything is read through an afero filesystem so tasks and tests can
// run against an in-memory tree.
package plugin

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/skyverge/sake/internal/model"
)

// ErrNotPluginDir is returned when src contains no main plugin file.
var ErrNotPluginDir = errors.New("Not a plugin directory")

// Plugin aggregates the metadata of the plugin being built.
type Plugin struct {
	// ID is the plugin slug, used for zip names and build directories.
	ID string `json:"id"`

	// Name is the full plugin name from the changelog.
	Name string `json:"name"`

	// MainFile is the main plugin file name, relative to src.
	MainFile string `json:"mainFile"`

	// Version holds the current version and its increments.
	Version Versions `json:"version"`

	// Changes are the entries of the newest changelog section.
	Changes []string `json:"changes"`

	// Changelog is the parsed changelog the metadata came from.
	Changelog *Changelog `json:"-"`

	// FrameworkVersion is the version of the vendored framework copy.
	FrameworkVersion string `json:"frameworkVersion,omitempty"`

	// RequiredFrameworkVersion is the framework constraint from composer.json.
	RequiredFrameworkVersion string `json:"requiredFrameworkVersion,omitempty"`

	// PaymentGateway is true for framework-based payment gateway plugins.
	PaymentGateway bool `json:"paymentGateway"`
}

// LoadOptions tells Load where to look.
type LoadOptions struct {
	// SrcDir is the absolute plugin source directory.
	SrcDir string

	// ID overrides the plugin slug. Defaults to the basename of WorkDir.
	ID string

	// WorkDir is the directory sake was started in.
	WorkDir string

	// Framework and FrameworkBase locate the vendored framework.
	Framework     model.Framework
	FrameworkBase string

	// RequiredFrameworkVersion is copied from composer.json.
	RequiredFrameworkVersion string

	// AllowMissingMainFile lets repo-level tasks run in a multi-plugin
	// repository root that has no main plugin file.
	AllowMissingMainFile bool
}

// Load reads plugin metadata from disk.
func Load(fsys afero.Fs, opts LoadOptions) (*Plugin, error) {
	cl, err := LoadChangelog(fsys, opts.SrcDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read changelog: %w", err)
	}

	p := &Plugin{
		ID:                       opts.ID,
		Name:                     cl.Name,
		Changes:                  cl.Changes,
		Changelog:                cl,
		Version:                  NewVersions(cl.Version),
		RequiredFrameworkVersion: opts.RequiredFrameworkVersion,
	}
	if p.ID == "" {
		p.ID = filepath.Base(opts.WorkDir)
	}

	main, err := FindMainFile(fsys, opts.SrcDir)
	if err != nil {
		if errors.Is(err, ErrNotPluginDir) && opts.AllowMissingMainFile {
			return p, nil
		}
		return nil, err
	}
	p.MainFile = main

	if opts.Framework != model.FrameworkNone {
		base := filepath.Join(opts.SrcDir, opts.FrameworkBase)
		p.FrameworkVersion, err = FrameworkVersion(fsys, base, opts.Framework)
		if err != nil {
			return nil, err
		}

		data, err := afero.ReadFile(fsys, filepath.Join(opts.SrcDir, main))
		if err != nil {
			return nil, err
		}
		p.PaymentGateway = IsPaymentGateway(data, opts.Framework)
	}

	return p, nil
}

// FindMainFile returns the name of the top-level PHP file in srcDir whose
// header contains "Plugin Name:". A file named after srcDir wins, as in
// WordPress' own <slug>/<slug>.php layout; otherwise the first match in
// name order is used.
func FindMainFile(fsys afero.Fs, srcDir string) (string, error) {
	entries, err := afero.ReadDir(fsys, srcDir)
	if err != nil {
		return "", model.WrapCLIError(model.ExitNotPluginDir, ErrNotPluginDir.Error(), err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".php") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if slug := filepath.Base(srcDir) + ".php"; slices.Contains(names, slug) && hasPluginHeader(fsys, filepath.Join(srcDir, slug)) {
		return slug, nil
	}
	for _, name := range names {
		if hasPluginHeader(fsys, filepath.Join(srcDir, name)) {
			return name, nil
		}
	}
	return "", model.WrapCLIError(model.ExitNotPluginDir, ErrNotPluginDir.Error(), ErrNotPluginDir)
}

// hasPluginHeader scans the file for the WordPress plugin header.
func hasPluginHeader(fsys afero.Fs, p string) bool {
	data, err := afero.ReadFile(fsys, p)
	if err != nil {
		return false
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), "Plugin Name:") {
			return true
		}
	}
	return false
}

// DisplayName returns the plugin name, without the leading "WooCommerce "
// when short is true. Release titles use the full name, issue titles the
// short one.
func (p *Plugin) DisplayName(short bool) string {
	if short {
		return strings.Replace(p.Name, "WooCommerce ", "", 1)
	}
	return p.Name
}

// ChangesText joins the newest changelog entries with newlines.
func (p *Plugin) ChangesText() string {
	return strings.Join(p.Changes, "\n")
}

// ChangelogText renders the changelog preview shown before a deploy.
func (p *Plugin) ChangelogText() string {
	return p.DisplayName(true) + " Changelog \n" + p.ChangesText()
}

// HasNewFeatures reports whether the pending release contains a feature
// or tweak.
func (p *Plugin) HasNewFeatures() bool {
	return p.Changelog != nil && p.Changelog.HasNewFeatures()
}

// DefaultIncrement is the version bump suggested for the pending release:
// minor when it ships a feature, patch otherwise.
func (p *Plugin) DefaultIncrement() model.Increment {
	if p.Changelog == nil {
		return model.IncrementPatch
	}
	for _, kind := range p.Changelog.ChangeTypes() {
		if strings.EqualFold(kind, "Feature") {
			return model.IncrementMinor
		}
	}
	return model.IncrementPatch
}

// DeployErrors explains why the changelog does not describe a deployable
// release. The version must be a -dev.N prerelease and there must be at
// least one change. Returns nil when the plugin is deployable.
func (p *Plugin) DeployErrors() error {
	var errs error
	v := p.Version.Current
	if v == "" || !strings.Contains(v, "-dev.") || !ValidVersion(v) {
		errs = multierr.Append(errs, fmt.Errorf("Plugin version %s is not a valid version for deploy", v))
	}
	if len(p.Changes) == 0 {
		errs = multierr.Append(errs, errors.New("No changes listed in changelog"))
	}
	return errs
}

// IsDeployable reports whether DeployErrors is empty.
func (p *Plugin) IsDeployable() bool {
	return p.DeployErrors() == nil
}

// ZipName returns the package file name for version.
func (p *Plugin) ZipName(version string) string {
	return p.ID + "." + version + ".zip"
}

// ShortID strips the "woocommerce-" prefix, giving the label SkyVerge
// uses for a plugin across issue trackers.
func (p *Plugin) ShortID() string {
	return strings.Replace(p.ID, "woocommerce-", "", 1)
}

// ErrorMessages flattens a multierr error into its messages.
func ErrorMessages(err error) []string {
	var out []string
	for _, e := range multierr.Errors(err) {
		out = append(out, e.Error())
	}
	return out
}
