// Package config builds the sake configuration for a plugin directory.
//
// Configuration is layered on a viper instance: built-in defaults first,
// then the parent directory's config file (multi-plugin repositories keep a
// shared one there), then the plugin's own file. Files may be written in
// JavaScript (evaluated with goja), JSON (comments allowed) or YAML. The
// merged result is decoded into Config and completed with values derived
// from composer.json, the git remote and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/skyverge/sake/internal/composer"
	"github.com/skyverge/sake/internal/model"
	"github.com/skyverge/sake/internal/plugin"
)

// FileNames are the config file names looked up in each directory, in
// order of preference.
var FileNames = []string{"sake.config.js", "sake.config.json", "sake.config.yml", "sake.config.yaml"}

// Config is the complete sake configuration.
type Config struct {
	Paths           Paths           `mapstructure:"paths" json:"paths" yaml:"paths"`
	Tasks           Tasks           `mapstructure:"tasks" json:"tasks" yaml:"tasks"`
	Framework       model.Framework `mapstructure:"framework" json:"framework" yaml:"framework"`
	Deploy          Deploy          `mapstructure:"deploy" json:"deploy" yaml:"deploy"`
	Platform        string          `mapstructure:"platform" json:"platform" yaml:"platform"`
	MultiPluginRepo bool            `mapstructure:"multiPluginRepo" json:"multiPluginRepo" yaml:"multiPluginRepo"`
	Plugin          PluginConfig    `mapstructure:"plugin" json:"plugin" yaml:"plugin"`
	Scripts         []Script        `mapstructure:"scripts" json:"scripts,omitempty" yaml:"scripts,omitempty"`
	Translations    Translations    `mapstructure:"translations" json:"translations" yaml:"translations"`
	TrelloBoard     string          `mapstructure:"trelloBoard" json:"trelloBoard,omitempty" yaml:"trelloBoard,omitempty"`
	Autoload        bool            `mapstructure:"autoload" json:"autoload" yaml:"autoload"`

	// WorkDir is the absolute directory sake runs in.
	WorkDir string `mapstructure:"-" json:"workDir" yaml:"workDir"`

	// Files lists the config files that were merged, in merge order.
	Files []string `mapstructure:"-" json:"files" yaml:"files"`

	// Composer is the plugin's composer.json, nil when there is none.
	Composer *composer.Manifest `mapstructure:"-" json:"-" yaml:"-"`
}

// Paths are relative to WorkDir unless noted otherwise.
type Paths struct {
	// Src holds the main plugin file.
	Src string `mapstructure:"src" json:"src" yaml:"src"`

	// Assets, CSS, JS, Images and Fonts are relative to Src.
	Assets string `mapstructure:"assets" json:"assets" yaml:"assets"`
	CSS    string `mapstructure:"css" json:"css" yaml:"css"`
	JS     string `mapstructure:"js" json:"js" yaml:"js"`
	Images string `mapstructure:"images" json:"images" yaml:"images"`
	Fonts  string `mapstructure:"fonts" json:"fonts" yaml:"fonts"`

	// Build receives the copied plugin during builds.
	Build string `mapstructure:"build" json:"build" yaml:"build"`

	// Tmp is where production repositories are checked out. May be absolute.
	Tmp string `mapstructure:"tmp" json:"tmp" yaml:"tmp"`

	// Exclude lists extra paths, relative to Src, left out of builds.
	Exclude []string `mapstructure:"exclude" json:"exclude" yaml:"exclude"`

	// JSVendor lists directories under JS holding third party scripts.
	JSVendor []string `mapstructure:"jsVendor" json:"jsVendor,omitempty" yaml:"jsVendor,omitempty"`

	// WPAssets holds WordPress.org banners and icons.
	WPAssets string `mapstructure:"wpAssets" json:"wpAssets,omitempty" yaml:"wpAssets,omitempty"`

	// Vendor is composer's vendor directory.
	Vendor string `mapstructure:"vendor" json:"vendor,omitempty" yaml:"vendor,omitempty"`

	Framework FrameworkPaths `mapstructure:"framework" json:"framework" yaml:"framework"`

	// AssetPaths are the asset directories joined with Src.
	AssetPaths AssetPaths `mapstructure:"-" json:"assetPaths" yaml:"assetPaths"`
}

// FrameworkPaths locate the vendored framework, relative to Src.
type FrameworkPaths struct {
	Base    string    `mapstructure:"base" json:"base" yaml:"base"`
	General AssetDirs `mapstructure:"general" json:"general" yaml:"general"`
	Gateway AssetDirs `mapstructure:"gateway" json:"gateway" yaml:"gateway"`
}

// AssetDirs are style and script directories, relative to the framework base.
type AssetDirs struct {
	CSS string `mapstructure:"css" json:"css" yaml:"css"`
	JS  string `mapstructure:"js" json:"js" yaml:"js"`
}

// AssetPaths are derived from Paths.
type AssetPaths struct {
	CSS    string `json:"css" yaml:"css"`
	JS     string `json:"js" yaml:"js"`
	Images string `json:"images" yaml:"images"`
	Fonts  string `json:"fonts" yaml:"fonts"`

	// JavaScriptSources selects the unminified, non-vendor scripts.
	JavaScriptSources []string `json:"javascriptSources" yaml:"javascriptSources"`
}

// Tasks holds task specific settings.
type Tasks struct {
	Makepot struct {
		ReportBugsTo string `mapstructure:"reportBugsTo" json:"reportBugsTo" yaml:"reportBugsTo"`
		DomainPath   string `mapstructure:"domainPath" json:"domainPath" yaml:"domainPath"`
	} `mapstructure:"makepot" json:"makepot" yaml:"makepot"`

	Watch struct {
		UseBrowserSync bool `mapstructure:"useBrowserSync" json:"useBrowserSync" yaml:"useBrowserSync"`
	} `mapstructure:"watch" json:"watch" yaml:"watch"`

	BrowserSync struct {
		URL string `mapstructure:"url" json:"url" yaml:"url"`
	} `mapstructure:"browserSync" json:"browserSync" yaml:"browserSync"`
}

// PluginConfig overrides plugin metadata.
type PluginConfig struct {
	ID string `mapstructure:"id" json:"id" yaml:"id"`
}

// Script copies a file from an npm package into the plugin.
type Script struct {
	Package     string `mapstructure:"package" json:"package" yaml:"package"`
	File        string `mapstructure:"file" json:"file" yaml:"file"`
	Destination string `mapstructure:"destination" json:"destination" yaml:"destination"`
}

// Translations configures the GlotPress export download.
type Translations struct {
	GlotPress string `mapstructure:"glotpress" json:"glotpress,omitempty" yaml:"glotpress,omitempty"`
	Project   string `mapstructure:"project" json:"project,omitempty" yaml:"project,omitempty"`
}

// Options control Load.
type Options struct {
	Fs afero.Fs

	// WorkDir is the absolute directory sake was started in.
	WorkDir string

	// Env is the process environment. Nil reads os.Environ.
	Env map[string]string

	// RemoteURL returns the origin remote of the repository holding dir.
	// Nil disables remote lookup.
	RemoteURL func(dir string) string

	Log *zap.Logger
}

// Load discovers, merges and decodes the configuration for opts.WorkDir.
func Load(opts Options) (*Config, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Env == nil {
		opts.Env = Environ()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	v := viper.New()
	setDefaults(v, opts.Env)

	files := Discover(opts.Fs, opts.WorkDir)
	for i, f := range files {
		if i == 0 && filepath.Dir(f) != filepath.Clean(opts.WorkDir) {
			opts.Log.Warn("Found config file in parent folder", zap.String("file", f))
		}
		m, err := ReadFile(opts.Fs, f, opts.Env)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError, fmt.Sprintf("invalid config file %s", f), err)
		}
		if err := v.MergeConfigMap(normalize(m)); err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError, fmt.Sprintf("failed to merge %s", f), err)
		}
	}
	if len(files) == 0 {
		opts.Log.Warn("Could not find local config file, using default config values.")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "failed to decode config", err)
	}
	cfg.WorkDir = opts.WorkDir
	cfg.Files = files

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := cfg.derive(opts); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

func setDefaults(v *viper.Viper, env map[string]string) {
	v.SetDefault("paths.src", ".")
	v.SetDefault("paths.assets", "assets")
	v.SetDefault("paths.css", "assets/css")
	v.SetDefault("paths.js", "assets/js")
	v.SetDefault("paths.images", "assets/img")
	v.SetDefault("paths.fonts", "assets/fonts")
	v.SetDefault("paths.build", "build")
	v.SetDefault("paths.tmp", "/tmp/sake")
	v.SetDefault("paths.exclude", []string{})
	v.SetDefault("paths.framework.general.css", plugin.FrameworkGeneralCSS)
	v.SetDefault("paths.framework.general.js", plugin.FrameworkGeneralJS)
	v.SetDefault("paths.framework.gateway.css", plugin.FrameworkGatewayCSS)
	v.SetDefault("paths.framework.gateway.js", plugin.FrameworkGatewayJS)

	v.SetDefault("tasks.makepot.reportBugsTo", "https://woocommerce.com/my-account/marketplace-ticket-form/")
	v.SetDefault("tasks.makepot.domainPath", "i18n/languages")
	v.SetDefault("tasks.watch.useBrowserSync", env["USE_BROWSERSYNC"])
	browserSyncURL := env["BROWSERSYNC_URL"]
	if browserSyncURL == "" {
		browserSyncURL = "plugins-skyverge.test"
	}
	v.SetDefault("tasks.browserSync.url", browserSyncURL)

	v.SetDefault("framework", string(model.FrameworkV5))
	v.SetDefault("deploy.type", string(model.DeployWooCommerce))
	v.SetDefault("deploy.githubRelease", true)
	v.SetDefault("platform", "wc")
	v.SetDefault("multiPluginRepo", false)
}

// Discover returns the config files for workDir: the parent directory's
// file first, then the local one. At most one file per directory is used.
func Discover(fsys afero.Fs, workDir string) []string {
	var files []string
	for _, dir := range []string{filepath.Dir(filepath.Clean(workDir)), filepath.Clean(workDir)} {
		for _, name := range FileNames {
			p := filepath.Join(dir, name)
			if ok, _ := afero.Exists(fsys, p); ok {
				files = append(files, p)
				break
			}
		}
	}
	return files
}

// ReadFile parses a single config file according to its extension.
func ReadFile(fsys afero.Fs, p string, env map[string]string) (map[string]any, error) {
	data, err := afero.ReadFile(fsys, p)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(p)) {
	case ".js", ".cjs", ".mjs":
		return evalJS(filepath.Base(p), data, env)
	case ".json":
		m := map[string]any{}
		if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
			return nil, err
		}
		return m, nil
	case ".yml", ".yaml":
		m := map[string]any{}
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported config file type %q", filepath.Ext(p))
	}
}

// normalize rewrites the loosely typed values config files may use into
// the shapes Config decodes:
//
//	framework: false          -> framework: ""
//	deploy: "wp" | false      -> deploy: {type: "wp" | ""}
//	deploy: {repo: "x"}       -> deploy: {repo: "x", type: "wc"}
//	paths.jsVendor: "vendor"  -> paths.jsVendor: ["vendor"]
func normalize(m map[string]any) map[string]any {
	if fw, ok := m["framework"]; ok {
		switch val := fw.(type) {
		case bool:
			if val {
				m["framework"] = string(model.FrameworkV5)
			} else {
				m["framework"] = ""
			}
		case nil:
			m["framework"] = ""
		}
	}

	if d, ok := m["deploy"]; ok {
		switch val := d.(type) {
		case string:
			m["deploy"] = map[string]any{"type": val}
		case bool:
			if val {
				m["deploy"] = map[string]any{"type": string(model.DeployWooCommerce)}
			} else {
				m["deploy"] = map[string]any{"type": ""}
			}
		case nil:
			m["deploy"] = map[string]any{"type": ""}
		case map[string]any:
			switch t := val["type"].(type) {
			case nil:
				val["type"] = string(model.DeployWooCommerce)
			case bool:
				if !t {
					val["type"] = ""
				} else {
					val["type"] = string(model.DeployWooCommerce)
				}
			}
		}
	}

	if p, ok := m["paths"].(map[string]any); ok {
		if s, ok := p["jsVendor"].(string); ok {
			p["jsVendor"] = []any{s}
		}
	}
	return m
}

func (c *Config) validate() error {
	fw, err := model.ParseFramework(string(c.Framework))
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid config", err)
	}
	c.Framework = fw

	dt, err := model.ParseDeployType(string(c.Deploy.Type))
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid config", err)
	}
	c.Deploy.Type = dt
	return nil
}

func (c *Config) derive(opts Options) error {
	if c.Plugin.ID == "" {
		c.Plugin.ID = filepath.Base(c.WorkDir)
	}

	c.Paths.AssetPaths = AssetPaths{
		CSS:    path.Join(c.Paths.Src, c.Paths.CSS),
		JS:     path.Join(c.Paths.Src, c.Paths.JS),
		Images: path.Join(c.Paths.Src, c.Paths.Images),
		Fonts:  path.Join(c.Paths.Src, c.Paths.Fonts),
	}
	js := c.Paths.AssetPaths.JS
	c.Paths.AssetPaths.JavaScriptSources = []string{
		js + "/**/*.js",
		"!" + js + "/**/*.min.js",
		"!" + js + "/vendor/*.min.js",
	}
	for _, vendor := range c.Paths.JSVendor {
		c.Paths.AssetPaths.JavaScriptSources = append(c.Paths.AssetPaths.JavaScriptSources, "!"+js+"/"+vendor+"/**/*.js")
	}

	if c.MultiPluginRepo {
		c.Paths.Build = path.Join("..", c.Paths.Build)
	}

	manifest, err := composer.Load(opts.Fs, filepath.Join(c.WorkDir, "composer.json"))
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid composer.json", err)
	}
	c.Composer = manifest
	if manifest != nil && c.Paths.Vendor == "" {
		c.Paths.Vendor = manifest.VendorDir()
	}

	if c.Framework != model.FrameworkNone && c.Paths.Framework.Base == "" {
		c.Paths.Framework.Base = c.frameworkBase()
	}

	c.resolveDeploy(opts)
	return nil
}

// frameworkBase locates the framework: a composer installer path wins,
// then the vendor directory for v5, then the framework's default location.
func (c *Config) frameworkBase() string {
	if p, ok := c.Composer.InstallerPath(composer.FrameworkPackage, c.Paths.Src); ok {
		return p
	}
	if c.Composer != nil && c.Framework == model.FrameworkV5 {
		return path.Join(c.Composer.VendorDir(), composer.FrameworkPackage)
	}
	return plugin.DefaultFrameworkBase(c.Framework)
}

// SrcDir returns the absolute source directory.
func (c *Config) SrcDir() string {
	return c.abs(c.Paths.Src)
}

// BuildDir returns the absolute build directory.
func (c *Config) BuildDir() string {
	return c.abs(c.Paths.Build)
}

// TmpDir returns the absolute directory production repos are checked out to.
func (c *Config) TmpDir() string {
	return c.abs(c.Paths.Tmp)
}

// PluginBuildDir is the directory copy:build writes the plugin to.
func (c *Config) PluginBuildDir() string {
	return filepath.Join(c.BuildDir(), c.Plugin.ID)
}

// FrameworkDir returns the absolute framework base directory.
func (c *Config) FrameworkDir() string {
	return filepath.Join(c.SrcDir(), filepath.FromSlash(c.Paths.Framework.Base))
}

func (c *Config) abs(p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.WorkDir, p)
}
