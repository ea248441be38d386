// Package composer reads and edits the PHP and JS package manifests of a
// plugin: composer.json and package.json.
//
// Manifests in the wild occasionally carry comments or trailing commas, so
// this package uses github.com/tidwall/jsonc to strip them before parsing
// with encoding/json. Edits go through github.com/tidwall/sjson, which
// rewrites a single value in place and keeps the key order and formatting
// the developer chose.
package composer

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/sjson"
)

// FrameworkPackage is the composer package name of the SkyVerge framework.
const FrameworkPackage = "skyverge/wc-plugin-framework"

// Manifest is the subset of composer.json sake needs.
type Manifest struct {
	Name       string            `json:"name,omitempty"`
	Require    map[string]string `json:"require,omitempty"`
	RequireDev map[string]string `json:"require-dev,omitempty"`

	Config struct {
		// VendorDir overrides composer's default "vendor" install directory.
		VendorDir string `json:"vendor-dir,omitempty"`
	} `json:"config"`

	Extra struct {
		// InstallerPaths maps install paths to package lists
		// (composer/installers), e.g. {"lib/skyverge": ["skyverge/wc-plugin-framework"]}.
		InstallerPaths map[string][]string `json:"installer-paths,omitempty"`
	} `json:"extra"`
}

// Load reads and parses composer.json at the given path.
// Returns (nil, nil) when the file does not exist: plenty of plugins have
// no PHP dependencies at all.
func Load(fsys afero.Fs, filePath string) (*Manifest, error) {
	data, err := afero.ReadFile(fsys, filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	var m Manifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	return &m, nil
}

// VendorDir returns the configured vendor directory, defaulting to "vendor".
func (m *Manifest) VendorDir() string {
	if m == nil || m.Config.VendorDir == "" {
		return "vendor"
	}
	return strings.TrimSuffix(m.Config.VendorDir, "/")
}

// RequiredFrameworkVersion returns the framework constraint from require.
func (m *Manifest) RequiredFrameworkVersion() string {
	if m == nil {
		return ""
	}
	return m.Require[FrameworkPackage]
}

// InstallerPath returns the install path configured for pkg through
// extra.installer-paths, with any "{$name}" placeholders left intact and
// the srcPrefix stripped. ok is false when pkg has no custom path.
func (m *Manifest) InstallerPath(pkg, srcPrefix string) (string, bool) {
	if m == nil {
		return "", false
	}
	// sorted for a deterministic answer when a package is listed twice
	paths := make([]string, 0, len(m.Extra.InstallerPaths))
	for p := range m.Extra.InstallerPaths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		for _, candidate := range m.Extra.InstallerPaths[p] {
			if candidate != pkg {
				continue
			}
			p = strings.TrimSuffix(p, "/")
			if srcPrefix != "" && srcPrefix != "." {
				p = strings.TrimPrefix(p, strings.TrimSuffix(srcPrefix, "/")+"/")
			}
			return p, true
		}
	}
	return "", false
}

// DevPackageDirs returns the vendor directories that hold require-dev
// packages and must not ship in a build. When no runtime package shares a
// dev package's vendor namespace, the whole namespace dir is returned.
func (m *Manifest) DevPackageDirs() []string {
	if m == nil || len(m.RequireDev) == 0 {
		return nil
	}

	seen := map[string]bool{}
	var dirs []string
	for pkg := range m.RequireDev {
		vendor, _, _ := strings.Cut(pkg, "/")

		dir := path.Join(m.VendorDir(), pkg)
		if !m.requiresVendor(vendor) {
			dir = path.Join(m.VendorDir(), vendor)
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}

func (m *Manifest) requiresVendor(vendor string) bool {
	for pkg := range m.Require {
		if strings.HasPrefix(pkg, vendor+"/") {
			return true
		}
	}
	return false
}

// SetRequire rewrites require[pkg] in raw composer.json bytes, keeping
// everything else byte-for-byte.
func SetRequire(raw []byte, pkg, constraint string) ([]byte, error) {
	// sjson treats "." and "*" as path syntax, package names only need "." escaped
	key := "require." + strings.ReplaceAll(pkg, ".", `\.`)
	out, err := sjson.SetBytes(raw, key, constraint)
	if err != nil {
		return nil, fmt.Errorf("failed to set %s in composer.json: %w", pkg, err)
	}
	return out, nil
}
