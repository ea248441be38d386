package sake

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/fileset"
	"github.com/skyverge/sake/internal/model"
)

var sourceMappingURL = regexp.MustCompile(`(?m)^.*sourceMappingURL=.*$\n?`)

// buildRules selects the files of src that ship in the plugin package.
// Later rules win, so re-includes follow the exclusions they undo.
func (s *Sake) buildRules() (*fileset.Rules, error) {
	p := s.Config.Paths
	r, err := fileset.NewRules(
		"**",
		"!**/*.map",

		// coffee and unminified js
		"!"+fileset.Join(p.JS, "**/*.coffee"),
		"!"+fileset.Join(p.JS, "**/*.js"),
		fileset.Join(p.JS, "**/*.min.js"),

		// scss and unminified css
		"!"+fileset.Join(p.CSS, "**/*.scss"),
		"!"+fileset.Join(p.CSS, "**/*.css"),
		fileset.Join(p.CSS, "**/*.min.css"),

		"!**/.travis.yml",
		"!**/phpunit.xml",
		"!**/phpunit.travis.xml",
		"!**/composer.json",
		"!**/composer.lock",
		"!**/package.json",
		"!**/package-lock.json",

		"!**/modman",
		"!**/Gruntfile.js",
		"!**/options.json",
		"!**/codeception*.*",
		"!**/*.zip",
		"!**/test.sh",
		"!**/.*",
		"!**/sake.config.*",
	)
	if err != nil {
		return nil, err
	}

	dirs := []string{"**/tests", "**/node_modules", "**/grunt", "**/.*"}
	for _, d := range []string{p.Build, p.Tmp} {
		if rel, ok := s.srcRel(d); ok && rel != "." {
			dirs = append(dirs, rel)
		}
	}

	if s.Config.Framework != model.FrameworkNone {
		fw := p.Framework
		if s.Config.Framework == model.FrameworkV4 {
			if err := r.Add("!"+fileset.Join(fw.Base, "*"), fileset.Join(fw.Base, "license.txt")); err != nil {
				return nil, err
			}
			dirs = append(dirs,
				fileset.Join(fw.Base, "grunt"),
				fileset.Join(fw.Base, "woocommerce/payment-gateway/templates"),
			)
		}
		if err := r.Add(
			"!"+fileset.Join(fw.Base, fw.General.JS, "**/*.coffee"),
			"!"+fileset.Join(fw.Base, fw.Gateway.JS, "**/*.coffee"),
			"!"+fileset.Join(fw.Base, fw.General.CSS, "**/*.scss"),
			"!"+fileset.Join(fw.Base, fw.Gateway.CSS, "**/*.scss"),
		); err != nil {
			return nil, err
		}
		if !s.Plugin.PaymentGateway {
			dirs = append(dirs, fileset.Join(fw.Base, "woocommerce/payment-gateway"))
		}
	}

	for _, d := range s.Config.Composer.DevPackageDirs() {
		if rel, ok := s.srcRel(d); ok {
			dirs = append(dirs, rel)
		}
	}

	for _, d := range dirs {
		if err := r.ExcludeDir(d); err != nil {
			return nil, err
		}
	}

	for _, e := range p.Exclude {
		if err := r.Add("!" + e); err != nil {
			return nil, err
		}
		if err := r.ExcludeDir(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// stripSourceMaps drops sourceMappingURL comments from minified files,
// since the maps themselves are not shipped.
func stripSourceMaps(rel string, data []byte) []byte {
	if strings.HasSuffix(rel, ".min.js") || strings.HasSuffix(rel, ".min.css") {
		return sourceMappingURL.ReplaceAll(data, nil)
	}
	return data
}

func (s *Sake) copyBuild(_ context.Context) error {
	rules, err := s.buildRules()
	if err != nil {
		return err
	}
	files, err := fileset.Select(s.Fs, s.Config.SrcDir(), rules)
	if err != nil {
		return err
	}
	s.Log.Debug("copying build", zap.Int("files", len(files)), zap.String("dest", s.Config.PluginBuildDir()))
	return fileset.Copy(s.Fs, s.Config.SrcDir(), s.Config.PluginBuildDir(), files, stripSourceMaps)
}

func (s *Sake) copyPrerelease(_ context.Context) error {
	dir, err := s.prereleasePath()
	if err != nil {
		return err
	}
	zip := s.zipFile()
	if err := fileset.CopyFile(s.Fs, zip, filepath.Join(dir, filepath.Base(zip))); err != nil {
		return err
	}

	changelog := filepath.Join(s.Config.SrcDir(), "changelog.txt")
	if ok, _ := afero.Exists(s.Fs, changelog); !ok {
		return nil
	}
	return fileset.CopyFile(s.Fs, changelog, filepath.Join(dir, s.Plugin.ID+"_changelog.txt"))
}

func (s *Sake) copyWPTrunk(_ context.Context) error {
	client, err := s.svnClient()
	if err != nil {
		return err
	}
	if s.svnDryRun("copy the build to trunk") {
		return nil
	}
	return copyTree(s.Fs, s.Config.PluginBuildDir(), client.Trunk())
}

func (s *Sake) copyWPAssets(_ context.Context) error {
	client, err := s.svnClient()
	if err != nil {
		return err
	}
	if s.svnDryRun("copy " + s.Config.Paths.WPAssets + " to assets") {
		return nil
	}
	return copyTree(s.Fs, s.path(s.Config.Paths.WPAssets), client.Assets())
}

func copyTree(fsys afero.Fs, src, dst string) error {
	files, err := fileset.Select(fsys, src, fileset.MustRules("**"))
	if err != nil {
		return err
	}
	return fileset.Copy(fsys, src, dst, files, nil)
}
