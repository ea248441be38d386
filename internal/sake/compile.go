package sake

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/skyverge/sake/internal/fileset"
	"github.com/skyverge/sake/internal/model"
	"github.com/skyverge/sake/internal/shell"
)

func (s *Sake) compile(ctx context.Context) error {
	var names []string
	if !s.Options.SkipLinting {
		names = append(names, "lint:php")
	}
	names = append(names, "compile:scripts", "compile:styles")
	if !s.Options.SkipPot {
		names = append(names, "makepot")
	}
	return s.tasks.Parallel(names...)(ctx)
}

func (s *Sake) jsDir() string  { return s.path(s.Config.Paths.AssetPaths.JS) }
func (s *Sake) cssDir() string { return s.path(s.Config.Paths.AssetPaths.CSS) }

// javascriptSources lists the unminified, non-vendor scripts relative to
// the js dir.
func (s *Sake) javascriptSources() ([]string, error) {
	prefix := s.Config.Paths.AssetPaths.JS + "/"
	rules := &fileset.Rules{}
	for _, p := range s.Config.Paths.AssetPaths.JavaScriptSources {
		neg := strings.HasPrefix(p, "!")
		p = strings.TrimPrefix(strings.TrimPrefix(p, "!"), prefix)
		if neg {
			p = "!" + p
		}
		if err := rules.Add(p); err != nil {
			return nil, err
		}
	}
	if err := rules.ExcludeDir("**/node_modules"); err != nil {
		return nil, err
	}
	return fileset.Select(s.Fs, s.jsDir(), rules)
}

func (s *Sake) coffeeSources() ([]string, error) {
	return fileset.Select(s.Fs, s.jsDir(), fileset.MustRules("**/*.coffee"))
}

// scssSources lists the stylesheets that compile on their own: partials
// and mixins are only imported.
func (s *Sake) scssSources() ([]string, error) {
	return fileset.Select(s.Fs, s.cssDir(), fileset.MustRules("**/*.scss", "!**/_*.scss", "!**/mixins.scss"))
}

// esbuild minifies entries (relative to dir) into *.min.js next to them.
func (s *Sake) esbuild(ctx context.Context, dir, outdir string, entries []string) error {
	args := append([]string{}, entries...)
	args = append(args, "--outdir="+outdir, "--outbase=.", "--out-extension:.js=.min.js", "--sourcemap", "--log-level=warning")
	if s.Options.Minify {
		args = append(args, "--minify")
	}
	_, err := s.Runner.Run(ctx, shell.Command{Name: "esbuild", Args: args, Dir: dir, Mutates: true})
	return err
}

// compileCoffee compiles coffee files into a scratch dir with the same
// layout, then minifies the output into the js dir.
func (s *Sake) compileCoffee(ctx context.Context) error {
	files, err := s.coffeeSources()
	if err != nil || len(files) == 0 {
		return err
	}

	out := filepath.Join(s.Config.TmpDir(), "coffee", s.Plugin.ID)
	if _, err := s.Runner.Run(ctx, shell.Command{
		Name:    "coffee",
		Args:    []string{"--compile", "--output", out, "."},
		Dir:     s.jsDir(),
		Mutates: true,
	}); err != nil {
		return err
	}

	entries := make([]string, len(files))
	for i, f := range files {
		entries[i] = strings.TrimSuffix(f, ".coffee") + ".js"
	}
	return s.esbuild(ctx, out, s.jsDir(), entries)
}

func (s *Sake) compileJS(ctx context.Context) error {
	files, err := s.javascriptSources()
	if err != nil || len(files) == 0 {
		return err
	}
	return s.esbuild(ctx, s.jsDir(), ".", files)
}

func (s *Sake) compileStyles(ctx context.Context) error {
	files, err := s.scssSources()
	if err != nil || len(files) == 0 {
		return err
	}

	style := "expanded"
	if s.Options.Minify {
		style = "compressed"
	}
	args := []string{"--style=" + style, "--source-map", "--no-error-css"}
	for _, f := range files {
		args = append(args, f+":"+strings.TrimSuffix(f, ".scss")+".min.css")
	}
	_, err = s.Runner.Run(ctx, shell.Command{Name: "sass", Args: args, Dir: s.cssDir(), Mutates: true})
	return err
}

// phpFiles lists the PHP sources of the plugin, relative to src.
func (s *Sake) phpFiles(excludeFramework bool) ([]string, error) {
	rules := fileset.MustRules("**/*.php")
	dirs := []string{"**/node_modules", "**/.*", "lib"}
	for _, d := range []string{s.Config.Paths.Build, s.Config.Paths.Tmp, s.Config.Paths.Vendor} {
		if d == "" {
			continue
		}
		if rel, ok := s.srcRel(d); ok && rel != "." {
			dirs = append(dirs, rel)
		}
	}
	if excludeFramework && s.Config.Paths.Framework.Base != "" {
		dirs = append(dirs, s.Config.Paths.Framework.Base)
	}
	for _, d := range dirs {
		if err := rules.ExcludeDir(path.Clean(d)); err != nil {
			return nil, err
		}
	}
	return fileset.Select(s.Fs, s.Config.SrcDir(), rules)
}

func (s *Sake) bundleScripts(ctx context.Context) error {
	if len(s.Config.Scripts) == 0 {
		s.Log.Info("No script dependencies to bundle.")
		return nil
	}
	s.Log.Info("Bundling script dependencies.")

	if _, err := s.Runner.Run(ctx, shell.Command{Name: "npm", Args: []string{"install"}, Dir: s.Config.WorkDir, Stream: true, Mutates: true}); err != nil {
		return err
	}

	for _, sc := range s.Config.Scripts {
		pkgDir := filepath.Join(s.Config.WorkDir, "node_modules", sc.Package)
		if ok, _ := afero.DirExists(s.Fs, pkgDir); !ok {
			if s.Options.DryRun {
				s.Log.Info("[dry-run] would bundle '" + sc.File + "' from '" + sc.Package + "'")
				continue
			}
			return model.NewCLIError(model.ExitGeneralError, "Package '" + sc.Package + "' not found in node_modules.")
		}
		src := filepath.Join(pkgDir, filepath.FromSlash(sc.File))
		dst := filepath.Join(s.path(sc.Destination), filepath.FromSlash(sc.File))
		if err := fileset.CopyFile(s.Fs, src, dst); err != nil {
			return model.NewCLIError(model.ExitGeneralError, "Error copying '" + sc.File + "' from '" + sc.Package + "': " + err.Error())
		}
		s.Log.Info("Bundled '" + sc.File + "' from '" + sc.Package + "' to '" + sc.Destination + "'.")
	}
	return nil
}
