package sake

import (
	"context"
	"encoding/json"
	"path"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/model"
	"github.com/skyverge/sake/internal/shell"
)

// lintResult turns linter failures into warnings unless --lint-errors-fail
// is set.
func (s *Sake) lintResult(kind string, err error) error {
	if err == nil {
		return nil
	}
	if s.Options.LintErrorsFail {
		return model.WrapCLIError(model.ExitLintFailed, kind+" lint failed", err)
	}
	s.Log.Warn(kind+" lint reported errors", zap.Error(err))
	return nil
}

func (s *Sake) showFiles(kind string, files []string) {
	if !s.Options.ShowFiles {
		return
	}
	for _, f := range files {
		s.Log.Info(kind+": "+f)
	}
}

func (s *Sake) lintPHP(ctx context.Context) error {
	if s.Options.SkipLinting {
		return nil
	}
	files, err := s.phpFiles(false)
	if err != nil {
		return err
	}
	s.showFiles("lint:php", files)

	var errs error
	for _, f := range files {
		if _, err := s.Runner.Run(ctx, shell.Command{Name: "php", Args: []string{"-l", f}, Dir: s.Config.SrcDir()}); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return s.lintResult("PHP", errs)
}

func (s *Sake) lintCoffee(ctx context.Context) error {
	if s.Options.SkipLinting {
		return nil
	}
	files, err := s.coffeeSources()
	if err != nil || len(files) == 0 {
		return err
	}
	s.showFiles("lint:coffee", files)

	var args []string
	if s.Options.CoffeelintFile != "" {
		args = append(args, "-f", s.path(s.Options.CoffeelintFile))
	}
	args = append(args, files...)
	_, err = s.Runner.Run(ctx, shell.Command{Name: "coffeelint", Args: args, Dir: s.jsDir()})
	return s.lintResult("CoffeeScript", err)
}

func (s *Sake) lintJS(ctx context.Context) error {
	if s.Options.SkipLinting {
		return nil
	}
	files, err := s.javascriptSources()
	if err != nil || len(files) == 0 {
		return err
	}
	s.showFiles("lint:js", files)

	var args []string
	if s.Options.EslintConfigFile != "" {
		args = append(args, "--config", s.path(s.Options.EslintConfigFile))
	}
	if s.Options.Fix {
		args = append(args, "--fix")
	}
	args = append(args, files...)
	_, err = s.Runner.Run(ctx, shell.Command{Name: "eslint", Args: args, Dir: s.jsDir(), Mutates: s.Options.Fix})
	return s.lintResult("JavaScript", err)
}

func (s *Sake) lintStyles(ctx context.Context) error {
	if s.Options.SkipLinting {
		return nil
	}
	files, err := s.scssSources()
	if err != nil || len(files) == 0 {
		return err
	}
	s.showFiles("lint:styles", files)

	var args []string
	if s.Options.Fix {
		args = append(args, "--fix")
	}
	args = append(args, files...)
	_, err = s.Runner.Run(ctx, shell.Command{Name: "stylelint", Args: args, Dir: s.cssDir(), Mutates: s.Options.Fix})
	return s.lintResult("SCSS", err)
}

func (s *Sake) makepot(ctx context.Context) error {
	headers, err := json.Marshal(map[string]string{
		"Report-Msgid-Bugs-To": s.Config.Tasks.Makepot.ReportBugsTo,
	})
	if err != nil {
		return err
	}
	domainPath := s.Config.Tasks.Makepot.DomainPath
	out := filepath.FromSlash(path.Join(domainPath, s.Plugin.ID+".pot"))

	_, err = s.Runner.Run(ctx, shell.Command{
		Name: "wp",
		Args: []string{
			"i18n", "make-pot", ".", out,
			"--exclude=lib,vendor,tests,node_modules",
			"--headers=" + string(headers),
			"--domain=" + s.Plugin.ID,
		},
		Dir:     s.Config.SrcDir(),
		Mutates: true,
	})
	return err
}
