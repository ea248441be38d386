package sake

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"

	"github.com/skyverge/sake/internal/model"
	"github.com/skyverge/sake/internal/plugin"
	"github.com/skyverge/sake/internal/prompt"
)

var errSkipped = model.NewCLIError(model.ExitUserCancelled, "Deploy skipped")

// versionOptions are the choices of the deploy version prompt, in the
// order the increments are offered.
func versionOptions(v plugin.Versions) []prompt.Option {
	choice := color.New(color.FgYellow).SprintFunc()
	return []prompt.Option{
		{Label: choice("Build:  "+v.Prerelease) + " Unstable, betas, and release candidates.", Value: string(model.IncrementPrerelease)},
		{Label: choice("Patch:  "+v.Patch) + "   Backwards-compatible bug fixes.", Value: string(model.IncrementPatch)},
		{Label: choice("Minor:  "+v.Minor) + "   Add functionality in a backwards-compatible manner.", Value: string(model.IncrementMinor)},
		{Label: choice("Major:  "+v.Major) + "   Incompatible API changes.", Value: string(model.IncrementMajor)},
		{Label: choice("Custom: ?.?.?") + "   Specify version...", Value: string(model.IncrementCustom)},
		{Label: color.RedString("Skip this plugin") + "   This plugin will not be deployed", Value: string(model.IncrementSkip)},
	}
}

func defaultVersionIndex(inc model.Increment) int {
	switch inc {
	case model.IncrementMinor:
		return 2
	case model.IncrementMajor:
		return 3
	}
	return 1
}

func validateCustomVersion(v string) error {
	if !plugin.ValidVersion(v) {
		return errors.New("Must be a valid semver, such as 1.2.3-rc1. See http://semver.org/ for more details.")
	}
	return nil
}

// resolveVersion turns an increment keyword or an explicit version into
// the version to release.
func (s *Sake) resolveVersion(answer string) (string, error) {
	inc := model.Increment(answer)
	switch inc {
	case model.IncrementSkip:
		return "", errSkipped
	case model.IncrementPrerelease, model.IncrementPatch, model.IncrementMinor, model.IncrementMajor:
		v, err := plugin.Inc(s.Plugin.Version.Current, inc)
		if err != nil {
			return "", model.WrapCLIError(model.ExitGeneralError, "Cannot compute the new version", err)
		}
		return v, nil
	}
	if err := validateCustomVersion(answer); err != nil {
		return "", model.NewCLIError(model.ExitGeneralError, fmt.Sprintf("Invalid version %q: %v", answer, err))
	}
	return answer, nil
}

// promptDeploy picks the version to deploy: --new-version when given,
// otherwise the answer to the version prompt.
func (s *Sake) promptDeploy(ctx context.Context) error {
	answer := s.Options.NewVersion
	if answer == "" {
		current := s.Plugin.Version.Current
		message := s.Plugin.ChangelogText() + "\n\nBump version from " + highlight(current) + " to:"
		var err error
		answer, err = s.Prompt.Select(ctx, message,
			versionOptions(plugin.NewVersions(current)),
			defaultVersionIndex(s.Plugin.DefaultIncrement()))
		if err != nil {
			return err
		}
		if answer == string(model.IncrementCustom) {
			answer, err = s.Prompt.Input(ctx, "What specific version would you like", "", validateCustomVersion)
			if err != nil {
				return err
			}
		}
	}

	v, err := s.resolveVersion(answer)
	if err != nil {
		return err
	}
	s.setNewVersion(v)
	s.Log.Info("Deploying " + s.Plugin.DisplayName(false) + " " + highlight(v))
	return nil
}
