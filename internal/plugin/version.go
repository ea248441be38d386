package plugin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blang/semver/v4"

	"github.com/skyverge/sake/internal/model"
)

// Versions lists the current version and the version each increment
// would produce, as offered by the deploy prompt.
type Versions struct {
	Current    string `json:"current"`
	Prerelease string `json:"prerelease"`
	Patch      string `json:"patch"`
	Minor      string `json:"minor"`
	Major      string `json:"major"`
}

// NewVersions computes the increments of current. Increments are left
// empty when current is not a valid semantic version.
func NewVersions(current string) Versions {
	v := Versions{Current: current}
	v.Prerelease, _ = Inc(current, model.IncrementPrerelease)
	v.Patch, _ = Inc(current, model.IncrementPatch)
	v.Minor, _ = Inc(current, model.IncrementMinor)
	v.Major, _ = Inc(current, model.IncrementMajor)
	return v
}

// For returns the version for the given increment.
func (v Versions) For(inc model.Increment) string {
	switch inc {
	case model.IncrementPrerelease:
		return v.Prerelease
	case model.IncrementPatch:
		return v.Patch
	case model.IncrementMinor:
		return v.Minor
	case model.IncrementMajor:
		return v.Major
	}
	return ""
}

// ValidVersion reports whether s is a strict semantic version.
func ValidVersion(s string) bool {
	_, err := semver.Parse(s)
	return err == nil
}

// Inc increments a semantic version.
//
// A prerelease version is first released as-is: 1.2.3-dev.1 bumps to 1.2.3
// on patch, to 1.3.0 on minor (1.3.0-dev.1 to 1.3.0) and to 2.0.0 on major.
// prerelease increments the last numeric identifier (1.2.3-dev.1 becomes
// 1.2.3-dev.2) or starts a new prerelease of the next patch (1.2.3 becomes
// 1.2.4-0).
func Inc(version string, inc model.Increment) (string, error) {
	v, err := semver.Parse(version)
	if err != nil {
		return "", fmt.Errorf("invalid version %q: %w", version, err)
	}
	pre := len(v.Pre) > 0

	switch inc {
	case model.IncrementMajor:
		if !pre || v.Minor != 0 || v.Patch != 0 {
			v.Major++
		}
		v.Minor, v.Patch = 0, 0
		v.Pre = nil
	case model.IncrementMinor:
		if !pre || v.Patch != 0 {
			v.Minor++
		}
		v.Patch = 0
		v.Pre = nil
	case model.IncrementPatch:
		if !pre {
			v.Patch++
		}
		v.Pre = nil
	case model.IncrementPrerelease:
		if !pre {
			v.Patch++
			v.Pre = []semver.PRVersion{{VersionNum: 0, IsNum: true}}
			break
		}
		bumped := false
		for i := len(v.Pre) - 1; i >= 0; i-- {
			if v.Pre[i].IsNum {
				v.Pre[i].VersionNum++
				bumped = true
				break
			}
		}
		if !bumped {
			v.Pre = append(v.Pre, semver.PRVersion{VersionNum: 0, IsNum: true})
		}
	default:
		return "", fmt.Errorf("cannot increment version by %q", inc)
	}
	v.Build = nil
	return v.String(), nil
}

// PrereleaseVersions lists the dev, beta and RC versions that may have
// preceded version, newest first: for 1.2.0-dev.2 that is
// 1.2.0-dev.2, 1.2.0-beta.2, 1.2.0-RC.2, 1.2.0-rc.2, 1.2.0-dev.1 and so on.
// Used to find prerelease zips belonging to a release.
func PrereleaseVersions(version string) []string {
	if !strings.Contains(version, "-") {
		return nil
	}
	prod, _, _ := strings.Cut(version, "-")
	n, err := strconv.Atoi(version[strings.LastIndex(version, ".")+1:])
	if err != nil {
		return nil
	}

	var out []string
	for i := n; i >= 1; i-- {
		for _, label := range []string{"dev", "beta", "RC", "rc"} {
			out = append(out, fmt.Sprintf("%s-%s.%d", prod, label, i))
		}
	}
	return out
}

// GTE reports whether a >= b. Invalid versions compare as smaller.
func GTE(a, b string) bool {
	va, err := semver.ParseTolerant(a)
	if err != nil {
		return false
	}
	vb, err := semver.ParseTolerant(b)
	if err != nil {
		return true
	}
	return va.GTE(vb)
}

// NormalizeRequirement turns integer requirement values into "N.0", so
// "--minimum-wp-version=6" writes "6.0".
func NormalizeRequirement(v string) string {
	if _, err := strconv.Atoi(v); err == nil {
		return v + ".0"
	}
	return v
}
