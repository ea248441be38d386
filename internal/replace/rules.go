// Package replace holds the string rewrite rules behind the bump tasks:
// plugin version headers and constants, minimum requirement headers, and
// framework namespace versions in PHP sources.
//
// A Rule is a compiled regular expression plus a replacement function.
// Rules without All only touch the first match, mirroring how plugin files
// declare each header once.
package replace

import (
	"regexp"
	"strings"
)

// Rule rewrites matches of Pattern in a file.
type Rule struct {
	// Name identifies the rule in logs ("minimum_wp_version").
	Name string

	Pattern *regexp.Regexp

	// Replace builds the replacement from the submatches of one match.
	Replace func(groups []string) string

	// All replaces every match instead of just the first.
	All bool
}

// Apply runs the rule on contents and reports how many matches changed.
func (r Rule) Apply(contents string) (string, int) {
	locs := r.Pattern.FindAllStringSubmatchIndex(contents, -1)
	if len(locs) == 0 {
		return contents, 0
	}
	if !r.All {
		locs = locs[:1]
	}

	var b strings.Builder
	last := 0
	changed := 0
	for _, loc := range locs {
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = contents[loc[2*i]:loc[2*i+1]]
			}
		}
		repl := r.Replace(groups)
		if repl != groups[0] {
			changed++
		}
		b.WriteString(contents[last:loc[0]])
		b.WriteString(repl)
		last = loc[1]
	}
	b.WriteString(contents[last:])
	return b.String(), changed
}

// ApplyAll runs every rule in order and returns the total number of changes.
func ApplyAll(contents string, rules []Rule) (string, int) {
	total := 0
	for _, r := range rules {
		var n int
		contents, n = r.Apply(contents)
		total += n
	}
	return contents, total
}

func literal(s string) func([]string) string {
	return func([]string) string { return s }
}

// eol replaces a whole line with s, keeping the line ending captured by
// the rule's last group (CRLF files stay CRLF).
func eol(s string) func([]string) string {
	return func(g []string) string { return s + g[len(g)-1] }
}

// keepPrefix replaces the value after the first submatch, keeping the
// submatch itself ("'minimum_wp_version' => " stays, the quoted value changes).
func keepPrefix(value string) func([]string) string {
	return func(g []string) string { return g[1] + "'" + value + "'" }
}

// PluginVersion rewrites the plugin header " * Version: x.y.z" and the
// "const VERSION = '...';" class constant.
func PluginVersion(version string) []Rule {
	return []Rule{
		{
			Name:    "version_header",
			Pattern: regexp.MustCompile(` \* Version: [0-9]+\.[0-9]+\.[0-9]+(-[A-Za-z]+\.[0-9]+)*(\r?\n)`),
			Replace: eol(" * Version: " + version),
		},
		{
			Name:    "version_constant",
			Pattern: regexp.MustCompile(`const VERSION = '[^']*';`),
			Replace: literal("const VERSION = '" + version + "';"),
		},
	}
}

// Requirements holds the optional values bump:minreqs writes. Empty fields
// leave the corresponding headers untouched.
type Requirements struct {
	MinimumPHPVersion   string
	MinimumWPVersion    string
	TestedUpToWPVersion string
	MinimumWCVersion    string
	TestedUpToWCVersion string
	FrameworkVersion    string
	BackwardsCompatible string

	// FrameworkV4 selects the v4 bootstrap registration rule for
	// FrameworkVersion instead of namespace rewriting.
	FrameworkV4 bool
}

// IsZero reports whether no requirement is set.
func (r Requirements) IsZero() bool {
	return r == Requirements{}
}

// MinimumRequirements builds the rules for the requirements that are set.
func MinimumRequirements(req Requirements) []Rule {
	var rules []Rule

	if v := req.MinimumPHPVersion; v != "" {
		rules = append(rules, Rule{
			Name:    "minimum_php_version",
			Pattern: regexp.MustCompile(`MINIMUM_PHP_VERSION = [^\r\n]*(\r?\n)`),
			Replace: eol("MINIMUM_PHP_VERSION = '" + v + "';"),
		})
	}

	if v := req.MinimumWPVersion; v != "" {
		rules = append(rules,
			Rule{
				Name:    "minimum_wp_version",
				Pattern: regexp.MustCompile(`('minimum_wp_version'\s*=>\s*)'([^']*)'`),
				Replace: keepPrefix(v),
			},
			Rule{
				Name:    "requires_at_least",
				Pattern: regexp.MustCompile(`Requires at least: [^\r\n]*(\r?\n)`),
				Replace: eol("Requires at least: " + v),
			},
			Rule{
				Name:    "minimum_wp_version_constant",
				Pattern: regexp.MustCompile(`MINIMUM_WP_VERSION = [^\r\n]*(\r?\n)`),
				Replace: eol("MINIMUM_WP_VERSION = '" + v + "';"),
			},
		)
	}

	if v := req.TestedUpToWPVersion; v != "" {
		rules = append(rules, Rule{
			Name:    "tested_up_to",
			Pattern: regexp.MustCompile(`Tested up to: [^\r\n]*(\r?\n)`),
			Replace: eol("Tested up to: " + v),
		})
	}

	if v := req.MinimumWCVersion; v != "" {
		rules = append(rules,
			Rule{
				Name:    "minimum_wc_version",
				Pattern: regexp.MustCompile(`('minimum_wc_version'\s*=>\s*)'([^']*)'`),
				Replace: keepPrefix(v),
			},
			Rule{
				Name:    "wc_requires_at_least",
				Pattern: regexp.MustCompile(`WC requires at least: [^\r\n]*(\r?\n)`),
				Replace: eol("WC requires at least: " + v),
			},
			Rule{
				Name:    "minimum_wc_version_constant",
				Pattern: regexp.MustCompile(`MINIMUM_WC_VERSION = [^\r\n]*(\r?\n)`),
				Replace: eol("MINIMUM_WC_VERSION = '" + v + "';"),
			},
		)
	}

	if v := req.TestedUpToWCVersion; v != "" {
		rules = append(rules, Rule{
			Name:    "wc_tested_up_to",
			Pattern: regexp.MustCompile(`WC tested up to: [^\r\n]*(\r?\n)`),
			Replace: eol("WC tested up to: " + v),
		})
	}

	if v := req.FrameworkVersion; v != "" {
		if req.FrameworkV4 {
			rules = append(rules, FrameworkBootstrapV4(v))
		} else {
			rules = append(rules, FrameworkNamespace(v)...)
		}
	}

	if v := req.BackwardsCompatible; v != "" {
		rules = append(rules, Rule{
			Name:    "backwards_compatible",
			Pattern: regexp.MustCompile(`('backwards_compatible'\s*=>\s*)'([^']*)'`),
			Replace: keepPrefix(v),
		})
	}

	return rules
}

// FrameworkNamespace rewrites the versioned framework namespace, in both
// its plain form (SkyVerge\WooCommerce\PluginFramework\v5_10_12) and the
// escaped form used inside PHP strings (SkyVerge\\WooCommerce\\...).
func FrameworkNamespace(version string) []Rule {
	ns := "v" + strings.ReplaceAll(version, ".", "_")
	return []Rule{
		{
			Name:    "framework_namespace",
			Pattern: regexp.MustCompile(`SkyVerge\\WooCommerce\\PluginFramework\\v[0-9]+_[0-9]+_[0-9]+`),
			Replace: literal(`SkyVerge\WooCommerce\PluginFramework\` + ns),
			All:     true,
		},
		{
			Name:    "framework_namespace_escaped",
			Pattern: regexp.MustCompile(`SkyVerge\\\\WooCommerce\\\\PluginFramework\\\\v[0-9]+_[0-9]+_[0-9]+`),
			Replace: literal(`SkyVerge\\WooCommerce\\PluginFramework\\` + ns),
			All:     true,
		},
	}
}

// FrameworkBootstrapV4 rewrites the framework version a v4 plugin
// registers with SV_WC_Framework_Bootstrap.
func FrameworkBootstrapV4(version string) Rule {
	return Rule{
		Name:    "framework_version_v4",
		Pattern: regexp.MustCompile(`SV_WC_Framework_Bootstrap::instance\(\)->register_plugin\( '([^']*)'`),
		Replace: literal("SV_WC_Framework_Bootstrap::instance()->register_plugin( '" + version + "'"),
	}
}

// StableTag rewrites the readme.txt "Stable tag:" header.
func StableTag(version string) Rule {
	return Rule{
		Name:    "stable_tag",
		Pattern: regexp.MustCompile(`Stable tag: [^\r\n]*(\r?\n)`),
		Replace: eol("Stable tag: " + version),
	}
}

// PrereleaseSince rewrites "@since" docblock tags that still name one of
// prereleases to the released version.
func PrereleaseSince(prereleases []string, version string) Rule {
	quoted := make([]string, len(prereleases))
	for i, v := range prereleases {
		quoted[i] = regexp.QuoteMeta(v)
	}
	return Rule{
		Name:    "since_prerelease",
		Pattern: regexp.MustCompile(`(@since\s+)(?:` + strings.Join(quoted, "|") + `)\b`),
		Replace: func(g []string) string { return g[1] + version },
		All:     true,
	}
}
