package plugin

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// Changelog holds what sake reads from the top of a plugin changelog: the
// plugin name, the version of the newest entry and that entry's lines.
//
// changelog.txt layout:
//
//	*** WooCommerce Memberships Changelog ***
//
//	2024.nn.nn - version 1.26.0-dev.1
//	 * Feature - Something new
//	 * Fix - Something broken
//
// readme.txt plugins keep the same entries under "== Changelog ==".
type Changelog struct {
	// Name is the plugin name from the first line of the file.
	Name string `json:"name"`

	// Version is the version of the newest entry.
	Version string `json:"version"`

	// Changes are the trimmed lines of the newest entry.
	Changes []string `json:"changes"`

	// File is the path the changelog was read from.
	File string `json:"file"`
}

// changelogFiles lists candidate files in priority order.
var changelogFiles = []string{"changelog.txt", "readme.txt"}

// LoadChangelog parses the changelog in srcDir. Returns an empty Changelog
// (not an error) when neither changelog.txt nor readme.txt exists.
func LoadChangelog(fsys afero.Fs, srcDir string) (*Changelog, error) {
	for _, name := range changelogFiles {
		p := filepath.Join(srcDir, name)
		data, err := afero.ReadFile(fsys, p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		cl := ParseChangelog(string(data), name == "readme.txt")
		cl.File = p
		return cl, nil
	}
	return &Changelog{}, nil
}

// ParseChangelog parses changelog contents. readme selects the readme.txt
// layout, where the entries follow a "== Changelog ==" heading.
func ParseChangelog(contents string, readme bool) *Changelog {
	contents = strings.ReplaceAll(contents, "\r\n", "\n")
	cl := &Changelog{}

	var lines []string
	if readme {
		first, _, _ := strings.Cut(contents, "\n")
		cl.Name = strings.TrimSpace(strings.ReplaceAll(first, "=", ""))

		_, section, found := strings.Cut(contents, "== Changelog ==")
		if !found {
			return cl
		}
		lines = strings.Split(strings.TrimSpace(section), "\n")
	} else {
		lines = strings.Split(contents, "\n")
		name := strings.ReplaceAll(lines[0], "*", "")
		name = strings.Replace(name, "Changelog", "", 1)
		cl.Name = strings.TrimSpace(name)
	}

	for _, line := range lines {
		if cl.Name != "" && cl.Version != "" {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				break
			}
			cl.Changes = append(cl.Changes, trimmed)
			continue
		}
		if i := strings.Index(line, "version"); i >= 0 && cl.Version == "" {
			cl.Version = versionAfter(line, i)
		}
	}
	return cl
}

// versionAfter returns the text following "version " at index i, with any
// readme heading "=" markers removed.
func versionAfter(line string, i int) string {
	rest := line[i+len("version"):]
	return strings.TrimSpace(strings.ReplaceAll(rest, "=", ""))
}

// ChangeTypes returns the entry type of each change ("Feature", "Fix",
// "Tweak", "Misc"...), taken from the text before the first "-".
func (c *Changelog) ChangeTypes() []string {
	types := make([]string, 0, len(c.Changes))
	for _, change := range c.Changes {
		kind, _, _ := strings.Cut(change, "-")
		types = append(types, strings.TrimSpace(strings.ReplaceAll(kind, "*", "")))
	}
	return types
}

var featureType = regexp.MustCompile(`(?i)feature|tweak`)

// HasNewFeatures reports whether any change is a feature or a tweak.
func (c *Changelog) HasNewFeatures() bool {
	for _, kind := range c.ChangeTypes() {
		if featureType.MatchString(kind) {
			return true
		}
	}
	return false
}

// entryHeader matches the header of the newest changelog entry, e.g.
// "2024.nn.nn - version 1.26.0-dev.1" or "= 2024.nn.nn - version 1.26.0-dev.1 =".
var entryHeader = regexp.MustCompile(`(?m)^(=?\s*)[0-9n]{4}\.[0-9n]{2}\.[0-9n]{2}(\s*-\s*version\s+)(\S+)`)

// StampRelease rewrites the first entry header of a changelog with the
// release date and the final version, e.g.
// "2024.nn.nn - version 1.26.0-dev.1" becomes "2024.10.18 - version 1.26.0".
// ok is false when no entry header was found.
func StampRelease(contents, date, version string) (string, bool) {
	loc := entryHeader.FindStringSubmatchIndex(contents)
	if loc == nil {
		return contents, false
	}
	prefix := contents[loc[2]:loc[3]]
	sep := contents[loc[4]:loc[5]]
	return contents[:loc[0]] + prefix + date + sep + version + contents[loc[1]:], true
}
