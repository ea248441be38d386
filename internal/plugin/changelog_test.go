package plugin

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const changelogTxt = `*** WooCommerce Memberships Changelog ***

2024.nn.nn - version 1.26.0-dev.1
 * Feature - Allow members to pause their membership
 * Fix - Prevent a PHP notice on the members area

2024.07.02 - version 1.25.3
 * Fix - Something older
`

const readmeTxt = `=== Jilt for WooCommerce ===
Contributors: skyverge
License: GPLv3
License URI: http://www.gnu.org/licenses/gpl-3.0.html
Stable tag: 1.7.2

== Description ==

Recover abandoned carts.

== Changelog ==

= 2024.nn.nn - version 1.8.0-dev.2 =
* Tweak - Improve the onboarding screen

= 2024.05.01 - version 1.7.2 =
* Fix - Older fix
`

func TestParseChangelog_UnnamedKeepsNewestVersion(t *testing.T) {
	cl := ParseChangelog("*** Changelog ***\n\n2024.nn.nn - version 2.1.0-dev.1\n * Fix - Newer\n\n2024.03.01 - version 2.0.0\n * Fix - Older\n", false)

	assert.Empty(t, cl.Name)
	assert.Equal(t, "2.1.0-dev.1", cl.Version)
}

func TestParseChangelog_ChangelogTxt(t *testing.T) {
	cl := ParseChangelog(changelogTxt, false)

	assert.Equal(t, "WooCommerce Memberships", cl.Name)
	assert.Equal(t, "1.26.0-dev.1", cl.Version)
	assert.Equal(t, []string{
		"* Feature - Allow members to pause their membership",
		"* Fix - Prevent a PHP notice on the members area",
	}, cl.Changes)
	assert.Equal(t, []string{"Feature", "Fix"}, cl.ChangeTypes())
	assert.True(t, cl.HasNewFeatures())
}

func TestParseChangelog_ReadmeTxt(t *testing.T) {
	cl := ParseChangelog(readmeTxt, true)

	assert.Equal(t, "Jilt for WooCommerce", cl.Name)
	assert.Equal(t, "1.8.0-dev.2", cl.Version)
	assert.Equal(t, []string{"* Tweak - Improve the onboarding screen"}, cl.Changes)
	assert.True(t, cl.HasNewFeatures(), "tweaks count as new features")
}

func TestParseChangelog_CRLF(t *testing.T) {
	cl := ParseChangelog("*** Test Changelog ***\r\n\r\n2024.nn.nn - version 1.0.1-dev.1\r\n * Fix - Bug\r\n", false)
	assert.Equal(t, "1.0.1-dev.1", cl.Version)
	assert.Equal(t, []string{"* Fix - Bug"}, cl.Changes)
	assert.False(t, cl.HasNewFeatures())
}

func TestParseChangelog_ReadmeWithoutChangelog(t *testing.T) {
	cl := ParseChangelog("=== Test ===\nLicense: GPL\n", true)
	assert.Equal(t, "Test", cl.Name)
	assert.Empty(t, cl.Version)
	assert.Empty(t, cl.Changes)
}

func TestLoadChangelog_PrefersChangelogTxt(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/p/changelog.txt", []byte(changelogTxt), 0644))
	require.NoError(t, afero.WriteFile(fsys, "/p/readme.txt", []byte(readmeTxt), 0644))

	cl, err := LoadChangelog(fsys, "/p")
	require.NoError(t, err)
	assert.Equal(t, "WooCommerce Memberships", cl.Name)
	assert.Equal(t, "/p/changelog.txt", cl.File)

	cl, err = LoadChangelog(afero.NewMemMapFs(), "/p")
	require.NoError(t, err)
	assert.Empty(t, cl.Name)
}

func TestStampRelease(t *testing.T) {
	out, ok := StampRelease(changelogTxt, "2024.10.18", "1.26.0")
	require.True(t, ok)
	assert.Contains(t, out, "2024.10.18 - version 1.26.0\n * Feature")
	assert.Contains(t, out, "2024.07.02 - version 1.25.3", "older entries are untouched")

	out, ok = StampRelease(readmeTxt, "2024.10.18", "1.8.0")
	require.True(t, ok)
	assert.Contains(t, out, "= 2024.10.18 - version 1.8.0 =")

	_, ok = StampRelease("no entries here", "2024.10.18", "1.0.0")
	assert.False(t, ok)
}
