package fileset

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPluginFs lays out a small plugin source tree in memory.
func newPluginFs(t *testing.T) afero.Fs {
	t.Helper()

	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"/plugin/woocommerce-test.php":                     "<?php /* Plugin Name: Test */",
		"/plugin/assets/js/admin.js":                       "console.log(1)",
		"/plugin/assets/js/admin.min.js":                   "console.log(1)\n//# sourceMappingURL=admin.min.js.map",
		"/plugin/assets/js/admin.min.js.map":               "{}",
		"/plugin/assets/css/admin.scss":                    "a{}",
		"/plugin/assets/css/admin.min.css":                 "a{}",
		"/plugin/node_modules/lodash/lodash.js":            "x",
		"/plugin/tests/unit/PluginTest.php":                "x",
		"/plugin/.gitignore":                               "build",
		"/plugin/.github/workflows/ci.yml":                 "x",
		"/plugin/vendor/skyverge/wc-plugin-framework/l.txt": "x",
		"/plugin/vendor/skyverge/wc-plugin-framework/a.php": "x",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0644))
	}
	return fsys
}

func TestRules_LastMatchWins(t *testing.T) {
	r := MustRules(
		"**/*",
		"!assets/js/**/*.js",
		"assets/js/**/*.min.js",
		"!**/*.map",
	)

	assert.True(t, r.Match("woocommerce-test.php"))
	assert.False(t, r.Match("assets/js/admin.js"))
	assert.True(t, r.Match("assets/js/admin.min.js"))
	assert.False(t, r.Match("assets/js/admin.min.js.map"))
	assert.False(t, MustRules("!**/*").Match("readme.txt"), "negation alone selects nothing")
}

func TestRules_InvalidPattern(t *testing.T) {
	_, err := NewRules("assets/[js")
	assert.Error(t, err)
	assert.Panics(t, func() { MustRules("assets/[js") })
}

func TestRules_Patterns(t *testing.T) {
	r := MustRules("./**/*", "!./**/*.map")
	require.NoError(t, r.ExcludeDir("**/node_modules"))
	assert.Equal(t, []string{"**/*", "!**/*.map", "!**/node_modules/**"}, r.Patterns())
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "**/*.map", Join(".", "**/*.map"))
	assert.Equal(t, "build/assets/js/**/*.js", Join("build/", "assets/js", "**/*.js"))
	assert.Equal(t, ".", Join(".", ""))
}

func TestSelect(t *testing.T) {
	fsys := newPluginFs(t)

	r := MustRules("**/*", "!**/*.map", "!**/.*", "!vendor/skyverge/wc-plugin-framework/*", "vendor/skyverge/wc-plugin-framework/l.txt")
	require.NoError(t, r.ExcludeDir("**/node_modules"))
	require.NoError(t, r.ExcludeDir("**/tests"))
	require.NoError(t, r.ExcludeDir("**/.*"))

	files, err := Select(fsys, "/plugin", r)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"assets/css/admin.min.css",
		"assets/css/admin.scss",
		"assets/js/admin.js",
		"assets/js/admin.min.js",
		"vendor/skyverge/wc-plugin-framework/l.txt",
		"woocommerce-test.php",
	}, files)
}

func TestSelect_MissingRoot(t *testing.T) {
	files, err := Select(afero.NewMemMapFs(), "/nope", MustRules("**/*"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCopy_WithTransform(t *testing.T) {
	fsys := newPluginFs(t)

	strip := func(rel string, data []byte) []byte {
		if !strings.HasSuffix(rel, ".min.js") {
			return data
		}
		return []byte(strings.Split(string(data), "\n")[0])
	}

	err := Copy(fsys, "/plugin", "/build/test", []string{"assets/js/admin.min.js", "woocommerce-test.php"}, strip)
	require.NoError(t, err)

	data, err := afero.ReadFile(fsys, "/build/test/assets/js/admin.min.js")
	require.NoError(t, err)
	assert.Equal(t, "console.log(1)", string(data))

	exists, err := afero.Exists(fsys, "/build/test/woocommerce-test.php")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCopyFile_Renames(t *testing.T) {
	fsys := newPluginFs(t)
	require.NoError(t, CopyFile(fsys, "/plugin/.gitignore", "/out/ignore.txt"))

	data, err := afero.ReadFile(fsys, "/out/ignore.txt")
	require.NoError(t, err)
	assert.Equal(t, "build", string(data))
}

func TestRemove(t *testing.T) {
	fsys := newPluginFs(t)

	removed, err := Remove(fsys, "/plugin", MustRules("assets/**/*.map", "tests/**"))
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/js/admin.min.js.map", "tests/unit/PluginTest.php"}, removed)

	exists, _ := afero.DirExists(fsys, "/plugin/tests")
	assert.False(t, exists, "emptied directories are pruned")

	exists, _ = afero.Exists(fsys, "/plugin/assets/js/admin.min.js")
	assert.True(t, exists)
}

func TestEmpty(t *testing.T) {
	fsys := newPluginFs(t)
	require.NoError(t, Empty(fsys, "/plugin/assets"))

	entries, err := afero.ReadDir(fsys, "/plugin/assets")
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, Empty(fsys, "/missing"))
}
