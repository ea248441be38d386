package sake

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyverge/sake/internal/model"
)

func TestGitPushUpdate(t *testing.T) {
	s, tb := newSake(t, setup{})
	tb.rec.Responses["git -C /repos/woocommerce-foo diff --cached --name-only"] = "woocommerce-foo.php\n"
	s.setNewVersion("1.2.0")
	s.setReleaseIssue(12)

	require.NoError(t, s.Tasks().Run(context.Background(), "shell:git_push_update"))

	assert.Equal(t, []string{
		"git -C /repos/woocommerce-foo add -A",
		"git -C /repos/woocommerce-foo diff --cached --name-only",
		"git -C /repos/woocommerce-foo commit -m WooCommerce Foo: 1.2.0 Versioning -m Closes #12",
		"git -C /repos/woocommerce-foo push",
	}, tb.rec.Lines())
}

func TestGitPushUpdate_DryRun(t *testing.T) {
	s, tb := newSake(t, setup{options: Options{DryRun: true}})
	s.setNewVersion("1.2.0")

	require.NoError(t, s.gitPushUpdate(context.Background()))
	assert.Equal(t, []string{"git -C /repos/woocommerce-foo diff --cached --name-only"}, tb.rec.Lines())
}

func TestGitEnsureClean(t *testing.T) {
	s, tb := newSake(t, setup{})
	tb.rec.Responses["git -C /repos/woocommerce-foo status"] = " M woocommerce-foo.php\n"

	err := s.gitEnsureClean(context.Background())
	cliErr := requireExitCode(t, err, model.ExitGeneralError)
	assert.Contains(t, cliErr.Message, "M woocommerce-foo.php")
}

func TestComposer(t *testing.T) {
	t.Run("no composer.json", func(t *testing.T) {
		s, tb := newSake(t, setup{})
		require.NoError(t, s.Tasks().Run(context.Background(), "shell:composer_install"))
		assert.Empty(t, tb.rec.Lines())
	})

	t.Run("install", func(t *testing.T) {
		s, tb := newSake(t, setup{files: map[string]string{
			"composer.json": `{"name": "skyverge/woocommerce-foo"}`,
		}})
		require.NoError(t, s.Tasks().Run(context.Background(), "shell:composer_install"))
		require.Equal(t, []string{"composer install"}, tb.rec.Lines())
		assert.Equal(t, workDir, tb.rec.Commands[0].Dir)
		assert.True(t, tb.rec.Commands[0].Mutates)
	})
}

func TestSvnCommits(t *testing.T) {
	s, tb := newSake(t, setup{
		files: map[string]string{"sake.config.json": `{"framework": false, "deploy": "wp"}`},
		env:   map[string]string{"WP_SVN_USER": "dev"},
	})
	tb.rec.Responses["svn status"] = "?       new.php\n"
	s.setNewVersion("1.2.0")

	require.NoError(t, s.tasks.Series("shell:svn_commit_trunk", "shell:svn_commit_tag")(context.Background()))

	assert.Equal(t, []string{
		"svn status",
		"svn add --parents new.php",
		"svn commit --force-interactive -m Committing 1.2.0 to trunk --username dev",
		"svn copy trunk tags/1.2.0",
		"svn commit --force-interactive -m Tagging 1.2.0 --username dev",
	}, tb.rec.Lines())
	assert.Equal(t, "/tmp/sake/woocommerce-foo/trunk", tb.rec.Commands[0].Dir)
	assert.Equal(t, "/tmp/sake/woocommerce-foo/tags/1.2.0", tb.rec.Commands[4].Dir)
}

func TestSvnClient_NotWordPress(t *testing.T) {
	s, _ := newSake(t, setup{})

	err := s.Tasks().Run(context.Background(), "shell:svn_checkout")
	requireExitCode(t, err, model.ExitConfigError)
}

func TestUpdateFramework_V4(t *testing.T) {
	s, tb := newSake(t, setup{files: map[string]string{
		"sake.config.json":                       `{"framework": "v4"}`,
		"lib/skyverge/woocommerce/changelog.txt": "*** SkyVerge WooCommerce Plugin Framework Changelog ***\n\n2024.nn.nn - version 4.9.2\n",
	}})
	tb.rec.Responses["git -C /repos/woocommerce-foo rev-parse --show-toplevel"] = workDir + "\n"
	tb.rec.Responses["git -C /repos/woocommerce-foo diff --cached --name-only"] = "lib/skyverge/woocommerce/changelog.txt\n"

	require.NoError(t, s.Tasks().Run(context.Background(), "upfw"))

	assert.Equal(t, []string{
		"git -C /repos/woocommerce-foo rev-parse --show-toplevel",
		"git -C /repos/woocommerce-foo remote",
		"git -C /repos/woocommerce-foo remote add wc-plugin-framework git@github.com:skyverge/wc-plugin-framework.git",
		"git -C /repos/woocommerce-foo fetch wc-plugin-framework legacy-v4",
		"git -C /repos/woocommerce-foo subtree pull --prefix lib/skyverge wc-plugin-framework legacy-v4 --squash",
		"git -C /repos/woocommerce-foo add -A",
		"git -C /repos/woocommerce-foo diff --cached --name-only",
		"git -C /repos/woocommerce-foo commit -m WooCommerce Foo: Update framework to v4.9.2",
	}, tb.rec.Lines())
}

func TestUpdateFramework_V4Branch(t *testing.T) {
	s, tb := newSake(t, setup{
		files: map[string]string{
			"sake.config.json":                       `{"framework": "v4"}`,
			"lib/skyverge/woocommerce/changelog.txt": "*** SkyVerge WooCommerce Plugin Framework Changelog ***\n\n2024.nn.nn - version 4.9.3\n",
		},
		options: Options{Branch: "release-4.9"},
	})
	tb.rec.Responses["git -C /repos/woocommerce-foo rev-parse --show-toplevel"] = workDir + "\n"

	require.NoError(t, s.Tasks().Run(context.Background(), "shell:update_framework"))
	assert.Contains(t, tb.rec.Lines(), "git -C /repos/woocommerce-foo subtree pull --prefix lib/skyverge wc-plugin-framework release-4.9 --squash")
}

func TestSvnCommits_DryRun(t *testing.T) {
	s, tb := newSake(t, setup{
		files:   map[string]string{"sake.config.json": `{"framework": false, "deploy": "wp"}`},
		env:     map[string]string{"WP_SVN_USER": "dev"},
		options: Options{DryRun: true},
	})
	tb.rec.Responses["svn status"] = "?       new.php\n!       gone.php\n"
	s.setNewVersion("1.2.0")

	require.NoError(t, s.tasks.Series(
		"shell:svn_checkout",
		"clean:wp_trunk",
		"copy:wp_trunk",
		"shell:svn_commit_trunk",
		"shell:svn_commit_tag",
		"copy:wp_assets",
		"shell:svn_commit_assets",
	)(context.Background()))

	assert.Empty(t, tb.rec.Lines())
	assert.False(t, tb.exists("/tmp/sake/woocommerce-foo"))
}

func TestUpdateFramework_V5(t *testing.T) {
	s, tb := newSake(t, setup{
		files: map[string]string{
			"sake.config.json": `{}`,
			"composer.json":    `{"require": {"php": ">=7.4", "skyverge/wc-plugin-framework": "5.11.0"}}`,
			"vendor/skyverge/wc-plugin-framework/package.json": `{"version": "5.12.0"}`,
			"includes/class-foo.php":                           `<?php use SkyVerge\WooCommerce\PluginFramework\v5_11_0 as Framework;`,
		},
		options: Options{FrameworkVersion: "5.12.0"},
	})
	tb.rec.Responses["git -C /repos/woocommerce-foo diff --cached --name-only"] = "composer.json\n"

	require.NoError(t, s.Tasks().Run(context.Background(), "upfw"))

	assert.Contains(t, tb.read(t, "composer.json"), `"skyverge/wc-plugin-framework": "5.12.0"`)
	assert.Contains(t, tb.read(t, "composer.json"), `"php": ">=7.4"`)
	assert.Contains(t, tb.read(t, "includes/class-foo.php"), `PluginFramework\v5_12_0 as Framework`)

	lines := tb.rec.Lines()
	assert.Contains(t, lines, "composer update")
	assert.Contains(t, lines, "git -C /repos/woocommerce-foo commit -m WooCommerce Foo: Update framework to v5.12.0")
}

func TestUpdateFramework_V5WithoutVersion(t *testing.T) {
	s, _ := newSake(t, setup{files: map[string]string{"sake.config.json": `{}`}})

	err := s.Tasks().Run(context.Background(), "upfw")
	cliErr := requireExitCode(t, err, model.ExitGeneralError)
	assert.Equal(t, "Framework version not specified", cliErr.Message)
}

func TestUpdateFramework_NotFrameworked(t *testing.T) {
	s, _ := newSake(t, setup{})

	err := s.Tasks().Run(context.Background(), "upfw")
	requireExitCode(t, err, model.ExitConfigError)
}

func TestWatchTask(t *testing.T) {
	tests := map[string]string{
		"assets/css/admin.scss":      "compile:styles",
		"assets/js/admin.coffee":     "compile:coffee",
		"assets/js/admin.js":         "compile:js",
		"assets/js/admin.min.js":     "",
		"assets/css/admin.min.css":   "",
		"assets/js/admin.min.js.map": "",
		"includes/class-foo.php":     "",
	}
	for name, want := range tests {
		assert.Equal(t, want, watchTask(name), name)
	}
}

func TestWatchLoop_DebouncesChanges(t *testing.T) {
	s, tb := newSake(t, setup{files: map[string]string{
		"assets/css/admin.scss": "a { b: c }",
	}})

	events := make(chan fsnotify.Event)
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	var loopErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		loopErr = s.watchLoop(ctx, nil, events, errs, 20*time.Millisecond)
	}()

	scss := workDir + "/assets/css/admin.scss"
	events <- fsnotify.Event{Name: scss, Op: fsnotify.Write}
	events <- fsnotify.Event{Name: scss, Op: fsnotify.Write}
	events <- fsnotify.Event{Name: workDir + "/assets/css/admin.min.css", Op: fsnotify.Write}

	assert.Eventually(t, func() bool { return len(tb.rec.Lines()) > 0 }, time.Second, 10*time.Millisecond)
	cancel()
	wg.Wait()

	require.NoError(t, loopErr)
	assert.Equal(t, []string{
		"sass --style=expanded --source-map --no-error-css admin.scss:admin.min.css",
	}, tb.rec.Lines())
}
