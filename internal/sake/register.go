package sake

import (
	"github.com/skyverge/sake/internal/task"
)

// RepoLevelTasks run in a multi-plugin repository root, where there is no
// main plugin file.
var RepoLevelTasks = []string{
	"github:create_release_milestones",
	"github:create_month_milestones",
	"config",
	"tasks",
}

func (s *Sake) register() {
	r := s.tasks
	add := func(name, desc string, fn task.Func) { r.Register(name, desc, fn) }

	add("default", "Compile plugin assets", r.Series("compile"))
	add("tasks", "List every task", s.listTasks)
	add("config", "Print the resolved configuration", s.printConfig)

	// clean
	add("clean:dev", "Remove source maps from the assets dir", s.cleanDev)
	add("clean:build", "Empty the plugin build dir and remove stale zips", s.cleanBuild)
	add("clean:composer", "Remove the composer vendor dir", s.cleanComposer)
	add("clean:prerelease", "Remove the plugin's old prereleases", s.cleanPrerelease)
	add("clean:wp_trunk", "Empty the WordPress.org trunk checkout", s.cleanWPTrunk)

	// copy
	add("copy:build", "Copy plugin files to the build dir", s.copyBuild)
	add("copy:prerelease", "Copy the zip and changelog to the prereleases folder", s.copyPrerelease)
	add("copy:wp_trunk", "Copy the build into the WordPress.org trunk checkout", s.copyWPTrunk)
	add("copy:wp_assets", "Copy WordPress.org assets into the SVN checkout", s.copyWPAssets)

	// compile
	add("compile", "Lint and compile scripts, styles and translations", s.compile)
	add("compile:scripts", "Compile coffee and js", r.Series("compile:coffee", "compile:js"))
	add("compile:coffee", "Compile CoffeeScript", s.compileCoffee)
	add("compile:js", "Minify JavaScript", s.compileJS)
	add("compile:styles", "Compile SCSS", s.compileStyles)

	// lint
	add("lint", "Lint PHP, scripts and styles", r.Series("lint:php", "lint:scripts", "lint:styles"))
	add("lint:php", "Check PHP syntax", s.lintPHP)
	add("lint:scripts", "Lint coffee and js", r.Series("lint:coffee", "lint:js"))
	add("lint:coffee", "Lint CoffeeScript", s.lintCoffee)
	add("lint:js", "Lint JavaScript", s.lintJS)
	add("lint:styles", "Lint SCSS", s.lintStyles)

	add("makepot", "Generate the translation catalog", s.makepot)

	// bump
	add("bump", "Write the plugin version into the main file", s.bump)
	add("bump:minreqs", "Update minimum requirements", s.bumpMinReqs)
	add("bump:framework_version", "Update the framework namespace version", s.bumpFrameworkVersion)

	add("bundle", "Bundle third party scripts", r.Series("bundle:scripts"))
	add("bundle:scripts", "Copy scripts from npm packages", s.bundleScripts)

	// build
	add("build", "Build the plugin into the build dir", s.build)
	add("compress", "Zip the build dir", s.compress)
	add("zip", "Build and zip the plugin", r.Series("build", "compress"))
	add("prerelease", "Build a prerelease zip into the prereleases folder", s.prerelease)

	add("validate", "Validate the plugin", r.Series("validate:readme_headers"))
	add("validate:readme_headers", "Validate readme.txt headers", s.validateReadmeHeaders)

	add("upfw", "Update the plugin framework", s.updateFramework)
	add("watch", "Recompile assets on change", s.watch)
	add("getpomo", "Download translations from GlotPress", s.getPomo)
	add("trello:update_wc_card", "Move the Trello card to the deploy list", s.updateTrelloCard)

	// shell
	add("shell:git_ensure_clean_working_copy", "Fail on uncommitted changes", s.gitEnsureClean)
	add("shell:git_stash", "Stash local changes", s.gitStash)
	add("shell:git_stash_apply", "Reapply stashed changes", s.gitStashApply)
	add("shell:git_push_update", "Commit and push the version update", s.gitPushUpdate)
	add("shell:composer_status", "Check installed composer packages for local changes", s.composerStatus)
	add("shell:composer_install", "Install composer packages", s.composerInstall)
	add("shell:composer_update", "Update composer packages", s.composerUpdate)
	add("shell:svn_checkout", "Check out the WordPress.org repository", s.svnCheckout)
	add("shell:svn_commit_trunk", "Commit trunk", s.svnCommitTrunk)
	add("shell:svn_commit_tag", "Tag and commit the release", s.svnCommitTag)
	add("shell:svn_commit_assets", "Commit WordPress.org assets", s.svnCommitAssets)
	add("shell:update_framework", "Update the framework with composer or git subtree", s.shellUpdateFramework)
	add("shell:update_framework_commit", "Commit the framework update", s.shellUpdateFrameworkCommit)

	// github
	add("github:get_rissue", "Pick the release issue to close", s.getReleaseIssue)
	add("github:docs_issue", "Open a docs issue for the release", s.createDocsIssue)
	add("github:create_release", "Create a GitHub release with the zip", s.createRelease)
	add("github:create_release_milestones", "Create a milestone for every Tuesday", s.createReleaseMilestones)
	add("github:create_month_milestones", "Create a milestone for every month", s.createMonthMilestones)

	// wc
	add("wc:validate", "Check the WooCommerce.com submission queue", s.wcValidate)
	add("wc:upload", "Upload the zip to WooCommerce.com", s.wcUpload)
	add("wc:status", "Wait for the WooCommerce.com submission result", s.wcStatus)
	add("wc:deploy", "Deploy to WooCommerce.com", r.Series("wc:validate", "wc:upload", "wc:status"))

	add("prompt:deploy", "Choose the version to deploy", s.promptDeploy)
	add("deploy", "Release the plugin", s.deploy)
}
