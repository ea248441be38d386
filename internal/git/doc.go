// Package git provides the Git operations used by sake's release pipeline.
//
// Repository mutations (stash, commit, push, subtree pull) shell out to the
// git binary through a shell.Runner, so the exact behavior matches what the
// developer sees in their terminal and dry runs can intercept them.
// Reading the origin remote during config resolution uses go-git instead,
// which parses .git/config without spawning a process.
package git
