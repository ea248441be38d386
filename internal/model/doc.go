// Package model defines the shared domain types for the sake CLI.
//
// This package contains pure data structures with no external dependencies:
// the deploy type, framework and version-increment enums, deploy repository
// coordinates, and the exit codes and CLIError type that let any layer
// report why a task chain stopped.
//
// Nothing here is persisted. The configuration and plugin metadata are
// rebuilt from files on every invocation.
package model
