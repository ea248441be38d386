package plugin

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/skyverge/sake/internal/model"
)

// ValidationError represents a missing or malformed readme.txt header.
type ValidationError struct {
	// Field is the header name, e.g. "License URI".
	Field string

	// Message describes what's wrong with the header.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("readme.txt validation error: %s: %s", e.Field, e.Message)
}

// RequiredReadmeHeaders returns the headers a readme.txt must carry.
// WordPress.org additionally needs "Stable tag" to know which SVN tag to serve.
func RequiredReadmeHeaders(deploy model.DeployType) []string {
	headers := []string{"License", "License URI"}
	if deploy == model.DeployWordPress {
		headers = append(headers, "Stable tag")
	}
	return headers
}

// ReadmeHeader returns the value of a "Name: value" header line, and
// whether the header was present with a non-empty value.
func ReadmeHeader(contents, name string) (string, bool) {
	re := regexp.MustCompile(`(?im)^\s*` + regexp.QuoteMeta(name) + `:(.+)$`)
	m := re.FindStringSubmatch(contents)
	if m == nil {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}

// ValidateReadmeHeaders checks that every required header is present.
// Returns an empty list when the readme is valid.
func ValidateReadmeHeaders(contents string, required []string) []ValidationError {
	var errs []ValidationError
	for _, name := range required {
		if _, ok := ReadmeHeader(contents, name); !ok {
			errs = append(errs, ValidationError{
				Field:   name,
				Message: "Missing required header in readme.txt: " + name,
			})
		}
	}
	return errs
}

// SetReadmeHeader replaces the value of an existing header line.
// ok is false when the header is not present.
func SetReadmeHeader(contents, name, value string) (string, bool) {
	re := regexp.MustCompile(`(?im)^(\s*` + regexp.QuoteMeta(name) + `:[ \t]*)(.*)$`)
	loc := re.FindStringSubmatchIndex(contents)
	if loc == nil {
		return contents, false
	}
	return contents[:loc[3]] + value + contents[loc[5]:], true
}
