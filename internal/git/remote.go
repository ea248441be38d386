package git

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// RemoteURL reads the first URL of the named remote from the repository
// containing path. It parses .git/config directly and does not need the
// git binary, which keeps config resolution fast and side-effect free.
//
// Returns an empty string and no error when path is not inside a
// repository or the remote does not exist.
func RemoteURL(path, name string) (string, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return "", nil
		}
		return "", fmt.Errorf("failed to open git repository at %s: %w", path, err)
	}

	remote, err := repo.Remote(name)
	if err != nil {
		if errors.Is(err, gogit.ErrRemoteNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read remote %q: %w", name, err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", nil
	}
	return urls[0], nil
}

// ParseGitHubURL extracts owner and repository name from the URL forms
// GitHub hands out:
//
//	git@github.com:owner/name.git
//	https://github.com/owner/name
//	ssh://git@github.com/owner/name.git
//	github.com/owner/name
//
// ok is false when the input has no owner/name path.
func ParseGitHubURL(raw string) (owner, name string, ok bool) {
	s := strings.TrimSpace(raw)

	var path string
	switch {
	case strings.Contains(s, "://"):
		u, err := url.Parse(s)
		if err != nil {
			return "", "", false
		}
		path = u.Path
	case strings.Contains(s, "@") && strings.Contains(s, ":"):
		// scp-like syntax: git@github.com:owner/name.git
		_, path, _ = strings.Cut(s, ":")
	default:
		if i := strings.Index(s, "github.com/"); i >= 0 {
			path = s[i+len("github.com/"):]
		} else {
			path = s
		}
	}

	path = strings.Trim(strings.TrimSuffix(strings.Trim(path, "/"), ".git"), "/")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
