// Package svn drives a WordPress.org plugin SVN working copy: checkout,
// scheduling added and missing files, tagging and committing.
package svn

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/skyverge/sake/internal/shell"
)

// Client runs svn commands against a single working copy.
type Client struct {
	runner shell.Runner

	// Path is the local checkout directory.
	Path string

	// User is passed as --username on commits.
	User string
}

// NewClient returns a Client for the working copy at path.
func NewClient(runner shell.Runner, path, user string) *Client {
	return &Client{runner: runner, Path: path, User: user}
}

// Trunk, Tag and Assets return the standard WordPress.org layout paths.
func (c *Client) Trunk() string { return filepath.Join(c.Path, "trunk") }

func (c *Client) Tag(version string) string { return filepath.Join(c.Path, "tags", version) }

func (c *Client) Assets() string { return filepath.Join(c.Path, "assets") }

// Checkout checks out url into the client's path. An existing checkout is
// reused by svn (--force).
func (c *Client) Checkout(ctx context.Context, url string) error {
	_, err := c.runner.Run(ctx, shell.Command{
		Name:   "svn",
		Args:    []string{"checkout", "--force", url, c.Path},
		Stream:  true,
		Mutates: true,
	})
	return err
}

// Status holds the working-copy paths svn reports as unversioned (?) and
// missing (!).
type Status struct {
	Unversioned []string
	Missing     []string
}

// Status runs svn status in dir and parses the first column.
func (c *Client) Status(ctx context.Context, dir string) (Status, error) {
	out, err := c.runner.Run(ctx, shell.Command{Name: "svn", Args: []string{"status"}, Dir: dir})
	if err != nil {
		return Status{}, err
	}
	return ParseStatus(out), nil
}

// ParseStatus parses `svn status` output. Paths may contain spaces: the
// status columns occupy the first 8 characters.
func ParseStatus(out string) Status {
	var st Status
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 2 {
			continue
		}
		path := line[1:]
		if len(line) > 8 {
			path = line[8:]
		}
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		switch line[0] {
		case '?':
			st.Unversioned = append(st.Unversioned, path)
		case '!':
			st.Missing = append(st.Missing, path)
		}
	}
	return st
}

// Sync schedules unversioned files for addition and missing files for
// deletion, so the next commit mirrors the directory contents.
func (c *Client) Sync(ctx context.Context, dir string) error {
	st, err := c.Status(ctx, dir)
	if err != nil {
		return err
	}
	if len(st.Unversioned) > 0 {
		args := append([]string{"add", "--parents"}, atPeg(st.Unversioned)...)
		if _, err := c.runner.Run(ctx, shell.Command{Name: "svn", Args: args, Dir: dir, Mutates: true}); err != nil {
			return err
		}
	}
	if len(st.Missing) > 0 {
		args := append([]string{"delete"}, atPeg(st.Missing)...)
		if _, err := c.runner.Run(ctx, shell.Command{Name: "svn", Args: args, Dir: dir, Mutates: true}); err != nil {
			return err
		}
	}
	return nil
}

// CopyTag copies trunk to tags/<version> inside the working copy.
func (c *Client) CopyTag(ctx context.Context, version string) error {
	_, err := c.runner.Run(ctx, shell.Command{
		Name: "svn",
		Args:    []string{"copy", "trunk", filepath.Join("tags", version)},
		Dir:     c.Path,
		Mutates: true,
	})
	return err
}

// Commit commits dir with the given message.
func (c *Client) Commit(ctx context.Context, dir, message string) error {
	args := []string{"commit", "--force-interactive", "-m", message}
	if c.User != "" {
		args = append(args, "--username", c.User)
	}
	_, err := c.runner.Run(ctx, shell.Command{Name: "svn", Args: args, Dir: dir, Stream: true, Mutates: true})
	return err
}

// atPeg appends "@" to paths containing one, otherwise svn would read the
// suffix as a peg revision (retina assets like icon@2x.png).
func atPeg(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if strings.Contains(p, "@") {
			p += "@"
		}
		out[i] = p
	}
	return out
}
