// Package gitops is a thin typed client over the git CLI. Every operation
// is a synchronous subprocess invocation with an argument array; no command
// line is ever assembled from interpolated strings.
package gitops

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Commit identifies one commit in enumeration results.
type Commit struct {
	Hash    string
	Message string
}

// ShortHash returns the abbreviated hash used in summaries.
func (c Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

// Client runs git commands rooted at Dir.
type Client struct {
	Dir string
}

func NewClient(dir string) *Client {
	return &Client{Dir: dir}
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return stdout.String(), fmt.Errorf("git %s: %s", args[0], msg)
	}
	return stdout.String(), nil
}

// CurrentRevision returns the hash of HEAD.
func (c *Client) CurrentRevision(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// StageAll stages every working-tree change.
func (c *Client) StageAll(ctx context.Context) error {
	_, err := c.run(ctx, "add", "-A")
	return err
}

// Stage stages a single path.
func (c *Client) Stage(ctx context.Context, path string) error {
	_, err := c.run(ctx, "add", "--", path)
	return err
}

// DiffCached returns the staged diff.
func (c *Client) DiffCached(ctx context.Context) (string, error) {
	return c.run(ctx, "diff", "--cached")
}

// Commit records the staged changes and returns the new commit.
func (c *Client) Commit(ctx context.Context, message string) (Commit, error) {
	if _, err := c.run(ctx, "commit", "-m", message); err != nil {
		return Commit{}, err
	}
	hash, err := c.CurrentRevision(ctx)
	if err != nil {
		return Commit{}, err
	}
	return Commit{Hash: hash, Message: message}, nil
}

// ResetSoft unstages everything, keeping the working tree.
func (c *Client) ResetSoft(ctx context.Context) error {
	_, err := c.run(ctx, "reset", "--soft", "HEAD")
	return err
}

// ResetHard discards all local changes and untracked files, restoring the
// working tree to HEAD.
func (c *Client) ResetHard(ctx context.Context) error {
	if _, err := c.run(ctx, "reset", "--hard", "HEAD"); err != nil {
		return err
	}
	_, err := c.run(ctx, "clean", "-fd")
	return err
}

// IsTracked reports whether path is under version control.
func (c *Client) IsTracked(ctx context.Context, path string) bool {
	_, err := c.run(ctx, "ls-files", "--error-unmatch", "--", path)
	return err == nil
}

// RevertFile restores a single path to its HEAD state, undoing index and
// working-tree changes alike. The index is reset first: a staged deletion
// (git rm) empties the index entry, so the decision to restore or remove
// must come from HEAD, not from ls-files. Paths absent at HEAD are removed.
func (c *Client) RevertFile(ctx context.Context, path string) error {
	if _, err := c.run(ctx, "reset", "HEAD", "--", path); err != nil {
		return err
	}
	if c.ExistsAt(ctx, "HEAD", path) {
		_, err := c.run(ctx, "checkout", "HEAD", "--", path)
		return err
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(c.Dir, path)
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	_, err := c.run(ctx, "clean", "-f", "--", path)
	return err
}

// ExistsAt reports whether path exists in the given revision.
func (c *Client) ExistsAt(ctx context.Context, rev, path string) bool {
	_, err := c.run(ctx, "cat-file", "-e", rev+":"+path)
	return err == nil
}

// Remove deletes a tracked file from the index and the working tree.
func (c *Client) Remove(ctx context.Context, path string) error {
	_, err := c.run(ctx, "rm", "-f", "--ignore-unmatch", "--", path)
	return err
}

// CommitsBetween enumerates commits after base up to and including head,
// oldest first.
func (c *Client) CommitsBetween(ctx context.Context, base, head string) ([]Commit, error) {
	out, err := c.run(ctx, "log", "--reverse", "--pretty=format:%H%x00%s", base+".."+head)
	if err != nil {
		return nil, err
	}
	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		hash, msg, ok := strings.Cut(line, "\x00")
		if !ok {
			continue
		}
		commits = append(commits, Commit{Hash: hash, Message: msg})
	}
	return commits, nil
}

// HasUncommittedChanges reports whether the working tree is dirty.
func (c *Client) HasUncommittedChanges(ctx context.Context) bool {
	out, err := c.run(ctx, "status", "--porcelain")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) != ""
}

// FindRoot walks up from dir to locate the repository root.
func FindRoot(dir string) (string, error) {
	cur, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if fi, err := os.Stat(filepath.Join(cur, ".git")); err == nil && fi.IsDir() {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", fmt.Errorf("not inside a git repository: %s", dir)
		}
		cur = parent
	}
}
