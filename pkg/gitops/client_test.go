package gitops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// initRepo creates a disposable repository with one initial commit.
func initRepo(t *testing.T) *Client {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	c := NewClient(dir)
	ctx := context.Background()

	for _, args := range [][]string{
		{"init"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "test"},
	} {
		if _, err := c.run(ctx, args...); err != nil {
			t.Fatalf("git %v: %v", args, err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a\nb\nc\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.StageAll(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Commit(ctx, "initial"); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCurrentRevisionAndCommitsBetween(t *testing.T) {
	c := initRepo(t)
	ctx := context.Background()

	base, err := c.CurrentRevision(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(c.Dir, "a.txt"), []byte("a\nB\nc\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.StageAll(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Commit(ctx, "edit a"); err != nil {
		t.Fatal(err)
	}

	head, err := c.CurrentRevision(ctx)
	if err != nil {
		t.Fatal(err)
	}
	commits, err := c.CommitsBetween(ctx, base, head)
	if err != nil {
		t.Fatal(err)
	}
	if len(commits) != 1 {
		t.Fatalf("expected 1 commit, got %d", len(commits))
	}
	if commits[0].Message != "edit a" {
		t.Fatalf("unexpected message %q", commits[0].Message)
	}
	if commits[0].ShortHash() == "" || len(commits[0].ShortHash()) > 7 {
		t.Fatalf("bad short hash %q", commits[0].ShortHash())
	}
}

func TestDiffCachedAndResetSoft(t *testing.T) {
	c := initRepo(t)
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(c.Dir, "a.txt"), []byte("changed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.StageAll(ctx); err != nil {
		t.Fatal(err)
	}
	diff, err := c.DiffCached(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff == "" {
		t.Fatal("expected non-empty staged diff")
	}
	if err := c.ResetSoft(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestResetHardRestoresBaseline(t *testing.T) {
	c := initRepo(t)
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(c.Dir, "a.txt"), []byte("dirty\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(c.Dir, "new.txt"), []byte("untracked\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := c.ResetHard(ctx); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(c.Dir, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a\nb\nc\n" {
		t.Fatalf("content not restored: %q", data)
	}
	if _, err := os.Stat(filepath.Join(c.Dir, "new.txt")); !os.IsNotExist(err) {
		t.Fatal("untracked file should be cleaned")
	}
}

func TestRevertFileTrackedAndUntracked(t *testing.T) {
	c := initRepo(t)
	ctx := context.Background()

	// Tracked file.
	if err := os.WriteFile(filepath.Join(c.Dir, "a.txt"), []byte("dirty\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.RevertFile(ctx, "a.txt"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(filepath.Join(c.Dir, "a.txt"))
	if string(data) != "a\nb\nc\n" {
		t.Fatalf("tracked revert failed: %q", data)
	}

	// Untracked file.
	if err := os.WriteFile(filepath.Join(c.Dir, "u.txt"), []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.RevertFile(ctx, "u.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(c.Dir, "u.txt")); !os.IsNotExist(err) {
		t.Fatal("untracked file should be gone after revert")
	}
}

func TestIsTrackedAndHasUncommittedChanges(t *testing.T) {
	c := initRepo(t)
	ctx := context.Background()

	if !c.IsTracked(ctx, "a.txt") {
		t.Fatal("a.txt should be tracked")
	}
	if c.IsTracked(ctx, "missing.txt") {
		t.Fatal("missing.txt should not be tracked")
	}
	if c.HasUncommittedChanges(ctx) {
		t.Fatal("fresh repo should be clean")
	}
	if err := os.WriteFile(filepath.Join(c.Dir, "a.txt"), []byte("dirty\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !c.HasUncommittedChanges(ctx) {
		t.Fatal("dirty tree should be detected")
	}
}

func TestFindRoot(t *testing.T) {
	c := initRepo(t)
	sub := filepath.Join(c.Dir, "x", "y")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	root, err := FindRoot(sub)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.EvalSymlinks(c.Dir)
	got, _ := filepath.EvalSymlinks(root)
	if got != want {
		t.Fatalf("root = %q, want %q", got, want)
	}
}

func TestRevertFileAfterStagedDelete(t *testing.T) {
	c := initRepo(t)
	ctx := context.Background()

	// git rm stages the deletion and empties the index entry for the path.
	if err := c.Remove(ctx, "a.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(c.Dir, "a.txt")); !os.IsNotExist(err) {
		t.Fatal("file should be gone after git rm")
	}

	if err := c.RevertFile(ctx, "a.txt"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(c.Dir, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a\nb\nc\n" {
		t.Fatalf("content = %q, want baseline", data)
	}
	if !c.IsTracked(ctx, "a.txt") {
		t.Fatal("reverted file should be tracked again")
	}
	if c.HasUncommittedChanges(ctx) {
		t.Fatal("revert should leave a clean tree")
	}
}

func TestExistsAt(t *testing.T) {
	c := initRepo(t)
	ctx := context.Background()

	if !c.ExistsAt(ctx, "HEAD", "a.txt") {
		t.Fatal("a.txt exists at HEAD")
	}
	if c.ExistsAt(ctx, "HEAD", "nope.txt") {
		t.Fatal("nope.txt does not exist at HEAD")
	}
}
