package gitops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a temporary git repository with a main branch and a
// configured test identity.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	cmds := [][]string{
		{"git", "init"},
		{"git", "symbolic-ref", "HEAD", "refs/heads/main"},
		{"git", "config", "user.email", "test@example.com"},
		{"git", "config", "user.name", "Test User"},
	}
	for _, args := range cmds {
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "%v: %s", args, out)
	}
	return dir
}

func TestAddCommit(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()
	git := New(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, git.AddAll(ctx))
	require.NoError(t, git.Commit(ctx, "Release version 1.2.4"))

	msg, err := git.LastMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Release version 1.2.4", msg)

	head, err := git.Head(ctx)
	require.NoError(t, err)
	assert.Len(t, head, 40)

	branch, err := git.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestCommitNothingStaged(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()
	git := New(dir)

	err := git.Commit(ctx, "empty")
	assert.Error(t, err)
}

func TestPush(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()
	git := New(dir)

	// Bare remote for the push target.
	remote := t.TempDir()
	cmd := exec.Command("git", "init", "--bare", remote)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "%s", out)

	cmd = exec.Command("git", "remote", "add", "origin", remote)
	cmd.Dir = dir
	out, err = cmd.CombinedOutput()
	require.NoError(t, err, "%s", out)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, git.AddAll(ctx))
	require.NoError(t, git.Commit(ctx, "initial"))
	require.NoError(t, git.Push(ctx, "origin", "main"))

	head, err := git.Head(ctx)
	require.NoError(t, err)

	cmd = exec.Command("git", "--git-dir", remote, "rev-parse", "main")
	out, err = cmd.CombinedOutput()
	require.NoError(t, err, "%s", out)
	assert.Equal(t, head, string(out[:40]))
}

func TestPushUnknownRemote(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()
	git := New(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, git.AddAll(ctx))
	require.NoError(t, git.Commit(ctx, "initial"))

	err := git.Push(ctx, "origin", "main")
	assert.Error(t, err)
}

func TestIsRepo(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()

	assert.True(t, New(dir).IsRepo(ctx))
	assert.False(t, New(t.TempDir()).IsRepo(ctx))
}
