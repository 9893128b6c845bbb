package gitops

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes git commands in a fixed working directory.
type Runner struct {
	Dir string
}

// New returns a Runner rooted at dir.
func New(dir string) Runner { return Runner{Dir: dir} }

// Available reports whether git can be invoked at all.
func Available() error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git is not available on the system")
	}
	return nil
}

func (r Runner) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %v, detail: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsRepo reports whether the directory is inside a git work tree.
func (r Runner) IsRepo(ctx context.Context) bool {
	out, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// AddAll stages every modified and untracked file not covered by ignore rules.
func (r Runner) AddAll(ctx context.Context) error {
	_, err := r.run(ctx, "add", "-A")
	return err
}

// Commit creates a commit with the given message on the current branch.
func (r Runner) Commit(ctx context.Context, message string) error {
	_, err := r.run(ctx, "commit", "-m", message)
	return err
}

// Push pushes the given branch to the given remote.
func (r Runner) Push(ctx context.Context, remote, branch string) error {
	_, err := r.run(ctx, "push", remote, branch)
	return err
}

// Head returns the hash of the current commit.
func (r Runner) Head(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "HEAD")
}

// CurrentBranch returns the name of the checked-out branch.
func (r Runner) CurrentBranch(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// LastMessage returns the subject line of the most recent commit.
func (r Runner) LastMessage(ctx context.Context) (string, error) {
	return r.run(ctx, "log", "-1", "--pretty=%s")
}
