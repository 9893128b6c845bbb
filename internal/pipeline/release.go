package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tldr-it-stepankutaj/releasekit/internal/app"
	"github.com/tldr-it-stepankutaj/releasekit/internal/artifact"
	"github.com/tldr-it-stepankutaj/releasekit/internal/gitops"
	"github.com/tldr-it-stepankutaj/releasekit/internal/manifest"
	"github.com/tldr-it-stepankutaj/releasekit/internal/registry"
)

// CommitMessage is the fixed template for release commits.
const CommitMessage = "Release version %s"

// ReleaseOptions configures a release run.
type ReleaseOptions struct {
	// Part selects which version component to bump. Defaults to patch.
	Part manifest.Part
	// SourceDir is the package root holding the manifest. Defaults to ".".
	SourceDir string
}

// ReleaseOutcome summarizes a finished (or aborted) release run.
type ReleaseOutcome struct {
	Package       string
	OldVersion    string
	NewVersion    string
	CommitMessage string
	Commit        string
	Artifact      *artifact.Artifact
	Report        *Report
}

// Release runs the five release steps in fixed order:
// bump version, build and publish, stage, read version, commit and push.
// The first failing step aborts the run; an already-bumped manifest or an
// already-uploaded artifact is left as-is.
func Release(appCtx app.Context, opts ReleaseOptions) (*ReleaseOutcome, error) {
	if opts.Part == "" {
		opts.Part = manifest.Patch
	}
	if opts.SourceDir == "" {
		opts.SourceDir = "."
	}

	cfg := appCtx.Config
	manifestPath := cfg.Manifest
	if !filepath.IsAbs(manifestPath) {
		manifestPath = filepath.Join(opts.SourceDir, manifestPath)
	}

	git := gitops.New(opts.SourceDir)
	outcome := &ReleaseOutcome{}

	steps := []Step{
		{
			ID:   "bump",
			Name: "Bump version",
			Run: func(ctx context.Context) error {
				m, err := manifest.Load(manifestPath)
				if err != nil {
					return err
				}
				outcome.Package = m.Name
				outcome.OldVersion = m.Version
				next, err := m.Bump(opts.Part)
				if err != nil {
					return err
				}
				if err := m.Save(); err != nil {
					return err
				}
				outcome.NewVersion = next
				fmt.Printf("│  New version: %s\n", next)
				return nil
			},
		},
		{
			ID:      "publish",
			Name:    "Build and publish",
			Network: true,
			Run: func(ctx context.Context) error {
				m, err := manifest.Load(manifestPath)
				if err != nil {
					return err
				}
				a, err := artifact.Build(m, opts.SourceDir, appCtx.Workspace.Path("dist"))
				if err != nil {
					return err
				}
				outcome.Artifact = a

				url := cfg.RegistryURL
				if m.Registry != "" {
					url = m.Registry
				}
				client := registry.New(url, cfg.RegistryToken, cfg.Timeout)
				return client.Publish(ctx, a)
			},
		},
		{
			ID:   "stage",
			Name: "Stage changes",
			Run: func(ctx context.Context) error {
				return git.AddAll(ctx)
			},
		},
		{
			ID:   "read-version",
			Name: "Read version",
			Run: func(ctx context.Context) error {
				// Read back from disk rather than trusting the in-memory bump.
				m, err := manifest.Load(manifestPath)
				if err != nil {
					return err
				}
				outcome.CommitMessage = fmt.Sprintf(CommitMessage, m.Version)
				return nil
			},
		},
		{
			ID:      "commit-push",
			Name:    "Commit and push",
			Network: true,
			Run: func(ctx context.Context) error {
				if err := git.Commit(ctx, outcome.CommitMessage); err != nil {
					return err
				}
				if err := git.Push(ctx, cfg.Remote, cfg.Branch); err != nil {
					return err
				}
				head, err := git.Head(ctx)
				if err != nil {
					return err
				}
				outcome.Commit = head
				return nil
			},
		},
	}

	report, err := Execute(appCtx, "release", steps)
	outcome.Report = report
	if err != nil {
		return outcome, err
	}
	return outcome, nil
}
