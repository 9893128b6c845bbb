package releasekit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tldr-it-stepankutaj/releasekit/internal/app"
	"github.com/tldr-it-stepankutaj/releasekit/internal/artifact"
	"github.com/tldr-it-stepankutaj/releasekit/internal/gitops"
	"github.com/tldr-it-stepankutaj/releasekit/internal/history"
	"github.com/tldr-it-stepankutaj/releasekit/internal/manifest"
	"github.com/tldr-it-stepankutaj/releasekit/internal/pipeline"
	"github.com/tldr-it-stepankutaj/releasekit/internal/registry"
	"github.com/tldr-it-stepankutaj/releasekit/internal/statecache"
	"github.com/tldr-it-stepankutaj/releasekit/internal/tui"
	"github.com/tldr-it-stepankutaj/releasekit/internal/workspace"
	"github.com/tldr-it-stepankutaj/releasekit/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "releasekit",
	Short: "Releasekit: bump, publish and tag package releases",
	Long:  "Releasekit automates package releases: it bumps the manifest version, builds and uploads the artifact to a registry, and commits and pushes the version bump.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	// Persistent flags (available to all subcommands).
	rootCmd.PersistentFlags().String("workspace", "./.releasekit", "Path to workspace root")
	rootCmd.PersistentFlags().Bool("tui", false, "Pick the version type interactively")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().Duration("timeout", 60*time.Second, "Default operation timeout")
	rootCmd.PersistentFlags().String("manifest", manifest.DefaultFile, "Path to the package manifest")
	rootCmd.PersistentFlags().String("remote", "origin", "Git remote to push to")
	rootCmd.PersistentFlags().String("branch", "main", "Branch to push to")
	rootCmd.PersistentFlags().String("registry-url", "", "Package registry base URL")

	// Bind flags to Viper.
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("tui", rootCmd.PersistentFlags().Lookup("tui"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("manifest", rootCmd.PersistentFlags().Lookup("manifest"))
	_ = viper.BindPFlag("remote", rootCmd.PersistentFlags().Lookup("remote"))
	_ = viper.BindPFlag("branch", rootCmd.PersistentFlags().Lookup("branch"))
	_ = viper.BindPFlag("registry_url", rootCmd.PersistentFlags().Lookup("registry-url"))

	// Env support: RELEASEKIT_WORKSPACE, RELEASEKIT_REGISTRY_TOKEN, etc.
	viper.SetEnvPrefix("RELEASEKIT")
	viper.AutomaticEnv()
	_ = viper.BindEnv("registry_token")

	// Register subcommands.
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(bumpCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// Helper to create app context
func createAppContext() (app.Context, error) {
	cfg := app.MustLoadConfigFromViper()
	if err := cfg.Validate(); err != nil {
		return app.Context{}, err
	}
	ws, err := workspace.Ensure(cfg.Workspace)
	if err != nil {
		return app.Context{}, err
	}
	return app.Context{
		Ctx:       context.Background(),
		Config:    cfg,
		Workspace: ws,
		Now:       time.Now(),
	}, nil
}

// `init` subcommand: initialize workspace structure and a starter manifest.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize workspace structure and a starter manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx, err := createAppContext()
		if err != nil {
			return err
		}
		fmt.Printf("Workspace ready at: %s\n", appCtx.Config.Workspace)

		path := appCtx.Config.Manifest
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Manifest already exists: %s\n", path)
			return nil
		}

		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = "my-package"
		}
		m := &manifest.Manifest{Name: name, Version: "0.1.0"}
		if err := m.SaveTo(path); err != nil {
			return err
		}
		fmt.Printf("Manifest created: %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().String("name", "", "Package name for the starter manifest")
}

// `bump` subcommand: bump the manifest version without publishing.
var bumpCmd = &cobra.Command{
	Use:   "bump [major|minor|patch]",
	Short: "Bump the manifest version (no publish, no commit)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		part, err := pickPart(args)
		if errors.Is(err, tui.ErrCancelled) {
			fmt.Println("No version type selected. Exiting.")
			return nil
		}
		if err != nil {
			return err
		}

		m, err := manifest.Load(viper.GetString("manifest"))
		if err != nil {
			return err
		}
		old := m.Version
		next, err := m.Bump(part)
		if err != nil {
			return err
		}
		if err := m.Save(); err != nil {
			return err
		}
		fmt.Printf("%s: %s -> %s\n", m.Name, old, next)
		return nil
	},
}

// `publish` subcommand: build and upload the current manifest version.
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Build the artifact and upload it to the registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx, err := createAppContext()
		if err != nil {
			return err
		}
		cfg := appCtx.Config

		m, err := manifest.Load(cfg.Manifest)
		if err != nil {
			return err
		}
		a, err := artifact.Build(m, ".", appCtx.Workspace.Path("dist"))
		if err != nil {
			return err
		}
		fmt.Printf("Built %s (%d bytes, sha256 %s)\n", a.Path, a.Size, a.SHA256)

		url := cfg.RegistryURL
		if m.Registry != "" {
			url = m.Registry
		}
		client := registry.New(url, cfg.RegistryToken, cfg.Timeout)
		if err := client.Publish(appCtx.Ctx, a); err != nil {
			return err
		}
		fmt.Printf("Published %s %s\n", m.Name, m.Version)
		return nil
	},
}

// `release` subcommand: the full pipeline (bump, publish, stage, commit, push).
var releaseCmd = &cobra.Command{
	Use:   "release [major|minor|patch]",
	Short: "Run the full release pipeline",
	Long:  "Bumps the manifest version, builds and uploads the artifact, stages the working tree, commits with \"Release version <version>\" and pushes to the configured remote and branch. Aborts on the first failing step.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx, err := createAppContext()
		if err != nil {
			return err
		}

		if err := gitops.Available(); err != nil {
			return err
		}

		part, err := pickPart(args)
		if errors.Is(err, tui.ErrCancelled) {
			fmt.Println("No version type selected. Exiting.")
			return nil
		}
		if err != nil {
			return err
		}

		outcome, err := pipeline.Release(appCtx, pipeline.ReleaseOptions{Part: part})
		if err != nil {
			return err
		}

		if err := recordOutcome(appCtx, outcome); err != nil {
			fmt.Printf("[!] Release succeeded but recording history failed: %v\n", err)
		}

		fmt.Println("All steps completed successfully.")
		fmt.Printf("Package:     %s\n", outcome.Package)
		fmt.Printf("Old Version: %s\n", outcome.OldVersion)
		fmt.Printf("New Version: %s\n", outcome.NewVersion)
		fmt.Printf("Commit:      %s\n", outcome.Commit)
		return nil
	},
}

// pickBumpPart is a seam for tests; the TUI cannot run under `go test`.
var pickBumpPart = tui.PickBumpPart

// pickPart resolves the bump part from the positional argument, the TUI
// picker, or the patch default, in that order.
func pickPart(args []string) (manifest.Part, error) {
	if len(args) == 1 {
		return manifest.ParsePart(args[0])
	}
	if viper.GetBool("tui") {
		return pickBumpPart()
	}
	return manifest.Patch, nil
}

// recordOutcome persists a successful release to the history store and the
// state cache.
func recordOutcome(appCtx app.Context, outcome *pipeline.ReleaseOutcome) error {
	svc, err := history.NewService(appCtx.Workspace.Path("cache", "history.db"))
	if err != nil {
		return err
	}
	defer svc.Close()

	rec := history.Release{
		Package:       outcome.Package,
		OldVersion:    outcome.OldVersion,
		NewVersion:    outcome.NewVersion,
		CommitHash:    outcome.Commit,
		CommitMessage: outcome.CommitMessage,
		ReleasedAt:    appCtx.Now.UTC(),
	}
	if outcome.Artifact != nil {
		rec.ArtifactPath = outcome.Artifact.Path
		rec.ArtifactSHA256 = outcome.Artifact.SHA256
	}
	if _, err := svc.Record(appCtx.Ctx, rec); err != nil {
		return err
	}

	cache, err := statecache.New[statecache.ReleaseState](appCtx.Workspace.Path("cache", "release-state.json"))
	if err != nil {
		return err
	}
	cache.Data = statecache.ReleaseState{
		Package:        outcome.Package,
		LastVersion:    outcome.NewVersion,
		LastCommit:     outcome.Commit,
		LastReleasedAt: appCtx.Now.UTC(),
	}
	if outcome.Artifact != nil {
		cache.Data.LastArtifact = outcome.Artifact.Path
	}
	return cache.Save()
}

// `history` subcommand: list recorded releases.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded releases",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx, err := createAppContext()
		if err != nil {
			return err
		}

		pkg, _ := cmd.Flags().GetString("package")
		limit, _ := cmd.Flags().GetInt("limit")

		svc, err := history.NewService(appCtx.Workspace.Path("cache", "history.db"))
		if err != nil {
			return err
		}
		defer svc.Close()

		releases, err := svc.List(appCtx.Ctx, pkg, limit)
		if err != nil {
			return err
		}
		if len(releases) == 0 {
			fmt.Println("No releases recorded yet.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Package", "Version", "Commit", "Released At"})
		for _, r := range releases {
			commit := r.CommitHash
			if len(commit) > 10 {
				commit = commit[:10]
			}
			t.AppendRow(table.Row{r.Package, r.NewVersion, commit, r.ReleasedAt.Format(time.RFC3339)})
		}
		t.Render()
		return nil
	},
}

func init() {
	historyCmd.Flags().String("package", "", "Filter by package name")
	historyCmd.Flags().Int("limit", 20, "Maximum rows to show")
}

// `version` subcommand.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
