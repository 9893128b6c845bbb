package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaV1 = `
CREATE TABLE IF NOT EXISTS releases (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	package TEXT NOT NULL,
	old_version TEXT NOT NULL,
	new_version TEXT NOT NULL,
	commit_hash TEXT,
	commit_message TEXT NOT NULL,
	artifact_path TEXT,
	artifact_sha256 TEXT,
	released_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_releases_package ON releases(package);
`

// Release is one recorded release.
type Release struct {
	ID             int64
	Package        string
	OldVersion     string
	NewVersion     string
	CommitHash     string
	CommitMessage  string
	ArtifactPath   string
	ArtifactSHA256 string
	ReleasedAt     time.Time
}

// Service stores release history.
type Service interface {
	Record(ctx context.Context, r Release) (int64, error)
	List(ctx context.Context, pkg string, limit int) ([]Release, error)
	Close() error
}

type service struct {
	db *sql.DB
}

// NewService opens (and migrates) a SQLite-backed history store.
func NewService(dbPath string) (Service, error) {
	if dbPath == "" {
		return nil, errors.New("history db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaV1); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &service{db: db}, nil
}

func (s *service) Record(ctx context.Context, r Release) (int64, error) {
	if r.Package == "" {
		return 0, errors.New("package name is required")
	}
	if r.NewVersion == "" {
		return 0, errors.New("new version is required")
	}
	if r.ReleasedAt.IsZero() {
		r.ReleasedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO releases (
			package, old_version, new_version, commit_hash, commit_message,
			artifact_path, artifact_sha256, released_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Package, r.OldVersion, r.NewVersion, r.CommitHash, r.CommitMessage,
		r.ArtifactPath, r.ArtifactSHA256, r.ReleasedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to record release: %w", err)
	}
	return res.LastInsertId()
}

func (s *service) List(ctx context.Context, pkg string, limit int) ([]Release, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, package, old_version, new_version, commit_hash, commit_message,
		       artifact_path, artifact_sha256, released_at
		FROM releases`
	args := []any{}
	if pkg != "" {
		query += ` WHERE package = ?`
		args = append(args, pkg)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}
	defer rows.Close()

	var out []Release
	for rows.Next() {
		var r Release
		if err := rows.Scan(&r.ID, &r.Package, &r.OldVersion, &r.NewVersion,
			&r.CommitHash, &r.CommitMessage, &r.ArtifactPath, &r.ArtifactSHA256,
			&r.ReleasedAt); err != nil {
			return nil, fmt.Errorf("failed to scan release row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *service) Close() error {
	return s.db.Close()
}
