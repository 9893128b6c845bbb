package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestRecordAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.Record(ctx, Release{
		Package:       "demo",
		OldVersion:    "1.2.3",
		NewVersion:    "1.2.4",
		CommitHash:    "abc123",
		CommitMessage: "Release version 1.2.4",
		ReleasedAt:    time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	releases, err := svc.List(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, "demo", releases[0].Package)
	assert.Equal(t, "1.2.4", releases[0].NewVersion)
	assert.Equal(t, "Release version 1.2.4", releases[0].CommitMessage)
}

func TestListNewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, v := range []string{"1.0.1", "1.0.2", "1.0.3"} {
		_, err := svc.Record(ctx, Release{Package: "demo", OldVersion: "1.0.0", NewVersion: v, CommitMessage: "Release version " + v})
		require.NoError(t, err)
	}

	releases, err := svc.List(ctx, "demo", 2)
	require.NoError(t, err)
	require.Len(t, releases, 2)
	assert.Equal(t, "1.0.3", releases[0].NewVersion)
	assert.Equal(t, "1.0.2", releases[1].NewVersion)
}

func TestListFiltersByPackage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, Release{Package: "alpha", NewVersion: "0.1.0", CommitMessage: "Release version 0.1.0"})
	require.NoError(t, err)
	_, err = svc.Record(ctx, Release{Package: "beta", NewVersion: "0.2.0", CommitMessage: "Release version 0.2.0"})
	require.NoError(t, err)

	releases, err := svc.List(ctx, "alpha", 10)
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, "alpha", releases[0].Package)
}

func TestRecordValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, Release{NewVersion: "1.0.0"})
	assert.Error(t, err)

	_, err = svc.Record(ctx, Release{Package: "demo"})
	assert.Error(t, err)
}
