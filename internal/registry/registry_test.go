package registry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tldr-it-stepankutaj/releasekit/internal/artifact"
)

func testArtifact(t *testing.T) *artifact.Artifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo-1.2.3.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("archive-bytes"), 0o644))
	return &artifact.Artifact{
		Name:    "demo",
		Version: "1.2.3",
		Path:    path,
		SHA256:  "abc123",
		Size:    13,
	}
}

func TestPublish(t *testing.T) {
	var gotPath, gotAuth, gotSHA string
	var gotArchive []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotSHA = r.FormValue("sha256")

		f, _, err := r.FormFile("archive")
		require.NoError(t, err)
		defer f.Close()
		gotArchive, err = io.ReadAll(f)
		require.NoError(t, err)

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := New(srv.URL, "secret-token", 5*time.Second)
	err := client.Publish(context.Background(), testArtifact(t))
	require.NoError(t, err)

	assert.Equal(t, "/packages/demo/1.2.3", gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "abc123", gotSHA)
	assert.Equal(t, "archive-bytes", string(gotArchive))
}

func TestPublishNoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(srv.URL, "", 5*time.Second)
	assert.NoError(t, client.Publish(context.Background(), testArtifact(t)))
}

func TestPublishRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "version already exists", http.StatusConflict)
	}))
	defer srv.Close()

	client := New(srv.URL, "secret-token", 5*time.Second)
	err := client.Publish(context.Background(), testArtifact(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version already exists")
}

func TestPublishNoURL(t *testing.T) {
	client := New("", "", 5*time.Second)
	err := client.Publish(context.Background(), testArtifact(t))
	assert.Error(t, err)
}

func TestPublishUnreachable(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := New(url, "", 2*time.Second)
	err := client.Publish(context.Background(), testArtifact(t))
	assert.Error(t, err)
}
