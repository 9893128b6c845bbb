package statecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Suffix is the required extension for cache files.
const Suffix = ".json"

// Cache persists a typed value to a JSON file. The file path itself is
// never part of the serialized payload. A missing file is not an error;
// the zero value of T is used until the first Save.
type Cache[T any] struct {
	path string

	// Data is the cached value. Mutate it freely, then call Save.
	Data T
}

// New opens a cache at path, loading the stored value if the file exists.
func New[T any](path string) (*Cache[T], error) {
	if !strings.HasSuffix(path, Suffix) {
		return nil, fmt.Errorf("cache file must have a %q suffix", Suffix)
	}

	c := &Cache[T]{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	if err := json.Unmarshal(data, &c.Data); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	return c, nil
}

// Path returns the backing file path.
func (c *Cache[T]) Path() string { return c.path }

// Save writes the current value to the backing file.
func (c *Cache[T]) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.MarshalIndent(c.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// Clear removes the backing file and resets the value to its zero state.
func (c *Cache[T]) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	var zero T
	c.Data = zero
	return nil
}

// ReleaseState is the release tool's own cached state, stored under the
// workspace cache directory.
type ReleaseState struct {
	Package        string    `json:"package,omitempty"`
	LastVersion    string    `json:"last_version,omitempty"`
	LastCommit     string    `json:"last_commit,omitempty"`
	LastArtifact   string    `json:"last_artifact,omitempty"`
	LastReleasedAt time.Time `json:"last_released_at,omitempty"`
}
