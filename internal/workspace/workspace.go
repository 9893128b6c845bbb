package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Handle implements app.WorkspaceHandle and provides helper methods.
type Handle struct {
	Root string
}

// Path joins workspace root with provided parts.
func (h Handle) Path(parts ...string) string {
	all := append([]string{h.Root}, parts...)
	return filepath.Join(all...)
}

// Ensure creates the workspace directory structure if missing.
func Ensure(root string) (Handle, error) {
	h := Handle{Root: root}
	dirs := []string{
		root,
		filepath.Join(root, "dist"),
		filepath.Join(root, "reports"),
		filepath.Join(root, "logs"),
		filepath.Join(root, "cache"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return h, fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}
	return h, nil
}
