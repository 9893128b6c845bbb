package artifact

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tldr-it-stepankutaj/releasekit/internal/manifest"
)

// Artifact describes a built package archive.
type Artifact struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Path    string `json:"path"`
	SHA256  string `json:"sha256"`
	Size    int64  `json:"size"`
}

// Filename returns the canonical archive name for a package version.
func Filename(name, version string) string {
	return fmt.Sprintf("%s-%s.tar.gz", name, version)
}

// Build packs the manifest's include set from srcDir into a tar.gz under
// distDir. With no include globs the whole source tree is packed, minus
// dotfiles and the dist directory itself.
func Build(m *manifest.Manifest, srcDir, distDir string) (*Artifact, error) {
	files, err := collect(m, srcDir, distDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files matched the manifest include set")
	}

	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dist directory: %w", err)
	}
	outPath := filepath.Join(distDir, Filename(m.Name, m.Version))

	out, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	digest := sha256.New()
	gz := gzip.NewWriter(io.MultiWriter(out, digest))
	tw := tar.NewWriter(gz)

	var total int64
	for _, rel := range files {
		n, err := addFile(tw, srcDir, rel)
		if err != nil {
			return nil, err
		}
		total += n
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return &Artifact{
		Name:    m.Name,
		Version: m.Version,
		Path:    outPath,
		SHA256:  hex.EncodeToString(digest.Sum(nil)),
		Size:    total,
	}, nil
}

// collect returns the sorted, slash-separated relative paths to pack.
func collect(m *manifest.Manifest, srcDir, distDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if abs, _ := filepath.Abs(path); abs != "" {
				if distAbs, _ := filepath.Abs(distDir); distAbs != "" &&
					(abs == distAbs || strings.HasPrefix(abs, distAbs+string(os.PathSeparator))) {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if len(m.Include) > 0 && !matchAny(m.Include, rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan source tree: %w", err)
	}
	return files, nil
}

func matchAny(globs []string, rel string) bool {
	for _, g := range globs {
		if ok, err := filepath.Match(g, rel); err == nil && ok {
			return true
		}
		// Directory glob: "src/*" should also match nested files.
		if strings.HasSuffix(g, "/*") {
			prefix := strings.TrimSuffix(g, "/*") + "/"
			if strings.HasPrefix(rel, prefix) {
				return true
			}
		}
	}
	return false
}

func addFile(tw *tar.Writer, srcDir, rel string) (int64, error) {
	full := filepath.Join(srcDir, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", rel, err)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return 0, fmt.Errorf("failed to build header for %s: %w", rel, err)
	}
	hdr.Name = rel
	if err := tw.WriteHeader(hdr); err != nil {
		return 0, fmt.Errorf("failed to write header for %s: %w", rel, err)
	}

	f, err := os.Open(full)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", rel, err)
	}
	defer f.Close()

	n, err := io.Copy(tw, f)
	if err != nil {
		return 0, fmt.Errorf("failed to pack %s: %w", rel, err)
	}
	return n, nil
}
