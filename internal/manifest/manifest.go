package manifest

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the manifest file looked up in the working directory.
const DefaultFile = "release.yaml"

// Manifest is the package metadata file the release pipeline operates on.
type Manifest struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description,omitempty"`
	Include     []string `yaml:"include,omitempty"`
	Registry    string   `yaml:"registry,omitempty"`

	path string
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.path = path

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes the manifest back to the file it was loaded from.
func (m *Manifest) Save() error {
	if m.path == "" {
		return fmt.Errorf("manifest has no file path")
	}
	return m.SaveTo(m.path)
}

// SaveTo writes the manifest to the given path.
func (m *Manifest) SaveTo(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	m.path = path
	return nil
}

// Path returns the file the manifest was loaded from.
func (m *Manifest) Path() string { return m.path }

// Validate checks required fields and semver validity of the version.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest name cannot be empty")
	}
	if m.Version == "" {
		return fmt.Errorf("manifest version cannot be empty")
	}
	if !semver.IsValid("v" + m.Version) {
		return fmt.Errorf("manifest version %q is not valid semver", m.Version)
	}
	return nil
}

// Part selects which component of the version a bump increments.
type Part string

const (
	Major Part = "major"
	Minor Part = "minor"
	Patch Part = "patch"
)

// ParsePart validates a bump part name.
func ParsePart(s string) (Part, error) {
	switch Part(strings.ToLower(s)) {
	case Major:
		return Major, nil
	case Minor:
		return Minor, nil
	case Patch:
		return Patch, nil
	}
	return "", fmt.Errorf("unknown bump part: %s", s)
}

// Bump increments the selected version component in memory.
// The new version is returned; call Save to persist it.
func (m *Manifest) Bump(part Part) (string, error) {
	next, err := BumpVersion(m.Version, part)
	if err != nil {
		return "", err
	}
	m.Version = next
	return next, nil
}

// BumpVersion returns version with the selected component incremented.
// Lower components reset to zero and any prerelease suffix is dropped.
func BumpVersion(version string, part Part) (string, error) {
	major, minor, patch, err := parseVersion(version)
	if err != nil {
		return "", err
	}

	switch part {
	case Major:
		major++
		minor = 0
		patch = 0
	case Minor:
		minor++
		patch = 0
	case Patch:
		patch++
	default:
		return "", fmt.Errorf("unknown bump part: %s", part)
	}

	return fmt.Sprintf("%d.%d.%d", major, minor, patch), nil
}

// parseVersion extracts the numeric components from a semver string
// without a "v" prefix. A "-prerelease" suffix is tolerated and dropped.
func parseVersion(version string) (major, minor, patch int, err error) {
	base := strings.SplitN(version, "-", 2)[0]
	parts := strings.Split(base, ".")
	if len(parts) != 3 {
		err = fmt.Errorf("unexpected version format: %s", version)
		return
	}
	if major, err = strconv.Atoi(parts[0]); err != nil {
		return
	}
	if minor, err = strconv.Atoi(parts[1]); err != nil {
		return
	}
	patch, err = strconv.Atoi(parts[2])
	return
}
