package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBumpVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		part    Part
		want    string
	}{
		{"patch", "1.2.3", Patch, "1.2.4"},
		{"minor resets patch", "1.2.3", Minor, "1.3.0"},
		{"major resets minor and patch", "1.2.3", Major, "2.0.0"},
		{"patch from zero", "0.0.0", Patch, "0.0.1"},
		{"prerelease suffix dropped", "1.2.3-rc.1", Patch, "1.2.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BumpVersion(tt.version, tt.part)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBumpVersionInvalid(t *testing.T) {
	_, err := BumpVersion("1.2", Patch)
	assert.Error(t, err)

	_, err = BumpVersion("1.2.x", Patch)
	assert.Error(t, err)

	_, err = BumpVersion("1.2.3", Part("nightly"))
	assert.Error(t, err)
}

func TestParsePart(t *testing.T) {
	for _, s := range []string{"patch", "minor", "major", "PATCH"} {
		_, err := ParsePart(s)
		assert.NoError(t, err, s)
	}
	_, err := ParsePart("prerelease")
	assert.Error(t, err)
}

func TestLoadSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "release.yaml")
	m := &Manifest{
		Name:    "demo",
		Version: "1.2.3",
		Include: []string{"src/*"},
	}
	require.NoError(t, m.SaveTo(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", loaded.Name)
	assert.Equal(t, "1.2.3", loaded.Version)
	assert.Equal(t, []string{"src/*"}, loaded.Include)
	assert.Equal(t, path, loaded.Path())
}

func TestBumpPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "release.yaml")
	m := &Manifest{Name: "demo", Version: "1.2.3"}
	require.NoError(t, m.SaveTo(path))

	next, err := m.Bump(Patch)
	require.NoError(t, err)
	assert.Equal(t, "1.2.4", next)
	require.NoError(t, m.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1.2.4", reloaded.Version)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "release.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "release.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		wantErr  bool
	}{
		{"valid", Manifest{Name: "demo", Version: "1.2.3"}, false},
		{"missing name", Manifest{Version: "1.2.3"}, true},
		{"missing version", Manifest{Name: "demo"}, true},
		{"bad semver", Manifest{Name: "demo", Version: "not-a-version"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.manifest.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
