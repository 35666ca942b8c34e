package security

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("pH: 6.5"), 0o600))
}

func TestNewPathValidator(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "report.pdf")
	writeFile(t, file)

	tests := []struct {
		name      string
		dir       string
		wantError bool
	}{
		{name: "existing directory", dir: dir},
		{name: "empty", dir: "", wantError: true},
		{name: "missing directory", dir: filepath.Join(dir, "missing"), wantError: true},
		{name: "file instead of directory", dir: file, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewPathValidator(tt.dir)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, filepath.IsAbs(v.Root()))
		})
	}
}

func TestPathValidator_Resolve(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	writeFile(t, filepath.Join(root, "report.pdf"))
	writeFile(t, filepath.Join(root, "farms", "north", "card.png"))
	writeFile(t, filepath.Join(outside, "secret.txt"))

	v, err := NewPathValidator(root)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "relative file", path: "report.pdf"},
		{name: "nested relative file", path: "farms/north/card.png"},
		{name: "absolute file", path: filepath.Join(root, "report.pdf")},
		{name: "null bytes stripped", path: "report\x00.pdf"},
		{name: "empty", path: "", wantErr: ErrEmptyPath},
		{name: "missing file", path: "nope.pdf", wantErr: ErrFileNotFound},
		{name: "traversal", path: "../" + filepath.Base(outside) + "/secret.txt", wantErr: ErrOutsideRoot},
		{name: "absolute outside", path: filepath.Join(outside, "secret.txt"), wantErr: ErrOutsideRoot},
		{name: "directory", path: "farms", wantErr: ErrNotRegularFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Resolve(tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, v.Contains(got))
		})
	}
}

func TestPathValidator_SymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}

	root := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.pdf")
	writeFile(t, target)
	require.NoError(t, os.Symlink(target, filepath.Join(root, "link.pdf")))

	v, err := NewPathValidator(root)
	require.NoError(t, err)

	_, err = v.Resolve("link.pdf")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestPathValidator_Contains(t *testing.T) {
	v := &PathValidator{root: filepath.FromSlash("/data/reports")}

	assert.True(t, v.Contains(filepath.FromSlash("/data/reports")))
	assert.True(t, v.Contains(filepath.FromSlash("/data/reports/a.pdf")))
	assert.False(t, v.Contains(filepath.FromSlash("/data/reports-old/a.pdf")))
	assert.False(t, v.Contains(filepath.FromSlash("/data")))
}
