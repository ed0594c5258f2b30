package nfscopy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpeg bytes"), 0644))
	destDir := t.TempDir()

	dest, err := CopyFile(src, destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "photo.jpg"), dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), data)
}

func TestCopyFileMissingSource(t *testing.T) {
	_, err := CopyFile("/nonexistent/photo.jpg", t.TempDir())
	assert.Error(t, err)
}

func TestVerifyRemovesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jpg")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	err := Verify(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestVerifyMissingFile(t *testing.T) {
	assert.Error(t, Verify(filepath.Join(t.TempDir(), "gone.jpg")))
}

func TestCopyDirSkipsSubdirectories(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.jpg"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "b.jpg"), []byte("b"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "logs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "logs", "run.log"), []byte("log"), 0644))

	dest := filepath.Join(t.TempDir(), "out")
	copied, failed, err := CopyDir(zerolog.Nop(), src, dest)
	require.NoError(t, err)
	assert.Equal(t, 2, copied)
	assert.Equal(t, 0, failed)

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
