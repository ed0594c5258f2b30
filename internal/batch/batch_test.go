package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListVideos(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mkv", "a.mp4", "notes.txt", "c.MOV", "photo.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "extracted_photos"), 0755))

	videos, err := ListVideos(dir)
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "a.mp4"),
		filepath.Join(dir, "b.mkv"),
		filepath.Join(dir, "c.MOV"),
	}
	assert.Equal(t, want, videos)
}

func TestListVideosEmptyDir(t *testing.T) {
	videos, err := ListVideos(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, videos)
}

func TestListVideosMissingDir(t *testing.T) {
	_, err := ListVideos(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
