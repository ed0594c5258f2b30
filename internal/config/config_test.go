package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 0.4, cfg.StepTime)
	assert.Equal(t, 5, cfg.BorderPx)
	assert.Equal(t, 25, cfg.MinPhotoPct)
	assert.True(t, cfg.IncludeText)
	assert.Equal(t, "extracted_photos", cfg.OutputSubdir)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framelift.yaml")
	data := `
step_time: 0.25
min_photo_pct: 40
include_text: false
ffmpeg:
  threads: 8
immich:
  api_url: https://photos.local
  api_key: secret
  library_id: lib-1
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.25, cfg.StepTime)
	assert.Equal(t, 40, cfg.MinPhotoPct)
	assert.False(t, cfg.IncludeText)
	assert.Equal(t, 8, cfg.FFmpeg.Threads)
	assert.Equal(t, "https://photos.local", cfg.Immich.APIURL)
	assert.Equal(t, "lib-1", cfg.Immich.LibraryID)

	// Untouched keys keep their defaults.
	assert.Equal(t, 5, cfg.BorderPx)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")

	cfg, err := Load("")
	require.NoError(t, err)
	cfg.StepTime = 1.5
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, loaded.StepTime)
}

func TestContextRoundTrip(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.BorderPx = 9

	ctx := WithConfig(context.Background(), cfg)
	assert.Equal(t, 9, FromContext(ctx).BorderPx)

	// Without a stored config the accessor falls back to defaults.
	assert.Equal(t, 5, FromContext(context.Background()).BorderPx)
}
