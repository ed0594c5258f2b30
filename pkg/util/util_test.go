package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{7, "0:07"},
		{65, "1:05"},
		{304.8, "5:04"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3723, "1:02:03"},
		{-5, "0:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatClock(tt.seconds))
	}
}

func TestParseFrameRate(t *testing.T) {
	assert.InDelta(t, 29.97, ParseFrameRate("30000/1001"), 0.01)
	assert.Equal(t, 25.0, ParseFrameRate("25"))
	assert.Equal(t, 24.0, ParseFrameRate("24/1"))
	assert.Equal(t, 0.0, ParseFrameRate("0/0"))
	assert.Equal(t, 0.0, ParseFrameRate("garbage"))
	assert.Equal(t, 0.0, ParseFrameRate(""))
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Family_Reel_1985", SafeName("Family Reel 1985"))
	assert.Equal(t, "video_tape_", SafeName("video/tape?"))
	assert.Equal(t, "already-safe_name.v2", SafeName("already-safe_name.v2"))
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framelift.yaml")
	assert.False(t, FileExists(path))

	require.NoError(t, os.WriteFile(path, []byte("step_time: 0.4"), 0644))
	assert.True(t, FileExists(path))
}

func TestStem(t *testing.T) {
	assert.Equal(t, "reel", Stem("/videos/reel.mp4"))
	assert.Equal(t, "reel.part1", Stem("reel.part1.mkv"))
	assert.Equal(t, "noext", Stem("noext"))
}
