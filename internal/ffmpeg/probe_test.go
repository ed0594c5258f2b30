package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbeOutput(t *testing.T) {
	output := []byte(`{
		"streams": [{
			"codec_type": "video",
			"codec_name": "h264",
			"width": 1920,
			"height": 1080,
			"r_frame_rate": "30000/1001",
			"avg_frame_rate": "30000/1001",
			"duration": "120.5"
		}],
		"format": {
			"duration": "120.533",
			"tags": {"DATE": "20230614"}
		}
	}`)

	info, err := parseProbeOutput("test.mp4", output)
	require.NoError(t, err)

	assert.Equal(t, "test.mp4", info.FilePath)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 1080, info.Height)
	assert.Equal(t, "h264", info.VideoCodec)
	assert.InDelta(t, 29.97, info.FPS, 0.01)
	assert.InDelta(t, 120.5, info.Duration, 0.001)
	assert.Equal(t, "20230614", info.Tags["DATE"])
}

func TestParseProbeOutputContainerDuration(t *testing.T) {
	// MKV keeps the duration on the container, not the stream.
	output := []byte(`{
		"streams": [{
			"codec_name": "vp9",
			"width": 1280,
			"height": 720,
			"r_frame_rate": "25/1"
		}],
		"format": {"duration": "61.04"}
	}`)

	info, err := parseProbeOutput("test.mkv", output)
	require.NoError(t, err)
	assert.InDelta(t, 61.04, info.Duration, 0.001)
	assert.Equal(t, 25.0, info.FPS)
}

func TestParseProbeOutputFrameCountFallback(t *testing.T) {
	output := []byte(`{
		"streams": [{
			"codec_name": "h264",
			"width": 640,
			"height": 480,
			"r_frame_rate": "30/1",
			"nb_frames": "900"
		}],
		"format": {}
	}`)

	info, err := parseProbeOutput("test.mp4", output)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, info.Duration, 0.001)
}

func TestParseProbeOutputNoVideoStream(t *testing.T) {
	output := []byte(`{"streams": [], "format": {"duration": "10"}}`)

	_, err := parseProbeOutput("audio.mp3", output)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no video stream")
}

func TestParseProbeOutputBadJSON(t *testing.T) {
	_, err := parseProbeOutput("test.mp4", []byte("not json"))
	assert.Error(t, err)
}

func TestParseProbeOutputAvgFrameRateFallback(t *testing.T) {
	// Some containers report r_frame_rate as 0/0.
	output := []byte(`{
		"streams": [{
			"codec_name": "h264",
			"width": 640,
			"height": 480,
			"r_frame_rate": "0/0",
			"avg_frame_rate": "24/1",
			"duration": "5"
		}],
		"format": {}
	}`)

	info, err := parseProbeOutput("test.mp4", output)
	require.NoError(t, err)
	assert.Equal(t, 24.0, info.FPS)
}
