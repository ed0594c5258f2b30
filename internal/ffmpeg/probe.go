package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/framelift/framelift/pkg/util"
)

// VideoInfo contains metadata about a video file. Durations are plain
// seconds; all pipeline math runs on the original video timeline.
type VideoInfo struct {
	FilePath   string
	Duration   float64
	Width      int
	Height     int
	FPS        float64
	VideoCodec string
	Tags       map[string]string
}

// Probe extracts metadata from a video file via ffprobe.
//
// Duration handling covers both storage conventions: MP4 keeps it on the
// stream, MKV only at the container level; the frame-count fallback covers
// streams that report neither.
func (e *Executor) Probe(ctx context.Context, filePath string) (*VideoInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-select_streams", "v:0",
		filePath,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w: %s", err, lastLines(output, 3))
	}

	return parseProbeOutput(filePath, output)
}

func parseProbeOutput(filePath string, output []byte) (*VideoInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no video stream found in %s", filePath)
	}
	stream := probe.Streams[0]

	info := &VideoInfo{
		FilePath:   filePath,
		Width:      stream.Width,
		Height:     stream.Height,
		VideoCodec: stream.CodecName,
		Tags:       probe.Format.Tags,
	}

	for _, rate := range []string{stream.RFrameRate, stream.AvgFrameRate} {
		if fps := util.ParseFrameRate(rate); fps > 0 {
			info.FPS = fps
			break
		}
	}

	// Stream duration first, then container, then frame count.
	if dur, err := strconv.ParseFloat(stream.Duration, 64); err == nil && dur > 0 {
		info.Duration = dur
	} else if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil && dur > 0 {
		info.Duration = dur
	} else if frames, err := strconv.ParseInt(stream.NbFrames, 10, 64); err == nil && info.FPS > 0 {
		info.Duration = float64(frames) / info.FPS
	}

	return info, nil
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string            `json:"duration"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Duration     string `json:"duration"`
		NbFrames     string `json:"nb_frames"`
	} `json:"streams"`
}
