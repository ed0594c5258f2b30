package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/framelift/framelift/internal/nfscopy"
	"github.com/framelift/framelift/pkg/util"
)

// TranscodePlayback makes a browsing copy of the video for the photo
// server. H.264/HEVC sources are copied as-is; anything else is encoded to
// H.264/AAC in MP4, capped at 1080p and tuned for speed over quality. The
// original file is preserved elsewhere; this copy is only for playback.
// Returns the base name of the file written into outputDir.
func (e *Executor) TranscodePlayback(ctx context.Context, accel *Accel, input, outputDir string, fn ProgressFunc) (string, error) {
	info, err := e.Probe(ctx, input)
	if err != nil {
		return "", err
	}

	codec := strings.ToLower(info.VideoCodec)
	if codec == "h264" || codec == "hevc" {
		dest, err := nfscopy.CopyFile(input, outputDir)
		if err != nil {
			return "", fmt.Errorf("playback copy failed: %w", err)
		}
		e.logger.Info().Str("dest", dest).Msg("codec already playable, copied without transcoding")
		return filepath.Base(dest), nil
	}

	outName := util.Stem(input) + ".mp4"
	outPath := filepath.Join(outputDir, outName)

	e.logger.Info().
		Str("codec", codec).
		Str("accel", accel.Name()).
		Msg("transcoding for playback compatibility")

	args := []string{"-i", input}
	args = append(args, playbackEncodeArgs(accel, info.Height)...)
	args = append(args, "-map_metadata", "0")

	if err := e.runProgress(ctx, args, outPath, info.Duration*1e6, fn); err != nil {
		return "", err
	}

	if err := nfscopy.SyncFile(outPath); err != nil {
		return "", err
	}
	return outName, nil
}

func playbackEncodeArgs(accel *Accel, inputHeight int) []string {
	if accel != nil && accel.VAAPI {
		vf := "format=nv12,hwupload"
		if inputHeight > 1080 {
			vf = "format=nv12,hwupload,scale_vaapi=w=-2:h=1080"
		}
		return []string{
			"-vaapi_device", accel.Device,
			"-vf", vf,
			"-c:v", "h264_vaapi", "-qp", "28",
			"-c:a", "aac", "-b:a", "128k",
		}
	}
	return []string{
		"-vf", "scale=-2:'min(1080,ih)'",
		"-c:v", "libx264", "-crf", "28", "-preset", "faster",
		"-c:a", "aac", "-b:a", "128k",
	}
}
