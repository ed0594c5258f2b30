package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"time"
)

const vaapiDevice = "/dev/dri/renderD128"

// Accel describes the hardware acceleration available for encoding. It is
// probed once at startup and passed to the components that encode, so the
// probe result is explicit rather than hidden process state.
type Accel struct {
	VAAPI  bool
	Device string
}

// Name returns a label for logs and console output.
func (a *Accel) Name() string {
	if a != nil && a.VAAPI {
		return "VAAPI"
	}
	return "software"
}

// DetectAccel checks whether VAAPI encoding works. Fast path: no render
// device means no GPU. Slow path: a one-frame nullsrc encode confirms the
// driver actually accepts h264_vaapi.
func (e *Executor) DetectAccel(ctx context.Context) *Accel {
	if _, err := os.Stat(vaapiDevice); err != nil {
		return &Accel{}
	}

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, e.ffmpegPath,
		"-vaapi_device", vaapiDevice,
		"-f", "lavfi", "-i", "nullsrc=s=16x16:d=1",
		"-vf", "format=nv12,hwupload",
		"-c:v", "h264_vaapi", "-frames:v", "1",
		"-f", "null", "-",
	)
	if err := cmd.Run(); err != nil {
		e.logger.Debug().Err(err).Msg("vaapi probe failed, using software encoding")
		return &Accel{}
	}

	return &Accel{VAAPI: true, Device: vaapiDevice}
}
