package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
)

// ExtractFrame seeks the video to a timestamp and decodes exactly one frame
// into outPath. Decoding goes through ffmpeg rather than an in-process
// library so codecs like AV1 work regardless of local decoder support.
func (e *Executor) ExtractFrame(ctx context.Context, input string, timestampSec float64, outPath string) error {
	return e.run(ctx,
		"-ss", strconv.FormatFloat(timestampSec, 'f', -1, 64),
		"-i", input,
		"-frames:v", "1",
		"-q:v", "2",
		outPath,
	)
}

// FrameStream reads consecutive raw RGB frames from a video over a pipe.
// Frames arrive strictly in time order; the scanner depends on that.
type FrameStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	buf    []byte
	Width  int
	Height int
}

// StreamFrames starts an ffmpeg process emitting every frame of the video
// as packed rgb24 bytes on stdout. The caller must Close the stream.
func (e *Executor) StreamFrames(ctx context.Context, input string, width, height int) (*FrameStream, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}

	args := e.baseArgs([]string{
		"-i", input,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	})

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	return &FrameStream{
		cmd:    cmd,
		stdout: stdout,
		buf:    make([]byte, width*height*3),
		Width:  width,
		Height: height,
	}, nil
}

// Next returns the next frame's pixel data, valid until the following call.
// io.EOF signals the normal end of the stream.
func (s *FrameStream) Next() ([]byte, error) {
	_, err := io.ReadFull(s.stdout, s.buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			// A truncated trailing frame ends the stream like a clean EOF.
			return nil, io.EOF
		}
		return nil, err
	}
	return s.buf, nil
}

// Close stops the decoder and reaps the process.
func (s *FrameStream) Close() error {
	s.stdout.Close()
	// Wait errors are expected when the pipe is closed mid-stream.
	_ = s.cmd.Wait()
	return nil
}
