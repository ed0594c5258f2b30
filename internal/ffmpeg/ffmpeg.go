// Package ffmpeg wraps the external ffmpeg/ffprobe tools: metadata probing,
// the low-resolution scanning transcode, single-frame extraction, raw frame
// streaming and the playback-compatibility transcode.
package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Executor handles all ffmpeg operations with progress reporting.
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
}

// New creates a new ffmpeg executor. Missing binaries fail immediately:
// without them the tool is unusable in this environment.
func New(logger zerolog.Logger, threads int) (*Executor, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     threads,
	}, nil
}

// ProgressFunc receives percentages in 0–100 as an encode advances.
type ProgressFunc func(pct float64)

// run executes ffmpeg and returns an error carrying the stderr tail.
func (e *Executor) run(ctx context.Context, args ...string) error {
	full := e.baseArgs(args)

	e.logger.Debug().Strs("args", full).Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, full...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLines(output, 3))
	}
	return nil
}

// runProgress executes ffmpeg with machine-readable progress on stdout.
// inputArgs must not include the output path; it is appended after the
// progress flags. durationUS is the expected output duration used to turn
// the cumulative out_time_us counter into a percentage.
func (e *Executor) runProgress(ctx context.Context, inputArgs []string, output string, durationUS float64, fn ProgressFunc) error {
	args := e.baseArgs(inputArgs)
	args = append(args, "-progress", "pipe:1", "-nostats", output)

	e.logger.Debug().Strs("args", args).Msg("executing ffmpeg with progress")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if pct, ok := parseProgressLine(scanner.Text(), durationUS); ok && fn != nil {
			fn(pct)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLines(stderr.Bytes(), 3))
	}

	if fn != nil {
		fn(100)
	}
	return nil
}

// parseProgressLine extracts a completion percentage from one line of
// ffmpeg -progress output (key=value form, cumulative out_time_us counter).
func parseProgressLine(line string, durationUS float64) (float64, bool) {
	const key = "out_time_us="
	if !strings.HasPrefix(line, key) || durationUS <= 0 {
		return 0, false
	}
	us, err := strconv.ParseInt(strings.TrimSpace(line[len(key):]), 10, 64)
	if err != nil {
		return 0, false
	}
	pct := float64(us) / durationUS * 100
	if pct > 100 {
		pct = 100
	}
	return pct, true
}

func (e *Executor) baseArgs(args []string) []string {
	base := []string{"-y", "-hide_banner", "-loglevel", "error"}
	if e.threads > 0 {
		base = append(base, "-threads", strconv.Itoa(e.threads))
	}
	return append(base, args...)
}

func lastLines(output []byte, n int) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
