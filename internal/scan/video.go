package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/framelift/framelift/internal/ffmpeg"
	"github.com/framelift/framelift/internal/imaging"
	"github.com/framelift/framelift/pkg/util"
)

// Video scans the low-resolution copy and returns candidate timestamps in
// ascending order. stepTime is the sampling interval in seconds; frames
// between samples are decoded and discarded to keep the frame index and
// timestamp in lockstep.
func Video(ctx context.Context, exec *ffmpeg.Executor, lowresPath, filename string, durationSec, stepTime float64) ([]Candidate, error) {
	info, err := exec.Probe(ctx, lowresPath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe low-res copy: %w", err)
	}
	if info.FPS <= 0 {
		return nil, fmt.Errorf("cannot determine frame rate of %s", lowresPath)
	}

	frameStep := int(math.Round(info.FPS * stepTime))
	if frameStep < 1 {
		frameStep = 1
	}

	stream, err := exec.StreamFrames(ctx, lowresPath, info.Width, info.Height)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(scanDescription(filename, 0, durationSec, 0)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)

	scanner := NewScanner()
	var candidates []Candidate

	idx := 0
	lastUpdate := time.Now()
	for {
		buf, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("frame stream failed at frame %d: %w", idx, err)
		}

		if idx%frameStep == 0 {
			timestamp := float64(idx) / info.FPS
			frame := imaging.FromRGB24(info.Width, info.Height, buf)
			if c := scanner.Observe(frame, timestamp); c != nil {
				candidates = append(candidates, *c)
			}

			if time.Since(lastUpdate) >= time.Second {
				pct := 0.0
				if durationSec > 0 {
					pct = math.Min(timestamp/durationSec*100, 100)
				}
				bar.Describe(scanDescription(filename, timestamp, durationSec, len(candidates)))
				_ = bar.Set(int(pct))
				lastUpdate = time.Now()
			}
		}
		idx++
	}

	_ = bar.Finish()
	return candidates, nil
}

// scanDescription labels the progress bar with the file, the position out
// of the total runtime and the running photo count.
func scanDescription(filename string, position, total float64, photos int) string {
	return fmt.Sprintf("%s  %s/%s  %d photos",
		filename, util.FormatClock(position), util.FormatClock(total), photos)
}
