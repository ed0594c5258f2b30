package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/framelift/framelift/pkg/util"
)

// lowresEncodeArgs are the encode settings for the scanning copy: 320px
// wide, no audio, cheap quality. The copy is only ever sampled for border
// and hash signals, never shown to a person.
func lowresEncodeArgs() []string {
	return []string{"-vf", "scale=320:-2", "-an", "-q:v", "5"}
}

type halfProgress struct {
	index int
	pct   float64
}

// TranscodeLowRes produces the low-resolution scanning copy of a video.
//
// The source is split at its temporal midpoint and both halves are encoded
// by concurrent ffmpeg processes, each feeding a progress update channel;
// this loop folds the two feeds into one combined percentage for the
// caller. The finished halves are concatenated with a stream copy. Returns
// the path of a temporary file the caller must remove.
func (e *Executor) TranscodeLowRes(ctx context.Context, input string, durationSec float64, fn ProgressFunc) (string, error) {
	midpoint := durationSec / 2

	tmp1, err := tempVideoFile("framelift-lowres-a-")
	if err != nil {
		return "", err
	}
	tmp2, err := tempVideoFile("framelift-lowres-b-")
	if err != nil {
		util.CleanupFiles(tmp1)
		return "", err
	}

	mid := strconv.FormatFloat(midpoint, 'f', -1, 64)
	firstArgs := append([]string{"-i", input, "-t", mid}, lowresEncodeArgs()...)
	secondArgs := append([]string{"-ss", mid, "-i", input}, lowresEncodeArgs()...)

	updates := make(chan halfProgress, 16)
	halves := []struct {
		args       []string
		output     string
		durationUS float64
	}{
		{firstArgs, tmp1, midpoint * 1e6},
		{secondArgs, tmp2, (durationSec - midpoint) * 1e6},
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, half := range halves {
		i, half := i, half // per-iteration copies; go directive is pre-1.22
		g.Go(func() error {
			return e.runProgress(gctx, half.args, half.output, half.durationUS, func(pct float64) {
				select {
				case updates <- halfProgress{index: i, pct: pct}:
				default: // never block an encoder on display updates
				}
			})
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var pcts [2]float64
	for {
		select {
		case u := <-updates:
			pcts[u.index] = u.pct
			if fn != nil {
				fn((pcts[0] + pcts[1]) / 2)
			}
		case err := <-done:
			if err != nil {
				util.CleanupFiles(tmp1, tmp2)
				return "", fmt.Errorf("low-res transcode failed: %w", err)
			}
			if fn != nil {
				fn(100)
			}
			out, err := e.concatCopy(ctx, tmp1, tmp2)
			util.CleanupFiles(tmp1, tmp2)
			return out, err
		}
	}
}

// concatCopy joins the two half encodes into one file without re-encoding.
func (e *Executor) concatCopy(ctx context.Context, first, second string) (string, error) {
	out, err := tempVideoFile("framelift-lowres-")
	if err != nil {
		return "", err
	}

	list, err := os.CreateTemp("", "framelift-concat-*.txt")
	if err != nil {
		util.CleanupFiles(out)
		return "", err
	}
	defer util.CleanupFiles(list.Name())

	for _, input := range []string{first, second} {
		abs, err := filepath.Abs(input)
		if err != nil {
			abs = input
		}
		if _, err := fmt.Fprintf(list, "file '%s'\n", abs); err != nil {
			list.Close()
			util.CleanupFiles(out)
			return "", err
		}
	}
	if err := list.Close(); err != nil {
		util.CleanupFiles(out)
		return "", err
	}

	err = e.run(ctx, "-f", "concat", "-safe", "0", "-i", list.Name(), "-c", "copy", out)
	if err != nil {
		util.CleanupFiles(out)
		return "", fmt.Errorf("concat failed: %w", err)
	}
	return out, nil
}

func tempVideoFile(prefix string) (string, error) {
	f, err := os.CreateTemp("", prefix+"*.mp4")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()
	f.Close()
	return name, nil
}
