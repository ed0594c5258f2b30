// Package extract pulls full-resolution frames for scan candidates,
// cleans up their borders and writes the survivors as JPEGs.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/framelift/framelift/internal/ffmpeg"
	"github.com/framelift/framelift/internal/imaging"
	"github.com/framelift/framelift/internal/scan"
	"github.com/framelift/framelift/pkg/util"
)

const jpegQuality = 95

// Options controls a full-resolution extraction pass.
type Options struct {
	// MinPhotoArea is the smallest pixel area (after trimming) a frame may
	// have and still be saved.
	MinPhotoArea int
	Trim         imaging.TrimOptions
}

// Extractor writes candidate frames from the original video into an
// output directory, one JPEG per surviving candidate.
type Extractor struct {
	logger zerolog.Logger
	ffmpeg *ffmpeg.Executor
	opts   Options
}

// New returns an extractor using the given decoder and options.
func New(logger zerolog.Logger, exec *ffmpeg.Executor, opts Options) *Extractor {
	return &Extractor{
		logger: logger.With().Str("component", "extract").Logger(),
		ffmpeg: exec,
		opts:   opts,
	}
}

// Run extracts every candidate from videoPath into outputDir. A failure on
// one candidate skips it and moves on; only setup errors abort the pass.
// Returns (saved, skipped).
func (e *Extractor) Run(ctx context.Context, videoPath, outputDir string, candidates []scan.Candidate) (int, int, error) {
	if err := util.EnsureDir(outputDir); err != nil {
		return 0, 0, err
	}

	base := util.SafeName(util.Stem(videoPath))
	saved, skipped := 0, 0

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return saved, skipped, err
		}
		if e.extractOne(ctx, videoPath, outputDir, base, c) {
			saved++
		} else {
			skipped++
		}
	}

	return saved, skipped, nil
}

func (e *Extractor) extractOne(ctx context.Context, videoPath, outputDir, base string, c scan.Candidate) bool {
	tmp, err := os.CreateTemp("", "framelift-frame-*.png")
	if err != nil {
		e.skip(c, fmt.Sprintf("temp file: %v", err))
		return false
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer util.CleanupFiles(tmpPath)

	if err := e.ffmpeg.ExtractFrame(ctx, videoPath, c.Timestamp, tmpPath); err != nil {
		e.skip(c, fmt.Sprintf("frame extraction failed: %v", err))
		return false
	}

	img, err := imaging.Load(tmpPath)
	if err != nil {
		e.skip(c, fmt.Sprintf("decode failed: %v", err))
		return false
	}

	result := imaging.TrimAndAddBorder(img, e.opts.Trim)

	if reason := imaging.Reject(result.Image, e.opts.MinPhotoArea); reason != nil {
		e.skip(c, reason.String())
		return false
	}

	outPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s.jpg", base, c.Label))
	if err := imaging.SaveJPEG(result.Image, outPath, jpegQuality); err != nil {
		e.skip(c, fmt.Sprintf("save failed: %v", err))
		return false
	}

	e.logger.Info().
		Str("label", c.Label).
		Float64("timestamp", c.Timestamp).
		Str("file", filepath.Base(outPath)).
		Msg("photo saved")
	return true
}

func (e *Extractor) skip(c scan.Candidate, reason string) {
	e.logger.Info().
		Str("label", c.Label).
		Float64("timestamp", c.Timestamp).
		Str("reason", reason).
		Msg("photo skipped")
}
