// Package pipeline runs the three extraction phases for a single video:
// low-resolution transcode, candidate scan, full-resolution extraction.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/framelift/framelift/internal/config"
	"github.com/framelift/framelift/internal/extract"
	"github.com/framelift/framelift/internal/ffmpeg"
	"github.com/framelift/framelift/internal/imaging"
	"github.com/framelift/framelift/internal/logging"
	"github.com/framelift/framelift/internal/scan"
	"github.com/framelift/framelift/pkg/util"
)

// Summary reports what a pipeline run produced.
type Summary struct {
	VideoPath  string
	OutputDir  string
	Candidates int
	Saved      int
	Skipped    int
	Elapsed    time.Duration
}

// Pipeline holds the shared pieces each video run needs.
type Pipeline struct {
	logger zerolog.Logger
	cfg    *config.Config
	ffmpeg *ffmpeg.Executor
}

// New assembles a pipeline from configuration. The ffmpeg executor is
// created here so a missing binary fails before any work starts.
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	exec, err := ffmpeg.New(logger, cfg.FFmpeg.Threads)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		logger: logger.With().Str("component", "pipeline").Logger(),
		cfg:    cfg,
		ffmpeg: exec,
	}, nil
}

// Process runs the full extraction for one video. Photos land in
// outputDir, and a per-run log file lands in outputDir/logs.
func (p *Pipeline) Process(ctx context.Context, videoPath, outputDir string) (*Summary, error) {
	start := time.Now()
	filename := filepath.Base(videoPath)

	if err := util.EnsureDir(outputDir); err != nil {
		return nil, err
	}
	logDir := filepath.Join(outputDir, "logs")
	if err := util.EnsureDir(logDir); err != nil {
		return nil, err
	}

	logName := fmt.Sprintf("%s_%s_extraction.log",
		start.Format("2006-01-02_150405"), util.SafeName(util.Stem(videoPath)))
	logFile, err := os.OpenFile(filepath.Join(logDir, logName),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	defer logFile.Close()

	// One logger, two sinks: the terminal and the per-run audit log.
	fileLog := logging.NewLogger(
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"},
		zerolog.ConsoleWriter{Out: logFile, TimeFormat: "2006-01-02 15:04:05", NoColor: true},
	)

	info, err := p.ffmpeg.Probe(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	if info.Duration <= 0 {
		return nil, fmt.Errorf("cannot determine duration of %s", filename)
	}

	minArea := info.Width * info.Height * p.cfg.MinPhotoPct / 100

	fileLog.Info().
		Str("video", filename).
		Float64("duration", info.Duration).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FPS).
		Msg("starting extraction")

	fmt.Printf("\n%s (%s, %dx%d)\n", filename, util.FormatClock(info.Duration), info.Width, info.Height)

	// Phase 1: low-resolution scanning copy.
	fmt.Println("[1/3] transcoding low-res copy")
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("transcode"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
	lowres, err := p.ffmpeg.TranscodeLowRes(ctx, videoPath, info.Duration, func(pct float64) {
		_ = bar.Set(int(pct))
	})
	_ = bar.Finish()
	if err != nil {
		fileLog.Error().Err(err).Msg("low-res transcode failed")
		return nil, err
	}
	defer util.CleanupFiles(lowres)
	fileLog.Info().Str("lowres", lowres).Msg("low-res transcode complete")

	// Phase 2: scan for candidates.
	fmt.Println("[2/3] scanning for photos")
	candidates, err := scan.Video(ctx, p.ffmpeg, lowres, filename, info.Duration, p.cfg.StepTime)
	if err != nil {
		fileLog.Error().Err(err).Msg("scan failed")
		return nil, err
	}
	fileLog.Info().Int("candidates", len(candidates)).Msg("scan complete")
	fmt.Printf("found %d candidates\n", len(candidates))

	// Phase 3: full-resolution extraction.
	fmt.Println("[3/3] extracting photos")
	trim := imaging.DefaultTrimOptions()
	trim.BorderPx = p.cfg.BorderPx
	trim.IncludeText = p.cfg.IncludeText

	ext := extract.New(fileLog, p.ffmpeg, extract.Options{
		MinPhotoArea: minArea,
		Trim:         trim,
	})
	saved, skipped, err := ext.Run(ctx, videoPath, outputDir, candidates)
	if err != nil {
		fileLog.Error().Err(err).Msg("extraction failed")
		return nil, err
	}

	summary := &Summary{
		VideoPath:  videoPath,
		OutputDir:  outputDir,
		Candidates: len(candidates),
		Saved:      saved,
		Skipped:    skipped,
		Elapsed:    time.Since(start),
	}

	fileLog.Info().
		Int("candidates", summary.Candidates).
		Int("saved", summary.Saved).
		Int("skipped", summary.Skipped).
		Dur("elapsed", summary.Elapsed).
		Msg("extraction finished")

	fmt.Printf("done: %d saved, %d skipped (%s)\n",
		summary.Saved, summary.Skipped, summary.Elapsed.Round(time.Second))

	return summary, nil
}
