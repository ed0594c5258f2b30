// Package batch runs the extraction pipeline over every video in a
// directory.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/framelift/framelift/internal/pipeline"
	"github.com/framelift/framelift/pkg/util"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
}

// Result aggregates the per-video summaries of a batch run.
type Result struct {
	Processed int
	Failed    int
	Saved     int
	Summaries []*pipeline.Summary
}

// Run processes every video file in dir, writing each video's photos to
// dir/<outputSubdir>/<video name>/. One video failing does not stop the
// batch; failures are logged and counted.
func Run(ctx context.Context, logger zerolog.Logger, p *pipeline.Pipeline, dir, outputSubdir string) (*Result, error) {
	videos, err := ListVideos(dir)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("no video files found in %s", dir)
	}

	log := logger.With().Str("component", "batch").Logger()
	log.Info().Int("videos", len(videos)).Str("dir", dir).Msg("starting batch")

	res := &Result{}
	for i, video := range videos {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		fmt.Printf("\n=== [%d/%d] %s ===\n", i+1, len(videos), filepath.Base(video))

		outDir := filepath.Join(dir, outputSubdir, util.SafeName(util.Stem(video)))
		summary, err := p.Process(ctx, video, outDir)
		if err != nil {
			log.Error().Err(err).Str("video", video).Msg("video failed, continuing")
			fmt.Printf("failed: %v\n", err)
			res.Failed++
			continue
		}

		res.Processed++
		res.Saved += summary.Saved
		res.Summaries = append(res.Summaries, summary)
	}

	log.Info().
		Int("processed", res.Processed).
		Int("failed", res.Failed).
		Int("saved", res.Saved).
		Msg("batch finished")

	return res, nil
}

// ListVideos returns the video files directly inside dir, sorted by name.
func ListVideos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var videos []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if videoExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			videos = append(videos, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(videos)
	return videos, nil
}
