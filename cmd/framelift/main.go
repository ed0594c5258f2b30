package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/framelift/framelift/internal/batch"
	"github.com/framelift/framelift/internal/config"
	"github.com/framelift/framelift/internal/ffmpeg"
	"github.com/framelift/framelift/internal/immich"
	"github.com/framelift/framelift/internal/logging"
	"github.com/framelift/framelift/internal/nfscopy"
	"github.com/framelift/framelift/internal/notify"
	"github.com/framelift/framelift/internal/pipeline"
	"github.com/framelift/framelift/pkg/util"
)

var (
	configPath string
	verbose    bool

	flagStepTime     float64
	flagBorderPx     int
	flagMinPhotoPct  int
	flagIncludeText  bool
	flagOutputSubdir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "framelift",
		Short: "Extract photos shown in videos",
		Long: `framelift finds the moments in a video where a photo is displayed
and saves each one as a full-resolution JPEG with clean borders.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(verbose)

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			applyFlagOverrides(cmd, cfg)

			cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().Float64Var(&flagStepTime, "step-time", 0.4, "seconds between scan samples")
	rootCmd.PersistentFlags().IntVar(&flagBorderPx, "border-px", 5, "border added around trimmed photos")
	rootCmd.PersistentFlags().IntVar(&flagMinPhotoPct, "min-photo-pct", 25, "minimum photo area as % of frame area")
	rootCmd.PersistentFlags().BoolVar(&flagIncludeText, "include-text", true, "keep caption text inside the border")
	rootCmd.PersistentFlags().StringVar(&flagOutputSubdir, "output-subdir", "extracted_photos", "output folder name")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(playbackCmd())
	rootCmd.AddCommand(copyNFSCmd())
	rootCmd.AddCommand(immichCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// applyFlagOverrides lets explicitly set flags win over the config file.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("step-time") {
		cfg.StepTime = flagStepTime
	}
	if flags.Changed("border-px") {
		cfg.BorderPx = flagBorderPx
	}
	if flags.Changed("min-photo-pct") {
		cfg.MinPhotoPct = flagMinPhotoPct
	}
	if flags.Changed("include-text") {
		cfg.IncludeText = flagIncludeText
	}
	if flags.Changed("output-subdir") {
		cfg.OutputSubdir = flagOutputSubdir
	}
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <video>",
		Short: "Extract photos from a single video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			p, err := pipeline.New(log.Logger, cfg)
			if err != nil {
				return err
			}

			video := args[0]
			outDir := filepath.Join(filepath.Dir(video), cfg.OutputSubdir,
				util.SafeName(util.Stem(video)))
			_, err = p.Process(ctx, video, outDir)
			return err
		},
	}
}

func runCmd() *cobra.Command {
	var notifyDone bool

	cmd := &cobra.Command{
		Use:   "run <directory>",
		Short: "Extract photos from every video in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			p, err := pipeline.New(log.Logger, cfg)
			if err != nil {
				return err
			}

			res, err := batch.Run(ctx, log.Logger, p, args[0], cfg.OutputSubdir)
			if err != nil {
				return err
			}

			fmt.Printf("\nbatch complete: %d videos processed, %d failed, %d photos saved\n",
				res.Processed, res.Failed, res.Saved)

			if notifyDone {
				pusher := notify.NewPushover(cfg.Pushover.UserKey, cfg.Pushover.AppToken)
				msg := fmt.Sprintf("%d videos processed, %d photos saved", res.Processed, res.Saved)
				if res.Failed > 0 {
					msg += fmt.Sprintf(", %d failed", res.Failed)
				}
				if err := pusher.Send(ctx, "framelift batch finished", msg); err != nil {
					log.Warn().Err(err).Msg("notification failed")
				}
			}

			if res.Failed > 0 {
				return fmt.Errorf("%d videos failed", res.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&notifyDone, "notify", false, "send a Pushover notification when done")
	return cmd
}

func playbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "playback <video> <output-dir>",
		Short: "Transcode a video into a browser-friendly playback copy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			exec, err := ffmpeg.New(log.Logger, cfg.FFmpeg.Threads)
			if err != nil {
				return err
			}
			if err := util.EnsureDir(args[1]); err != nil {
				return err
			}

			accel := exec.DetectAccel(ctx)
			fmt.Printf("encoding with %s\n", accel.Name())

			bar := progressbar.NewOptions(100,
				progressbar.OptionSetDescription("transcode"),
				progressbar.OptionSetWidth(30),
				progressbar.OptionClearOnFinish(),
			)
			name, err := exec.TranscodePlayback(ctx, accel, args[0], args[1], func(pct float64) {
				_ = bar.Set(int(pct))
			})
			_ = bar.Finish()
			if err != nil {
				return err
			}

			fmt.Printf("wrote %s\n", name)
			return nil
		},
	}
}

func copyNFSCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy-nfs <src-dir> <dest-dir>",
		Short: "Copy extracted photos to an NFS share with write verification",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			copied, failed, err := nfscopy.CopyDir(logging.WithComponent("nfscopy"), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("copied %d files, %d failed\n", copied, failed)
			if failed > 0 {
				return fmt.Errorf("%d files failed to copy", failed)
			}
			return nil
		},
	}
}

func immichCmd() *cobra.Command {
	var expected int

	cmd := &cobra.Command{
		Use:   "immich <video> <remote-path>",
		Short: "Build an Immich album from a video and its extracted photos",
		Long: `Triggers an Immich library scan, waits for the assets under
<remote-path> to appear, puts them into an album named after the video
and stamps capture dates so the album plays back in video order.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			if cfg.Immich.APIURL == "" || cfg.Immich.APIKey == "" {
				return fmt.Errorf("immich api_url and api_key must be configured")
			}

			video := args[0]

			exec, err := ffmpeg.New(log.Logger, cfg.FFmpeg.Threads)
			if err != nil {
				return err
			}
			info, err := exec.Probe(ctx, video)
			if err != nil {
				return err
			}

			client := immich.NewClient(log.Logger, cfg.Immich.APIURL, cfg.Immich.APIKey)
			albumName := immich.ParseAlbumName(filepath.Base(video))
			baseDate := immich.VideoDate(info.Tags, video)

			fmt.Printf("publishing album %q (dated %s)\n",
				albumName, baseDate.Format(time.DateOnly))

			return client.Publish(ctx, immich.PublishOptions{
				LibraryID:  cfg.Immich.LibraryID,
				RemotePath: args[1],
				AlbumName:  albumName,
				ShareUser:  cfg.Immich.ShareUser,
				BaseDate:   baseDate,
				Expected:   expected,
			})
		},
	}

	cmd.Flags().IntVar(&expected, "expected", 0, "number of assets the scan should find")
	return cmd
}
