package immich

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// bracketedIDSuffix matches the trailing "[videoID]" suffix downloaders
// append to filenames, like "-[dQw4w9WgXcQ]".
var bracketedIDSuffix = regexp.MustCompile(`\s*[-_]?\[[^\]]*\]$`)

// timeLabelSuffix matches the timestamp in extracted photo filenames,
// like "_5m04s.jpg" or "_5m04.5s.jpg".
var timeLabelSuffix = regexp.MustCompile(`_(\d+)m(\d+(?:\.\d+)?)s\.jpg$`)

// uploadDateTag matches a YYYYMMDD metadata value.
var uploadDateTag = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})`)

// ParseAlbumName derives an album title from a video filename. The
// extension and any trailing bracketed video ID are dropped, underscores
// become spaces, and a "channel-title" stem splits on its first hyphen
// into "channel - title".
func ParseAlbumName(filename string) string {
	name := filename
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	name = bracketedIDSuffix.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, "_", " ")
	if channel, title, ok := strings.Cut(name, "-"); ok &&
		strings.TrimSpace(channel) != "" && strings.TrimSpace(title) != "" {
		name = strings.TrimSpace(channel) + " - " + strings.TrimSpace(title)
	}
	return strings.Join(strings.Fields(name), " ")
}

// ParseTimeLabel extracts the timestamp offset in seconds from an
// extracted photo filename. Returns false for files without a label.
func ParseTimeLabel(filename string) (float64, bool) {
	m := timeLabelSuffix.FindStringSubmatch(filename)
	if m == nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, false
	}
	return float64(minutes)*60 + seconds, true
}

// OrderAssets sorts assets for album insertion: videos first, then photos
// by their timestamp label. Assets without a label sort last by name.
func OrderAssets(assets []Asset) []Asset {
	ordered := make([]Asset, len(assets))
	copy(ordered, assets)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		aVideo := strings.EqualFold(a.Type, "VIDEO")
		bVideo := strings.EqualFold(b.Type, "VIDEO")
		if aVideo != bVideo {
			return aVideo
		}
		at, aok := ParseTimeLabel(a.OriginalFileName)
		bt, bok := ParseTimeLabel(b.OriginalFileName)
		if aok != bok {
			return aok
		}
		if aok && at != bt {
			return at < bt
		}
		return a.OriginalFileName < b.OriginalFileName
	})
	return ordered
}

// VideoDate picks a capture date for the video: a YYYYMMDD upload-date
// tag in its metadata, else the file's modification time, else a fixed
// fallback so the album at least sorts deterministically.
func VideoDate(tags map[string]string, path string) time.Time {
	for _, key := range []string{"DATE", "date", "upload_date", "creation_time"} {
		if v, ok := tags[key]; ok {
			if m := uploadDateTag.FindStringSubmatch(v); m != nil {
				year, _ := strconv.Atoi(m[1])
				month, _ := strconv.Atoi(m[2])
				day, _ := strconv.Atoi(m[3])
				return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
			}
		}
	}
	if info, err := os.Stat(path); err == nil {
		return info.ModTime().UTC()
	}
	return time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
}

// PublishOptions describes one album publication.
type PublishOptions struct {
	// LibraryID is the external library to rescan.
	LibraryID string
	// RemotePath is the directory holding the files, as the Immich server
	// sees it.
	RemotePath string
	// AlbumName is the album to create or reuse.
	AlbumName string
	// ShareUser optionally names a user to share the album with.
	ShareUser string
	// BaseDate is the video's capture date; photo dates are offset from it.
	BaseDate time.Time
	// Expected is the number of assets the scan should find, zero if
	// unknown.
	Expected int
}

// Publish runs the whole post-extraction flow: rescan the library, wait
// for the assets, build the album and stamp capture dates so the video
// leads and the photos follow in timestamp order.
func (c *Client) Publish(ctx context.Context, opts PublishOptions) error {
	if err := c.TriggerScan(ctx, opts.LibraryID); err != nil {
		return err
	}

	assets, err := c.PollAssets(ctx, opts.RemotePath, opts.Expected, 5*time.Minute)
	if err != nil {
		return err
	}

	albumID, err := c.FindOrCreateAlbum(ctx, opts.AlbumName)
	if err != nil {
		return err
	}

	ordered := OrderAssets(assets)
	ids := make([]string, len(ordered))
	for i, a := range ordered {
		ids[i] = a.ID
	}

	added, err := c.AddAssets(ctx, albumID, ids)
	if err != nil {
		return err
	}
	c.logger.Info().Int("added", added).Str("album", opts.AlbumName).Msg("assets added to album")

	if err := c.SetAlbumOrder(ctx, albumID); err != nil {
		return err
	}

	if opts.ShareUser != "" {
		userID, err := c.FindUser(ctx, opts.ShareUser)
		if err != nil {
			return err
		}
		if err := c.ShareAlbum(ctx, albumID, userID); err != nil {
			return err
		}
		c.logger.Info().Str("user", opts.ShareUser).Msg("album shared")
	}

	return c.stampDates(ctx, ordered, opts.BaseDate)
}

// stampDates dates the video one second before the base date and each
// photo at base plus its timestamp offset, preserving playback order in
// date-sorted views.
func (c *Client) stampDates(ctx context.Context, assets []Asset, base time.Time) error {
	var firstErr error
	for _, a := range assets {
		var t time.Time
		if strings.EqualFold(a.Type, "VIDEO") {
			t = base.Add(-time.Second)
		} else if offset, ok := ParseTimeLabel(a.OriginalFileName); ok {
			t = base.Add(time.Duration(offset * float64(time.Second)))
		} else {
			continue
		}
		if err := c.UpdateAssetDate(ctx, a.ID, t); err != nil {
			c.logger.Error().Err(err).Str("asset", a.OriginalFileName).Msg("date update failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("date update failed for %s: %w", a.OriginalFileName, err)
			}
		}
	}
	return firstErr
}
