// Package immich talks to an Immich photo server: triggering library
// scans, building albums from extracted photos and fixing asset dates.
package immich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	pollInterval = 5 * time.Second
	// The library scan is asynchronous; the asset count must hold steady
	// this many polls before we trust it.
	stablePolls = 4
)

// Asset is the subset of Immich's asset record the pipeline cares about.
type Asset struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	OriginalPath     string `json:"originalPath"`
	OriginalFileName string `json:"originalFileName"`
}

// Client is a minimal Immich API client authenticated with an API key.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient returns a client for the Immich server at apiURL.
func NewClient(logger zerolog.Logger, apiURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(apiURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With().Str("component", "immich").Logger(),
	}
}

// do sends one API request. body and out may be nil; non-2xx responses
// become errors carrying the response text.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("immich request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("immich %s %s: status %d: %s",
			method, path, resp.StatusCode, truncate(string(data), 200))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("immich %s %s: bad response: %w", method, path, err)
		}
	}
	return nil
}

// TriggerScan asks Immich to rescan an external library.
func (c *Client) TriggerScan(ctx context.Context, libraryID string) error {
	c.logger.Info().Str("library", libraryID).Msg("triggering library scan")
	return c.do(ctx, http.MethodPost, "/api/libraries/"+libraryID+"/scan", struct{}{}, nil)
}

// SearchAssets returns the assets whose original path starts with prefix.
func (c *Client) SearchAssets(ctx context.Context, prefix string) ([]Asset, error) {
	req := map[string]any{"originalPath": prefix, "size": 1000}
	var resp struct {
		Assets struct {
			Items []Asset `json:"items"`
		} `json:"assets"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/search/metadata", req, &resp); err != nil {
		return nil, err
	}
	return resp.Assets.Items, nil
}

// PollAssets waits for the library scan to pick up the files under prefix.
// It returns once the asset count reaches expected, or once the count has
// stopped growing for several polls, or when the timeout expires with at
// least one asset found.
func (c *Client) PollAssets(ctx context.Context, prefix string, expected int, timeout time.Duration) ([]Asset, error) {
	deadline := time.Now().Add(timeout)
	var assets []Asset
	lastCount := -1
	stable := 0

	for {
		var err error
		assets, err = c.SearchAssets(ctx, prefix)
		if err != nil {
			return nil, err
		}

		count := len(assets)
		c.logger.Debug().Int("found", count).Int("expected", expected).Msg("polling for assets")

		if expected > 0 && count >= expected {
			return assets, nil
		}
		if count > 0 && count == lastCount {
			stable++
			if stable >= stablePolls {
				c.logger.Warn().Int("found", count).Int("expected", expected).
					Msg("asset count stopped growing, proceeding with what is there")
				return assets, nil
			}
		} else {
			stable = 0
		}
		lastCount = count

		if time.Now().After(deadline) {
			if count > 0 {
				return assets, nil
			}
			return nil, fmt.Errorf("no assets appeared under %s within %s", prefix, timeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// FindOrCreateAlbum returns the ID of the album with the given name,
// creating it when missing.
func (c *Client) FindOrCreateAlbum(ctx context.Context, name string) (string, error) {
	var albums []struct {
		ID        string `json:"id"`
		AlbumName string `json:"albumName"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/albums", nil, &albums); err != nil {
		return "", err
	}
	for _, a := range albums {
		if a.AlbumName == name {
			c.logger.Info().Str("album", name).Msg("using existing album")
			return a.ID, nil
		}
	}

	var created struct {
		ID string `json:"id"`
	}
	req := map[string]string{"albumName": name}
	if err := c.do(ctx, http.MethodPost, "/api/albums", req, &created); err != nil {
		return "", err
	}
	c.logger.Info().Str("album", name).Str("id", created.ID).Msg("created album")
	return created.ID, nil
}

// SetAlbumOrder makes the album display oldest first, so the timestamped
// photos read in video order.
func (c *Client) SetAlbumOrder(ctx context.Context, albumID string) error {
	return c.do(ctx, http.MethodPatch, "/api/albums/"+albumID,
		map[string]string{"order": "asc"}, nil)
}

// AddAssets puts assets into an album. Assets already in the album count
// as added; other per-asset failures get one retry after a short wait.
func (c *Client) AddAssets(ctx context.Context, albumID string, ids []string) (int, error) {
	added, retry, err := c.addAssetsOnce(ctx, albumID, ids)
	if err != nil {
		return added, err
	}
	if len(retry) > 0 {
		c.logger.Warn().Int("count", len(retry)).Msg("retrying failed album additions")
		select {
		case <-ctx.Done():
			return added, ctx.Err()
		case <-time.After(pollInterval):
		}
		more, still, err := c.addAssetsOnce(ctx, albumID, retry)
		added += more
		if err != nil {
			return added, err
		}
		if len(still) > 0 {
			return added, fmt.Errorf("%d assets could not be added to album", len(still))
		}
	}
	return added, nil
}

func (c *Client) addAssetsOnce(ctx context.Context, albumID string, ids []string) (int, []string, error) {
	var results []struct {
		ID      string `json:"id"`
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	req := map[string][]string{"ids": ids}
	if err := c.do(ctx, http.MethodPut, "/api/albums/"+albumID+"/assets", req, &results); err != nil {
		return 0, nil, err
	}

	added := 0
	var failed []string
	for _, r := range results {
		switch {
		case r.Success, r.Error == "duplicate":
			added++
		default:
			failed = append(failed, r.ID)
		}
	}
	return added, failed, nil
}

// FindUser resolves a user by name or email.
func (c *Client) FindUser(ctx context.Context, nameOrEmail string) (string, error) {
	var users []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return "", err
	}
	for _, u := range users {
		if u.Name == nameOrEmail || u.Email == nameOrEmail {
			return u.ID, nil
		}
	}
	return "", fmt.Errorf("immich user %q not found", nameOrEmail)
}

// ShareAlbum grants a user editor access to an album. Sharing twice is
// not an error.
func (c *Client) ShareAlbum(ctx context.Context, albumID, userID string) error {
	req := map[string]any{
		"albumUsers": []map[string]string{{"userId": userID, "role": "editor"}},
	}
	err := c.do(ctx, http.MethodPut, "/api/albums/"+albumID+"/users", req, nil)
	if err != nil && strings.Contains(err.Error(), "already") {
		c.logger.Debug().Str("album", albumID).Msg("album already shared")
		return nil
	}
	return err
}

// UpdateAssetDate overwrites an asset's capture date.
func (c *Client) UpdateAssetDate(ctx context.Context, assetID string, t time.Time) error {
	req := map[string]string{"dateTimeOriginal": t.UTC().Format(time.RFC3339)}
	return c.do(ctx, http.MethodPut, "/api/assets/"+assetID, req, nil)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
