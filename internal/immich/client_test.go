package immich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(zerolog.Nop(), server.URL, "test-key")
}

func TestClientSendsAPIKey(t *testing.T) {
	var gotKey string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		w.Write([]byte("[]"))
	})

	_, err := c.SearchAssets(context.Background(), "/photos")
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotKey)
}

func TestClientErrorStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid key"}`, http.StatusUnauthorized)
	})

	err := c.TriggerScan(context.Background(), "lib-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid key")
}

func TestSearchAssets(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/search/metadata", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "/photos/reel", req["originalPath"])

		json.NewEncoder(w).Encode(map[string]any{
			"assets": map[string]any{
				"items": []Asset{
					{ID: "a1", Type: "IMAGE", OriginalFileName: "reel_0m42s.jpg"},
					{ID: "a2", Type: "VIDEO", OriginalFileName: "reel.mp4"},
				},
			},
		})
	})

	assets, err := c.SearchAssets(context.Background(), "/photos/reel")
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "a1", assets[0].ID)
}

func TestFindOrCreateAlbumExisting(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`[{"id":"alb-1","albumName":"Family Reel"},{"id":"alb-2","albumName":"Other"}]`))
	})

	id, err := c.FindOrCreateAlbum(context.Background(), "Family Reel")
	require.NoError(t, err)
	assert.Equal(t, "alb-1", id)
}

func TestFindOrCreateAlbumCreates(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`[]`))
		case http.MethodPost:
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "New Album", req["albumName"])
			w.Write([]byte(`{"id":"alb-new"}`))
		}
	})

	id, err := c.FindOrCreateAlbum(context.Background(), "New Album")
	require.NoError(t, err)
	assert.Equal(t, "alb-new", id)
}

func TestAddAssetsDuplicatesCountAsAdded(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/albums/alb-1/assets", r.URL.Path)
		w.Write([]byte(`[
			{"id":"a1","success":true},
			{"id":"a2","success":false,"error":"duplicate"}
		]`))
	})

	added, err := c.AddAssets(context.Background(), "alb-1", []string{"a1", "a2"})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
}

func TestFindUser(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"u1","name":"Pat","email":"pat@example.com"}]`))
	})

	id, err := c.FindUser(context.Background(), "pat@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	_, err = c.FindUser(context.Background(), "nobody")
	assert.Error(t, err)
}

func TestUpdateAssetDate(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{}`))
	})

	ts := time.Date(1985, 6, 14, 12, 0, 1, 0, time.UTC)
	require.NoError(t, c.UpdateAssetDate(context.Background(), "a1", ts))

	assert.Equal(t, "/api/assets/a1", gotPath)
	assert.Equal(t, "1985-06-14T12:00:01Z", gotBody["dateTimeOriginal"])
}

func TestPollAssetsReachesExpected(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"assets": map[string]any{
				"items": []Asset{{ID: "a1"}, {ID: "a2"}},
			},
		})
	})

	assets, err := c.PollAssets(context.Background(), "/photos", 2, time.Minute)
	require.NoError(t, err)
	assert.Len(t, assets, 2)
}
