package storage

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendcast/internal/domain/trend"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestPostSource_Load(t *testing.T) {
	dir := t.TempDir()
	source := NewPostSource(dir, discardLogger)
	ctx := context.Background()

	t.Run("missing file is an empty dataset", func(t *testing.T) {
		records, err := source.Load(ctx, trend.PlatformTikTok)
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("array of records", func(t *testing.T) {
		path := filepath.Join(dir, "instagram_raw.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"url": "a"}, {"url": "b"}, 3]`), 0o600))

		records, err := source.Load(ctx, trend.PlatformInstagram)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.JSONEq(t, `{"url": "a"}`, string(records[0]))
	})

	t.Run("malformed json is an error", func(t *testing.T) {
		path := filepath.Join(dir, "facebook_raw.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"url": `), 0o600))

		_, err := source.Load(ctx, trend.PlatformFacebook)
		assert.Error(t, err)
	})

	t.Run("null file is an empty dataset", func(t *testing.T) {
		other := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(other, "tiktok_raw.json"), []byte(`null`), 0o600))

		records, err := NewPostSource(other, discardLogger).Load(ctx, trend.PlatformTikTok)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func sampleResult() *trend.Result {
	hours := 2.5
	return &trend.Result{
		GeneratedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		Platforms: map[trend.Platform][]trend.TrendResult{
			trend.PlatformInstagram: {{
				Platform:            trend.PlatformInstagram,
				Hashtag:             "café<3",
				Score:               1,
				PredictedTrend:      trend.CategoryHigh,
				PredictedEngagement: 50_000_000,
				TopPosts:            []trend.Sample{{URL: "https://instagram.com/p/1?a=1&b=2", Engagement: 7}},
			}},
			trend.PlatformFacebook: {{
				Platform:            trend.PlatformFacebook,
				Hashtag:             "space",
				Score:               1,
				PredictedTrend:      trend.CategoryHigh,
				PredictedEngagement: 50_000_000,
				TopPosts:            []trend.Sample{{URL: "https://facebook.com/p/1", Engagement: 3, HoursAgo: &hours}},
			}},
		},
		Combined: []trend.CombinedTrendResult{{
			Hashtag:             "space",
			PredictedTrend:      trend.CategoryHigh,
			CombinedScore:       1,
			PredictedEngagement: 50_000_000,
			LikelyPlatforms:     []trend.Platform{trend.PlatformFacebook},
			TopPosts:            []trend.Sample{{URL: "https://facebook.com/p/1", Engagement: 3, HoursAgo: &hours}},
		}},
	}
}

func TestFileStore_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "predictions")
	store := NewFileStore(dir, discardLogger)

	require.NoError(t, store.Write(context.Background(), sampleResult()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"instagram_trends.json", "tiktok_trends.json", "facebook_trends.json", "combined_trends.json",
	}, names, "no staged files are left behind")

	ig, err := os.ReadFile(filepath.Join(dir, "instagram_trends.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(ig), "[\n    {\n        \"platform\": \"Instagram\""), string(ig))
	assert.Contains(t, string(ig), `"hashtag": "café<3"`)
	assert.Contains(t, string(ig), `?a=1&b=2`)
	assert.NotContains(t, string(ig), "hours_ago")

	tiktok, err := os.ReadFile(filepath.Join(dir, "tiktok_trends.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(tiktok))

	combined, err := os.ReadFile(filepath.Join(dir, "combined_trends.json"))
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(combined, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "space", decoded[0]["hashtag"])
	assert.Equal(t, []any{"Facebook"}, decoded[0]["likely_platforms"])
	assert.Contains(t, string(combined), `"hours_ago": 2.5`)
}

func TestFileStore_WriteReplacesPreviousSet(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, discardLogger)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, sampleResult()))
	require.NoError(t, store.Write(ctx, &trend.Result{}))

	for _, feed := range Feeds {
		data, err := store.Read(feed)
		require.NoError(t, err)
		assert.Equal(t, "[]\n", string(data), feed)
	}
}

func TestFileStore_WriteCancelledKeepsPreviousSet(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, discardLogger)

	require.NoError(t, store.Write(context.Background(), sampleResult()))
	before, err := store.Read(CombinedFeed)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Write(ctx, &trend.Result{}), context.Canceled)

	after, err := store.Read(CombinedFeed)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(Feeds))
}

func TestFileStore_Read(t *testing.T) {
	store := NewFileStore(t.TempDir(), discardLogger)

	_, err := store.Read("instagram")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Read("../secrets")
	assert.ErrorIs(t, err, ErrNotFound)
}
