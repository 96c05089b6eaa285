package listening

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendcast/internal/domain/trend"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestInstagramAdapter(t *testing.T) {
	raw := json.RawMessage(`{
		"hashtags": ["space", "nasa", "space", ""],
		"commentsCount": 42,
		"timestamp": "2025-03-10T00:00:00.000Z",
		"url": "https://instagram.com/p/1"
	}`)

	post, err := InstagramAdapter{}.Decode(raw, testNow)
	require.NoError(t, err)

	assert.Equal(t, []string{"space", "nasa"}, post.Hashtags)
	assert.Equal(t, int64(42), post.Engagement)
	assert.Equal(t, testNow.Add(-12*time.Hour), post.Timestamp.UTC())
	assert.Equal(t, "https://instagram.com/p/1", post.URL)
	assert.False(t, post.TrackAge)
}

func TestInstagramAdapter_MissingFields(t *testing.T) {
	post, err := InstagramAdapter{}.Decode(json.RawMessage(`{}`), testNow)
	require.NoError(t, err)

	assert.Empty(t, post.Hashtags)
	assert.Zero(t, post.Engagement)
	assert.Equal(t, testNow, post.Timestamp)
	assert.Empty(t, post.URL)
}

func TestInstagramAdapter_UnparseableTimestampUsesNow(t *testing.T) {
	post, err := InstagramAdapter{}.Decode(json.RawMessage(`{"timestamp": "yesterday"}`), testNow)
	require.NoError(t, err)
	assert.Equal(t, testNow, post.Timestamp)
}

func TestInstagramAdapter_WrongShapeFails(t *testing.T) {
	_, err := InstagramAdapter{}.Decode(json.RawMessage(`{"hashtags": "space"}`), testNow)
	assert.Error(t, err)
}

func TestTikTokAdapter(t *testing.T) {
	raw := json.RawMessage(`{
		"hashtags": [{"name": "nba"}, {"name": ""}, {"title": "x"}, {"name": "dunk"}],
		"diggCount": 100,
		"shareCount": "20",
		"commentCount": null,
		"createTimeISO": "2025-03-09T12:00:00+00:00",
		"webVideoUrl": "https://tiktok.com/v/1"
	}`)

	post, err := TikTokAdapter{}.Decode(raw, testNow)
	require.NoError(t, err)

	assert.Equal(t, []string{"nba", "dunk"}, post.Hashtags)
	assert.Equal(t, int64(120), post.Engagement)
	assert.Equal(t, testNow.Add(-24*time.Hour), post.Timestamp.UTC())
	assert.Equal(t, "https://tiktok.com/v/1", post.URL)
}

func TestFacebookAdapter(t *testing.T) {
	raw := json.RawMessage(`{
		"text": "Check out #space today",
		"likes": 10,
		"comments": 5,
		"shares": 1,
		"time": "2025-03-10T06:00:00Z",
		"url": "https://facebook.com/p/1"
	}`)

	post, err := FacebookAdapter{}.Decode(raw, testNow)
	require.NoError(t, err)

	assert.Equal(t, []string{"space"}, post.Hashtags)
	assert.Equal(t, int64(16), post.Engagement)
	assert.Equal(t, testNow.Add(-6*time.Hour), post.Timestamp.UTC())
	assert.True(t, post.TrackAge)
}

func TestFacebookAdapter_Timestamps(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"epoch seconds", `{"time": 1741600800}`, time.Unix(1741600800, 0).UTC()},
		{"timestamp field", `{"timestamp": "2025-03-10T10:00:00Z"}`, testNow.Add(-2 * time.Hour)},
		{"time preferred", `{"time": "2025-03-10T11:00:00Z", "timestamp": "2025-03-10T10:00:00Z"}`, testNow.Add(-time.Hour)},
		{"missing", `{}`, testNow.Add(-24 * time.Hour)},
		{"unparseable", `{"time": "soon"}`, testNow.Add(-24 * time.Hour)},
		{"zero epoch", `{"time": 0}`, testNow.Add(-24 * time.Hour)},
		{"empty time falls through", `{"time": "", "timestamp": "2025-03-10T10:00:00Z"}`, testNow.Add(-2 * time.Hour)},
		{"zero time falls through", `{"time": 0, "timestamp": "2025-03-10T10:00:00Z"}`, testNow.Add(-2 * time.Hour)},
		{"unparseable time wins over timestamp", `{"time": "soon", "timestamp": "2025-03-10T10:00:00Z"}`, testNow.Add(-24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := FacebookAdapter{}.Decode(json.RawMessage(tt.raw), testNow)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(post.Timestamp), "got %s want %s", post.Timestamp, tt.want)
		})
	}
}

func TestExtractFacebookHashtags(t *testing.T) {
	t.Run("explicit hashtags skip the generator", func(t *testing.T) {
		assert.Equal(t, []string{"space"}, ExtractFacebookHashtags("Check out #space today"))
	})

	t.Run("repeated hashtags are deduplicated", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, ExtractFacebookHashtags("#a #b #a ##a#"))
	})

	t.Run("no hashtags falls back to keywords", func(t *testing.T) {
		got := ExtractFacebookHashtags("Amazing rocket launch success today")
		assert.Equal(t, []string{"amazing", "amazingrocket", "rocket", "rocketlaunch", "launch"}, got)
	})

	t.Run("empty text yields nothing", func(t *testing.T) {
		assert.Empty(t, ExtractFacebookHashtags(""))
	})
}

func TestGenerateHashtags(t *testing.T) {
	t.Run("adjacent keyword pairs", func(t *testing.T) {
		got := GenerateHashtags("Amazing rocket launch success today")
		assert.Equal(t, []string{"#amazing", "#amazingrocket", "#rocket", "#rocketlaunch", "#launch"}, got)
	})

	t.Run("deterministic", func(t *testing.T) {
		text := "Galaxy photos from the telescope show galaxy clusters and galaxy dust"
		first := GenerateHashtags(text)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, GenerateHashtags(text))
		}
		assert.LessOrEqual(t, len(first), 5)
		assert.NotEmpty(t, first)
	})

	t.Run("stopwords and short words are dropped", func(t *testing.T) {
		got := GenerateHashtags("Learn more about this at https://example.com with the ocean waves")
		assert.Equal(t, []string{"#example", "#exampleocean", "#ocean", "#oceanwaves"}, got)
	})

	t.Run("a single keyword generates nothing", func(t *testing.T) {
		assert.Empty(t, GenerateHashtags("Wow rocket!"))
	})
}

func TestDefaultAdaptersOrder(t *testing.T) {
	var got []trend.Platform
	for _, a := range DefaultAdapters() {
		got = append(got, a.Platform())
	}
	assert.Equal(t, trend.Platforms, got)
}
