package trend

import (
	"encoding/json"
	"time"
)

// Platform identifies the social network a post or trend comes from
type Platform string

const (
	PlatformInstagram Platform = "Instagram"
	PlatformTikTok    Platform = "TikTok"
	PlatformFacebook  Platform = "Facebook"

	// PlatformCombined labels the cross-platform ranking when stored
	PlatformCombined Platform = "Combined"
)

// Platforms lists the source platforms in the order they are combined
var Platforms = []Platform{PlatformInstagram, PlatformTikTok, PlatformFacebook}

// Category is the coarse bucket a normalized score falls into
type Category string

const (
	CategoryHigh   Category = "HIGH"
	CategoryMedium Category = "MEDIUM"
	CategoryLow    Category = "LOW"
)

// PostSignal is a platform post reduced to what the scoring core needs
type PostSignal struct {
	Hashtags   []string
	Engagement int64
	Timestamp  time.Time
	URL        string
	// TrackAge records hours_ago on the samples of this post
	TrackAge bool
}

// Sample is a post supporting a trend
type Sample struct {
	URL        string   `json:"url"`
	Engagement int64    `json:"engagement"`
	HoursAgo   *float64 `json:"hours_ago,omitempty"`
}

// TrendResult is a ranked hashtag for a single platform
type TrendResult struct {
	Platform            Platform `json:"platform"`
	Hashtag             string   `json:"hashtag"`
	Score               float64  `json:"score"`
	PredictedTrend      Category `json:"predicted_trend"`
	PredictedEngagement int64    `json:"predicted_engagement_next_24h"`
	TopPosts            []Sample `json:"top_posts"`
}

// CombinedTrendResult is a ranked hashtag across all platforms
type CombinedTrendResult struct {
	Hashtag             string     `json:"hashtag"`
	PredictedTrend      Category   `json:"predicted_trend"`
	CombinedScore       float64    `json:"combined_score"`
	PredictedEngagement int64      `json:"predicted_engagement_next_24h"`
	LikelyPlatforms     []Platform `json:"likely_platforms"`
	TopPosts            []Sample   `json:"top_posts"`
}

// Result holds everything a single pipeline run produces. Inputs keeps the
// raw records the run scored so they can be archived alongside it.
type Result struct {
	RunID       string
	GeneratedAt time.Time
	Platforms   map[Platform][]TrendResult
	Combined    []CombinedTrendResult
	Inputs      map[Platform][]json.RawMessage
}

// ForPlatform returns the ranking for p, never nil
func (r *Result) ForPlatform(p Platform) []TrendResult {
	if r == nil || r.Platforms[p] == nil {
		return []TrendResult{}
	}
	return r.Platforms[p]
}
