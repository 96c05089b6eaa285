// internal/service/listening/platforms.go

package listening

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"trendcast/internal/domain/trend"
)

// facebookDefaultAge is used when a Facebook post has no usable timestamp
const facebookDefaultAge = 24 * time.Hour

// DefaultAdapters returns the adapters for every supported platform, in
// combination order
func DefaultAdapters() []trend.Adapter {
	return []trend.Adapter{
		InstagramAdapter{},
		TikTokAdapter{},
		FacebookAdapter{},
	}
}

// InstagramAdapter decodes posts from the Instagram scraper
type InstagramAdapter struct{}

type instagramPost struct {
	Hashtags      []string `json:"hashtags"`
	CommentsCount counter  `json:"commentsCount"`
	Timestamp     *string  `json:"timestamp"`
	URL           string   `json:"url"`
}

// Platform returns trend.PlatformInstagram
func (InstagramAdapter) Platform() trend.Platform { return trend.PlatformInstagram }

// Decode uses the pre-tagged hashtags verbatim and comments as engagement
func (InstagramAdapter) Decode(raw json.RawMessage, now time.Time) (trend.PostSignal, error) {
	var p instagramPost
	if err := json.Unmarshal(raw, &p); err != nil {
		return trend.PostSignal{}, fmt.Errorf("decoding instagram post: %w", err)
	}

	return trend.PostSignal{
		Hashtags:   dedupe(p.Hashtags),
		Engagement: engagementSum(p.CommentsCount),
		Timestamp:  timestampOrNow(p.Timestamp, now),
		URL:        p.URL,
	}, nil
}

// TikTokAdapter decodes videos from the TikTok scraper
type TikTokAdapter struct{}

type tiktokPost struct {
	Hashtags []struct {
		Name string `json:"name"`
	} `json:"hashtags"`
	DiggCount     counter `json:"diggCount"`
	ShareCount    counter `json:"shareCount"`
	CommentCount  counter `json:"commentCount"`
	CreateTimeISO *string `json:"createTimeISO"`
	WebVideoURL   string  `json:"webVideoUrl"`
}

// Platform returns trend.PlatformTikTok
func (TikTokAdapter) Platform() trend.Platform { return trend.PlatformTikTok }

// Decode reads hashtag names and sums likes, shares and comments
func (TikTokAdapter) Decode(raw json.RawMessage, now time.Time) (trend.PostSignal, error) {
	var p tiktokPost
	if err := json.Unmarshal(raw, &p); err != nil {
		return trend.PostSignal{}, fmt.Errorf("decoding tiktok post: %w", err)
	}

	names := make([]string, 0, len(p.Hashtags))
	for _, h := range p.Hashtags {
		names = append(names, h.Name)
	}

	return trend.PostSignal{
		Hashtags:   dedupe(names),
		Engagement: engagementSum(p.DiggCount, p.ShareCount, p.CommentCount),
		Timestamp:  timestampOrNow(p.CreateTimeISO, now),
		URL:        p.WebVideoURL,
	}, nil
}

// FacebookAdapter decodes posts from the Facebook scraper. Facebook posts
// carry no tag list, so hashtags come from the post text.
type FacebookAdapter struct{}

type facebookPost struct {
	Text      string   `json:"text"`
	Likes     counter  `json:"likes"`
	Comments  counter  `json:"comments"`
	Shares    counter  `json:"shares"`
	Time      flexTime `json:"time"`
	Timestamp flexTime `json:"timestamp"`
	URL       string   `json:"url"`
}

// Platform returns trend.PlatformFacebook
func (FacebookAdapter) Platform() trend.Platform { return trend.PlatformFacebook }

// Decode scans the text for hashtags and falls back to keyword hashtags
func (FacebookAdapter) Decode(raw json.RawMessage, now time.Time) (trend.PostSignal, error) {
	var p facebookPost
	if err := json.Unmarshal(raw, &p); err != nil {
		return trend.PostSignal{}, fmt.Errorf("decoding facebook post: %w", err)
	}

	// a present time wins over timestamp even when it does not parse
	ts := now.Add(-facebookDefaultAge)
	switch {
	case p.Time.set:
		if p.Time.valid {
			ts = p.Time.t
		}
	case p.Timestamp.valid:
		ts = p.Timestamp.t
	}

	return trend.PostSignal{
		Hashtags:   ExtractFacebookHashtags(p.Text),
		Engagement: engagementSum(p.Likes, p.Comments, p.Shares),
		Timestamp:  ts,
		URL:        p.URL,
		TrackAge:   true,
	}, nil
}

// ExtractFacebookHashtags returns the #tokens of text without the leading
// '#'. Text without any #token gets generated keyword hashtags instead.
func ExtractFacebookHashtags(text string) []string {
	var tags []string
	for _, word := range strings.Fields(text) {
		if !strings.HasPrefix(word, "#") {
			continue
		}
		tags = append(tags, strings.Trim(word, "#"))
	}

	tags = dedupe(tags)
	if len(tags) > 0 {
		return tags
	}

	generated := GenerateHashtags(text)
	for i, h := range generated {
		generated[i] = strings.Trim(h, "#")
	}
	return dedupe(generated)
}

func timestampOrNow(s *string, now time.Time) time.Time {
	if s == nil {
		return now
	}
	if ts, ok := parseISO(*s); ok {
		return ts
	}
	return now
}
