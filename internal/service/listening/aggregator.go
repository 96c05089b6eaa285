// internal/service/listening/aggregator.go

package listening

import (
	"errors"
	"fmt"
	"math"
	"time"

	"trendcast/internal/domain/trend"
)

// ErrNonFiniteWeight is returned for posts whose weighted engagement
// overflows, which happens for timestamps far in the future
var ErrNonFiniteWeight = errors.New("weighted engagement is not finite")

type hashtagEntry struct {
	rawScore float64
	samples  []trend.Sample
}

// Aggregator accumulates a decay-weighted engagement score per hashtag.
// Hashtags are kept in the order they were first seen.
type Aggregator struct {
	now      time.Time
	halfLife float64
	order    []string
	entries  map[string]*hashtagEntry
}

// NewAggregator creates an aggregator that ages posts relative to now
func NewAggregator(now time.Time, halfLife float64) *Aggregator {
	return &Aggregator{
		now:      now,
		halfLife: halfLife,
		entries:  make(map[string]*hashtagEntry),
	}
}

// Add credits every hashtag of the post with its weighted engagement.
// A post whose weighted engagement is not finite is rejected untouched.
func (a *Aggregator) Add(post trend.PostSignal) error {
	hoursAgo := a.now.Sub(post.Timestamp).Hours()
	weighted := float64(post.Engagement) * trend.DecayWeight(hoursAgo, a.halfLife)
	if math.IsNaN(weighted) || math.IsInf(weighted, 0) {
		return fmt.Errorf("%w: post is %.0f hours old", ErrNonFiniteWeight, hoursAgo)
	}

	for _, h := range post.Hashtags {
		entry, ok := a.entries[h]
		if !ok {
			entry = &hashtagEntry{}
			a.entries[h] = entry
			a.order = append(a.order, h)
		}

		entry.rawScore += weighted

		sample := trend.Sample{URL: post.URL, Engagement: post.Engagement}
		if post.TrackAge {
			rounded := math.Round(hoursAgo*100) / 100
			sample.HoursAgo = &rounded
		}
		entry.samples = append(entry.samples, sample)
	}
	return nil
}

// Len returns the number of distinct hashtags seen
func (a *Aggregator) Len() int {
	return len(a.order)
}

// Hashtags returns the hashtags in first-seen order
func (a *Aggregator) Hashtags() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// RawScores returns the accumulated score of every hashtag
func (a *Aggregator) RawScores() map[string]float64 {
	scores := make(map[string]float64, len(a.entries))
	for h, e := range a.entries {
		scores[h] = e.rawScore
	}
	return scores
}

// Samples returns the posts recorded for a hashtag
func (a *Aggregator) Samples(hashtag string) []trend.Sample {
	if e, ok := a.entries[hashtag]; ok {
		return e.samples
	}
	return nil
}

// Rank normalizes the scores and returns the top n trends for platform
func (a *Aggregator) Rank(platform trend.Platform, n int) []trend.TrendResult {
	normalized := trend.Normalize(a.RawScores())

	scored := make([]scoredHashtag, 0, len(a.order))
	for _, h := range a.order {
		scored = append(scored, scoredHashtag{hashtag: h, score: normalized[h]})
	}

	top := SelectTop(scored, n)
	results := make([]trend.TrendResult, 0, len(top))
	for _, s := range top {
		results = append(results, trend.TrendResult{
			Platform:            platform,
			Hashtag:             s.hashtag,
			Score:               s.score,
			PredictedTrend:      trend.Categorize(s.score),
			PredictedEngagement: trend.PredictEngagement(s.score),
			TopPosts:            capSamples(a.Samples(s.hashtag)),
		})
	}
	return results
}
