package listening

import (
	"trendcast/internal/domain/trend"
)

type combinedEntry struct {
	score     float64
	platforms []trend.Platform
	samples   []trend.Sample
}

// Combine merges per-platform rankings into one cross-platform ranking.
// A hashtag's combined score is the sum of its per-platform scores; a
// platform where it did not rank contributes nothing. Combined scores are
// not renormalized, so category and prediction are taken from the raw sum.
func Combine(rankings [][]trend.TrendResult, n int) []trend.CombinedTrendResult {
	var order []string
	entries := make(map[string]*combinedEntry)

	for _, ranking := range rankings {
		for _, t := range ranking {
			e, ok := entries[t.Hashtag]
			if !ok {
				e = &combinedEntry{}
				entries[t.Hashtag] = e
				order = append(order, t.Hashtag)
			}

			e.score += t.Score
			e.samples = append(e.samples, t.TopPosts...)
			if !containsPlatform(e.platforms, t.Platform) {
				e.platforms = append(e.platforms, t.Platform)
			}
		}
	}

	scored := make([]scoredHashtag, 0, len(order))
	for _, h := range order {
		scored = append(scored, scoredHashtag{hashtag: h, score: entries[h].score})
	}

	top := SelectTop(scored, n)
	results := make([]trend.CombinedTrendResult, 0, len(top))
	for _, s := range top {
		e := entries[s.hashtag]
		results = append(results, trend.CombinedTrendResult{
			Hashtag:             s.hashtag,
			PredictedTrend:      trend.Categorize(s.score),
			CombinedScore:       s.score,
			PredictedEngagement: trend.PredictEngagement(s.score),
			LikelyPlatforms:     e.platforms,
			TopPosts:            capSamples(e.samples),
		})
	}
	return results
}

func containsPlatform(ps []trend.Platform, p trend.Platform) bool {
	for _, x := range ps {
		if x == p {
			return true
		}
	}
	return false
}
