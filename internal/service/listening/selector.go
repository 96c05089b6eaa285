package listening

import (
	"sort"

	"trendcast/internal/domain/trend"
)

// maxSamples is how many supporting posts a trend carries
const maxSamples = 3

type scoredHashtag struct {
	hashtag string
	score   float64
}

// SelectTop sorts by descending score and keeps the first n entries.
// Ties keep their input order. n <= 0 selects nothing.
func SelectTop(in []scoredHashtag, n int) []scoredHashtag {
	out := make([]scoredHashtag, len(in))
	copy(out, in)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].score > out[j].score
	})

	if n < 0 {
		n = 0
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func capSamples(samples []trend.Sample) []trend.Sample {
	n := len(samples)
	if n > maxSamples {
		n = maxSamples
	}
	out := make([]trend.Sample, n)
	copy(out, samples[:n])
	return out
}
