package listening

import (
	"regexp"
	"strings"
)

// maxGeneratedHashtags caps the hashtags generated for a single post
const maxGeneratedHashtags = 5

var keywordPattern = regexp.MustCompile(`\b[a-z]{4,}\b`)

// stopwords are frequent words that never become generated hashtags
var stopwords = map[string]struct{}{
	"https": {}, "http": {}, "about": {}, "learn": {}, "more": {}, "that": {},
	"with": {}, "have": {}, "been": {}, "there": {}, "this": {}, "from": {},
	"they": {}, "them": {}, "their": {}, "you": {}, "your": {}, "when": {},
	"where": {}, "what": {}, "which": {}, "also": {}, "into": {}, "some": {},
	"like": {}, "than": {}, "then": {}, "after": {}, "such": {}, "being": {},
	"just": {}, "make": {}, "take": {}, "over": {}, "while": {}, "still": {},
}

// GenerateHashtags derives hashtags from the keywords of free text. For
// every pair of adjacent keywords it emits "#first" and "#firstsecond".
// The result keeps first-seen order and holds at most five entries.
func GenerateHashtags(text string) []string {
	var keywords []string
	for _, w := range keywordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, skip := stopwords[w]; skip {
			continue
		}
		keywords = append(keywords, w)
	}

	seen := make(map[string]struct{})
	out := make([]string, 0, maxGeneratedHashtags)
	add := func(tag string) bool {
		if _, ok := seen[tag]; ok {
			return len(out) < maxGeneratedHashtags
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		return len(out) < maxGeneratedHashtags
	}

	for i := 0; i+1 < len(keywords); i++ {
		if !add("#" + keywords[i]) {
			break
		}
		if !add("#" + keywords[i] + keywords[i+1]) {
			break
		}
	}
	return out
}
