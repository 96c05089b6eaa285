// Package display renders prediction runs for the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"trendcast/internal/domain/trend"
)

var (
	headerColor = color.New(color.Bold)
	highColor   = color.New(color.FgRed, color.Bold)
	mediumColor = color.New(color.FgYellow)
	lowColor    = color.New(color.FgHiBlack)
)

// SummaryFormatter formats a run summary
type SummaryFormatter struct {
	// Limit caps the rows shown per ranking, 0 shows all
	Limit int
}

// NewSummaryFormatter creates a formatter showing at most limit rows
func NewSummaryFormatter(limit int) *SummaryFormatter {
	return &SummaryFormatter{Limit: limit}
}

// Format renders every platform ranking followed by the combined one
func (f *SummaryFormatter) Format(r *trend.Result) string {
	var b strings.Builder

	for _, p := range trend.Platforms {
		ranking := r.ForPlatform(p)
		b.WriteString(headerColor.Sprintf("%s (%d)", p, len(ranking)))
		b.WriteString("\n")
		if len(ranking) == 0 {
			b.WriteString("  no trends\n")
		}
		for _, i := range f.limit(len(ranking)) {
			row := ranking[i]
			fmt.Fprintf(&b, "  %2d. %-30s %6.3f  %s  ~%s\n",
				i+1, row.Hashtag, row.Score, categoryLabel(row.PredictedTrend), formatCount(row.PredictedEngagement))
		}
		b.WriteString("\n")
	}

	b.WriteString(headerColor.Sprintf("Combined (%d)", len(r.Combined)))
	b.WriteString("\n")
	if len(r.Combined) == 0 {
		b.WriteString("  no trends\n")
	}
	for _, i := range f.limit(len(r.Combined)) {
		c := r.Combined[i]
		platforms := make([]string, 0, len(c.LikelyPlatforms))
		for _, p := range c.LikelyPlatforms {
			platforms = append(platforms, string(p))
		}
		fmt.Fprintf(&b, "  %2d. %-30s %6.3f  %s  ~%s  [%s]\n",
			i+1, c.Hashtag, c.CombinedScore, categoryLabel(c.PredictedTrend),
			formatCount(c.PredictedEngagement), strings.Join(platforms, ", "))
	}

	return b.String()
}

func (f *SummaryFormatter) limit(n int) []int {
	if f.Limit > 0 && n > f.Limit {
		n = f.Limit
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func categoryLabel(c trend.Category) string {
	label := fmt.Sprintf("%-6s", c)
	switch c {
	case trend.CategoryHigh:
		return highColor.Sprint(label)
	case trend.CategoryMedium:
		return mediumColor.Sprint(label)
	default:
		return lowColor.Sprint(label)
	}
}

// formatCount renders n with thousands separators
func formatCount(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return s
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
