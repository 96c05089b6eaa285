package listening

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// counter is an engagement field that tolerates numbers, numeric strings
// and null
type counter int64

func (c *counter) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}

	s := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*c = 0
			return nil
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*c = counter(math.Round(f))
	return nil
}

// engagementSum adds counters, treating a negative total as zero
func engagementSum(cs ...counter) int64 {
	var total int64
	for _, c := range cs {
		total += int64(c)
	}
	if total < 0 {
		return 0
	}
	return total
}

// isoLayouts are tried in order when parsing ISO-8601 timestamps.
// Layouts without a zone are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// flexTime is a timestamp given either as an ISO-8601 string or as epoch
// seconds. set records that a non-empty value was present even when it
// could not be parsed.
type flexTime struct {
	t     time.Time
	set   bool
	valid bool
}

func (ft *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*ft = flexTime{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("false")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		ft.set = s != ""
		ft.t, ft.valid = parseISO(s)
		return nil
	}

	secs, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		// objects, arrays and booleans carry no usable time
		ft.set = true
		return nil
	}
	if secs == 0 {
		return nil
	}
	ft.set = true
	whole, frac := math.Modf(secs)
	ft.t = time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC()
	ft.valid = true
	return nil
}

// dedupe drops empty and repeated entries, keeping first-seen order
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
