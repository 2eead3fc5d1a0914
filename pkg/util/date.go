package util

import (
	"strconv"
	"time"
)

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, time.DateTime, time.DateOnly}

// ParseTime accepts RFC3339 (with or without fraction), "2006-01-02 15:04:05",
// a plain date, or positive unix seconds. Layouts without a zone are UTC.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil && sec > 0 {
		return time.Unix(sec, 0).UTC(), true
	}
	return time.Time{}, false
}

func ParseTimeDefault(s string, def time.Time) time.Time {
	t, ok := ParseTime(s)
	if !ok {
		return def
	}
	return t
}

// TimeWindow resolves optional from/to query bounds. A missing "to" is now,
// a missing "from" is window before "to", and a reversed pair is swapped.
func TimeWindow(from, to string, now time.Time, window time.Duration) (time.Time, time.Time) {
	end := ParseTimeDefault(to, now)
	start := ParseTimeDefault(from, end.Add(-window))
	if start.After(end) {
		return end, start
	}
	return start, end
}
