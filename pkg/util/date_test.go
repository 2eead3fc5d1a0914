package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTime(t *testing.T) {
	ref := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	cases := map[string]time.Time{
		"2024-10-10T10:10:10Z":      ref,
		"2024-10-10T10:10:10.5Z":    ref.Add(500 * time.Millisecond),
		"2024-10-10 10:10:10":       ref,
		"2024-10-10":                time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC),
		"1728555010":                ref,
		"2024-10-10T12:10:10+02:00": ref,
	}
	for in, want := range cases {
		got, ok := ParseTime(in)
		if assert.True(t, ok, in) {
			assert.True(t, want.Equal(got), "%s: got %v", in, got)
		}
	}

	for _, in := range []string{"", "yesterday", "-5", "0"} {
		_, ok := ParseTime(in)
		assert.False(t, ok, in)
	}
}

func TestTimeWindow(t *testing.T) {
	now := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)

	from, to := TimeWindow("", "", now, 24*time.Hour)
	assert.Equal(t, now, to)
	assert.Equal(t, now.Add(-24*time.Hour), from)

	from, to = TimeWindow("2024-10-09", "2024-10-01", now, time.Hour)
	assert.True(t, from.Before(to))
	assert.Equal(t, 1, from.Day())

	assert.Equal(t, now, ParseTimeDefault("garbage", now))
}
