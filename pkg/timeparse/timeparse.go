// Package timeparse turns the timestamp strings chat UIs render into epoch
// milliseconds.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	clockPattern = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})(?:\s*(AM|PM))?`)
	bareClock    = regexp.MustCompile(`(?i)^\s*\d{1,2}:\d{2}(?::\d{2})?(?:\s*(AM|PM))?\s*$`)
)

// Parse returns raw as epoch milliseconds. Full date/time strings are tried
// first; then a clock time (optionally AM/PM) on now's calendar date in
// now's location. It never panics.
func Parse(raw string, now time.Time) (ms int64, ok bool) {
	defer func() {
		if recover() != nil {
			ms, ok = 0, false
		}
	}()

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	if t, ok := parseFull(raw, now.Location()); ok {
		return t.UnixMilli(), true
	}

	m := clockPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	switch strings.ToUpper(m[3]) {
	case "PM":
		if hours != 12 {
			hours += 12
		}
	case "AM":
		if hours == 12 {
			hours = 0
		}
	}

	y, mo, d := now.Date()
	midnight := time.Date(y, mo, d, 0, 0, 0, 0, now.Location())
	t := midnight.Add(time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute)
	return t.UnixMilli(), true
}

func parseFull(raw string, loc *time.Location) (time.Time, bool) {
	if bareClock.MatchString(raw) {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	t, err := dateparse.ParseIn(raw, loc)
	if err != nil || t.Year() < 1000 {
		return time.Time{}, false
	}
	return t, true
}
