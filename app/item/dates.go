package item

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateLayout is the ISO-8601 form every published_date is written in.
const DateLayout = "2006-01-02T15:04:05.999999-07:00"

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04",
	"2006-01-02",
}

var (
	relativePattern = regexp.MustCompile(`(?i)\b(\d+|an?)\s*(minute|hour|day|week|month|year)s?\b`)
	yesterdayWord   = regexp.MustCompile(`(?i)\byesterday\b`)
	todayWord       = regexp.MustCompile(`(?i)\b(today|now)\b`)
	digitsOnly      = regexp.MustCompile(`^\d{9,}$`)
)

// FormatDate renders t in UTC using DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseISO parses the ISO-8601 forms found in item files: a T or space
// separator, minute or finer precision, and an optional offset with or
// without a colon. Values without an offset are taken as UTC.
func ParseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseRelative resolves phrases like "3 days ago", "an hour ago" or
// "yesterday" against now. Only the first magnitude and unit are read.
func ParseRelative(s string, now time.Time) (time.Time, bool) {
	now = now.UTC()
	if yesterdayWord.MatchString(s) {
		return now.AddDate(0, 0, -1), true
	}

	if m := relativePattern.FindStringSubmatch(s); m != nil {
		n := 1
		if v, err := strconv.Atoi(m[1]); err == nil {
			n = v
		}
		switch strings.ToLower(m[2]) {
		case "minute":
			return now.Add(-time.Duration(n) * time.Minute), true
		case "hour":
			return now.Add(-time.Duration(n) * time.Hour), true
		case "day":
			return now.AddDate(0, 0, -n), true
		case "week":
			return now.AddDate(0, 0, -7*n), true
		case "month":
			return SubtractMonths(now, n), true
		case "year":
			return SubtractMonths(now, 12*n), true
		}
	}

	if todayWord.MatchString(s) {
		return now, true
	}
	return time.Time{}, false
}

// SubtractMonths moves t back n calendar months, clamping the day to the
// length of the target month (Mar 31 minus one month is Feb 28 or 29).
func SubtractMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	total := int(month) - 1 - n
	year += total / 12
	total %= 12
	if total < 0 {
		total += 12
		year--
	}
	target := time.Month(total + 1)
	if last := daysIn(year, target); day > last {
		day = last
	}
	return time.Date(year, target, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FromUnixMillis converts a Unix millisecond timestamp to UTC.
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// ResolveDate parses a date in any of the shapes sources publish: ISO-8601,
// relative phrases, Unix timestamps and free-form dates such as
// "Jan 2, 2006". ok is false when nothing matched.
func ResolveDate(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := ParseISO(s); ok {
		return t, true
	}
	if digitsOnly.MatchString(s) {
		v, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			if len(s) >= 12 {
				return FromUnixMillis(v), true
			}
			return time.Unix(v, 0).UTC(), true
		}
	}
	if t, ok := ParseRelative(s, now); ok {
		return t, true
	}
	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// DateOrNow returns s normalized to DateLayout, or now when s cannot be
// parsed.
func DateOrNow(s string, now time.Time) string {
	if t, ok := ResolveDate(s, now); ok {
		return FormatDate(t)
	}
	return FormatDate(now)
}
