package item

import (
	"testing"
	"time"
)

var refNow = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

func TestParseRelative(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
	}{
		{"3 days ago", refNow.AddDate(0, 0, -3)},
		{"an hour ago", refNow.Add(-time.Hour)},
		{"a week ago", refNow.AddDate(0, 0, -7)},
		{"15 minutes ago", refNow.Add(-15 * time.Minute)},
		{"1 month ago", time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC)},
		{"2 years ago", time.Date(2023, 3, 31, 12, 0, 0, 0, time.UTC)},
		{"yesterday", refNow.AddDate(0, 0, -1)},
		{"today", refNow},
		{"just now", refNow},
		{"2 days 3 hours ago", refNow.AddDate(0, 0, -2)},
	}

	for _, tt := range tests {
		got, ok := ParseRelative(tt.input, refNow)
		if !ok {
			t.Errorf("Expected %q to parse", tt.input)
			continue
		}
		if !got.Equal(tt.expected) {
			t.Errorf("Expected %q to resolve to %v, got %v", tt.input, tt.expected, got)
		}
	}

	if _, ok := ParseRelative("sometime", refNow); ok {
		t.Error("Expected unparseable phrase to fail")
	}
}

func TestSubtractMonths(t *testing.T) {
	tests := []struct {
		from     time.Time
		months   int
		expected time.Time
	}{
		{time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 13, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 12, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got := SubtractMonths(tt.from, tt.months)
		if !got.Equal(tt.expected) {
			t.Errorf("Expected %v minus %d months to be %v, got %v", tt.from, tt.months, tt.expected, got)
		}
	}
}

func TestResolveDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2025-01-02T03:04:05Z", "2025-01-02T03:04:05+00:00"},
		{"2025-01-02T03:04:05+02:00", "2025-01-02T01:04:05+00:00"},
		{"2025-01-02", "2025-01-02T00:00:00+00:00"},
		{"Jan 2, 2025", "2025-01-02T00:00:00+00:00"},
		{"1735787045000", "2025-01-02T03:04:05+00:00"},
		{"3 days ago", "2025-03-28T12:00:00+00:00"},
	}

	for _, tt := range tests {
		got, ok := ResolveDate(tt.input, refNow)
		if !ok {
			t.Errorf("Expected %q to parse", tt.input)
			continue
		}
		if FormatDate(got) != tt.expected {
			t.Errorf("Expected %q to format as %s, got %s", tt.input, tt.expected, FormatDate(got))
		}
	}
}

func TestDateOrNowFallback(t *testing.T) {
	if got := DateOrNow("", refNow); got != FormatDate(refNow) {
		t.Errorf("Expected empty date to fall back to now, got %s", got)
	}
	if got := DateOrNow("not a date at all", refNow); got != FormatDate(refNow) {
		t.Errorf("Expected garbage date to fall back to now, got %s", got)
	}
}

func TestParseISO(t *testing.T) {
	if _, ok := ParseISO("2025-06-01T10:00:00.123456+00:00"); !ok {
		t.Error("Expected fractional ISO timestamp to parse")
	}
	if _, ok := ParseISO("2025-06-01T10:00:00"); !ok {
		t.Error("Expected naive ISO timestamp to parse")
	}

	tests := []struct {
		input    string
		expected time.Time
	}{
		{"2025-01-03 10:00:00+00:00", time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC)},
		{"2025-01-03 10:00:00", time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC)},
		{"2025-01-04T10:00", time.Date(2025, 1, 4, 10, 0, 0, 0, time.UTC)},
		{"2025-01-04T10:00+02:00", time.Date(2025, 1, 4, 8, 0, 0, 0, time.UTC)},
		{"2025-01-04T10:00:00+0200", time.Date(2025, 1, 4, 8, 0, 0, 0, time.UTC)},
		{"2025-01-04T10:00:00.5+0200", time.Date(2025, 1, 4, 8, 0, 0, 500000000, time.UTC)},
		{"2025-01-04 10:00Z", time.Date(2025, 1, 4, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, ok := ParseISO(tt.input)
		if !ok {
			t.Errorf("Expected %q to parse", tt.input)
			continue
		}
		if !got.Equal(tt.expected) {
			t.Errorf("Expected ParseISO(%q) = %s, got %s", tt.input, tt.expected, got)
		}
	}

	if _, ok := ParseISO("June 1st"); ok {
		t.Error("Expected free-form date to be rejected")
	}
}
