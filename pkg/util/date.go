package util

import (
	"strconv"
	"strings"
	"time"
)

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	DateOnly,
}

// DateOnly is the layout of bare calendar dates.
const DateOnly = "2006-01-02"

// epoch values above this are milliseconds
const msThreshold = 1_000_000_000_000

// ParseTime accepts RFC3339 (with or without fraction), "2006-01-02 15:04:05", bare dates and
// unix epochs in seconds or milliseconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ts <= 0 {
			return time.Time{}, false
		}
		if ts >= msThreshold {
			return time.UnixMilli(ts), true
		}
		return time.Unix(ts, 0), true
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsDateOnly reports whether s is a bare calendar date.
func IsDateOnly(s string) bool {
	_, err := time.Parse(DateOnly, strings.TrimSpace(s))
	return err == nil
}

// FallbackAnchor is the end of a fallback window: asOf when it parses and lies before now,
// else now. A bare date anchors at the end of that day.
func FallbackAnchor(asOf string, now time.Time) time.Time {
	t, ok := ParseTime(asOf)
	if !ok {
		return now
	}
	if IsDateOnly(asOf) {
		t = t.Add(24 * time.Hour)
	}
	if t.Before(now) {
		return t
	}
	return now
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ParseEpochMillis parses a strictly positive integer epoch in milliseconds.
func ParseEpochMillis(s string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// FormatDebugTime renders t as "2006-01-02 15:04:05" in UTC.
func FormatDebugTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
