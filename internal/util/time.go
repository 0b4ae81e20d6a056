package util

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// utcSuffix is appended to mongod timestamps that were written without an offset.
const utcSuffix = "+00:00"

var (
	isoLayouts = buildISOLayouts()

	// offsetPattern matches a zone designator that follows a time of day, so a
	// bare date such as 2024-03-01 is not mistaken for one with offset -01.
	offsetPattern = regexp.MustCompile(`[T ]\d{2}(:?\d{2}(:?\d{2}([.,]\d+)?)?)?(Z|[+-]\d{2}(:?\d{2})?)$`)
)

func buildISOLayouts() []string {
	zones := []string{"Z07:00", "Z0700", "Z07"}
	clocks := []string{"15:04:05", "15:04", "15"}
	layouts := make([]string, 0, len(zones)*(len(clocks)*2+1))
	for _, zone := range zones {
		for _, sep := range []string{"T", " "} {
			for _, clock := range clocks {
				layouts = append(layouts, "2006-01-02"+sep+clock+zone)
			}
		}
		layouts = append(layouts, "2006-01-02"+zone)
	}
	return layouts
}

// NormalizeTimestamp converts a mongod timestamp into a UTC instant. Strings
// without an offset are read as UTC. ok is false when the value cannot be
// read as ISO 8601 either way.
func NormalizeTimestamp(s string) (time.Time, bool) {
	if t, ok := parseISO8601(s); ok {
		return t, true
	}
	if !needsOffsetRetry(s) {
		return time.Time{}, false
	}
	return parseISO8601(s + utcSuffix)
}

// NormalizeTimestampPtr is NormalizeTimestamp for optional fields.
func NormalizeTimestampPtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, ok := NormalizeTimestamp(*s)
	if !ok {
		return nil
	}
	return &t
}

func needsOffsetRetry(s string) bool {
	return !offsetPattern.MatchString(s)
}

func parseISO8601(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func ParseTimeFlexible(timeStr string) (time.Time, error) {
	if t, ok := NormalizeTimestamp(timeStr); ok {
		return t, nil
	}

	// Try parsing as epoch milliseconds
	ms, err := strconv.ParseInt(timeStr, 10, 64)
	if err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("invalid time format: %s", timeStr)
}
