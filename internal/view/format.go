package view

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Placeholder is shown for absent sizes and timestamps.
const Placeholder = "—"

// TimeLayout is how parsed timestamps are shown, in local time.
const TimeLayout = "2006-01-02 15:04:05"

var byteUnits = []string{"B", "KB", "MB", "GB"}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// Escape replaces & < > " with entities and leaves everything else alone.
func Escape(s string) string {
	return escaper.Replace(s)
}

// FormatBytes renders n with base-1024 units. Values under 10 in a unit
// above B get one decimal, with a trailing ".0" dropped.
func FormatBytes(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return Placeholder
	}
	if n == 0 {
		return "0 B"
	}

	exp := 0
	value := n
	for value >= 1024 && exp < len(byteUnits)-1 {
		value /= 1024
		exp++
	}

	var s string
	if value < 10 && exp > 0 {
		s = strings.TrimSuffix(strconv.FormatFloat(value, 'f', 1, 64), ".0")
	} else {
		s = strconv.FormatFloat(value, 'f', 0, 64)
	}
	return s + " " + byteUnits[exp]
}

// FormatSize is FormatBytes for an optional size.
func FormatSize(n *float64) string {
	if n == nil {
		return Placeholder
	}
	return FormatBytes(*n)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

// ParseTime tries the layouts the server is known to emit.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTime renders a server timestamp in local time. Empty input gives the
// placeholder; anything unparsable is echoed back.
func FormatTime(s string) string {
	if s == "" {
		return Placeholder
	}
	t, ok := ParseTime(s)
	if !ok {
		return s
	}
	return t.Local().Format(TimeLayout)
}
