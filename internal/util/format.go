package util

import (
	"time"

	"github.com/dustin/go-humanize"
)

// NoDate is shown wherever a last-played time is missing.
const NoDate = "—"

// FormatDate renders a Unix-seconds timestamp as a local calendar date.
func FormatDate(epoch int64) string {
	if epoch <= 0 {
		return NoDate
	}
	return time.Unix(epoch, 0).Local().Format("Jan 2, 2006")
}

// FormatRelative renders a Unix-seconds timestamp relative to now,
// e.g. "3 days ago". Returns "" for a missing timestamp.
func FormatRelative(epoch int64, now time.Time) string {
	if epoch <= 0 {
		return ""
	}
	return humanize.RelTime(time.Unix(epoch, 0), now, "ago", "from now")
}

// FormatBytes formats a byte count into a human-readable string.
func FormatBytes(b int64) string {
	if b < 0 {
		b = 0
	}
	return humanize.IBytes(uint64(b))
}

// FormatCount adds thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// Truncate shortens s to at most maxLen runes, marking the cut with "…".
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-1]) + "…"
}
