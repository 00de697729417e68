// Package playtime converts loosely formatted duration strings such as
// "12h 30m" to minutes and back.
package playtime

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Style selects the display form of a minute count.
type Style int

const (
	// Short renders "1h 30m".
	Short Style = iota
	// Full renders "1 hr 30 mins".
	Full
)

var (
	hoursRe   = regexp.MustCompile(`(\d+)h`)
	minutesRe = regexp.MustCompile(`(\d+)m`)
)

// Parse returns the number of minutes described by s. The first "<n>h" and
// the first "<n>m" token are used, in any order. Anything that does not
// match contributes zero, so malformed input yields 0 rather than an error.
// An hour count too large to add to the minutes is treated as unmatched,
// so the result is never negative.
func Parse(s string) int {
	if s == "" {
		return 0
	}
	h, m := firstInt(hoursRe, s), firstInt(minutesRe, s)
	if h > (math.MaxInt-m)/60 {
		return m
	}
	return h*60 + m
}

func firstInt(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// Format renders mins in the given style. Zero renders as "0m" / "0 mins".
func Format(mins int, style Style) string {
	if mins < 0 {
		mins = 0
	}
	h, m := mins/60, mins%60
	if style == Full {
		return formatFull(h, m)
	}
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

func formatFull(h, m int) string {
	if h == 0 {
		return plural(m, "min", "mins")
	}
	if m == 0 {
		return plural(h, "hr", "hrs")
	}
	return plural(h, "hr", "hrs") + " " + plural(m, "min", "mins")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
