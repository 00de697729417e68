package playtime

import (
	"math"
	"strconv"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"12h 30m", 750},
		{"30m 2h", 150},
		{"1h", 60},
		{"45m", 45},
		{"about an hour", 0},
		{"h m", 0},
		{"0h 0m", 0},
		{"99999999999999999999999h 5m", 5},
		{"153722867280912931h", 0},
		{"153722867280912931h 7m", 7},
	}
	for _, tt := range tests {
		if got := Parse(tt.in); got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParse_NeverNegative(t *testing.T) {
	inputs := []string{
		strconv.Itoa(math.MaxInt) + "m 1h",
		strconv.Itoa(math.MaxInt/60) + "h " + strconv.Itoa(math.MaxInt) + "m",
		strconv.Itoa(math.MaxInt/60+1) + "h",
		strconv.Itoa(math.MaxInt) + "h",
	}
	for _, in := range inputs {
		if got := Parse(in); got < 0 {
			t.Fatalf("Parse(%q) = %d, want non-negative", in, got)
		}
	}
	if got := Parse(strconv.Itoa(math.MaxInt) + "m 1h"); got != math.MaxInt {
		t.Fatalf("expected minutes kept when hours overflow, got %d", got)
	}
}

func TestFormatShort(t *testing.T) {
	tests := []struct {
		mins int
		want string
	}{
		{0, "0m"},
		{-5, "0m"},
		{45, "45m"},
		{60, "1h"},
		{90, "1h 30m"},
		{135, "2h 15m"},
	}
	for _, tt := range tests {
		if got := Format(tt.mins, Short); got != tt.want {
			t.Errorf("Format(%d, Short) = %q, want %q", tt.mins, got, tt.want)
		}
	}
}

func TestFormatFull(t *testing.T) {
	tests := []struct {
		mins int
		want string
	}{
		{0, "0 mins"},
		{1, "1 min"},
		{45, "45 mins"},
		{60, "1 hr"},
		{61, "1 hr 1 min"},
		{90, "1 hr 30 mins"},
		{150, "2 hrs 30 mins"},
	}
	for _, tt := range tests {
		if got := Format(tt.mins, Full); got != tt.want {
			t.Errorf("Format(%d, Full) = %q, want %q", tt.mins, got, tt.want)
		}
	}
}

func TestShortRoundTrip(t *testing.T) {
	for _, s := range []string{"2h 15m", "1h 1m", "10h 59m"} {
		if got := Format(Parse(s), Short); got != s {
			t.Errorf("round trip of %q gave %q", s, got)
		}
	}
}
