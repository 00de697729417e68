package util

import (
	"testing"
	"time"
)

func TestFormatDate(t *testing.T) {
	if got := FormatDate(0); got != NoDate {
		t.Fatalf("FormatDate(0) = %q", got)
	}
	epoch := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.Local).Unix()
	if got := FormatDate(epoch); got != "Mar 5, 2024" {
		t.Fatalf("FormatDate = %q", got)
	}
}

func TestFormatRelative(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	if got := FormatRelative(0, now); got != "" {
		t.Fatalf("FormatRelative(0) = %q", got)
	}
	if got := FormatRelative(now.Add(-72*time.Hour).Unix(), now); got != "3 days ago" {
		t.Fatalf("FormatRelative = %q", got)
	}
}

func TestFormatBytesAndCount(t *testing.T) {
	if got := FormatBytes(1536); got != "1.5 KiB" {
		t.Fatalf("FormatBytes(1536) = %q", got)
	}
	if got := FormatCount(1234567); got != "1,234,567" {
		t.Fatalf("FormatCount = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Celeste", 10, "Celeste"},
		{"The Legend of Zelda", 10, "The Legen…"},
		{"Pokémon", 4, "Pok…"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Fatalf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
