package index

import "testing"

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Mario Kart 8 Deluxe", "mario_kart_8_deluxe"},
		{"  The Legend of Zelda: Breath of the Wild ", "the_legend_of_zelda_breath_of_the_wild"},
		{"Pokémon™ Violet", "pokémon_violet"},
		{"Hollow-Knight_GOTY", "hollow-knight_goty"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := CleanTitle(tt.in); got != tt.want {
			t.Fatalf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHiResURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://cdn.example.com/c_scale,w_300/a.jpg", "https://cdn.example.com/c_scale,w_1920/a.jpg"},
		{"https://cdn.example.com/c_scale/a.jpg", "https://cdn.example.com/c_scale,w_1920/a.jpg"},
		{"https://cdn.example.com/plain/a.jpg", "https://cdn.example.com/plain/a.jpg"},
	}
	for _, tt := range tests {
		if got := HiResURL(tt.in, 1920); got != tt.want {
			t.Fatalf("HiResURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
