package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Pokémon", "pokemon"},
		{"ÉLITE Beat Agents", "elite beat agents"},
		{"Ōkami HD", "okami hd"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContains(t *testing.T) {
	if !Contains("Pokémon Legends: Arceus", "pokemon") {
		t.Fatal("expected diacritic-insensitive match")
	}
	if !Contains("Anything", "") {
		t.Fatal("empty needle should match")
	}
	if Contains("Zelda", "mario") {
		t.Fatal("unexpected match")
	}
}
