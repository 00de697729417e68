package library

import (
	"reflect"
	"testing"
)

func titles(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Title
	}
	return out
}

func sampleRows() []Row {
	return NewRows([]Game{
		{Title: "A", Playtime: "1h", LastPlayed: 100},
		{Title: "B", Playtime: "30m", LastPlayed: 200},
	})
}

func TestDerive_RecentExample(t *testing.T) {
	v := Derive(sampleRows(), ViewState{Sort: SortRecent})
	if got := titles(v.Rows); !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Fatalf("order = %v, want [B A]", got)
	}
	want := Stats{Total: 2, SumMins: 90, Last: 200}
	if v.Stats != want {
		t.Fatalf("stats = %+v, want %+v", v.Stats, want)
	}
}

func TestDerive_DoesNotMutateInput(t *testing.T) {
	rows := sampleRows()
	Derive(rows, ViewState{Sort: SortRecent})
	if got := titles(rows); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("input reordered: %v", got)
	}
}

func TestFilter_EmptyQueryKeepsAll(t *testing.T) {
	rows := sampleRows()
	if got := Filter(rows, "   "); len(got) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(got))
	}
}

func TestFilter_DiacriticInsensitive(t *testing.T) {
	rows := NewRows([]Game{{Title: "Pokémon Violet"}, {Title: "Metroid Dread"}})
	got := Filter(rows, "POKEMON")
	if len(got) != 1 || got[0].Title != "Pokémon Violet" {
		t.Fatalf("unexpected filter result: %v", titles(got))
	}
}

func TestSort_Alpha(t *testing.T) {
	rows := NewRows([]Game{{Title: "banjo"}, {Title: "Axiom"}, {Title: "celeste"}})
	Sort(rows, SortAlpha)
	if got := titles(rows); !reflect.DeepEqual(got, []string{"Axiom", "banjo", "celeste"}) {
		t.Fatalf("alpha order = %v", got)
	}
}

func TestSort_PlaytimeReversal(t *testing.T) {
	base := NewRows([]Game{
		{Title: "A", Playtime: "3h"},
		{Title: "B", Playtime: "10m"},
		{Title: "C", Playtime: "1h 5m"},
	})
	asc := append([]Row(nil), base...)
	desc := append([]Row(nil), base...)
	Sort(asc, SortPlaytimeAsc)
	Sort(desc, SortPlaytimeDesc)
	a, d := titles(asc), titles(desc)
	for i := range a {
		if a[i] != d[len(d)-1-i] {
			t.Fatalf("asc %v is not the reverse of desc %v", a, d)
		}
	}
}

func TestSort_StableTies(t *testing.T) {
	rows := NewRows([]Game{
		{Title: "first", LastPlayed: 5},
		{Title: "second", LastPlayed: 5},
		{Title: "never"},
		{Title: "third", LastPlayed: 5},
	})
	Sort(rows, SortRecent)
	want := []string{"first", "second", "third", "never"}
	if got := titles(rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestComputeStats_Empty(t *testing.T) {
	if got := ComputeStats(nil); got != (Stats{}) {
		t.Fatalf("stats of empty set = %+v", got)
	}
}

func TestEmptyMessage(t *testing.T) {
	if got := EmptyMessage(""); got != "No results." {
		t.Fatalf("got %q", got)
	}
	if got := EmptyMessage("zelda"); got != `No results for "zelda".` {
		t.Fatalf("got %q", got)
	}
}

func TestLocationRoundTrip(t *testing.T) {
	tests := []struct {
		state ViewState
		want  string
	}{
		{ViewState{Sort: SortRecent}, ""},
		{ViewState{Query: "zelda", Sort: SortRecent}, "?q=zelda"},
		{ViewState{Sort: SortAlpha}, "?sort=alpha"},
		{ViewState{Query: "mario kart", Sort: SortPlaytimeDesc}, "?q=mario+kart&sort=playtime-desc"},
	}
	for _, tt := range tests {
		loc := tt.state.Location()
		if loc != tt.want {
			t.Errorf("Location(%+v) = %q, want %q", tt.state, loc, tt.want)
		}
		if back := ParseLocation(loc); back != tt.state {
			t.Errorf("ParseLocation(%q) = %+v, want %+v", loc, back, tt.state)
		}
	}
}

func TestParseLocation_Forms(t *testing.T) {
	tests := []struct {
		in   string
		want ViewState
	}{
		{"", ViewState{Sort: SortRecent}},
		{"q=zelda", ViewState{Query: "zelda", Sort: SortRecent}},
		{"http://localhost:8000/?q=pok%C3%A9mon&sort=alpha", ViewState{Query: "pokémon", Sort: SortAlpha}},
		{"http://localhost:8000/", ViewState{Sort: SortRecent}},
		{"?sort=bogus", ViewState{Sort: SortRecent}},
	}
	for _, tt := range tests {
		if got := ParseLocation(tt.in); got != tt.want {
			t.Errorf("ParseLocation(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestSortKeyNext(t *testing.T) {
	if got := SortRecent.Next(1); got != SortAlpha {
		t.Fatalf("Next(1) = %s", got)
	}
	if got := SortRecent.Next(-1); got != SortPlaytimeDesc {
		t.Fatalf("Next(-1) = %s", got)
	}
}
