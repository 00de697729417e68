package library

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteCSV_DecodeCSV(t *testing.T) {
	games := []Game{
		{Title: "Celeste", Playtime: "12h 5m", ImageURL: "https://cdn.example.com/c.jpg", LastPlayed: 1700000000},
		{Title: "Hades, Deluxe", Playtime: "", ImageURL: ""},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, games); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "title,playtime,image_url,last_played\n") {
		t.Fatalf("unexpected header in %q", buf.String())
	}
	if !strings.Contains(buf.String(), `"Hades, Deluxe",,,`) {
		t.Fatalf("expected quoted title and empty last_played, got %q", buf.String())
	}

	got, err := DecodeCSV(&buf)
	if err != nil {
		t.Fatalf("DecodeCSV returned error: %v", err)
	}
	if len(got) != 2 || got[0] != games[0] || got[1] != games[1] {
		t.Fatalf("decoded %+v", got)
	}
}

func TestDecodeCSV_ReorderedColumns(t *testing.T) {
	in := "last_played,title\nabc,Tetris 99\n42,Pikmin\n"
	got, err := DecodeCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("DecodeCSV returned error: %v", err)
	}
	if got[0].Title != "Tetris 99" || got[0].LastPlayed != 0 {
		t.Fatalf("unexpected first game %+v", got[0])
	}
	if got[1].LastPlayed != 42 {
		t.Fatalf("unexpected second game %+v", got[1])
	}

	if _, err := DecodeCSV(strings.NewReader("name\nx\n")); err == nil {
		t.Fatal("expected error for missing title column")
	}
}

func TestLoadFile_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.csv")
	if err := os.WriteFile(path, []byte("title,playtime\nCeleste,1h\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	games, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if len(games) != 1 || games[0].Playtime != "1h" {
		t.Fatalf("unexpected games %+v", games)
	}
}
