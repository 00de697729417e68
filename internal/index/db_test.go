package index

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "covers.db"))
	if err != nil {
		t.Fatalf("OpenDB returned error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_MarkProcessedAndLookup(t *testing.T) {
	db := openTestDB(t)

	if done, err := db.IsProcessed("celeste"); err != nil || done {
		t.Fatalf("IsProcessed on empty db = %v, %v", done, err)
	}

	err := db.MarkProcessed(Cover{
		CleanTitle: "celeste",
		Title:      "Celeste",
		SquareURL:  "https://cdn.example.com/celeste.jpg",
		SquarePath: "/tmp/square/celeste_square.jpg",
	})
	if err != nil {
		t.Fatalf("MarkProcessed returned error: %v", err)
	}
	if done, _ := db.IsProcessed("celeste"); !done {
		t.Fatal("expected celeste to be processed")
	}

	c, err := db.Lookup("Celeste")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if c == nil || c.SquarePath != "/tmp/square/celeste_square.jpg" || c.ScrapedAt.IsZero() {
		t.Fatalf("unexpected cover: %+v", c)
	}

	// Upsert replaces the existing row.
	if err := db.MarkProcessed(Cover{CleanTitle: "celeste", Title: "Celeste", MainPath: "/tmp/main/celeste_main.jpg"}); err != nil {
		t.Fatalf("MarkProcessed upsert returned error: %v", err)
	}
	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats returned error: %v", err)
	}
	if stats.Covers != 1 || stats.WithSquare != 0 || stats.WithMain != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if missing, err := db.Lookup("Hades"); err != nil || missing != nil {
		t.Fatalf("Lookup of unknown title = %+v, %v", missing, err)
	}

	if err := db.Reset(); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if done, _ := db.IsProcessed("celeste"); done {
		t.Fatal("Reset should forget processed titles")
	}
}
