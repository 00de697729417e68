package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database that remembers which titles already have
// scraped cover art.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates the SQLite database at the given path.
func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS covers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		clean_title TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		product_url TEXT DEFAULT '',
		square_url TEXT DEFAULT '',
		main_url TEXT DEFAULT '',
		square_path TEXT DEFAULT '',
		main_path TEXT DEFAULT '',
		scraped_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_covers_title ON covers(title);
	`
	_, err := db.Exec(schema)
	return err
}

// Cover is the scrape result for one catalog title.
type Cover struct {
	ID         int64     `json:"id"`
	CleanTitle string    `json:"clean_title"`
	Title      string    `json:"title"`
	ProductURL string    `json:"product_url"`
	SquareURL  string    `json:"square_url"`
	MainURL    string    `json:"main_url"`
	SquarePath string    `json:"square_path"`
	MainPath   string    `json:"main_path"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

// MarkProcessed inserts or replaces the cover record for c.CleanTitle.
func (d *DB) MarkProcessed(c Cover) error {
	if c.ScrapedAt.IsZero() {
		c.ScrapedAt = time.Now().UTC()
	}
	_, err := d.db.Exec(
		`INSERT INTO covers (clean_title, title, product_url, square_url, main_url, square_path, main_path, scraped_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(clean_title) DO UPDATE SET
			title=excluded.title,
			product_url=excluded.product_url,
			square_url=excluded.square_url,
			main_url=excluded.main_url,
			square_path=excluded.square_path,
			main_path=excluded.main_path,
			scraped_at=excluded.scraped_at`,
		c.CleanTitle, c.Title, c.ProductURL, c.SquareURL, c.MainURL, c.SquarePath, c.MainPath, c.ScrapedAt,
	)
	return err
}

// IsProcessed reports whether a title already has a cover record.
func (d *DB) IsProcessed(cleanTitle string) (bool, error) {
	var id int64
	err := d.db.QueryRow("SELECT id FROM covers WHERE clean_title = ?", cleanTitle).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Lookup returns the cover record for a catalog title, or nil if none.
func (d *DB) Lookup(title string) (*Cover, error) {
	var c Cover
	var scraped sql.NullTime
	err := d.db.QueryRow(
		`SELECT id, clean_title, title, product_url, square_url, main_url, square_path, main_path, scraped_at
		 FROM covers WHERE clean_title = ?`, CleanTitle(title),
	).Scan(&c.ID, &c.CleanTitle, &c.Title, &c.ProductURL, &c.SquareURL, &c.MainURL, &c.SquarePath, &c.MainPath, &scraped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up cover for %q: %w", title, err)
	}
	if scraped.Valid {
		c.ScrapedAt = scraped.Time
	}
	return &c, nil
}

// Reset forgets every cover record so the next scrape starts over.
func (d *DB) Reset() error {
	_, err := d.db.Exec("DELETE FROM covers")
	return err
}

// Stats returns index statistics.
type Stats struct {
	Covers     int `json:"covers"`
	WithSquare int `json:"with_square"`
	WithMain   int `json:"with_main"`
}

// GetStats returns statistics about the index.
func (d *DB) GetStats() (Stats, error) {
	var s Stats
	if err := d.db.QueryRow("SELECT COUNT(*) FROM covers").Scan(&s.Covers); err != nil {
		return s, err
	}
	if err := d.db.QueryRow("SELECT COUNT(*) FROM covers WHERE square_path != ''").Scan(&s.WithSquare); err != nil {
		return s, err
	}
	if err := d.db.QueryRow("SELECT COUNT(*) FROM covers WHERE main_path != ''").Scan(&s.WithMain); err != nil {
		return s, err
	}
	return s, nil
}
