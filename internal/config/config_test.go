package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_CreatesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PLAYSHELF_CONFIG_DIR", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HiResFrom != "/l/" || cfg.HiResTo != "/xl/" {
		t.Fatalf("unexpected hi-res defaults: %q -> %q", cfg.HiResFrom, cfg.HiResTo)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
}

func TestLoad_KeepsDefaultsForMissingFields(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PLAYSHELF_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"catalog":"https://example.com/games.json"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Catalog != "https://example.com/games.json" {
		t.Fatalf("catalog = %q", cfg.Catalog)
	}
	if cfg.ServePort != 8000 {
		t.Fatalf("serve port default lost: %d", cfg.ServePort)
	}
	if DBPath() != filepath.Join(dir, "covers.db") {
		t.Fatalf("DBPath = %q", DBPath())
	}
}
