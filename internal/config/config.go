package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

func homeDirOrFallback() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return home
}

// Config holds all user-configurable settings.
type Config struct {
	// Catalog is the games.json to show: a local path or an http(s) URL.
	Catalog string `json:"catalog"`
	// RequestsPerSecond rate-limits outgoing HTTP requests.
	RequestsPerSecond float64 `json:"requests_per_second"`
	// HiResFrom and HiResTo are the path segments swapped to turn a cover
	// URL into its high-resolution variant.
	HiResFrom string `json:"hires_from"`
	HiResTo   string `json:"hires_to"`
	// ImageDir is where scraped cover art is saved.
	ImageDir string `json:"image_dir"`
	// CoverWorkers is how many titles the cover scraper handles in parallel.
	CoverWorkers int `json:"cover_workers"`
	// StoreSearchURL is the store search page; %s is replaced by the
	// escaped title.
	StoreSearchURL string `json:"store_search_url"`
	// ExophasePlayerID and ExophaseEnvironment select the import source.
	ExophasePlayerID    string `json:"exophase_player_id"`
	ExophaseEnvironment string `json:"exophase_environment"`
	// ImportDelaySeconds spaces out importer page requests.
	ImportDelaySeconds int `json:"import_delay_seconds"`
	// ServePort is the first port tried by the local server.
	ServePort int `json:"serve_port"`
	// LogLevel is a zerolog level name.
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	home := homeDirOrFallback()
	return &Config{
		Catalog:             "games.json",
		RequestsPerSecond:   5.0,
		HiResFrom:           "/l/",
		HiResTo:             "/xl/",
		ImageDir:            filepath.Join(home, "Pictures", "playshelf"),
		CoverWorkers:        3,
		StoreSearchURL:      "https://www.nintendo.com/us/search/?q=%s&cat=gme",
		ExophaseEnvironment: "nintendo",
		ImportDelaySeconds:  5,
		ServePort:           8000,
		LogLevel:            "info",
	}
}

// ConfigDir returns the directory where config and data files are stored.
func ConfigDir() string {
	if dir := os.Getenv("PLAYSHELF_CONFIG_DIR"); dir != "" {
		return dir
	}
	home := homeDirOrFallback()
	return filepath.Join(home, ".config", "playshelf")
}

// DBPath returns the path to the cover scrape index.
func DBPath() string {
	return filepath.Join(ConfigDir(), "covers.db")
}

// LogPath returns the path of the log file used while the TUI owns the
// terminal.
func LogPath() string {
	return filepath.Join(ConfigDir(), "playshelf.log")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// Load reads config from disk, returning defaults if the file doesn't exist.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			if err := cfg.Save(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ConfigPath(), data, 0o644)
}
