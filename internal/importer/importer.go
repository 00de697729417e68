// Package importer pulls a player's game list from the Exophase public API
// and writes it as a catalog file.
package importer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/JohnDeved/playshelf/internal/client"
	"github.com/JohnDeved/playshelf/internal/library"
)

// DefaultBaseURL is the Exophase games endpoint; %s is the player id.
const DefaultBaseURL = "https://api.exophase.com/public/player/%s/games"

// maxPages bounds a run against an API that never returns an empty page.
const maxPages = 500

// Options configures an import run.
type Options struct {
	BaseURL     string
	PlayerID    string
	Environment string
	Delay       time.Duration
	Out         string
	// OnPage is called after each page with the page number and the number
	// of games collected so far.
	OnPage func(page, total int)
}

// Fetcher is the subset of the HTTP client the importer needs.
type Fetcher interface {
	GetBytes(ctx context.Context, rawURL string) ([]byte, error)
}

var _ Fetcher = (*client.Client)(nil)

// Fetch walks pages 1.. until a page has no games and returns every game.
func Fetch(ctx context.Context, f Fetcher, opts Options) ([]library.Game, error) {
	if opts.PlayerID == "" {
		return nil, errors.New("exophase player id is required")
	}
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}

	var games []library.Game
	for page := 1; page <= maxPages; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		pageURL := pageURL(base, opts, page)
		log.Debug().Int("page", page).Str("url", pageURL).Msg("fetching exophase page")
		data, err := f.GetBytes(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}

		batch, err := parsePage(data)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}
		games = append(games, batch...)
		if opts.OnPage != nil {
			opts.OnPage(page, len(games))
		}
	}
	return games, nil
}

// Run fetches every game and writes them to opts.Out, returning the count.
func Run(ctx context.Context, f Fetcher, opts Options) (int, error) {
	games, err := Fetch(ctx, f, opts)
	if err != nil {
		return 0, err
	}
	if err := WriteFile(opts.Out, games); err != nil {
		return 0, err
	}
	return len(games), nil
}

// WriteFile writes games as CSV when path ends in .csv, JSON otherwise.
// The file is replaced atomically.
func WriteFile(path string, games []library.Game) error {
	if path == "" {
		return errors.New("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if library.IsCSV(path) {
		err = library.WriteCSV(f, games)
	} else {
		err = library.WriteJSON(f, games)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing output: %w", err)
	}
	return os.Rename(tmp, path)
}

func pageURL(base string, opts Options, page int) string {
	q := url.Values{}
	q.Set("environment", opts.Environment)
	q.Set("sort", "5")
	q.Set("showHidden", "0")
	q.Set("query", "")
	q.Set("page", strconv.Itoa(page))
	return fmt.Sprintf(base, url.PathEscape(opts.PlayerID)) + "?" + q.Encode()
}

// parsePage maps one API payload to games. A payload without a games array
// is treated as the end of the list.
func parsePage(data []byte) ([]library.Game, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON payload")
	}
	root := gjson.ParseBytes(data)
	if s := root.Get("success"); s.Exists() && !s.Bool() {
		msg := root.Get("error").String()
		if msg == "" {
			msg = "request was not successful"
		}
		return nil, errors.New(msg)
	}

	gamesResult := root.Get("games")
	if !gamesResult.IsArray() {
		return nil, nil
	}
	var games []library.Game
	gamesResult.ForEach(func(_, g gjson.Result) bool {
		games = append(games, library.Game{
			Title:      g.Get("meta.title").String(),
			Playtime:   g.Get("playtime").String(),
			ImageURL:   g.Get("resource_standard").String(),
			LastPlayed: g.Get("lastplayed_utc").Int(),
		})
		return true
	})
	return games, nil
}
