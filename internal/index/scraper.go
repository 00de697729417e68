package index

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog/log"

	"github.com/JohnDeved/playshelf/internal/client"
	"github.com/JohnDeved/playshelf/internal/downloader"
	"github.com/JohnDeved/playshelf/internal/textnorm"
)

// HiResWidth is the width requested for main images.
const HiResWidth = 1920

// ErrNoResults is returned when the store search finds nothing usable.
var ErrNoResults = errors.New("no store results")

// ScrapeProgress reports scrape progress.
type ScrapeProgress struct {
	CurrentTitle string
	Processed    int64
	Skipped      int64
	Saved        int64
	Errors       int64
}

// Scraper looks up cover art for catalog titles on the store and downloads
// square and main images.
type Scraper struct {
	client     *client.Client
	db         *DB
	dl         *downloader.Manager
	searchURL  string
	resume     bool
	workers    int
	progress   atomic.Pointer[ScrapeProgress]
	onProgress func(ScrapeProgress)
	processed  atomic.Int64
	skipped    atomic.Int64
	saved      atomic.Int64
	errCount   atomic.Int64
}

// NewScraper creates a new scraper. searchURL must contain one %s.
func NewScraper(c *client.Client, db *DB, dl *downloader.Manager, searchURL string) *Scraper {
	return &Scraper{
		client:    c,
		db:        db,
		dl:        dl,
		searchURL: searchURL,
		resume:    true,
		workers:   3,
	}
}

// SetResume controls whether already processed titles are skipped.
func (s *Scraper) SetResume(resume bool) {
	s.resume = resume
}

// SetWorkers controls how many titles are scraped in parallel.
func (s *Scraper) SetWorkers(workers int) {
	if workers < 1 {
		workers = 1
	}
	s.workers = workers
}

// SetProgressCallback sets a function called on progress updates.
func (s *Scraper) SetProgressCallback(fn func(ScrapeProgress)) {
	s.onProgress = fn
}

// Progress returns the latest scrape progress.
func (s *Scraper) Progress() ScrapeProgress {
	p := s.progress.Load()
	if p == nil {
		return ScrapeProgress{}
	}
	return *p
}

func (s *Scraper) reportProgress(title string) {
	p := ScrapeProgress{
		CurrentTitle: title,
		Processed:    s.processed.Load(),
		Skipped:      s.skipped.Load(),
		Saved:        s.saved.Load(),
		Errors:       s.errCount.Load(),
	}
	s.progress.Store(&p)
	if s.onProgress != nil {
		s.onProgress(p)
	}
}

// ScrapeAll scrapes every title with a bounded worker pool. Per-title
// failures are logged and counted; only cancellation aborts the run.
func (s *Scraper) ScrapeAll(ctx context.Context, titles []string) error {
	if len(titles) == 0 {
		return nil
	}

	workers := s.workers
	if workers > len(titles) {
		workers = len(titles)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for title := range jobs {
				if err := s.ScrapeTitle(ctx, title); err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Warn().Err(err).Str("title", title).Msg("scrape failed")
					s.errCount.Add(1)
				}
				s.processed.Add(1)
				s.reportProgress(title)
			}
		}()
	}

	for _, title := range titles {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- title:
		}
	}
	close(jobs)
	wg.Wait()

	return ctx.Err()
}

// ScrapeTitle searches the store for one title and downloads its images.
func (s *Scraper) ScrapeTitle(ctx context.Context, title string) error {
	clean := CleanTitle(title)
	if clean == "" {
		s.skipped.Add(1)
		return nil
	}

	s.reportProgress(title)

	if s.resume {
		done, err := s.db.IsProcessed(clean)
		if err != nil {
			return err
		}
		if done {
			s.skipped.Add(1)
			return nil
		}
	}

	results, err := s.client.SearchStore(ctx, s.searchURL, title)
	if err != nil {
		return fmt.Errorf("searching store: %w", err)
	}
	best, ok := BestMatch(title, results)
	if !ok {
		return ErrNoResults
	}

	mainURL := best.MainImageURL
	if mainURL == "" && best.ProductURL != "" {
		mainURL, err = s.client.ProductImage(ctx, best.ProductURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Debug().Err(err).Str("title", title).Msg("product page image lookup failed")
		}
	}

	cover := Cover{
		CleanTitle: clean,
		Title:      title,
		ProductURL: best.ProductURL,
		SquareURL:  best.ImageURL,
		MainURL:    mainURL,
	}

	if best.ImageURL != "" {
		cover.SquarePath, err = s.fetch(ctx, clean+"_square"+imageExt(best.ImageURL), "square", best.ImageURL)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if mainURL != "" {
		name := clean + "_main" + imageExt(mainURL)
		hiRes := HiResURL(mainURL, HiResWidth)
		cover.MainPath, err = s.fetch(ctx, name, "main", hiRes)
		if err == nil {
			cover.MainURL = hiRes
		} else if hiRes != mainURL && ctx.Err() == nil {
			log.Debug().Err(err).Str("title", title).Msg("hi-res main image failed, using original")
			cover.MainPath, err = s.fetch(ctx, name, "main", mainURL)
		}
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if cover.SquarePath == "" && cover.MainPath == "" {
		return fmt.Errorf("no images saved for %q", title)
	}
	if err := s.db.MarkProcessed(cover); err != nil {
		return err
	}
	s.saved.Add(1)
	return nil
}

// fetch downloads one image and waits for it, returning the saved path.
func (s *Scraper) fetch(ctx context.Context, name, subdir, imageURL string) (string, error) {
	item, _ := s.dl.Enqueue(name, imageURL, subdir)
	if err := s.dl.Wait(ctx, item); err != nil {
		return "", err
	}
	status, err := item.Result()
	if status != downloader.StatusCompleted {
		if err == nil {
			err = fmt.Errorf("download %s", strings.ToLower(status.String()))
		}
		return "", err
	}
	return item.DestPath, nil
}

// BestMatch picks the result whose normalized title is closest to title by
// Levenshtein distance. Ties keep the earlier result.
func BestMatch(title string, results []client.StoreResult) (client.StoreResult, bool) {
	target := textnorm.Normalize(title)
	bestIdx := -1
	bestDist := 0
	for i, r := range results {
		if r.Title == "" && r.ImageURL == "" {
			continue
		}
		d := levenshtein.ComputeDistance(target, textnorm.Normalize(r.Title))
		if bestIdx < 0 || d < bestDist {
			bestIdx = i
			bestDist = d
		}
	}
	if bestIdx < 0 {
		return client.StoreResult{}, false
	}
	return results[bestIdx], true
}

func imageExt(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return ".jpg"
	}
	switch ext := strings.ToLower(path.Ext(u.Path)); ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
		return ext
	default:
		return ".jpg"
	}
}
