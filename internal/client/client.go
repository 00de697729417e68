package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/JohnDeved/playshelf/internal/library"
)

const userAgent = "playshelf/1.0"

// maxPageBytes caps catalog, API and image bodies read into memory.
const maxPageBytes = 16 << 20

// Client handles outgoing HTTP requests: the catalog, cover images, the
// store search page and the import API.
type Client struct {
	pageHTTP *http.Client // Short timeout for pages, JSON and preview images
	dlHTTP   *http.Client // No timeout for file downloads (managed by context)
	limiter  *rate.Limiter
}

// New creates a new client.
func New(reqPerSec float64) *Client {
	if reqPerSec <= 0 {
		reqPerSec = 5.0
	}

	return &Client{
		pageHTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
		dlHTTP: &http.Client{
			// No timeout -- the 30s client timeout would include body read
			// time; downloads are bounded by their context instead.
		},
		limiter: rate.NewLimiter(rate.Limit(reqPerSec), 5),
	}
}

// IsRemote reports whether src should be fetched over HTTP.
func IsRemote(src string) bool {
	lower := strings.ToLower(strings.TrimSpace(src))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// LoadCatalog reads games from a local path or an http(s) URL. Remote
// catalogs are fetched bypassing caches.
func (c *Client) LoadCatalog(ctx context.Context, src string) ([]library.Game, error) {
	if !IsRemote(src) {
		return library.LoadFile(src)
	}
	header := http.Header{}
	header.Set("Cache-Control", "no-cache, no-store")
	header.Set("Pragma", "no-cache")
	body, err := c.Get(ctx, src, header)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	if u, err := url.Parse(src); err == nil && library.IsCSV(u.Path) {
		return library.DecodeCSV(io.LimitReader(body, maxPageBytes))
	}
	return library.DecodeGames(io.LimitReader(body, maxPageBytes))
}

// Get performs a rate-limited GET and returns the body of a 200 response.
// The caller must close it.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.pageHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, rawURL)
	}
	return resp.Body, nil
}

// GetBytes is Get with the body read into memory.
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := c.Get(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(io.LimitReader(body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	return data, nil
}

// FetchImage downloads an image into memory, refusing non-image responses.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.pageHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, imageURL)
	}
	if ct := strings.ToLower(resp.Header.Get("Content-Type")); strings.Contains(ct, "text/html") {
		return nil, fmt.Errorf("refusing HTML response for image URL %s", imageURL)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}

// DownloadFile initiates a download of a file, optionally resuming from offset.
// Returns the response body (caller must close), content length, and whether resume was accepted.
func (c *Client) DownloadFile(ctx context.Context, fileURL string, resumeFrom int64) (io.ReadCloser, int64, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, false, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", fileURL, nil)
	if err != nil {
		return nil, 0, false, err
	}
	req.Header.Set("User-Agent", userAgent)
	if u, err := url.Parse(fileURL); err == nil {
		req.Header.Set("Referer", u.Scheme+"://"+u.Host+"/")
	}

	if resumeFrom > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeFrom))
	}

	resp, err := c.dlHTTP.Do(req)
	if err != nil {
		return nil, 0, false, err
	}

	resumed := resp.StatusCode == http.StatusPartialContent
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, 0, false, fmt.Errorf("HTTP %d downloading %s", resp.StatusCode, fileURL)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(contentType, "text/html") {
		resp.Body.Close()
		return nil, 0, false, fmt.Errorf("refusing HTML response for file URL %s", fileURL)
	}

	return resp.Body, resp.ContentLength, resumed, nil
}
