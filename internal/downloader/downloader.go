package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JohnDeved/playshelf/internal/client"
)

// Status represents a download's state.
type Status int

const (
	StatusQueued Status = iota
	StatusActive
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "Queued"
	case StatusActive:
		return "Downloading"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Item represents a single image download.
type Item struct {
	ID          int
	Name        string
	URL         string
	DestPath    string
	TotalBytes  int64
	DoneBytes   atomic.Int64
	Status      Status
	Error       error
	StartedAt   time.Time
	CompletedAt time.Time
	cancel      context.CancelFunc
	done        chan struct{}
	Mu          sync.Mutex
}

// Done is closed once the item has completed or failed.
func (it *Item) Done() <-chan struct{} {
	return it.done
}

// Result returns the final status and error. Only meaningful after Done.
func (it *Item) Result() (Status, error) {
	it.Mu.Lock()
	defer it.Mu.Unlock()
	return it.Status, it.Error
}

// Manager runs image downloads with bounded parallelism.
type Manager struct {
	client      *client.Client
	downloadDir string

	mu       sync.Mutex
	items    []*Item
	nextID   int
	sem      chan struct{}
	onChange func(*Item)
}

var errCancelled = errors.New("cancelled")

// NewManager creates a download manager.
func NewManager(c *client.Client, downloadDir string, maxParallel int) *Manager {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Manager{
		client:      c,
		downloadDir: downloadDir,
		sem:         make(chan struct{}, maxParallel),
	}
}

// SetOnChange sets a callback invoked when any download's state changes.
func (m *Manager) SetOnChange(fn func(*Item)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

func (m *Manager) notify(it *Item) {
	m.mu.Lock()
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn(it)
	}
}

// Enqueue adds a download to the queue and starts processing.
// Returns the item and whether a new queue entry was created.
func (m *Manager) Enqueue(name, fileURL, subdir string) (*Item, bool) {
	m.mu.Lock()
	destDir := m.downloadDir
	if subdir != "" {
		destDir = filepath.Join(destDir, subdir)
	}
	destPath := filepath.Join(destDir, name)

	for _, it := range m.items {
		it.Mu.Lock()
		duplicate := (it.URL == fileURL || it.DestPath == destPath) && it.Status != StatusFailed
		it.Mu.Unlock()
		if duplicate {
			m.mu.Unlock()
			return it, false
		}
	}

	m.nextID++
	item := &Item{
		ID:       m.nextID,
		Name:     name,
		URL:      fileURL,
		DestPath: destPath,
		Status:   StatusQueued,
		done:     make(chan struct{}),
	}
	m.items = append(m.items, item)
	m.mu.Unlock()

	m.notify(item)

	go m.processItem(item)

	return item, true
}

// Wait blocks until every given item has finished or ctx is done.
func (m *Manager) Wait(ctx context.Context, items ...*Item) error {
	for _, it := range items {
		if it == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-it.done:
		}
	}
	return nil
}

// Items returns a snapshot of all download items.
func (m *Manager) Items() []*Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*Item, len(m.items))
	copy(result, m.items)
	return result
}

// HasActive returns true when any item is queued or active.
func (m *Manager) HasActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		it.Mu.Lock()
		status := it.Status
		it.Mu.Unlock()
		if status == StatusQueued || status == StatusActive {
			return true
		}
	}
	return false
}

// CancelAll cancels all active or queued downloads.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	for _, it := range m.items {
		it.Mu.Lock()
		switch it.Status {
		case StatusQueued, StatusActive:
			if it.cancel != nil {
				it.cancel()
			}
			it.Status = StatusFailed
			it.Error = errCancelled
		}
		it.Mu.Unlock()
	}
	m.mu.Unlock()
}

// Counts returns how many items completed and failed.
func (m *Manager) Counts() (completed, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		it.Mu.Lock()
		switch it.Status {
		case StatusCompleted:
			completed++
		case StatusFailed:
			failed++
		}
		it.Mu.Unlock()
	}
	return completed, failed
}

func (m *Manager) processItem(item *Item) {
	defer close(item.done)

	// Acquire semaphore slot.
	m.sem <- struct{}{}
	defer func() { <-m.sem }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	item.Mu.Lock()
	if item.Status == StatusFailed && errors.Is(item.Error, errCancelled) {
		item.Mu.Unlock()
		return
	}
	item.cancel = cancel
	item.Status = StatusActive
	item.StartedAt = time.Now()
	item.Error = nil
	item.Mu.Unlock()
	m.notify(item)

	err := m.downloadFile(ctx, item)

	item.Mu.Lock()
	if err != nil {
		item.Status = StatusFailed
		if errors.Is(err, context.Canceled) {
			item.Error = errCancelled
		} else {
			item.Error = err
		}
	} else {
		item.Status = StatusCompleted
		item.CompletedAt = time.Now()
	}
	item.Mu.Unlock()
	m.notify(item)
}

func (m *Manager) downloadFile(ctx context.Context, item *Item) error {
	// Ensure destination directory exists.
	dir := filepath.Dir(item.DestPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	partPath := item.DestPath + ".part"

	// Check for existing partial download.
	var resumeFrom int64
	if info, err := os.Stat(partPath); err == nil {
		resumeFrom = info.Size()
		item.DoneBytes.Store(resumeFrom)
	}

	body, contentLength, resumed, err := m.client.DownloadFile(ctx, item.URL, resumeFrom)
	if err != nil {
		return err
	}
	defer body.Close()

	if contentLength > 0 {
		if resumed {
			item.TotalBytes = resumeFrom + contentLength
		} else {
			item.TotalBytes = contentLength
		}
	}

	// Open file for writing (append if resuming).
	flags := os.O_WRONLY | os.O_CREATE
	if resumed {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
		item.DoneBytes.Store(0)
	}

	f, err := os.OpenFile(partPath, flags, 0o644)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return fmt.Errorf("writing file: %w", werr)
			}
			item.DoneBytes.Add(int64(n))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
	}

	// Rename .part to final name.
	f.Close()
	if err := os.Rename(partPath, item.DestPath); err != nil {
		return fmt.Errorf("renaming file: %w", err)
	}

	return nil
}
