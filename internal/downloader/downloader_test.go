package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JohnDeved/playshelf/internal/client"
)

func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestManager_DownloadsAndWaits(t *testing.T) {
	srv := newImageServer(t)
	dir := t.TempDir()
	m := NewManager(client.New(100), dir, 2)

	ok, created := m.Enqueue("celeste_square.jpg", srv.URL+"/celeste.jpg", "square")
	if !created {
		t.Fatal("expected a new item")
	}
	bad, _ := m.Enqueue("gone_main.jpg", srv.URL+"/missing.jpg", "main")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Wait(ctx, ok, bad); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}

	if status, err := ok.Result(); status != StatusCompleted {
		t.Fatalf("expected completed, got %v (%v)", status, err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "square", "celeste_square.jpg"))
	if err != nil || string(data) != "jpeg-bytes" {
		t.Fatalf("unexpected file contents %q, %v", data, err)
	}
	if status, _ := bad.Result(); status != StatusFailed {
		t.Fatalf("expected failed for 404, got %v", status)
	}
	if completed, failed := m.Counts(); completed != 1 || failed != 1 {
		t.Fatalf("Counts = %d, %d", completed, failed)
	}
	if m.HasActive() {
		t.Fatal("no item should be active")
	}
}

func TestManager_DeduplicatesByURL(t *testing.T) {
	srv := newImageServer(t)
	m := NewManager(client.New(100), t.TempDir(), 1)

	first, _ := m.Enqueue("a.jpg", srv.URL+"/a.jpg", "")
	second, created := m.Enqueue("b.jpg", srv.URL+"/a.jpg", "")
	if created || second != first {
		t.Fatal("expected duplicate URL to return the existing item")
	}
	m.Wait(context.Background(), first)
	if len(m.Items()) != 1 {
		t.Fatalf("expected 1 item, got %d", len(m.Items()))
	}
}
