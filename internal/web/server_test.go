package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JohnDeved/playshelf/internal/library"
)

func staticLoader(games []library.Game, err error) Loader {
	return func(context.Context) ([]library.Game, error) { return games, err }
}

var testGames = []library.Game{
	{Title: "Alpha", Playtime: "30m", ImageURL: "https://cdn.example.com/l/a.png", LastPlayed: 100},
	{Title: "Beta", Playtime: "1h", ImageURL: "https://cdn.example.com/l/b.png", LastPlayed: 200},
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestIndex_FiltersAndSorts(t *testing.T) {
	s := NewServer(staticLoader(testGames, nil), Options{HiResFrom: "/l/", HiResTo: "/xl/"})

	rec := get(t, s.Handler(), "/")
	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Index(body, "Beta") > strings.Index(body, "Alpha") {
		t.Fatal("expected most recently played game first")
	}
	if !strings.Contains(body, "https://cdn.example.com/xl/a.png") {
		t.Fatal("expected cards to link the hi-res image")
	}
	if !strings.Contains(body, "<strong>1h 30m</strong>") {
		t.Fatal("expected total playtime in the stats panel")
	}

	rec = get(t, s.Handler(), "/?q=alp&sort=alpha")
	body = rec.Body.String()
	if strings.Contains(body, ">Beta<") || !strings.Contains(body, ">Alpha<") {
		t.Fatal("expected only Alpha to match the query")
	}
	if !strings.Contains(body, `value="alpha" selected`) {
		t.Fatal("expected alpha sort to be selected")
	}

	rec = get(t, s.Handler(), "/?q=zelda")
	if !strings.Contains(rec.Body.String(), "No results for &#34;zelda&#34;.") {
		t.Fatalf("expected empty message, got %s", rec.Body.String())
	}
}

func TestIndex_LoadFailure(t *testing.T) {
	s := NewServer(staticLoader(nil, errors.New("boom")), Options{})
	rec := get(t, s.Handler(), "/")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Failed to load games.json.") {
		t.Fatal("expected visible load error")
	}
}

func TestGamesJSON(t *testing.T) {
	s := NewServer(staticLoader(testGames, nil), Options{})
	rec := get(t, s.Handler(), "/games.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("expected no-store, got %q", cc)
	}
	var games []library.Game
	if err := json.Unmarshal(rec.Body.Bytes(), &games); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(games) != 2 || games[1].LastPlayed != 200 {
		t.Fatalf("unexpected games %+v", games)
	}

	if rec := get(t, s.Handler(), "/healthz"); rec.Body.String() != "ok" {
		t.Fatalf("healthz = %q", rec.Body.String())
	}
}

func TestListen_SkipsBusyPort(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port

	ln, got, err := Listen(port)
	if err != nil {
		t.Fatalf("Listen returned error: %v", err)
	}
	defer ln.Close()
	if got == port || got > port+9 {
		t.Fatalf("expected a port after %d, got %d", port, got)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s := NewServer(staticLoader(testGames, nil), Options{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET returned error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("unexpected body %q", body)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}
}
