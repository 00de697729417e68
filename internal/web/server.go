// Package web serves the catalog as a small HTML page plus the raw JSON.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/JohnDeved/playshelf/internal/library"
	"github.com/JohnDeved/playshelf/internal/playtime"
	"github.com/JohnDeved/playshelf/internal/util"
)

// portAttempts is how many consecutive ports Listen tries.
const portAttempts = 10

// Loader returns the current catalog.
type Loader func(ctx context.Context) ([]library.Game, error)

// Options configures the server.
type Options struct {
	HiResFrom string
	HiResTo   string
}

// Server renders catalog views over HTTP.
type Server struct {
	load   Loader
	opts   Options
	tpl    *template.Template
	router chi.Router
}

// NewServer creates a server that calls load on every request.
func NewServer(load Loader, opts Options) *Server {
	s := &Server{
		load: load,
		opts: opts,
		tpl: template.Must(template.New("index").Funcs(template.FuncMap{
			"short": func(mins int) string { return playtime.Format(mins, playtime.Short) },
			"date":  util.FormatDate,
			"hires": func(u string) string { return library.HiResImage(u, opts.HiResFrom, opts.HiResTo) },
		}).Parse(indexHTML)),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	r.Get("/", s.handleIndex)
	r.Get("/games.json", s.handleGames)
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

type sortOption struct {
	Key      library.SortKey
	Label    string
	Selected bool
}

type indexData struct {
	View    library.View
	Sorts   []sortOption
	Total   string
	Last    string
	Error   string
	Current string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	state := library.FromValues(r.URL.Query())
	data := indexData{Current: state.Location()}
	for _, k := range library.SortKeys {
		data.Sorts = append(data.Sorts, sortOption{Key: k, Label: k.Label(), Selected: k == state.Sort})
	}

	status := http.StatusOK
	games, err := s.load(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("loading catalog")
		status = http.StatusBadGateway
		data.Error = "Failed to load games.json."
		data.View = library.View{State: state}
	} else {
		data.View = library.Derive(library.NewRows(games), state)
	}
	data.Total = playtime.Format(data.View.Stats.SumMins, playtime.Short)
	data.Last = util.FormatDate(data.View.Stats.Last)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tpl.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("rendering index")
	}
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.load(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("loading catalog")
		http.Error(w, "failed to load catalog", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := library.WriteJSON(w, games); err != nil {
		log.Error().Err(err).Msg("writing games.json")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.RequestURI()).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// Listen binds the first free port in [port, port+9] on all interfaces.
func Listen(port int) (net.Listener, int, error) {
	var lastErr error
	for p := port; p < port+portAttempts; p++ {
		ln, err := net.Listen("tcp", ":"+strconv.Itoa(p))
		if err == nil {
			return ln, p, nil
		}
		lastErr = err
	}
	return nil, 0, fmt.Errorf("no free port in %d-%d: %w", port, port+portAttempts-1, lastErr)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
