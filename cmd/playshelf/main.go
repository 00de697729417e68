package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/JohnDeved/playshelf/internal/client"
	"github.com/JohnDeved/playshelf/internal/config"
	"github.com/JohnDeved/playshelf/internal/downloader"
	"github.com/JohnDeved/playshelf/internal/importer"
	"github.com/JohnDeved/playshelf/internal/index"
	"github.com/JohnDeved/playshelf/internal/library"
	"github.com/JohnDeved/playshelf/internal/logging"
	"github.com/JohnDeved/playshelf/internal/playtime"
	"github.com/JohnDeved/playshelf/internal/tui"
	"github.com/JohnDeved/playshelf/internal/util"
	"github.com/JohnDeved/playshelf/internal/web"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "playshelf [location]",
		Short: "Browse your personal game library in the terminal",
		Long: `playshelf - Search, sort and inspect the games in your games.json catalog.

The optional location (e.g. "?q=mario&sort=alpha") seeds the search and sort.`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runTUI,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("catalog", "", "Catalog path or URL (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	addViewFlags(rootCmd)

	// List command (non-interactive catalog listing)
	listCmd := &cobra.Command{
		Use:   "ls [location]",
		Short: "List catalog games in plain text",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runList,
	}
	addViewFlags(listCmd)
	listCmd.Flags().Bool("json", false, "Output JSON")
	listCmd.Flags().Bool("name-only", false, "Only print titles")
	listCmd.Flags().Int("limit", 0, "Limit number of games (0 = unlimited)")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show library and cover index statistics",
		RunE:  runStats,
	}
	statsCmd.Flags().String("q", "", "Only count games matching this search")
	statsCmd.Flags().Bool("json", false, "Output JSON")

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import your played games from Exophase",
		RunE:  runImport,
	}
	importCmd.Flags().String("player", "", "Exophase player id (overrides config)")
	importCmd.Flags().String("environment", "", "Exophase platform environment (overrides config)")
	importCmd.Flags().StringP("out", "o", "", "Output file, .json or .csv (default: the catalog path)")
	importCmd.Flags().Duration("delay", 0, "Delay between page requests (default from config)")

	coversCmd := &cobra.Command{
		Use:   "covers",
		Short: "Download store cover art for every catalog game",
		RunE:  runCovers,
	}
	coversCmd.Flags().StringP("out", "o", "", "Image directory (overrides config)")
	coversCmd.Flags().Int("workers", 0, "Titles scraped in parallel (default from config)")
	coversCmd.Flags().Int("limit", 0, "Only scrape the first N titles (0 = all)")
	coversCmd.Flags().Bool("no-resume", false, "Scrape titles again even if already processed")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog as a web page on localhost",
		RunE:  runServe,
	}
	serveCmd.Flags().Int("port", 0, "First port to try (default from config)")

	rootCmd.AddCommand(listCmd, statsCmd, importCmd, coversCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().String("q", "", "Initial search query")
	cmd.Flags().String("sort", "", "Sort: recent, alpha, playtime-asc, playtime-desc")
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("catalog"); v != "" {
		cfg.Catalog = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// viewState merges a positional location with --q and --sort; flags win.
func viewState(cmd *cobra.Command, args []string) library.ViewState {
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	}
	state := library.ParseLocation(raw)
	if cmd.Flags().Changed("q") {
		state.Query, _ = cmd.Flags().GetString("q")
	}
	if cmd.Flags().Changed("sort") {
		s, _ := cmd.Flags().GetString("sort")
		state.Sort = library.ParseSortKey(s)
	}
	return state
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !isInteractiveTerminal() {
		return runList(cmd, args)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	closer, err := logging.File(config.LogPath(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open log file: %v\n", err)
	} else {
		defer closer.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	c := client.New(cfg.RequestsPerSecond)
	loc, err := tui.Run(ctx, c, cfg, viewState(cmd, args))
	if err != nil {
		return err
	}
	if loc != "" {
		fmt.Printf("playshelf %q\n", loc)
	}
	return nil
}

func loadRows(ctx context.Context, cfg *config.Config) ([]library.Row, error) {
	c := client.New(cfg.RequestsPerSecond)
	games, err := c.LoadCatalog(ctx, cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", cfg.Catalog, err)
	}
	return library.NewRows(games), nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Console(os.Stderr, cfg.LogLevel)

	rows, err := loadRows(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	view := library.Derive(rows, viewState(cmd, args))

	limit, _ := cmd.Flags().GetInt("limit")
	if limit > 0 && len(view.Rows) > limit {
		view.Rows = view.Rows[:limit]
	}

	jsonMode, _ := cmd.Flags().GetBool("json")
	if jsonMode {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	if len(view.Rows) == 0 {
		fmt.Fprintln(os.Stderr, view.EmptyMessage)
		return nil
	}

	nameOnly, _ := cmd.Flags().GetBool("name-only")
	for _, r := range view.Rows {
		if nameOnly {
			fmt.Println(r.Title)
			continue
		}
		fmt.Printf("%-50s %10s  %s\n",
			util.Truncate(r.Title, 50),
			playtime.Format(r.PlayMins, playtime.Short),
			util.FormatDate(r.LastPlayed))
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Console(os.Stderr, cfg.LogLevel)

	rows, err := loadRows(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	q, _ := cmd.Flags().GetString("q")
	stats := library.ComputeStats(library.Filter(rows, q))

	var covers *index.Stats
	if _, err := os.Stat(config.DBPath()); err == nil {
		db, err := index.OpenDB(config.DBPath())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()
		s, err := db.GetStats()
		if err != nil {
			return err
		}
		covers = &s
	}

	jsonMode, _ := cmd.Flags().GetBool("json")
	if jsonMode {
		out := struct {
			library.Stats
			Covers   *index.Stats `json:"covers,omitempty"`
			Database string       `json:"database"`
		}{
			Stats:    stats,
			Covers:   covers,
			Database: config.DBPath(),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Library Statistics:\n")
	fmt.Printf("  Total games:    %s\n", util.FormatCount(stats.Total))
	fmt.Printf("  Total playtime: %s\n", playtime.Format(stats.SumMins, playtime.Short))
	fmt.Printf("  Last played:    %s\n", util.FormatDate(stats.Last))
	if covers != nil {
		fmt.Printf("\nCover Index:\n")
		fmt.Printf("  Processed:      %d\n", covers.Covers)
		fmt.Printf("  With square:    %d\n", covers.WithSquare)
		fmt.Printf("  With main:      %d\n", covers.WithMain)
		fmt.Printf("  Database:       %s\n", config.DBPath())
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Console(os.Stderr, cfg.LogLevel)

	opts := importer.Options{
		PlayerID:    cfg.ExophasePlayerID,
		Environment: cfg.ExophaseEnvironment,
		Delay:       time.Duration(cfg.ImportDelaySeconds) * time.Second,
		Out:         cfg.Catalog,
	}
	if v, _ := cmd.Flags().GetString("player"); v != "" {
		opts.PlayerID = v
	}
	if v, _ := cmd.Flags().GetString("environment"); v != "" {
		opts.Environment = v
	}
	if v, _ := cmd.Flags().GetString("out"); v != "" {
		opts.Out = v
	}
	if cmd.Flags().Changed("delay") {
		opts.Delay, _ = cmd.Flags().GetDuration("delay")
	}
	if client.IsRemote(opts.Out) {
		return fmt.Errorf("cannot write import to remote catalog %s; pass --out", opts.Out)
	}
	opts.OnPage = func(page, total int) {
		fmt.Fprintf(os.Stderr, "\r  Fetched page %d  [games: %d]", page, total)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	c := client.New(cfg.RequestsPerSecond)
	n, err := importer.Run(ctx, c, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\n\nDone! Wrote %d games to %s\n", n, opts.Out)
	return nil
}

func runCovers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Console(os.Stderr, cfg.LogLevel)

	imageDir := cfg.ImageDir
	if v, _ := cmd.Flags().GetString("out"); v != "" {
		imageDir = v
	}
	workers := cfg.CoverWorkers
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		workers = v
	}
	limit, _ := cmd.Flags().GetInt("limit")
	noResume, _ := cmd.Flags().GetBool("no-resume")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rows, err := loadRows(ctx, cfg)
	if err != nil {
		return err
	}
	titles := make([]string, 0, len(rows))
	for _, r := range rows {
		if strings.TrimSpace(r.Title) != "" {
			titles = append(titles, r.Title)
		}
	}
	if limit > 0 && len(titles) > limit {
		titles = titles[:limit]
	}

	db, err := index.OpenDB(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	c := client.New(cfg.RequestsPerSecond)
	dl := downloader.NewManager(c, imageDir, workers*2)
	dl.SetOnChange(func(it *downloader.Item) {
		status, err := it.Result()
		switch status {
		case downloader.StatusCompleted:
			log.Debug().Str("file", filepath.Base(it.DestPath)).
				Str("size", util.FormatBytes(it.DoneBytes.Load())).Msg("saved image")
		case downloader.StatusFailed:
			log.Debug().Err(err).Str("url", it.URL).Msg("image download failed")
		}
	})

	scraper := index.NewScraper(c, db, dl, cfg.StoreSearchURL)
	scraper.SetWorkers(workers)
	scraper.SetResume(!noResume)
	scraper.SetProgressCallback(func(p index.ScrapeProgress) {
		fmt.Fprintf(os.Stderr, "\r  Scraping: %-40s  [done: %d  skipped: %d  saved: %d  errors: %d]",
			util.Truncate(p.CurrentTitle, 40), p.Processed, p.Skipped, p.Saved, p.Errors)
	})

	fmt.Fprintf(os.Stderr, "Scraping covers for %d games into %s\n", len(titles), imageDir)
	if err := scraper.ScrapeAll(ctx, titles); err != nil {
		dl.CancelAll()
		return err
	}

	p := scraper.Progress()
	completed, failed := dl.Counts()
	fmt.Fprintf(os.Stderr, "\n\nDone! %d titles saved, %d skipped, %d errors (%d images, %d failed downloads)\n",
		p.Saved, p.Skipped, p.Errors, completed, failed)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Console(os.Stderr, cfg.LogLevel)

	port := cfg.ServePort
	if v, _ := cmd.Flags().GetInt("port"); v > 0 {
		port = v
	}

	c := client.New(cfg.RequestsPerSecond)
	srv := web.NewServer(func(ctx context.Context) ([]library.Game, error) {
		return c.LoadCatalog(ctx, cfg.Catalog)
	}, web.Options{HiResFrom: cfg.HiResFrom, HiResTo: cfg.HiResTo})

	ln, port, err := web.Listen(port)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log.Info().Str("catalog", cfg.Catalog).Msgf("serving at http://localhost:%d", port)
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to stop the server")
	return srv.Serve(ctx, ln)
}

func isInteractiveTerminal() bool {
	inInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	outInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (inInfo.Mode()&os.ModeCharDevice) != 0 && (outInfo.Mode()&os.ModeCharDevice) != 0
}
