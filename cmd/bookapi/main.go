package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-books-api/api"
	"github.com/aluiziolira/go-books-api/catalog"
	"github.com/aluiziolira/go-books-api/config"
	"github.com/aluiziolira/go-books-api/pipeline"
	"github.com/aluiziolira/go-books-api/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	defaultCfg := config.DefaultConfig()
	portDefault := defaultCfg.Port
	if value, ok, err := config.EnvInt("PORT"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid PORT: %v\n", err)
		os.Exit(1)
	} else if ok {
		portDefault = value
	}
	pagesDefault := defaultCfg.MaxPages
	if value, ok, err := config.EnvInt("SCRAPER_PAGES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_PAGES: %v\n", err)
		os.Exit(1)
	} else if ok {
		pagesDefault = value
	}
	baseURLDefault := defaultCfg.BaseURL
	if value, ok := config.EnvString("SCRAPER_BASE_URL"); ok {
		baseURLDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	host := flag.String("host", defaultCfg.Host, "Interface to bind the API server to")
	port := flag.Int("port", portDefault, "API server port")
	maxPages := flag.Int("pages", pagesDefault, "Maximum catalogue pages to scrape")
	baseURL := flag.String("base-url", baseURLDefault, "Base URL to crawl")
	timeoutMs := flag.Int("timeout", int(defaultCfg.Timeout/time.Millisecond), "Per-request timeout (milliseconds)")
	cacheSize := flag.Int("search-cache", defaultCfg.SearchCacheSize, "Number of search results to memoise")
	eager := flag.Bool("eager", false, "Scrape at startup instead of on the first request")
	exportFile := flag.String("export", "", "Write the scraped catalogue to this file after population")
	exportFormat := flag.String("export-format", defaultCfg.ExportFormat, "Export format: csv or json")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.Host = *host
	cfg.Port = *port
	cfg.MaxPages = *maxPages
	cfg.BaseURL = *baseURL
	cfg.Timeout = time.Duration(*timeoutMs) * time.Millisecond
	cfg.SearchCacheSize = *cacheSize
	cfg.Eager = *eager
	cfg.ExportFile = *exportFile
	cfg.ExportFormat = strings.ToLower(*exportFormat)
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	svc, err := catalog.NewService(s, cfg.MaxPages, cfg.SearchCacheSize, logger)
	if err != nil {
		slog.Error("initialising catalogue", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Eager || cfg.ExportFile != "" {
		if err := svc.Populate(ctx); err != nil {
			slog.Error("populating catalogue", slog.Any("error", err))
			os.Exit(1)
		}
	}
	if cfg.ExportFile != "" {
		if err := exportSnapshot(ctx, svc, cfg.ExportFormat, cfg.ExportFile); err != nil {
			slog.Error("export failed", slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("catalogue exported", slog.String("file", cfg.ExportFile), slog.String("format", cfg.ExportFormat))
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	apiServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewServer(svc, api.NewMetrics(s.Metrics.Registry), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("api server listening",
			slog.String("addr", cfg.Addr()),
			slog.String("base_url", cfg.BaseURL),
			slog.Int("pages", cfg.MaxPages),
		)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			slog.Error("api server failed", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received, waiting for in-flight requests to finish")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("api server shutdown failed", slog.Any("error", err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
}

func exportSnapshot(ctx context.Context, svc *catalog.Service, format, filename string) error {
	books, err := svc.Snapshot(ctx)
	if err != nil {
		return err
	}
	writer, err := pipeline.NewWriter(format, filename)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}
	return pipeline.Export(writer, books)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
