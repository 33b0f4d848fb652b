package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"

	"github.com/montenegronyc/scoreboard/internal/api"
	"github.com/montenegronyc/scoreboard/internal/config"
	"github.com/montenegronyc/scoreboard/internal/metrics"
	"github.com/montenegronyc/scoreboard/internal/notify"
	"github.com/montenegronyc/scoreboard/internal/poller"
	"github.com/montenegronyc/scoreboard/internal/sheets"
	"github.com/montenegronyc/scoreboard/internal/store"
	"github.com/montenegronyc/scoreboard/internal/ui"
	"github.com/montenegronyc/scoreboard/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "poll the source and serve the scoreboard (default)",
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	path := c.String("config")

	slog.Info("scoreboard starting",
		"config", path,
		"source", cfg.Source.Type,
		"http_port", cfg.Server.HTTPPort,
		"poll_interval", cfg.Poll.Interval,
		"min_request_interval", cfg.Source.MinRequestInterval,
	)

	limits := sheets.NewLimiters()
	src, err := sheets.New(cfg, sheets.WithLimiters(limits))
	if err != nil {
		return fmt.Errorf("build source: %w", err)
	}

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st := store.New()
	m := metrics.New()
	engine := newNotifier(cfg.Notify)
	defer engine.Close() //nolint:errcheck

	p := poller.New(src, st,
		poller.WithInterval(cfg.Poll.Interval),
		poller.WithObserver(m.ObserveFetch),
		poller.WithObserver(engine.Observe),
		poller.WithDiscardObserver(m.ObserveDiscard),
	)

	hub := ws.New(st, cfg.Server.KeepaliveInterval,
		ws.WithStaleAfter(cfg.Server.StaleAfter),
		ws.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		ws.WithCountHook(m.SetWSClients),
	)

	apiHandler := api.New(st,
		api.WithRefresher(p),
		api.WithEvents(engine),
		api.WithStaleAfter(cfg.Server.StaleAfter),
		api.WithSourceName(p.SourceName),
		api.WithTitle(cfg.UI.Title),
	)
	page := ui.New(st, cfg.UI, ui.WithStaleAfter(cfg.Server.StaleAfter))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           newRouter(cfg.Server, apiHandler, hub, page, m.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()
	go hub.Run(ctx)
	go func() {
		current := cfg
		err := config.Watch(ctx, path, func(next *config.Config) {
			applyReload(p, limits, current, next)
			current = next
		})
		if err != nil {
			slog.Warn("config watch disabled", "path", path, "err", err)
		}
	}()

	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("scoreboard shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "err", err)
	}
	<-done
	return nil
}

// newRouter combines every HTTP surface on one listener wrapped in CORS.
func newRouter(sc config.ServerConfig, apiHandler, hub, page, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/ws/stream", hub)
	mux.Handle("/metrics", metricsHandler)
	mux.Handle("/", page)

	origins := sc.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(middleware.Recoverer(mux))
}

// newNotifier builds the notification engine, attaching NATS when configured.
// An unreachable NATS server is logged and skipped.
func newNotifier(nc config.NotifyConfig) *notify.Engine {
	var opts []notify.Option
	if nc.NATS.URL != "" {
		pub, err := notify.DialNATS(nc.NATS.URL, nc.NATS.Subject)
		if err != nil {
			slog.Warn("notify: nats disabled", "url", nc.NATS.URL, "err", err)
		} else {
			opts = append(opts, notify.WithPublisher(pub))
		}
	}
	return notify.New(nc, opts...)
}

// applyReload pushes the parts of a reloaded config that can change at runtime.
// Server, notify and UI settings need a restart.
func applyReload(p *poller.Poller, limits *sheets.Limiters, prev, next *config.Config) {
	logLevel.Set(parseLevel(next.Log.Level))

	if next.Poll.Interval != prev.Poll.Interval {
		p.SetInterval(next.Poll.Interval)
	}

	if !sourceChanged(prev, next) {
		return
	}
	src, err := sheets.New(next, sheets.WithLimiters(limits))
	if err != nil {
		slog.Error("config reload: source not replaced", "err", err)
		return
	}
	slog.Info("config reload: source replaced", "source", src.Name())
	p.SetSource(src)
}

// sourceChanged reports whether the source or its column schema differ.
func sourceChanged(prev, next *config.Config) bool {
	if prev.Source != next.Source {
		return true
	}
	a, b := prev.Schema, next.Schema
	return a.HeaderRow != b.HeaderRow || a.ValueRow != b.ValueRow || !slices.Equal(a.Columns, b.Columns)
}
