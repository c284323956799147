package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/courtside/config"
	"github.com/alejandrodnm/courtside/internal/adapters/feed"
	"github.com/alejandrodnm/courtside/internal/adapters/notify"
	"github.com/alejandrodnm/courtside/internal/adapters/storage"
	"github.com/alejandrodnm/courtside/internal/adapters/venue"
	"github.com/alejandrodnm/courtside/internal/application/engine"
	"github.com/alejandrodnm/courtside/internal/application/runner"
	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// runAgent wires feed -> runner -> engine -> venue stack and runs until the
// feed ends or ctx is cancelled.
func runAgent(ctx context.Context, cfg *config.Config, journal *storage.SQLiteJournal, console *notify.Console) error {
	settings := cfg.TradeSetting()
	instrument := domain.Instrument(cfg.Venue.Instrument)

	model, err := cfg.FairValueModel()
	if err != nil {
		return err
	}
	policy, err := cfg.QuotingPolicy()
	if err != nil {
		return err
	}

	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	paper := venue.NewPaper(instrument, settings.InitialCapital)
	var exchange ports.Venue = venue.NewBreaker(paper, cfg.Venue.BreakerFailures, cfg.BreakerCooldown())
	if cfg.Venue.OrdersPerSecond > 0 {
		exchange = venue.NewThrottled(exchange, cfg.Venue.OrdersPerSecond, cfg.Venue.Burst)
		slog.Info("venue throttle enabled", "per_second", cfg.Venue.OrdersPerSecond, "burst", cfg.Venue.Burst)
	}

	var observer runner.Observer
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := venue.NewMetrics(reg)
		exchange = venue.NewInstrumented(exchange, metrics)
		observer = metrics

		stop := serveMetrics(cfg.Metrics.Addr, reg)
		defer stop()
	}

	eng, err := engine.New(engine.Config{
		Instrument: instrument,
		Settings:   settings,
		Model:      model,
		Policy:     policy,
		Journal:    journal,
		Reporter:   console,
	}, exchange)
	if err != nil {
		return err
	}

	stats, err := runner.New(source, eng, paper, observer).Run(ctx)
	if err != nil {
		return err
	}

	snap := eng.Snapshot()
	slog.Info("run complete",
		"messages", stats.Messages,
		"games", stats.Games,
		"fills", stats.Fills,
		"open_position", snap.Position.Position,
		"capital", fmt.Sprintf("%.2f", snap.Position.CapitalRemaining),
	)
	return nil
}

// openSource returns the configured event source and its closer.
func openSource(ctx context.Context, cfg *config.Config) (ports.EventSource, func(), error) {
	switch {
	case cfg.Feed.Replay != "":
		r, err := feed.OpenReplay(cfg.Feed.Replay)
		if err != nil {
			return nil, nil, err
		}
		return r, func() {
			if r.Skipped() > 0 {
				slog.Warn("replay skipped malformed records", "count", r.Skipped())
			}
			r.Close()
		}, nil

	case cfg.Feed.URL != "":
		ws := feed.DialWebSocket(ctx, feed.WSConfig{
			URL:         cfg.Feed.URL,
			Subscribe:   []byte(cfg.Feed.Subscribe),
			ReadTimeout: cfg.ReadTimeout(),
			MaxRetries:  cfg.Feed.MaxRetries,
		})
		return ws, func() { ws.Close() }, nil
	}
	return nil, nil, errors.New("no feed configured: set feed.replay or feed.url, or pass -replay / -ws")
}

// serveMetrics exposes reg on addr/metrics and returns a shutdown func.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "err", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

// runReport prints the aggregate of past games from the journal.
func runReport(ctx context.Context, journal ports.JournalReader, console *notify.Console, limit int) {
	reports, err := journal.Sessions(ctx, limit)
	if err != nil {
		slog.Error("failed to read journal", "err", err)
		return
	}
	console.PrintJournalReport(reports)
}
