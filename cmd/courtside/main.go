package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/courtside/config"
	"github.com/alejandrodnm/courtside/internal/adapters/notify"
	"github.com/alejandrodnm/courtside/internal/adapters/storage"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	replay := flag.String("replay", "", "replay a JSONL feed file (overrides config)")
	wsURL := flag.String("ws", "", "read a live feed from this websocket URL (overrides config)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full game summary table (default: compact 1-line)")
	report := flag.Bool("report", false, "print the journal report of past games and exit")
	reportLimit := flag.Int("report-limit", 20, "games shown by -report (0 = all)")
	metricsAddr := flag.String("metrics", "", "serve prometheus /metrics on this address (overrides config)")
	backtestGlob := flag.String("backtest", "", "replay every file matching this glob in parallel and print the results")
	workers := flag.Int("workers", 0, "parallel replays for -backtest (0 = NumCPU)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *replay != "" {
		cfg.Feed.Replay = *replay
		cfg.Feed.URL = ""
	}
	if *wsURL != "" {
		cfg.Feed.URL = *wsURL
		if *replay == "" {
			cfg.Feed.Replay = ""
		}
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	setupLogger(cfg.Log)

	slog.Info("courtside starting",
		"config", *configPath,
		"policy", cfg.Policy.Name,
		"model", cfg.Model.Name,
		"replay", cfg.Feed.Replay,
		"ws", cfg.Feed.URL,
		"report", *report,
		"backtest", *backtestGlob,
	)

	journal, err := storage.NewSQLiteJournal(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open journal", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer journal.Close()

	console := notify.NewConsole(*table)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *report {
		runReport(ctx, journal, console, *reportLimit)
		return
	}

	if *backtestGlob != "" {
		if err := runBacktest(ctx, cfg, *backtestGlob, *workers, journal, console); err != nil {
			slog.Error("backtest failed", "err", err)
			journal.Close()
			os.Exit(1)
		}
		return
	}

	if err := runAgent(ctx, cfg, journal, console); err != nil {
		slog.Error("courtside exited with error", "err", err)
		journal.Close()
		os.Exit(1)
	}

	slog.Info("courtside stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
