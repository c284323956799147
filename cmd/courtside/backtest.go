package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/alejandrodnm/courtside/config"
	"github.com/alejandrodnm/courtside/internal/adapters/feed"
	"github.com/alejandrodnm/courtside/internal/adapters/notify"
	"github.com/alejandrodnm/courtside/internal/adapters/venue"
	"github.com/alejandrodnm/courtside/internal/application/backtest"
	"github.com/alejandrodnm/courtside/internal/application/engine"
	"github.com/alejandrodnm/courtside/internal/application/runner"
	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
)

func runBacktest(ctx context.Context, cfg *config.Config, pattern string, workers int, journal ports.Journal, console *notify.Console) error {
	slog.Info("=== BACKTEST MODE: parallel replay of recorded games ===", "pattern", pattern)

	files, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("backtest: bad pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		slog.Warn("backtest: no replay files matched", "pattern", pattern)
		return nil
	}

	settings := cfg.TradeSetting()
	instrument := domain.Instrument(cfg.Venue.Instrument)

	open := func(name string) (ports.EventSource, error) {
		return feed.OpenReplay(name)
	}
	build := func(rep ports.Reporter) (*engine.Engine, runner.Simulator, error) {
		model, err := cfg.FairValueModel()
		if err != nil {
			return nil, nil, err
		}
		policy, err := cfg.QuotingPolicy()
		if err != nil {
			return nil, nil, err
		}
		paper := venue.NewPaper(instrument, settings.InitialCapital)
		eng, err := engine.New(engine.Config{
			Instrument: instrument,
			Settings:   settings,
			Model:      model,
			Policy:     policy,
			Journal:    journal,
			Reporter:   rep,
		}, paper)
		return eng, paper, err
	}

	results := backtest.Run(ctx, files, workers, open, build)
	console.PrintBacktest(results)
	return nil
}
