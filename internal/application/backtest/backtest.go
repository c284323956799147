package backtest

// Replays several recorded games in parallel. Each game gets its own engine,
// paper venue and runner; nothing is shared between workers except the
// journal behind the engines, which is safe for concurrent use.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/alejandrodnm/courtside/internal/application/engine"
	"github.com/alejandrodnm/courtside/internal/application/runner"
	"github.com/alejandrodnm/courtside/internal/ports"
)

// Opener opens the recorded feed called name. If the source implements
// io.Closer it is closed when the replay ends.
type Opener func(name string) (ports.EventSource, error)

// Builder constructs one isolated agent that reports finished games to rep.
type Builder func(rep ports.Reporter) (*engine.Engine, runner.Simulator, error)

// collector keeps the summaries of one replay.
type collector struct{ games []ports.GameSummary }

func (c *collector) PrintGameSummary(s ports.GameSummary) { c.games = append(c.games, s) }

// Run replays every name with a pool of workers and returns one result per
// name, sorted by name. workers <= 0 uses runtime.NumCPU().
func Run(ctx context.Context, names []string, workers int, open Opener, build Builder) []ports.ReplayResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(1, len(names)))

	workCh := make(chan string, len(names))
	resultCh := make(chan ports.ReplayResult, len(names))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range workCh {
				resultCh <- replayOne(ctx, name, open, build)
			}
		}()
	}

	for _, name := range names {
		workCh <- name
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]ports.ReplayResult, 0, len(names))
	for r := range resultCh {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	slog.Info("backtest: complete", "replays", len(results), "workers", workers)
	return results
}

func replayOne(ctx context.Context, name string, open Opener, build Builder) ports.ReplayResult {
	res := ports.ReplayResult{Name: name}

	src, err := open(name)
	if err != nil {
		res.Err = fmt.Errorf("backtest: open %s: %w", name, err)
		return res
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	rep := &collector{}
	eng, sim, err := build(rep)
	if err != nil {
		res.Err = fmt.Errorf("backtest: build %s: %w", name, err)
		return res
	}

	stats, err := runner.New(src, eng, sim, nil).Run(ctx)
	res.Messages = stats.Messages
	res.Fills = stats.Fills
	res.Games = rep.games
	res.Err = err
	if err != nil {
		slog.Warn("backtest: replay failed", "name", name, "err", err)
	}
	return res
}
