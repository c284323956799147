package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/courtside/config"
	"github.com/alejandrodnm/courtside/internal/adapters/notify"
	"github.com/alejandrodnm/courtside/internal/adapters/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const game = `{"type":"snapshot","ticker":"TEAM_A","bids":[[48,50]],"asks":[[52,50]]}
{"type":"game","event_type":"JUMP_BALL","home_away":"home","time_seconds":2880}
{"type":"game","event_type":"SCORE","home_away":"home","home_score":20,"away_score":0,"shot_type":"TWO_POINT","time_seconds":120}
{"type":"clock","time_seconds":100}
{"type":"game","event_type":"END_GAME","home_score":20,"away_score":0,"time_seconds":0}
`

func TestRunAgent_ReplayEndToEnd(t *testing.T) {
	dir := t.TempDir()
	replay := filepath.Join(dir, "game.jsonl")
	require.NoError(t, os.WriteFile(replay, []byte(game), 0o644))

	cfg, err := config.Parse([]byte("storage:\n  dsn: " + filepath.Join(dir, "journal.db") + "\n"))
	require.NoError(t, err)
	cfg.Feed.Replay = replay

	journal, err := storage.NewSQLiteJournal(cfg.Storage.DSN)
	require.NoError(t, err)
	defer journal.Close()

	var out bytes.Buffer
	console := notify.NewConsoleWriter(&out, false)
	require.NoError(t, runAgent(context.Background(), cfg, journal, console))
	assert.Contains(t, out.String(), "20-0")

	reports, err := journal.Sessions(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 20, reports[0].Summary.HomeScore)

	out.Reset()
	runReport(context.Background(), journal, console, 0)
	assert.Contains(t, out.String(), "Realized P&L")
}

func TestRunAgent_NoFeedConfigured(t *testing.T) {
	cfg, err := config.Parse([]byte("{}"))
	require.NoError(t, err)

	journal, err := storage.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	defer journal.Close()

	err = runAgent(context.Background(), cfg, journal, notify.NewConsoleWriter(&bytes.Buffer{}, false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no feed configured")
}

func TestRunBacktest_Glob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jsonl", "b.jsonl"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(game), 0o644))
	}
	cfg, err := config.Parse([]byte("policy:\n  name: grid\n"))
	require.NoError(t, err)

	journal, err := storage.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	defer journal.Close()

	var out bytes.Buffer
	console := notify.NewConsoleWriter(&out, false)
	require.NoError(t, runBacktest(context.Background(), cfg, filepath.Join(dir, "*.jsonl"), 2, journal, console))
	assert.Contains(t, out.String(), "BACKTEST: 2 replays")
	assert.Contains(t, out.String(), "Games: 2 | Failed replays: 0")

	reports, err := journal.Sessions(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, reports, 2)

	out.Reset()
	require.NoError(t, runBacktest(context.Background(), cfg, filepath.Join(dir, "*.none"), 2, journal, console))
	assert.Empty(t, out.String())
}
