package notify_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/courtside/internal/adapters/notify"
	"github.com/alejandrodnm/courtside/internal/ports"
	"github.com/stretchr/testify/assert"
)

func makeSummary() ports.GameSummary {
	return ports.GameSummary{
		SessionID:        "3f2a9c1e-6b7d-4e11-9f00-5c2d8e7a1b22",
		Policy:           "layered",
		Model:            "score_diff",
		HomeScore:        104,
		AwayScore:        99,
		FinalFair:        99,
		Position:         -2.5,
		AvgEntry:         61.2,
		CapitalRemaining: 100_153,
		RealizedPnL:      41.75,
		OrdersPlaced:     38,
		Fills:            7,
		UnmatchedFills:   1,
		EndedAt:          time.Date(2026, 3, 1, 22, 15, 0, 0, time.UTC),
	}
}

func TestConsole_PrintGameSummary_Compact(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf, false).PrintGameSummary(makeSummary())

	out := buf.String()
	assert.Contains(t, out, "game over 104-99")
	assert.Contains(t, out, "pos -2.5 @ 61.20")
	assert.Contains(t, out, "pnl $+41.75")
	assert.Contains(t, out, "(1 unmatched)")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestConsole_PrintGameSummary_Table(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf, true).PrintGameSummary(makeSummary())

	out := buf.String()
	assert.Contains(t, out, "session 3f2a9c1e")
	assert.Contains(t, out, "layered/score_diff")
	assert.Contains(t, out, "$+41.75")
	assert.Contains(t, out, "$100153.00")
	assert.Contains(t, out, "7 (1 unmatched)")
}

func TestConsole_PrintJournalReport(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	second := makeSummary()
	second.SessionID = "aa11bb22-0000"
	second.RealizedPnL = -1.75
	c.PrintJournalReport([]ports.SessionReport{
		{Summary: makeSummary(), Cancels: 30, Layers: []ports.LayerStats{
			{Layer: "quote", Orders: 40, Accepted: 36, Rejected: 4, Quantity: 36},
		}},
		{Summary: second, Layers: []ports.LayerStats{
			{Layer: "quote", Orders: 10, Accepted: 10, Quantity: 10},
			{Layer: "directional", Orders: 2, Accepted: 1, Rejected: 1, Quantity: 3.5},
		}},
	})

	out := buf.String()
	assert.Contains(t, out, "JOURNAL: 2 games")
	assert.Contains(t, out, "3f2a9c1e")
	assert.Contains(t, out, "aa11bb22")
	assert.Contains(t, out, "Realized P&L: $+40.00")
	assert.Contains(t, out, "46")
	assert.Contains(t, out, "3.5")
}

func TestConsole_PrintJournalReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf, true).PrintJournalReport(nil)
	assert.Contains(t, buf.String(), "No games recorded")
}

func TestConsole_PrintBacktest(t *testing.T) {
	var buf bytes.Buffer
	loss := makeSummary()
	loss.RealizedPnL = -11.75

	notify.NewConsoleWriter(&buf, false).PrintBacktest([]ports.ReplayResult{
		{Name: "g1.jsonl", Messages: 10, Fills: 7, Games: []ports.GameSummary{makeSummary(), loss}},
		{Name: "g2.jsonl", Err: errors.New("truncated")},
	})

	out := buf.String()
	assert.Contains(t, out, "BACKTEST: 2 replays")
	assert.Contains(t, out, "g1.jsonl")
	assert.Contains(t, out, "104-99")
	assert.Contains(t, out, "truncated")
	assert.Contains(t, out, "Games: 2 | Failed replays: 1 | Realized P&L: $+30.00")
}

func TestConsole_PrintBacktest_Empty(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf, false).PrintBacktest(nil)
	assert.Equal(t, "No replays run\n", buf.String())
}
