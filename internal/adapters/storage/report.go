package storage

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/courtside/internal/ports"
)

// SaveGameSummary writes the end-of-game row. A second summary for the same
// session replaces the first.
func (j *SQLiteJournal) SaveGameSummary(ctx context.Context, s ports.GameSummary) error {
	if _, err := j.db.ExecContext(ctx, `
		INSERT INTO game_summaries
			(session_id, policy, model, home_score, away_score, final_fair, position,
			 avg_entry, capital_remaining, realized_pnl, orders_placed, orders_rejected,
			 orders_cancelled, market_orders, fills, unmatched_fills, volume,
			 take_profits, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			policy            = excluded.policy,
			model             = excluded.model,
			home_score        = excluded.home_score,
			away_score        = excluded.away_score,
			final_fair        = excluded.final_fair,
			position          = excluded.position,
			avg_entry         = excluded.avg_entry,
			capital_remaining = excluded.capital_remaining,
			realized_pnl      = excluded.realized_pnl,
			orders_placed     = excluded.orders_placed,
			orders_rejected   = excluded.orders_rejected,
			orders_cancelled  = excluded.orders_cancelled,
			market_orders     = excluded.market_orders,
			fills             = excluded.fills,
			unmatched_fills   = excluded.unmatched_fills,
			volume            = excluded.volume,
			take_profits      = excluded.take_profits,
			ended_at          = excluded.ended_at
	`,
		s.SessionID, s.Policy, s.Model, s.HomeScore, s.AwayScore, s.FinalFair, s.Position,
		s.AvgEntry, s.CapitalRemaining, s.RealizedPnL, s.OrdersPlaced, s.OrdersRejected,
		s.OrdersCancelled, s.MarketOrders, s.Fills, s.UnmatchedFills, s.Volume,
		s.TakeProfits, formatTime(s.EndedAt),
	); err != nil {
		return fmt.Errorf("storage.SaveGameSummary: %w", err)
	}
	return nil
}

// Sessions returns the most recent finished games, newest first, with
// per-layer placement counts. limit <= 0 returns all of them.
func (j *SQLiteJournal) Sessions(ctx context.Context, limit int) ([]ports.SessionReport, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT g.session_id, g.policy, g.model, g.home_score, g.away_score, g.final_fair,
		       g.position, g.avg_entry, g.capital_remaining, g.realized_pnl,
		       g.orders_placed, g.orders_rejected, g.orders_cancelled, g.market_orders,
		       g.fills, g.unmatched_fills, g.volume, g.take_profits, g.ended_at,
		       (SELECT COUNT(*) FROM cancels c WHERE c.session_id = g.session_id)
		FROM game_summaries g
		ORDER BY g.ended_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.Sessions: query: %w", err)
	}
	defer rows.Close()

	var reports []ports.SessionReport
	for rows.Next() {
		var r ports.SessionReport
		var endedAt string
		s := &r.Summary
		if err := rows.Scan(
			&s.SessionID, &s.Policy, &s.Model, &s.HomeScore, &s.AwayScore, &s.FinalFair,
			&s.Position, &s.AvgEntry, &s.CapitalRemaining, &s.RealizedPnL,
			&s.OrdersPlaced, &s.OrdersRejected, &s.OrdersCancelled, &s.MarketOrders,
			&s.Fills, &s.UnmatchedFills, &s.Volume, &s.TakeProfits, &endedAt,
			&r.Cancels,
		); err != nil {
			return nil, fmt.Errorf("storage.Sessions: scan row: %w", err)
		}
		s.EndedAt = parseTime(endedAt)
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.Sessions: %w", err)
	}

	for i := range reports {
		layers, err := j.layerStats(ctx, reports[i].Summary.SessionID)
		if err != nil {
			return nil, err
		}
		reports[i].Layers = layers
	}
	return reports, nil
}

func (j *SQLiteJournal) layerStats(ctx context.Context, sessionID string) ([]ports.LayerStats, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT layer,
		       COUNT(*),
		       COALESCE(SUM(accepted), 0),
		       COALESCE(SUM(1 - accepted), 0),
		       COALESCE(SUM(CASE WHEN accepted = 1 THEN quantity ELSE 0 END), 0)
		FROM orders
		WHERE session_id = ?
		GROUP BY layer
		ORDER BY layer
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("storage.layerStats: query: %w", err)
	}
	defer rows.Close()

	var out []ports.LayerStats
	for rows.Next() {
		var ls ports.LayerStats
		if err := rows.Scan(&ls.Layer, &ls.Orders, &ls.Accepted, &ls.Rejected, &ls.Quantity); err != nil {
			return nil, fmt.Errorf("storage.layerStats: scan row: %w", err)
		}
		out = append(out, ls)
	}
	return out, rows.Err()
}
