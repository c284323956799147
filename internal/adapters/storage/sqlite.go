package storage

// sqlite.go: append-only trading journal.
//
//   - `sessions`: one row per game, opened when the engine starts or resets.
//   - `orders`, `cancels`, `fills`: one row per attempt, cancel and account
//     update. Rejected placements are kept with their reason.
//   - `game_summaries`: written once at END_GAME.
//   - Old sessions and everything hanging off them are pruned on open.
//
// The journal is write-only from the agent's point of view; nothing here is
// read back to rebuild state.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/courtside/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id  TEXT    NOT NULL,
    order_id    TEXT,
    side        TEXT    NOT NULL,
    layer       TEXT    NOT NULL,
    price       REAL    NOT NULL DEFAULT 0,
    quantity    REAL    NOT NULL DEFAULT 0,
    market      INTEGER NOT NULL DEFAULT 0,
    accepted    INTEGER NOT NULL DEFAULT 0,
    reason      TEXT,
    game_clock  REAL    NOT NULL DEFAULT 0,
    fair_price  REAL    NOT NULL DEFAULT 0,
    recorded_at TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS cancels (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id  TEXT    NOT NULL,
    order_id    TEXT    NOT NULL,
    reason      TEXT    NOT NULL,
    confirmed   INTEGER NOT NULL DEFAULT 0,
    game_clock  REAL    NOT NULL DEFAULT 0,
    recorded_at TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS fills (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id        TEXT NOT NULL,
    order_id          TEXT,
    side              TEXT NOT NULL,
    price             REAL NOT NULL,
    quantity          REAL NOT NULL,
    position_after    REAL NOT NULL,
    capital_remaining REAL NOT NULL,
    realized          REAL NOT NULL DEFAULT 0,
    game_clock        REAL NOT NULL DEFAULT 0,
    recorded_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS game_summaries (
    session_id        TEXT PRIMARY KEY,
    policy            TEXT    NOT NULL,
    model             TEXT    NOT NULL,
    home_score        INTEGER NOT NULL,
    away_score        INTEGER NOT NULL,
    final_fair        REAL    NOT NULL,
    position          REAL    NOT NULL,
    avg_entry         REAL    NOT NULL,
    capital_remaining REAL    NOT NULL,
    realized_pnl      REAL    NOT NULL,
    orders_placed     INTEGER NOT NULL,
    orders_rejected   INTEGER NOT NULL,
    orders_cancelled  INTEGER NOT NULL,
    market_orders     INTEGER NOT NULL,
    fills             INTEGER NOT NULL,
    unmatched_fills   INTEGER NOT NULL,
    volume            REAL    NOT NULL,
    take_profits      INTEGER NOT NULL,
    ended_at          TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_session  ON orders(session_id);
CREATE INDEX IF NOT EXISTS idx_cancels_session ON cancels(session_id);
CREATE INDEX IF NOT EXISTS idx_fills_session   ON fills(session_id);
CREATE INDEX IF NOT EXISTS idx_summary_ended   ON game_summaries(ended_at DESC);
`

const retentionSessions = 30 * 24 * time.Hour

// SQLiteJournal implements ports.Journal and ports.JournalReader on SQLite
// (pure Go, no CGo).
type SQLiteJournal struct {
	db *sql.DB
}

var (
	_ ports.Journal       = (*SQLiteJournal)(nil)
	_ ports.JournalReader = (*SQLiteJournal)(nil)
)

// NewSQLiteJournal opens (or creates) the database at path, applies the
// schema and prunes sessions older than the retention window.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteJournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: apply schema: %w", err)
	}

	j := &SQLiteJournal{db: db}
	if err := j.pruneOld(context.Background(), time.Now().UTC().Add(-retentionSessions)); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: %w", err)
	}
	return j, nil
}

// StartSession registers a new game. Re-registering an id is a no-op.
func (j *SQLiteJournal) StartSession(ctx context.Context, sessionID string, startedAt time.Time) error {
	if _, err := j.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, started_at) VALUES (?, ?)`,
		sessionID, formatTime(startedAt),
	); err != nil {
		return fmt.Errorf("storage.StartSession: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) SaveOrder(ctx context.Context, sessionID string, r ports.OrderRecord) error {
	if _, err := j.db.ExecContext(ctx, `
		INSERT INTO orders
			(session_id, order_id, side, layer, price, quantity, market, accepted,
			 reason, game_clock, fair_price, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID,
		nullString(string(r.OrderID)),
		r.Side.String(),
		r.Layer.String(),
		r.Price,
		r.Quantity,
		boolToInt(r.Market),
		boolToInt(r.Accepted),
		nullString(r.Reason),
		r.GameClock,
		r.FairPrice,
		formatTime(r.RecordedAt),
	); err != nil {
		return fmt.Errorf("storage.SaveOrder: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) SaveCancel(ctx context.Context, sessionID string, r ports.CancelRecord) error {
	if _, err := j.db.ExecContext(ctx, `
		INSERT INTO cancels (session_id, order_id, reason, confirmed, game_clock, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, string(r.OrderID), r.Reason, boolToInt(r.Confirmed), r.GameClock, formatTime(r.RecordedAt),
	); err != nil {
		return fmt.Errorf("storage.SaveCancel: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) SaveFill(ctx context.Context, sessionID string, r ports.FillRecord) error {
	if _, err := j.db.ExecContext(ctx, `
		INSERT INTO fills
			(session_id, order_id, side, price, quantity, position_after,
			 capital_remaining, realized, game_clock, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID,
		nullString(string(r.OrderID)),
		r.Side.String(),
		r.Price,
		r.Quantity,
		r.PositionAfter,
		r.CapitalRemaining,
		r.Realized,
		r.GameClock,
		formatTime(r.RecordedAt),
	); err != nil {
		return fmt.Errorf("storage.SaveFill: %w", err)
	}
	return nil
}

// Close closes the database.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// pruneOld deletes sessions started before cutoff together with their rows.
func (j *SQLiteJournal) pruneOld(ctx context.Context, cutoff time.Time) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("prune: begin tx: %w", err)
	}
	defer tx.Rollback()

	old := `SELECT id FROM sessions WHERE started_at < ?`
	for _, table := range []string{"orders", "cancels", "fills", "game_summaries"} {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE session_id IN (`+old+`)`, formatTime(cutoff),
		); err != nil {
			return fmt.Errorf("prune %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE started_at < ?`, formatTime(cutoff)); err != nil {
		return fmt.Errorf("prune sessions: %w", err)
	}
	return tx.Commit()
}

// timeLayout is fixed-width UTC so lexical order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
