package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/courtside/internal/domain"
)

// OrderRecord is one placement attempt, accepted or not.
type OrderRecord struct {
	OrderID    domain.OrderID
	Side       domain.Side
	Layer      domain.Layer
	Price      float64 // 0 for market orders
	Quantity   float64
	Market     bool
	Accepted   bool
	Reason     string // rejection reason, if any
	GameClock  float64
	FairPrice  float64
	RecordedAt time.Time
}

// FillRecord is one account update.
type FillRecord struct {
	OrderID          domain.OrderID // zero when unmatched
	Side             domain.Side
	Price            float64
	Quantity         float64
	PositionAfter    float64
	CapitalRemaining float64
	Realized         float64
	GameClock        float64
	RecordedAt       time.Time
}

// CancelRecord is one cancel request.
type CancelRecord struct {
	OrderID    domain.OrderID
	Reason     string
	Confirmed  bool
	GameClock  float64
	RecordedAt time.Time
}

// GameSummary is written once per game at END_GAME.
type GameSummary struct {
	SessionID        string
	Policy           string
	Model            string
	HomeScore        int
	AwayScore        int
	FinalFair        float64
	Position         float64
	AvgEntry         float64
	CapitalRemaining float64
	RealizedPnL      float64
	OrdersPlaced     int
	OrdersRejected   int
	OrdersCancelled  int
	MarketOrders     int
	Fills            int
	UnmatchedFills   int
	Volume           float64
	TakeProfits      int
	EndedAt          time.Time
}

// Journal records trading activity for offline review. It is never read to
// rebuild agent state.
type Journal interface {
	StartSession(ctx context.Context, sessionID string, startedAt time.Time) error
	SaveOrder(ctx context.Context, sessionID string, rec OrderRecord) error
	SaveCancel(ctx context.Context, sessionID string, rec CancelRecord) error
	SaveFill(ctx context.Context, sessionID string, rec FillRecord) error
	SaveGameSummary(ctx context.Context, summary GameSummary) error
}

// LayerStats aggregates one quoting layer's placements within a session.
type LayerStats struct {
	Layer    string
	Orders   int
	Accepted int
	Rejected int
	Quantity float64
}

// SessionReport is a finished game read back from the journal.
type SessionReport struct {
	Summary GameSummary
	Cancels int
	Layers  []LayerStats
}

// JournalReader serves the offline report.
type JournalReader interface {
	Sessions(ctx context.Context, limit int) ([]SessionReport, error)
}
