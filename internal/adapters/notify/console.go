package notify

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alejandrodnm/courtside/internal/ports"
	"github.com/olekukonko/tablewriter"
)

// Console implements ports.Reporter.
type Console struct {
	out   io.Writer
	table bool
}

var _ ports.Reporter = (*Console)(nil)

// NewConsole writes to stdout. table switches from the one-line summary to
// a full table.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter writes to w, for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// PrintGameSummary prints the result of one game.
func (c *Console) PrintGameSummary(s ports.GameSummary) {
	if !c.table {
		c.printCompact(s)
		return
	}

	fmt.Fprintf(c.out, "\n[%s] game over %d-%d | session %s | %s/%s\n",
		s.EndedAt.Format("15:04:05"), s.HomeScore, s.AwayScore, shortID(s.SessionID), s.Policy, s.Model)

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Metric", "Value")
	tbl.Append("Final fair", fmt.Sprintf("%.2f", s.FinalFair))
	tbl.Append("Position", fmt.Sprintf("%+.1f", s.Position))
	tbl.Append("Avg entry", fmt.Sprintf("%.2f", s.AvgEntry))
	tbl.Append("Capital", fmt.Sprintf("$%.2f", s.CapitalRemaining))
	tbl.Append("Realized P&L", fmt.Sprintf("$%+.2f", s.RealizedPnL))
	tbl.Append("Orders placed", fmt.Sprintf("%d", s.OrdersPlaced))
	tbl.Append("Orders rejected", fmt.Sprintf("%d", s.OrdersRejected))
	tbl.Append("Orders cancelled", fmt.Sprintf("%d", s.OrdersCancelled))
	tbl.Append("Market orders", fmt.Sprintf("%d", s.MarketOrders))
	tbl.Append("Fills", fmt.Sprintf("%d (%d unmatched)", s.Fills, s.UnmatchedFills))
	tbl.Append("Volume", fmt.Sprintf("%.1f", s.Volume))
	tbl.Append("Take profits", fmt.Sprintf("%d", s.TakeProfits))
	tbl.Render()
}

func (c *Console) printCompact(s ports.GameSummary) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] game over %d-%d | %s | pos %+.1f @ %.2f | pnl $%+.2f | cap $%.2f | %d orders %d fills",
		s.EndedAt.Format("15:04:05"), s.HomeScore, s.AwayScore, s.Policy,
		s.Position, s.AvgEntry, s.RealizedPnL, s.CapitalRemaining, s.OrdersPlaced, s.Fills)
	if s.UnmatchedFills > 0 {
		fmt.Fprintf(&sb, " (%d unmatched)", s.UnmatchedFills)
	}
	fmt.Fprintln(c.out, sb.String())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
