package notify

import (
	"fmt"

	"github.com/alejandrodnm/courtside/internal/ports"
	"github.com/olekukonko/tablewriter"
)

// PrintBacktest prints one row per replayed game and the aggregate P&L.
func (c *Console) PrintBacktest(results []ports.ReplayResult) {
	if len(results) == 0 {
		fmt.Fprintln(c.out, "No replays run")
		return
	}

	fmt.Fprintf(c.out, "\n=== BACKTEST: %d replays ===\n", len(results))

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Replay", "Score", "Pos", "P&L", "Capital", "Orders", "Fills", "TP", "Status")

	var totalPnL float64
	var games, failed int
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
			failed++
		}
		if len(r.Games) == 0 {
			tbl.Append(r.Name, "-", "-", "-", "-", "-", fmt.Sprintf("%d", r.Fills), "-", status)
			continue
		}
		for _, s := range r.Games {
			games++
			totalPnL += s.RealizedPnL
			tbl.Append(
				r.Name,
				fmt.Sprintf("%d-%d", s.HomeScore, s.AwayScore),
				fmt.Sprintf("%+.1f", s.Position),
				fmt.Sprintf("$%+.2f", s.RealizedPnL),
				fmt.Sprintf("$%.0f", s.CapitalRemaining),
				fmt.Sprintf("%d", s.OrdersPlaced),
				fmt.Sprintf("%d", s.Fills),
				fmt.Sprintf("%d", s.TakeProfits),
				status,
			)
		}
	}
	tbl.Render()

	fmt.Fprintf(c.out, "Games: %d | Failed replays: %d | Realized P&L: $%+.2f\n", games, failed, totalPnL)
}
