package notify

import (
	"fmt"

	"github.com/alejandrodnm/courtside/internal/ports"
	"github.com/olekukonko/tablewriter"
)

// PrintJournalReport prints finished games from the journal, newest first,
// followed by per-layer placement counts across all of them.
func (c *Console) PrintJournalReport(reports []ports.SessionReport) {
	if len(reports) == 0 {
		fmt.Fprintln(c.out, "No games recorded")
		return
	}

	fmt.Fprintf(c.out, "\n=== JOURNAL: %d games ===\n", len(reports))

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Ended", "Session", "Policy", "Score", "Pos", "P&L", "Capital", "Orders", "Rej", "Cxl", "Fills", "TP")

	var totalPnL float64
	layers := make(map[string]*ports.LayerStats)
	var order []string
	for _, r := range reports {
		s := r.Summary
		totalPnL += s.RealizedPnL
		tbl.Append(
			s.EndedAt.Format("01-02 15:04"),
			shortID(s.SessionID),
			s.Policy,
			fmt.Sprintf("%d-%d", s.HomeScore, s.AwayScore),
			fmt.Sprintf("%+.1f", s.Position),
			fmt.Sprintf("$%+.2f", s.RealizedPnL),
			fmt.Sprintf("$%.0f", s.CapitalRemaining),
			fmt.Sprintf("%d", s.OrdersPlaced),
			fmt.Sprintf("%d", s.OrdersRejected),
			fmt.Sprintf("%d", r.Cancels),
			fmt.Sprintf("%d", s.Fills),
			fmt.Sprintf("%d", s.TakeProfits),
		)
		for _, ls := range r.Layers {
			agg, ok := layers[ls.Layer]
			if !ok {
				agg = &ports.LayerStats{Layer: ls.Layer}
				layers[ls.Layer] = agg
				order = append(order, ls.Layer)
			}
			agg.Orders += ls.Orders
			agg.Accepted += ls.Accepted
			agg.Rejected += ls.Rejected
			agg.Quantity += ls.Quantity
		}
	}
	tbl.Render()
	fmt.Fprintf(c.out, "Realized P&L: $%+.2f\n", totalPnL)

	if len(order) == 0 {
		return
	}
	lt := tablewriter.NewWriter(c.out)
	lt.Header("Layer", "Orders", "Accepted", "Rejected", "Qty")
	for _, name := range order {
		ls := layers[name]
		lt.Append(
			ls.Layer,
			fmt.Sprintf("%d", ls.Orders),
			fmt.Sprintf("%d", ls.Accepted),
			fmt.Sprintf("%d", ls.Rejected),
			fmt.Sprintf("%.1f", ls.Quantity),
		)
	}
	lt.Render()
}
