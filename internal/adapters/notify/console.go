// Package notify reports portfolio state to the operator: a console table
// each cycle, and an optional SMS on every realized trade.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/tradekit/autobot/internal/domain"
)

// Console implements ports.Notifier on stdout.
type Console struct {
	out io.Writer
}

// NewConsole writes to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter writes to the given writer, for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Status prints the cycle summary: open positions, spend counters, and the
// best-scored opportunities found this cycle.
func (c *Console) Status(_ context.Context, state domain.LedgerState, opps []domain.Opportunity) error {
	now := time.Now().Format("15:04:05")

	fmt.Fprintf(c.out, "\n[%s] positions:%d exposure:$%.2f daily:$%.2f realized:$%+.2f unrealized:$%+.2f\n",
		now, len(state.Positions), state.Exposure(), state.DailySpent,
		state.RealizedPnL(), state.UnrealizedPnL())

	if len(state.Positions) > 0 {
		c.printPositions(state)
	}
	if len(opps) > 0 {
		c.printOpportunities(opps)
	}
	return nil
}

func (c *Console) printPositions(state domain.LedgerState) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Market", "Outcome", "Entry", "Now", "Shares", "Cost", "PnL", "Age")

	for _, p := range state.Positions {
		table.Append(
			truncate(p.Question, 38),
			p.Outcome,
			fmt.Sprintf("%.0fc", p.EntryPrice*100),
			fmt.Sprintf("%.0fc", p.CurrentPrice*100),
			fmt.Sprintf("%.1f", p.Shares),
			fmt.Sprintf("$%.2f", p.CostUSDC),
			fmt.Sprintf("$%+.2f", p.UnrealizedPnL),
			ageLabel(p.OpenedAt),
		)
	}
	table.Render()
}

func (c *Console) printOpportunities(opps []domain.Opportunity) {
	shown := opps
	if len(shown) > 5 {
		shown = shown[:5]
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Outcome", "Price", "Fair", "Edge", "Score", "Why")

	for i, o := range shown {
		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(o.Market.Question, 38),
			o.Outcome,
			fmt.Sprintf("%.0fc", o.Price*100),
			fmt.Sprintf("%.0fc", o.FairValue*100),
			fmt.Sprintf("%+.0f%%", o.Edge*100),
			fmt.Sprintf("%.1f", o.Score),
			firstReason(o.Reasons),
		)
	}
	table.Render()
}

// TradeClosed prints one realized round trip.
func (c *Console) TradeClosed(_ context.Context, trade domain.RealizedTrade, totalPnL float64) {
	fmt.Fprintf(c.out, "[%s] CLOSED %s (%s): %.1f @ %.0fc → $%+.2f | total $%+.2f\n",
		time.Now().Format("15:04:05"),
		truncate(trade.Question, 40), trade.Outcome,
		trade.Shares, trade.ExitPrice*100, trade.Profit, totalPnL)
}

// --- helpers ---

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func firstReason(reasons []string) string {
	if len(reasons) == 0 {
		return "-"
	}
	return truncate(reasons[0], 24)
}

func ageLabel(openedAt time.Time) string {
	d := time.Since(openedAt)
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%.0fm", d.Minutes())
	case d < 48*time.Hour:
		return fmt.Sprintf("%.0fh", d.Hours())
	default:
		return fmt.Sprintf("%.0fd", d.Hours()/24)
	}
}
