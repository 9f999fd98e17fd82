// Package engine runs the trading loop: scan, guard, enter, exit, persist.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tradekit/autobot/internal/domain"
	"github.com/tradekit/autobot/internal/ports"
)

// tradingTimezone anchors the daily spending window to the exchange's
// reference market hours, not the host clock.
const tradingTimezone = "America/New_York"

// Ledger owns the in-memory position state and its persistence. Open and
// Close persist before returning: a position the exchange knows about must
// never exist only in memory.
type Ledger struct {
	repo  ports.LedgerRepository
	state domain.LedgerState
	loc   *time.Location
	log   *slog.Logger
}

// NewLedger loads the persisted state, or starts empty on first run.
func NewLedger(ctx context.Context, repo ports.LedgerRepository, log *slog.Logger) (*Ledger, error) {
	state, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: load ledger: %w", err)
	}

	loc, err := time.LoadLocation(tradingTimezone)
	if err != nil {
		return nil, fmt.Errorf("engine: load timezone: %w", err)
	}

	return &Ledger{repo: repo, state: state, loc: loc, log: log}, nil
}

// Snapshot returns a deep copy for pure evaluators.
func (l *Ledger) Snapshot() domain.LedgerState {
	return l.state.Clone()
}

// Open records a filled BUY. The position key must be absent; opening over
// an existing position would silently merge two distinct fills.
func (l *Ledger) Open(ctx context.Context, p domain.Position) error {
	key := domain.PositionKey(p.ConditionID, p.TokenID)
	if _, held := l.state.Positions[key]; held {
		return fmt.Errorf("engine: position %s already open", key)
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.OpenedAt.IsZero() {
		p.OpenedAt = time.Now().UTC()
	}

	l.state.Positions[key] = p
	l.state.DailySpent += p.CostUSDC
	l.state.TotalInvested += p.CostUSDC

	if err := l.repo.Save(ctx, l.state); err != nil {
		return fmt.Errorf("engine: persist open %s: %w", key, err)
	}
	l.log.Info("position opened", "key", key, "outcome", p.Outcome,
		"entry", p.EntryPrice, "cost", p.CostUSDC)
	return nil
}

// Close records a filled SELL: removes the position, appends the realized
// trade, and persists. Returns the trade for notification.
func (l *Ledger) Close(ctx context.Context, key string, exitPrice float64) (domain.RealizedTrade, error) {
	p, held := l.state.Positions[key]
	if !held {
		return domain.RealizedTrade{}, fmt.Errorf("engine: no open position %s", key)
	}

	proceeds := p.Shares * exitPrice
	trade := domain.RealizedTrade{
		Question:  p.Question,
		Outcome:   p.Outcome,
		Shares:    p.Shares,
		ExitPrice: exitPrice,
		CostUSDC:  p.CostUSDC,
		Profit:    proceeds - p.CostUSDC,
		ClosedAt:  time.Now().UTC(),
	}

	delete(l.state.Positions, key)
	l.state.History = append(l.state.History, trade)
	l.state.TotalReturned += proceeds

	if err := l.repo.Save(ctx, l.state); err != nil {
		return domain.RealizedTrade{}, fmt.Errorf("engine: persist close %s: %w", key, err)
	}
	l.log.Info("position closed", "key", key, "exit", exitPrice, "profit", trade.Profit)
	return trade, nil
}

// MarkToMarket refreshes the display price of one open position. In-memory
// only: these fields are recomputed every cycle and safe to lose.
func (l *Ledger) MarkToMarket(key string, currentPrice float64) {
	p, held := l.state.Positions[key]
	if !held {
		return
	}
	p.CurrentPrice = currentPrice
	p.UnrealizedPnL = p.Shares*currentPrice - p.CostUSDC
	l.state.Positions[key] = p
}

// Persist writes the current state. Used after a mark-to-market pass, where
// a write failure is logged but not fatal.
func (l *Ledger) Persist(ctx context.Context) {
	if err := l.repo.Save(ctx, l.state); err != nil {
		l.log.Warn("ledger persist failed", "error", err)
	}
}

// ResetDailyIfNeeded zeroes the daily spend counter when the calendar date
// in the trading timezone has changed since the last recorded reset.
func (l *Ledger) ResetDailyIfNeeded(ctx context.Context, now time.Time) error {
	today := now.In(l.loc).Format("2006-01-02")
	if l.state.DailyResetDate == today {
		return nil
	}

	l.log.Info("daily spend reset", "date", today, "previousSpent", l.state.DailySpent)
	l.state.DailySpent = 0
	l.state.DailyResetDate = today

	if err := l.repo.Save(ctx, l.state); err != nil {
		return fmt.Errorf("engine: persist daily reset: %w", err)
	}
	return nil
}
