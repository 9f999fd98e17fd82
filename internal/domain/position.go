package domain

import (
	"fmt"
	"time"
)

// PositionKey identifies a held outcome: conditionId + "_" + tokenId.
func PositionKey(conditionID, tokenID string) string {
	return conditionID + "_" + tokenID
}

// Position is an open ledger entry, created when a BUY reports success and
// removed only when the corresponding SELL is confirmed filled.
type Position struct {
	ID          string    `json:"id"` // local UUID
	TokenID     string    `json:"tokenId"`
	ConditionID string    `json:"conditionId"`
	Outcome     string    `json:"outcome"`
	Question    string    `json:"question"`
	EntryPrice  float64   `json:"entryPrice"`
	Shares      float64   `json:"shares"`
	CostUSDC    float64   `json:"costUsdc"`
	NegRisk     bool      `json:"negRisk"`
	OpenedAt    time.Time `json:"openedAt"`

	// Mark-to-market fields, refreshed each poll. Safe to lose on crash.
	CurrentPrice  float64 `json:"currentPrice,omitempty"`
	UnrealizedPnL float64 `json:"unrealizedPnl,omitempty"`
}

// RealizedTrade is one completed round trip appended to the history log.
type RealizedTrade struct {
	Question  string    `json:"question"`
	Outcome   string    `json:"outcome"`
	Shares    float64   `json:"shares"`
	ExitPrice float64   `json:"exitPrice"`
	CostUSDC  float64   `json:"costUsdc"`
	Profit    float64   `json:"profit"`
	ClosedAt  time.Time `json:"closedAt"`
}

// LedgerState is the full durable state of one bot instance: the open set,
// the realized history, and the spend counters.
type LedgerState struct {
	Positions      map[string]Position `json:"positions"`
	History        []RealizedTrade     `json:"history"`
	DailySpent     float64             `json:"dailySpent"`
	DailyResetDate string              `json:"dailyResetDate"` // calendar date in the reference timezone
	TotalInvested  float64             `json:"totalInvested"`
	TotalReturned  float64             `json:"totalReturned"`
}

// NewLedgerState returns an empty ledger.
func NewLedgerState() LedgerState {
	return LedgerState{Positions: make(map[string]Position)}
}

// Exposure is the total cost basis of all open positions.
func (s LedgerState) Exposure() float64 {
	var total float64
	for _, p := range s.Positions {
		total += p.CostUSDC
	}
	return total
}

// RealizedPnL sums the profit of all closed trades.
func (s LedgerState) RealizedPnL() float64 {
	var total float64
	for _, t := range s.History {
		total += t.Profit
	}
	return total
}

// UnrealizedPnL sums the mark-to-market P&L of the open set.
func (s LedgerState) UnrealizedPnL() float64 {
	var total float64
	for _, p := range s.Positions {
		total += p.UnrealizedPnL
	}
	return total
}

// Clone returns a deep copy, used for snapshots handed to pure evaluators.
func (s LedgerState) Clone() LedgerState {
	out := s
	out.Positions = make(map[string]Position, len(s.Positions))
	for k, v := range s.Positions {
		out.Positions[k] = v
	}
	out.History = append([]RealizedTrade(nil), s.History...)
	return out
}

func (p Position) String() string {
	return fmt.Sprintf("%s @ %.0fc $%.2f (%s)", p.Outcome, p.EntryPrice*100, p.CostUSDC, p.ConditionID[:min(12, len(p.ConditionID))])
}
