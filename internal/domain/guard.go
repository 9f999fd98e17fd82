package domain

// guard.go — pure pre-trade guard evaluation. No I/O; all thresholds come
// from configuration and all state arrives as an explicit snapshot.

import "fmt"

// Limits are the externally supplied trading guardrails.
type Limits struct {
	MaxPositions     int
	PortfolioCapUSDC float64
	DailyCapUSDC     float64
	MaxSpreadCents   int
	MaxNewPerCycle   int
}

// Candidate is one prospective entry presented to the guard.
type Candidate struct {
	Key         string // conditionId_tokenId
	SizeUSDC    float64
	SpreadCents int
}

// GuardDecision is the outcome of evaluating one candidate.
type GuardDecision struct {
	Allowed bool
	Reason  string
}

func reject(format string, args ...any) GuardDecision {
	return GuardDecision{Reason: fmt.Sprintf(format, args...)}
}

// EvaluateGuards applies every guardrail to a candidate trade against a
// ledger snapshot. enteredThisCycle is the number of entries already
// accepted in the current evaluation batch.
func EvaluateGuards(c Candidate, snapshot LedgerState, limits Limits, enteredThisCycle int) GuardDecision {
	if limits.MaxNewPerCycle > 0 && enteredThisCycle >= limits.MaxNewPerCycle {
		return reject("max %d new entries per cycle reached", limits.MaxNewPerCycle)
	}
	open := len(snapshot.Positions) + enteredThisCycle
	if open >= limits.MaxPositions {
		return reject("at position limit (%d)", limits.MaxPositions)
	}
	if _, held := snapshot.Positions[c.Key]; held {
		return reject("position already held for %s", c.Key)
	}
	exposure := snapshot.Exposure() + float64(enteredThisCycle)*c.SizeUSDC
	if exposure+c.SizeUSDC > limits.PortfolioCapUSDC {
		return reject("portfolio cap ($%.0f) would be exceeded", limits.PortfolioCapUSDC)
	}
	if snapshot.DailySpent+float64(enteredThisCycle)*c.SizeUSDC+c.SizeUSDC > limits.DailyCapUSDC {
		return reject("daily spending cap ($%.0f) reached", limits.DailyCapUSDC)
	}
	if c.SpreadCents > limits.MaxSpreadCents {
		return reject("spread too wide (%dc > %dc)", c.SpreadCents, limits.MaxSpreadCents)
	}
	return GuardDecision{Allowed: true}
}
