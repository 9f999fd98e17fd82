package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLimits() Limits {
	return Limits{
		MaxPositions:     10,
		PortfolioCapUSDC: 100,
		DailyCapUSDC:     10,
		MaxSpreadCents:   7,
		MaxNewPerCycle:   3,
	}
}

func stateWithPositions(n int, costEach float64) LedgerState {
	s := NewLedgerState()
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("0xcond%d_t%d", i, i)
		s.Positions[key] = Position{
			ConditionID: fmt.Sprintf("0xcond%d", i),
			TokenID:     fmt.Sprintf("t%d", i),
			CostUSDC:    costEach,
		}
	}
	return s
}

func candidate() Candidate {
	return Candidate{Key: "0xnew_t99", SizeUSDC: 5, SpreadCents: 2}
}

func TestGuardAllowsCleanCandidate(t *testing.T) {
	d := EvaluateGuards(candidate(), NewLedgerState(), testLimits(), 0)
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Reason)
}

func TestGuardPositionLimitBoundary(t *testing.T) {
	limits := testLimits()

	// 9 of 10 open: the tenth is allowed
	d := EvaluateGuards(candidate(), stateWithPositions(9, 1), limits, 0)
	assert.True(t, d.Allowed)

	// at the limit: rejected
	d = EvaluateGuards(candidate(), stateWithPositions(10, 1), limits, 0)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "position limit")

	// entries accepted earlier this cycle count toward the limit
	d = EvaluateGuards(candidate(), stateWithPositions(9, 1), limits, 1)
	assert.False(t, d.Allowed)
}

func TestGuardDailyCap(t *testing.T) {
	s := NewLedgerState()
	s.DailySpent = 8

	// $8 spent + $5 candidate > $10 cap
	d := EvaluateGuards(candidate(), s, testLimits(), 0)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "daily")

	// exactly at the cap is allowed
	s.DailySpent = 5
	d = EvaluateGuards(candidate(), s, testLimits(), 0)
	assert.True(t, d.Allowed)
}

func TestGuardDailyCapCountsCycleEntries(t *testing.T) {
	s := NewLedgerState()
	s.DailySpent = 0

	// two $5 entries already this cycle: 10 + 5 > 10
	d := EvaluateGuards(candidate(), s, testLimits(), 2)
	assert.False(t, d.Allowed)
}

func TestGuardPortfolioCap(t *testing.T) {
	// 4 positions x $24 = $96 exposure; +$5 breaches the $100 cap
	d := EvaluateGuards(candidate(), stateWithPositions(4, 24), testLimits(), 0)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "portfolio cap")
}

func TestGuardSpreadBoundary(t *testing.T) {
	limits := testLimits() // max 7c

	c := candidate()
	c.SpreadCents = 5
	assert.True(t, EvaluateGuards(c, NewLedgerState(), limits, 0).Allowed)

	c.SpreadCents = 7
	assert.True(t, EvaluateGuards(c, NewLedgerState(), limits, 0).Allowed)

	c.SpreadCents = 8
	d := EvaluateGuards(c, NewLedgerState(), limits, 0)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "spread")
}

func TestGuardDuplicateKey(t *testing.T) {
	s := NewLedgerState()
	s.Positions["0xnew_t99"] = Position{ConditionID: "0xnew", TokenID: "t99", CostUSDC: 5}

	d := EvaluateGuards(candidate(), s, testLimits(), 0)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "already held")
}

func TestGuardPerCycleCap(t *testing.T) {
	d := EvaluateGuards(candidate(), NewLedgerState(), testLimits(), 3)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "per cycle")
}

func TestGuardPerCycleCapDisabledWhenZero(t *testing.T) {
	limits := testLimits()
	limits.MaxNewPerCycle = 0

	d := EvaluateGuards(candidate(), NewLedgerState(), limits, 50)
	assert.False(t, d.Allowed, "still blocked by the position limit")
	assert.Contains(t, d.Reason, "position limit")
}
