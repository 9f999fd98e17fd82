package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/autobot/internal/domain"
)

func TestConsoleStatus(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	state := domain.NewLedgerState()
	state.Positions["0xc_1"] = domain.Position{
		Question:      "Will the launch happen this quarter?",
		Outcome:       "Yes",
		EntryPrice:    0.20,
		CurrentPrice:  0.28,
		Shares:        25,
		CostUSDC:      5,
		UnrealizedPnL: 2,
		OpenedAt:      time.Now().Add(-3 * time.Hour),
	}
	state.DailySpent = 5

	opps := []domain.Opportunity{{
		Market:    domain.Market{Question: "Another market entirely"},
		Outcome:   "No",
		Price:     0.12,
		FairValue: 0.20,
		Edge:      0.67,
		Score:     5.2,
		Reasons:   []string{"cheap with real volume"},
	}}

	require.NoError(t, c.Status(context.Background(), state, opps))

	out := buf.String()
	assert.Contains(t, out, "positions:1")
	assert.Contains(t, out, "Will the launch happen this quarter?")
	assert.Contains(t, out, "Another market entirely")
	assert.Contains(t, out, "cheap with real volume")
}

func TestConsoleTradeClosed(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	c.TradeClosed(context.Background(), domain.RealizedTrade{
		Question:  "Will it resolve yes?",
		Outcome:   "Yes",
		Shares:    25,
		ExitPrice: 0.35,
		CostUSDC:  5,
		Profit:    3.75,
	}, 3.75)

	out := buf.String()
	assert.Contains(t, out, "CLOSED")
	assert.Contains(t, out, "$+3.75")
}

func TestNewSMSRequiresAllCredentials(t *testing.T) {
	assert.Nil(t, NewSMS("", "tok", "+1", "+2"))
	assert.Nil(t, NewSMS("sid", "tok", "+1", ""))
	assert.NotNil(t, NewSMS("sid", "tok", "+1", "+2"))
}
