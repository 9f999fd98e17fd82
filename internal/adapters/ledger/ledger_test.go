package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/autobot/internal/domain"
)

func sampleState() domain.LedgerState {
	state := domain.NewLedgerState()
	state.Positions["0xcond_123"] = domain.Position{
		ID:          "11111111-2222-3333-4444-555555555555",
		TokenID:     "123",
		ConditionID: "0xcond",
		Outcome:     "Yes",
		Question:    "Will it rain tomorrow?",
		EntryPrice:  0.20,
		Shares:      25,
		CostUSDC:    5,
		NegRisk:     true,
		OpenedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	state.History = append(state.History, domain.RealizedTrade{
		Question:  "Did the old one settle?",
		Outcome:   "No",
		Shares:    10,
		ExitPrice: 0.9,
		CostUSDC:  4,
		Profit:    5,
		ClosedAt:  time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC),
	})
	state.DailySpent = 8
	state.DailyResetDate = "2025-06-01"
	state.TotalInvested = 9
	state.TotalReturned = 9
	return state
}

func assertStateEqual(t *testing.T, want, got domain.LedgerState) {
	t.Helper()
	require.Len(t, got.Positions, len(want.Positions))
	for key, wp := range want.Positions {
		gp, ok := got.Positions[key]
		require.True(t, ok, "position %s missing", key)
		assert.Equal(t, wp.ID, gp.ID)
		assert.Equal(t, wp.Outcome, gp.Outcome)
		assert.Equal(t, wp.NegRisk, gp.NegRisk)
		assert.InDelta(t, wp.EntryPrice, gp.EntryPrice, 1e-9)
		assert.InDelta(t, wp.Shares, gp.Shares, 1e-9)
		assert.InDelta(t, wp.CostUSDC, gp.CostUSDC, 1e-9)
		assert.True(t, wp.OpenedAt.Equal(gp.OpenedAt), "openedAt %v != %v", wp.OpenedAt, gp.OpenedAt)
	}
	require.Len(t, got.History, len(want.History))
	for i, wt := range want.History {
		assert.Equal(t, wt.Outcome, got.History[i].Outcome)
		assert.InDelta(t, wt.Profit, got.History[i].Profit, 1e-9)
	}
	assert.InDelta(t, want.DailySpent, got.DailySpent, 1e-9)
	assert.Equal(t, want.DailyResetDate, got.DailyResetDate)
	assert.InDelta(t, want.TotalInvested, got.TotalInvested, 1e-9)
	assert.InDelta(t, want.TotalReturned, got.TotalReturned, 1e-9)
}

func TestFileRepositoryMissingFileIsEmptyState(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "state.json"))

	state, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Positions)
	assert.Empty(t, state.History)
	assert.Zero(t, state.DailySpent)
	require.NotNil(t, state.Positions, "caller must be able to insert directly")
}

func TestFileRepositoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "state.json")
	repo := NewFileRepository(path)
	ctx := context.Background()

	want := sampleState()
	require.NoError(t, repo.Save(ctx, want))

	// No .tmp leftover after a clean save
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assertStateEqual(t, want, got)
}

func TestFileRepositoryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	repo := NewFileRepository(path)
	_, err := repo.Load(context.Background())
	assert.Error(t, err)
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	// Empty database behaves like a first run
	state, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.Positions)

	want := sampleState()
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assertStateEqual(t, want, got)
}

func TestSQLiteRepositorySaveReplacesState(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	first := sampleState()
	require.NoError(t, repo.Save(ctx, first))

	// Close the position: open set shrinks, history grows
	second := first.Clone()
	delete(second.Positions, "0xcond_123")
	second.History = append(second.History, domain.RealizedTrade{
		Question: "Will it rain tomorrow?", Outcome: "Yes",
		Shares: 25, ExitPrice: 0.35, CostUSDC: 5, Profit: 3.75,
		ClosedAt: time.Now().UTC(),
	})
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Positions, "closed position must not resurrect")
	assert.Len(t, got.History, 2)
}
