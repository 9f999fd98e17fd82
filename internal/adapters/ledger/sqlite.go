package ledger

// SQLite backend. The ledger is small (tens of positions, a history log) so
// Save replaces the whole state inside one transaction rather than tracking
// row-level diffs. Single-writer by construction: the engine is the only
// caller.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tradekit/autobot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS positions (
    key            TEXT PRIMARY KEY,
    id             TEXT NOT NULL,
    token_id       TEXT NOT NULL,
    condition_id   TEXT NOT NULL,
    outcome        TEXT NOT NULL,
    question       TEXT NOT NULL,
    entry_price    REAL NOT NULL,
    shares         REAL NOT NULL,
    cost_usdc      REAL NOT NULL,
    neg_risk       INTEGER NOT NULL DEFAULT 0,
    opened_at      DATETIME NOT NULL,
    current_price  REAL NOT NULL DEFAULT 0,
    unrealized_pnl REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS history (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    question   TEXT NOT NULL,
    outcome    TEXT NOT NULL,
    shares     REAL NOT NULL,
    exit_price REAL NOT NULL,
    cost_usdc  REAL NOT NULL,
    profit     REAL NOT NULL,
    closed_at  DATETIME NOT NULL
);

-- Single-row table for the spend counters
CREATE TABLE IF NOT EXISTS meta (
    id               INTEGER PRIMARY KEY CHECK (id = 1),
    daily_spent      REAL NOT NULL DEFAULT 0,
    daily_reset_date TEXT NOT NULL DEFAULT '',
    total_invested   REAL NOT NULL DEFAULT 0,
    total_returned   REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_history_closed ON history(closed_at DESC);
`

// SQLiteRepository implements ports.LedgerRepository on a local SQLite file
// (pure Go driver, no CGo).
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database and applies the schema.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger.NewSQLiteRepository: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger.NewSQLiteRepository: apply schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Load reconstructs the full ledger state. An empty database yields a fresh
// state, same as a missing JSON file in the file backend.
func (r *SQLiteRepository) Load(ctx context.Context) (domain.LedgerState, error) {
	state := domain.NewLedgerState()

	rows, err := r.db.QueryContext(ctx, `
		SELECT key, id, token_id, condition_id, outcome, question,
		       entry_price, shares, cost_usdc, neg_risk, opened_at,
		       current_price, unrealized_pnl
		FROM positions
	`)
	if err != nil {
		return domain.LedgerState{}, fmt.Errorf("ledger.Load: query positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, openedAt string
		var negRisk int
		var p domain.Position
		if err := rows.Scan(
			&key, &p.ID, &p.TokenID, &p.ConditionID, &p.Outcome, &p.Question,
			&p.EntryPrice, &p.Shares, &p.CostUSDC, &negRisk, &openedAt,
			&p.CurrentPrice, &p.UnrealizedPnL,
		); err != nil {
			return domain.LedgerState{}, fmt.Errorf("ledger.Load: scan position: %w", err)
		}
		p.NegRisk = negRisk == 1
		p.OpenedAt, _ = time.Parse(time.RFC3339, openedAt)
		state.Positions[key] = p
	}
	if err := rows.Err(); err != nil {
		return domain.LedgerState{}, fmt.Errorf("ledger.Load: positions: %w", err)
	}

	hrows, err := r.db.QueryContext(ctx, `
		SELECT question, outcome, shares, exit_price, cost_usdc, profit, closed_at
		FROM history ORDER BY id
	`)
	if err != nil {
		return domain.LedgerState{}, fmt.Errorf("ledger.Load: query history: %w", err)
	}
	defer hrows.Close()

	for hrows.Next() {
		var closedAt string
		var t domain.RealizedTrade
		if err := hrows.Scan(&t.Question, &t.Outcome, &t.Shares, &t.ExitPrice, &t.CostUSDC, &t.Profit, &closedAt); err != nil {
			return domain.LedgerState{}, fmt.Errorf("ledger.Load: scan trade: %w", err)
		}
		t.ClosedAt, _ = time.Parse(time.RFC3339, closedAt)
		state.History = append(state.History, t)
	}
	if err := hrows.Err(); err != nil {
		return domain.LedgerState{}, fmt.Errorf("ledger.Load: history: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT daily_spent, daily_reset_date, total_invested, total_returned FROM meta WHERE id = 1`,
	).Scan(&state.DailySpent, &state.DailyResetDate, &state.TotalInvested, &state.TotalReturned)
	if err != nil && err != sql.ErrNoRows {
		return domain.LedgerState{}, fmt.Errorf("ledger.Load: meta: %w", err)
	}

	return state, nil
}

// Save replaces the stored state with the given one, atomically.
func (r *SQLiteRepository) Save(ctx context.Context, state domain.LedgerState) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger.Save: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("ledger.Save: clear positions: %w", err)
	}
	for key, p := range state.Positions {
		negRisk := 0
		if p.NegRisk {
			negRisk = 1
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO positions
				(key, id, token_id, condition_id, outcome, question,
				 entry_price, shares, cost_usdc, neg_risk, opened_at,
				 current_price, unrealized_pnl)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, key, p.ID, p.TokenID, p.ConditionID, p.Outcome, p.Question,
			p.EntryPrice, p.Shares, p.CostUSDC, negRisk, p.OpenedAt.UTC().Format(time.RFC3339),
			p.CurrentPrice, p.UnrealizedPnL,
		); err != nil {
			return fmt.Errorf("ledger.Save: insert position %s: %w", key, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("ledger.Save: clear history: %w", err)
	}
	for _, t := range state.History {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO history (question, outcome, shares, exit_price, cost_usdc, profit, closed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, t.Question, t.Outcome, t.Shares, t.ExitPrice, t.CostUSDC, t.Profit,
			t.ClosedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("ledger.Save: insert trade: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta (id, daily_spent, daily_reset_date, total_invested, total_returned)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			daily_spent      = excluded.daily_spent,
			daily_reset_date = excluded.daily_reset_date,
			total_invested   = excluded.total_invested,
			total_returned   = excluded.total_returned
	`, state.DailySpent, state.DailyResetDate, state.TotalInvested, state.TotalReturned); err != nil {
		return fmt.Errorf("ledger.Save: meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ledger.Save: commit: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
