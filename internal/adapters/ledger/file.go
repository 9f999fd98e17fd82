// Package ledger persists the position ledger. Two backends implement
// ports.LedgerRepository: a single JSON file and a SQLite database.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tradekit/autobot/internal/domain"
)

// FileRepository stores the whole ledger as one JSON document. Writes go
// through a temp file and rename so a crash mid-write never truncates the
// only copy of the state.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileRepository uses the given path; parent directories are created on
// the first Save.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Load reads the state file. A missing file is not an error: it returns a
// fresh empty state, so first run needs no setup step.
func (r *FileRepository) Load(_ context.Context) (domain.LedgerState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.NewLedgerState(), nil
	}
	if err != nil {
		return domain.LedgerState{}, fmt.Errorf("ledger: read %s: %w", r.path, err)
	}

	state := domain.NewLedgerState()
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.LedgerState{}, fmt.Errorf("ledger: parse %s: %w", r.path, err)
	}
	if state.Positions == nil {
		state.Positions = make(map[string]domain.Position)
	}
	return state, nil
}

// Save writes the full state atomically.
func (r *FileRepository) Save(_ context.Context, state domain.LedgerState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: marshal state: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ledger: create %s: %w", dir, err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("ledger: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("ledger: rename %s: %w", tmp, err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (r *FileRepository) Close() error { return nil }
