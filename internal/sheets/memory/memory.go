// Package memory keeps mirrored ledger rows in process, for local runs
// without a spreadsheet and for tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

type Store struct {
	mu           sync.Mutex
	transactions [][]any
	badges       [][]any
}

var _ sheets.LedgerMirror = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendTransaction stores the row and returns a synthetic row reference.
func (s *Store) AppendTransaction(_ context.Context, action string, t core.Transaction, at time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, sheets.TransactionRow(action, t, at))
	return fmt.Sprintf("mem:transactions:%d", len(s.transactions)), nil
}

func (s *Store) AppendBadge(_ context.Context, b core.Badge, points int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badges = append(s.badges, sheets.BadgeRow(b, points))
	return fmt.Sprintf("mem:badges:%d", len(s.badges)), nil
}

// TransactionRows returns a copy of the mirrored transaction rows.
func (s *Store) TransactionRows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.transactions...)
}

// BadgeRows returns a copy of the mirrored badge rows.
func (s *Store) BadgeRows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.badges...)
}
