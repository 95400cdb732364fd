// Package memory is an in-process implementation of the repository ports,
// used for local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

type Store struct {
	mu           sync.Mutex
	transactions map[string]core.Transaction
	challenges   map[string]core.Challenge
	badges       []core.Badge
	settings     map[string]core.Settings
}

var _ core.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		transactions: make(map[string]core.Transaction),
		challenges:   make(map[string]core.Challenge),
		settings:     make(map[string]core.Settings),
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactions[t.ID]; exists {
		return fmt.Errorf("transaction %s already exists", t.ID)
	}
	s.transactions[t.ID] = cloneTransaction(t)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, ownerID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.OwnerID != ownerID {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", core.ErrNotFound)
	}
	return cloneTransaction(t), nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.transactions[t.ID]
	if !ok || cur.OwnerID != t.OwnerID {
		return fmt.Errorf("update transaction: %w", core.ErrNotFound)
	}
	s.transactions[t.ID] = cloneTransaction(t)
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.OwnerID != ownerID {
		return fmt.Errorf("delete transaction: %w", core.ErrNotFound)
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, ownerID string, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, t := range s.transactions {
		if t.OwnerID == ownerID && f.Match(t) {
			out = append(out, cloneTransaction(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateChallenge(_ context.Context, c core.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.challenges[c.ID]; exists {
		return fmt.Errorf("challenge %s already exists", c.ID)
	}
	s.challenges[c.ID] = c
	return nil
}

func (s *Store) GetChallenge(_ context.Context, ownerID, id string) (core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok || c.OwnerID != ownerID {
		return core.Challenge{}, fmt.Errorf("get challenge: %w", core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) ListChallenges(_ context.Context, ownerID string) ([]core.Challenge, error) {
	return s.selectChallenges(func(c core.Challenge) bool { return c.OwnerID == ownerID }, func(a, b core.Challenge) bool {
		return a.CreatedAt.After(b.CreatedAt)
	}), nil
}

func (s *Store) ListActiveChallenges(_ context.Context, ownerID string, now time.Time) ([]core.Challenge, error) {
	return s.selectChallenges(func(c core.Challenge) bool {
		return c.OwnerID == ownerID && c.Evaluable(now)
	}, byEndDate), nil
}

func (s *Store) ListExpiredChallenges(_ context.Context, now time.Time) ([]core.Challenge, error) {
	return s.selectChallenges(func(c core.Challenge) bool {
		return c.Status == core.StatusActive && c.EndDate.Before(now)
	}, byEndDate), nil
}

func (s *Store) SetProgress(_ context.Context, ownerID, id string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok || c.OwnerID != ownerID {
		return fmt.Errorf("update challenge progress: %w", core.ErrNotFound)
	}
	c.CurrentAmount = amount
	s.challenges[id] = c
	return nil
}

func (s *Store) CompleteChallenge(_ context.Context, c core.Challenge, amount decimal.Decimal, badge core.Badge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.challenges[c.ID]
	if !ok || cur.OwnerID != c.OwnerID || cur.Status != core.StatusActive {
		return false, nil
	}
	for _, b := range s.badges {
		if b.ChallengeID != "" && b.ChallengeID == badge.ChallengeID {
			return false, nil
		}
	}
	earned := badge.EarnedAt
	cur.Status = core.StatusCompleted
	cur.CurrentAmount = amount
	cur.CompletedAt = &earned
	s.challenges[c.ID] = cur
	s.badges = append(s.badges, badge)
	return true, nil
}

func (s *Store) FailChallenge(_ context.Context, ownerID, id string, amount decimal.Decimal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.challenges[id]
	if !ok || cur.OwnerID != ownerID || cur.Status != core.StatusActive {
		return false, nil
	}
	cur.Status = core.StatusFailed
	cur.CurrentAmount = amount
	s.challenges[id] = cur
	return true, nil
}

func (s *Store) DeleteChallenge(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok || c.OwnerID != ownerID {
		return fmt.Errorf("delete challenge: %w", core.ErrNotFound)
	}
	delete(s.challenges, id)
	return nil
}

func (s *Store) ListBadges(_ context.Context, ownerID string) ([]core.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Badge, 0)
	for _, b := range s.badges {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EarnedAt.After(out[j].EarnedAt) })
	return out, nil
}

func (s *Store) GetSettings(_ context.Context, ownerID string) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[ownerID]
	if !ok {
		return core.Settings{}, fmt.Errorf("get settings: %w", core.ErrNotFound)
	}
	return st, nil
}

func (s *Store) SaveSettings(_ context.Context, st core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[st.OwnerID] = st
	return nil
}

func (s *Store) selectChallenges(keep func(core.Challenge) bool, less func(a, b core.Challenge) bool) []core.Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Challenge, 0)
	for _, c := range s.challenges {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byEndDate(a, b core.Challenge) bool { return a.EndDate.Before(b.EndDate) }

func cloneTransaction(t core.Transaction) core.Transaction {
	t.Tags = append([]string{}, t.Tags...)
	return t
}
