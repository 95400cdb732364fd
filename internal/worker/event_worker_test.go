package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	sheetsmem "fintrack/internal/sheets/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMirror struct {
	mock.Mock
}

func (m *mockMirror) AppendTransaction(ctx context.Context, action string, t core.Transaction, at time.Time) (string, error) {
	args := m.Called(ctx, action, t, at)
	return args.String(0), args.Error(1)
}

func (m *mockMirror) AppendBadge(ctx context.Context, b core.Badge, points int64) (string, error) {
	args := m.Called(ctx, b, points)
	return args.String(0), args.Error(1)
}

func TestEventWorker_MirrorsEvents(t *testing.T) {
	store := sheetsmem.New()
	w := NewEventWorker(store, nil)
	h := w.Handlers()
	ctx := context.Background()

	tx := core.Transaction{
		ID:       "tx-1",
		OwnerID:  "alice",
		Type:     core.Expense,
		Amount:   decimal.RequireFromString("12.5"),
		Category: "Food",
		Date:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, h.Transaction(ctx, amqp.NewTransactionEvent(amqp.ActionCreated, tx)))
	require.NoError(t, h.Transaction(ctx, amqp.NewTransactionEvent(amqp.ActionDeleted, tx)))

	badge := core.Badge{ID: "b-1", OwnerID: "alice", Name: "Fund Champion", EarnedAt: time.Now()}
	challenge := core.Challenge{Title: "Fund", Reward: core.Reward{Points: 100}}
	require.NoError(t, h.Badge(ctx, amqp.NewBadgeAwardedEvent(badge, challenge)))

	rows := store.TransactionRows()
	require.Len(t, rows, 2)
	assert.Equal(t, "created", rows[0][1])
	assert.Equal(t, "deleted", rows[1][1])
	assert.Len(t, store.BadgeRows(), 1)

	assert.Equal(t, Stats{TransactionsMirrored: 2, BadgesMirrored: 1}, w.Stats())
}

func TestEventWorker_ErrorsAreReturned(t *testing.T) {
	ctx := context.Background()
	mirror := new(mockMirror)
	mirror.On("AppendTransaction", ctx, "updated", mock.Anything, mock.Anything).
		Return("", errors.New("quota exceeded"))
	mirror.On("AppendBadge", ctx, mock.Anything, int64(50)).
		Return("", errors.New("quota exceeded"))

	w := NewEventWorker(mirror, nil)

	err := w.HandleTransactionEvent(ctx, amqp.NewTransactionEvent(amqp.ActionUpdated, core.Transaction{ID: "tx-9"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mirror transaction tx-9")

	err = w.HandleBadgeAwarded(ctx, amqp.NewBadgeAwardedEvent(core.Badge{ID: "b-9"}, core.Challenge{Reward: core.Reward{Points: 50}}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mirror badge b-9")

	assert.Equal(t, int64(2), w.Stats().Failures)
	mirror.AssertExpectations(t)
}

func TestEventWorker_NilEvents(t *testing.T) {
	w := NewEventWorker(sheetsmem.New(), nil)
	assert.Error(t, w.HandleTransactionEvent(context.Background(), nil))
	assert.Error(t, w.HandleBadgeAwarded(context.Background(), nil))
}
