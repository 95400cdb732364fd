package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTransactionService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.transactions.Create(ctx, "u1", core.Transaction{
		Type:        core.Expense,
		Category:    "  Food ",
		Amount:      dec("12.50"),
		Description: "lunch",
		Tags:        []string{" work ", ""},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "u1", tx.OwnerID)
	assert.Equal(t, testNow, tx.Date, "missing date defaults to now")
	assert.Equal(t, []string{"work"}, tx.Tags)

	require.Len(t, f.publisher.transactions, 1)
	assert.Equal(t, amqp.ActionCreated, f.publisher.transactions[0].Action)
	assert.Equal(t, tx.ID, f.publisher.transactions[0].Transaction.ID)
}

func TestTransactionService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   core.Transaction
		want error
	}{
		{"bad type", core.Transaction{Type: "transfer", Category: "Food", Amount: dec("1")}, core.ErrInvalidType},
		{"zero amount", core.Transaction{Type: core.Expense, Category: "Food", Amount: dec("0")}, core.ErrInvalidAmount},
		{"negative amount", core.Transaction{Type: core.Expense, Category: "Food", Amount: dec("-5")}, core.ErrInvalidAmount},
		{"blank category", core.Transaction{Type: core.Expense, Category: "  ", Amount: dec("1")}, core.ErrEmptyCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.transactions.Create(ctx, "u1", tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, core.IsValidation(err))
		})
	}

	txs, err := f.transactions.List(ctx, "u1", core.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs, "failed submissions leave no record")
	assert.Empty(t, f.publisher.transactions)
}

func TestTransactionService_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.createTransaction(t, "u1", core.Expense, "Food", "20", days(-1))

	category := "Groceries"
	updated, err := f.transactions.Update(ctx, "u1", tx.ID, core.TransactionPatch{Category: &category})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", updated.Category)
	assert.True(t, updated.Amount.Equal(dec("20")))

	negative := dec("-1")
	_, err = f.transactions.Update(ctx, "u1", tx.ID, core.TransactionPatch{Amount: &negative})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = f.transactions.Update(ctx, "u2", tx.ID, core.TransactionPatch{Category: &category})
	assert.ErrorIs(t, err, core.ErrNotFound, "other owners cannot see the record")

	require.NoError(t, f.transactions.Delete(ctx, "u1", tx.ID))
	assert.ErrorIs(t, f.transactions.Delete(ctx, "u1", tx.ID), core.ErrNotFound)

	actions := make([]amqp.TransactionAction, 0)
	for _, e := range f.publisher.transactions {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []amqp.TransactionAction{amqp.ActionCreated, amqp.ActionUpdated, amqp.ActionDeleted}, actions)
	assert.Equal(t, "Groceries", f.publisher.transactions[2].Transaction.Category, "delete event carries the snapshot")
}

func TestTransactionService_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pub := &mockPublisher{}
	pub.On("PublishTransactionEvent", mock.Anything, mock.MatchedBy(func(e *amqp.TransactionEvent) bool {
		return e.Action == amqp.ActionCreated
	})).Return(errors.New("broker down")).Once()

	svc := NewTransactionService(f.store, nil, pub, nil)
	tx, err := svc.Create(ctx, "u1", core.Transaction{Type: core.Income, Category: "Salary", Amount: dec("100")})
	require.NoError(t, err)

	_, err = f.store.GetTransaction(ctx, "u1", tx.ID)
	assert.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestTransactionService_ListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createTransaction(t, "u1", core.Expense, "Food", "20", days(-3))
	f.createTransaction(t, "u1", core.Expense, "Rent", "900", days(-2))
	f.createTransaction(t, "u1", core.Income, "Salary", "2000", days(-1))

	all, err := f.transactions.List(ctx, "u1", core.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Salary", all[0].Category, "newest first")

	expenses, err := f.transactions.List(ctx, "u1", core.TransactionFilter{Type: core.Expense, Min: dec("100")})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Rent", expenses[0].Category)
}
