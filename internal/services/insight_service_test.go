package services

import (
	"context"
	"sync"
	"testing"

	"fintrack/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsightService_Spending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createTransaction(t, "u1", core.Expense, "Food", "100", days(-3))
	f.createTransaction(t, "u1", core.Expense, "Food", "50", days(-2))
	f.createTransaction(t, "u1", core.Expense, "Rent", "200", days(-1))
	f.createTransaction(t, "u1", core.Income, "Salary", "1000", days(-1))
	f.createTransaction(t, "u1", core.Expense, "Travel", "5000", days(-100)) // outside the window and the quarter

	got, err := f.insights.Spending(ctx, "u1", 30, 5)
	require.NoError(t, err)

	require.Len(t, got.TopSpendingCategories, 2)
	assert.Equal(t, "Rent", got.TopSpendingCategories[0].Category)
	assert.Equal(t, "57.1", got.TopSpendingCategories[0].Percentage.String())
	assert.Equal(t, "Food", got.TopSpendingCategories[1].Category)
	assert.Equal(t, "42.9", got.TopSpendingCategories[1].Percentage.String())
	assert.True(t, got.TotalSpending.Equal(dec("350")))
	assert.True(t, got.TotalIncome.Equal(dec("1000")))
	assert.True(t, got.MonthlySavings.Equal(dec("650")))
	require.NotNil(t, got.SavingsRate3M)
	assert.Equal(t, "65", got.SavingsRate3M.String())
	assert.Len(t, got.Recommendations, 2, "both categories exceed 30%")
}

func TestInsightService_CachesUntilWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createTransaction(t, "u1", core.Expense, "Food", "10", days(-1))

	_, err := f.insights.Spending(ctx, "u1", 30, 5)
	require.NoError(t, err)
	loads := f.counting.lists.Load()
	assert.Equal(t, int32(2), loads, "window and quarter are loaded once each")

	_, err = f.insights.Spending(ctx, "u1", 30, 5)
	require.NoError(t, err)
	assert.Equal(t, loads, f.counting.lists.Load(), "second call is served from cache")

	_, err = f.insights.Spending(ctx, "u1", 7, 5)
	require.NoError(t, err)
	assert.Equal(t, loads+2, f.counting.lists.Load(), "different window is a different key")

	f.createTransaction(t, "u1", core.Expense, "Food", "20", days(0))
	got, err := f.insights.Spending(ctx, "u1", 30, 5)
	require.NoError(t, err)
	assert.True(t, got.TotalSpending.Equal(dec("30")), "write invalidates the owner's entries")
}

func TestInsightService_ConcurrentMissesShareLoad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createTransaction(t, "u1", core.Expense, "Food", "10", days(-1))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.insights.Monthly(ctx, "u1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Every caller either joined the in-flight load or hit the cache it filled.
	assert.Equal(t, int32(1), f.counting.lists.Load())
}

func TestInsightService_Monthly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createTransaction(t, "u1", core.Income, "Salary", "1000", days(-1))
	f.createTransaction(t, "u1", core.Expense, "Rent", "400", days(-2))
	f.createTransaction(t, "u1", core.Expense, "Food", "100", testNow.AddDate(0, -1, 0))

	got, err := f.insights.Monthly(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got.Labels, 12)
	assert.Equal(t, "Jun 2026", got.Labels[11])
	assert.True(t, got.Income[11].Equal(dec("1000")))
	assert.True(t, got.Expenses[11].Equal(dec("400")))
	assert.True(t, got.Savings[11].Equal(dec("600")))
	assert.True(t, got.Expenses[10].Equal(dec("100")))
}

func TestInsightService_Patterns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createTransaction(t, "u1", core.Expense, "Shopping", "800", days(-1))

	got, err := f.insights.Patterns(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got.Forecast, "not enough daily points for a forecast")
	require.Len(t, got.Recommendations, 1)
	assert.Equal(t, "Shopping", got.Recommendations[0].Category)
}
