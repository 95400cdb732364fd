package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavingsChallengeCompletesOnce(t *testing.T) {
	f := newFixture(t)
	c := f.createChallenge(t, "u1", "Emergency Fund", core.ChallengeSavings, "1000", days(-10), days(20))
	assert.Equal(t, int64(100), c.Reward.Points)

	f.createTransaction(t, "u1", core.Income, core.SavingsCategory, "1000", days(-1))

	got := f.challenge(t, "u1", c.ID)
	assert.Equal(t, core.StatusCompleted, got.Status)
	assert.True(t, got.CurrentAmount.Equal(dec("1000")))
	require.NotNil(t, got.CompletedAt)

	badges := f.badges(t, "u1")
	require.Len(t, badges, 1)
	assert.Equal(t, core.BadgeChallenge, badges[0].Category)
	assert.Equal(t, "Emergency Fund Champion", badges[0].Name)
	assert.Equal(t, "💰", badges[0].Icon)
	assert.Equal(t, c.ID, badges[0].ChallengeID)
	assert.True(t, badges[0].Completed)
	assert.Equal(t, 1, f.publisher.badgeCount())

	// Further transactions leave the completed challenge alone.
	f.createTransaction(t, "u1", core.Expense, "Food", "50", days(0))
	f.createTransaction(t, "u1", core.Income, core.SavingsCategory, "500", days(0))

	assert.Equal(t, core.StatusCompleted, f.challenge(t, "u1", c.ID).Status)
	assert.Len(t, f.badges(t, "u1"), 1)
	assert.Equal(t, 1, f.publisher.badgeCount())
}

func TestSavingsChallengeAccumulatesAcrossTransactions(t *testing.T) {
	f := newFixture(t)
	c := f.createChallenge(t, "u1", "Trip", core.ChallengeSavings, "1000", days(-10), days(20))

	f.createTransaction(t, "u1", core.Income, core.SavingsCategory, "400", days(-2))
	f.createTransaction(t, "u1", core.Income, "Salary", "3000", days(-2))
	f.createTransaction(t, "u1", core.Income, core.SavingsCategory, "100", days(-30)) // before the window

	got := f.challenge(t, "u1", c.ID)
	assert.Equal(t, core.StatusActive, got.Status)
	assert.True(t, got.CurrentAmount.Equal(dec("400")), "got %s", got.CurrentAmount)

	f.createTransaction(t, "u1", core.Income, core.SavingsCategory, "600", days(-1))
	assert.Equal(t, core.StatusCompleted, f.challenge(t, "u1", c.ID).Status)
}

func TestExpenseReductionTracksExpenses(t *testing.T) {
	f := newFixture(t)
	c := f.createChallenge(t, "u1", "Groceries", core.ChallengeExpenseReduction, "300", days(-5), days(5))

	f.createTransaction(t, "u1", core.Expense, "Food", "120", days(-1))
	f.createTransaction(t, "u1", core.Expense, "Fuel", "30", days(0))
	f.createTransaction(t, "u2", core.Expense, "Food", "999", days(0))

	got := f.challenge(t, "u1", c.ID)
	assert.True(t, got.CurrentAmount.Equal(dec("150")), "got %s", got.CurrentAmount)
	assert.Equal(t, core.StatusActive, got.Status)
}

func TestStreakChallengeIsNotTrackedAutomatically(t *testing.T) {
	f := newFixture(t)
	c := f.createChallenge(t, "u1", "No spend week", core.ChallengeStreak, "10", days(-1), days(6))

	f.createTransaction(t, "u1", core.Income, core.SavingsCategory, "100", days(0))
	f.createTransaction(t, "u1", core.Expense, "Food", "100", days(0))

	got := f.challenge(t, "u1", c.ID)
	assert.True(t, got.CurrentAmount.IsZero())
	assert.Equal(t, core.StatusActive, got.Status)
}

func TestDeleteDoesNotRecomputeUntilNextCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.createChallenge(t, "u1", "Fund", core.ChallengeSavings, "1000", days(-10), days(20))

	tx := f.createTransaction(t, "u1", core.Income, core.SavingsCategory, "400", days(-1))
	require.True(t, f.challenge(t, "u1", c.ID).CurrentAmount.Equal(dec("400")))

	require.NoError(t, f.transactions.Delete(ctx, "u1", tx.ID))
	assert.True(t, f.challenge(t, "u1", c.ID).CurrentAmount.Equal(dec("400")),
		"delete must not touch stored progress")

	detail, err := f.challenges.Get(ctx, "u1", c.ID)
	require.NoError(t, err)
	assert.True(t, detail.DerivedAmount.IsZero(), "derived amount reflects the deletion")

	f.createTransaction(t, "u1", core.Income, core.SavingsCategory, "100", days(0))
	assert.True(t, f.challenge(t, "u1", c.ID).CurrentAmount.Equal(dec("100")))
}

func TestDuplicateEvaluationAwardsAtMostOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.createChallenge(t, "u1", "Race", core.ChallengeSavings, "100", days(-10), days(20))

	tx := core.Transaction{
		ID: "tx-1", OwnerID: "u1", Type: core.Income, Category: core.SavingsCategory,
		Amount: dec("150"), Date: days(-1), CreatedAt: testNow,
	}
	require.NoError(t, f.store.CreateTransaction(ctx, tx))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.tracker.RecordTransaction(ctx, "u1", tx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, core.StatusCompleted, f.challenge(t, "u1", c.ID).Status)
	assert.Len(t, f.badges(t, "u1"), 1)
	assert.Equal(t, 1, f.publisher.badgeCount())
}

func TestRecordTransactionReturnsAffectedChallenges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	savings := f.createChallenge(t, "u1", "Fund", core.ChallengeSavings, "1000", days(-10), days(20))
	f.createChallenge(t, "u1", "Spend less", core.ChallengeExpenseReduction, "500", days(-10), days(20))

	tx := core.Transaction{
		ID: "tx-1", OwnerID: "u1", Type: core.Income, Category: core.SavingsCategory,
		Amount: dec("250"), Date: days(-1),
	}
	require.NoError(t, f.store.CreateTransaction(ctx, tx))

	affected, err := f.tracker.RecordTransaction(ctx, "u1", tx)
	require.NoError(t, err)
	require.Len(t, affected, 1)
	assert.Equal(t, savings.ID, affected[0].ID)
	assert.True(t, affected[0].CurrentAmount.Equal(dec("250")))
}

type failingChallenges struct {
	core.ChallengeRepository
}

func (failingChallenges) ListActiveChallenges(context.Context, string, time.Time) ([]core.Challenge, error) {
	return nil, errors.New("database is locked")
}

func TestCreateSurvivesTrackerFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tracker := NewChallengeTracker(failingChallenges{f.store}, f.store, f.awarder)
	svc := NewTransactionService(f.store, tracker, nil, nil)

	tx, err := svc.Create(ctx, "u1", core.Transaction{Type: core.Expense, Category: "Food", Amount: dec("10")})
	require.NoError(t, err)

	stored, err := f.store.GetTransaction(ctx, "u1", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", stored.Category)
}
