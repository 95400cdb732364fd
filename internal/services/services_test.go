package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/insights"
	"fintrack/internal/storage/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func days(n int) time.Time { return testNow.AddDate(0, 0, n) }

type recordingPublisher struct {
	mu           sync.Mutex
	transactions []*amqp.TransactionEvent
	badges       []*amqp.BadgeAwardedEvent
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, msg *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transactions = append(p.transactions, msg)
	return nil
}

func (p *recordingPublisher) PublishBadgeAwarded(_ context.Context, msg *amqp.BadgeAwardedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.badges = append(p.badges, msg)
	return nil
}

func (p *recordingPublisher) badgeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.badges)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishTransactionEvent(ctx context.Context, msg *amqp.TransactionEvent) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockPublisher) PublishBadgeAwarded(ctx context.Context, msg *amqp.BadgeAwardedEvent) error {
	return m.Called(ctx, msg).Error(0)
}

// countingTransactions counts list calls to observe cache hits.
type countingTransactions struct {
	core.TransactionRepository
	lists atomic.Int32
}

func (c *countingTransactions) ListTransactions(ctx context.Context, ownerID string, f core.TransactionFilter) ([]core.Transaction, error) {
	c.lists.Add(1)
	return c.TransactionRepository.ListTransactions(ctx, ownerID, f)
}

type fixture struct {
	store        *memory.Store
	publisher    *recordingPublisher
	counting     *countingTransactions
	awarder      *BadgeAwarder
	tracker      *ChallengeTracker
	transactions *TransactionService
	challenges   *ChallengeService
	insights     *InsightService
	settings     *SettingsService
	sweeper      *ChallengeSweeper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := func() time.Time { return testNow }

	f := &fixture{store: memory.New(), publisher: &recordingPublisher{}}
	f.counting = &countingTransactions{TransactionRepository: f.store}

	f.awarder = NewBadgeAwarder(f.store, f.publisher)
	f.awarder.now = clock
	f.tracker = NewChallengeTracker(f.store, f.store, f.awarder)
	f.tracker.now = clock

	caches, _ := NewLRUInsightCaches(100, time.Minute)
	f.insights = NewInsightService(f.counting, caches, insights.NewAnalyzer())
	f.insights.now = clock

	f.transactions = NewTransactionService(f.store, f.tracker, f.publisher, f.insights)
	f.transactions.now = clock
	f.challenges = NewChallengeService(f.store, f.tracker, f.awarder)
	f.challenges.now = clock
	f.settings = NewSettingsService(f.store)
	f.settings.now = clock
	f.sweeper = NewChallengeSweeper(f.store, f.tracker, ChallengeSweeperConfig{Interval: time.Hour})
	f.sweeper.now = clock
	return f
}

func (f *fixture) createChallenge(t *testing.T, owner, title string, typ core.ChallengeType, target string, start, end time.Time) core.Challenge {
	t.Helper()
	c, err := f.challenges.Create(context.Background(), owner, core.Challenge{
		Title:        title,
		Type:         typ,
		TargetAmount: dec(target),
		StartDate:    start,
		EndDate:      end,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) createTransaction(t *testing.T, owner string, typ core.TransactionType, category, amount string, date time.Time) core.Transaction {
	t.Helper()
	tx, err := f.transactions.Create(context.Background(), owner, core.Transaction{
		Type:     typ,
		Category: category,
		Amount:   dec(amount),
		Date:     date,
	})
	require.NoError(t, err)
	return tx
}

func (f *fixture) challenge(t *testing.T, owner, id string) core.Challenge {
	t.Helper()
	c, err := f.store.GetChallenge(context.Background(), owner, id)
	require.NoError(t, err)
	return c
}

func (f *fixture) badges(t *testing.T, owner string) []core.Badge {
	t.Helper()
	b, err := f.store.ListBadges(context.Background(), owner)
	require.NoError(t, err)
	return b
}
