package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"

	"github.com/shopspring/decimal"
)

// ChallengeTracker keeps challenge progress in step with the transaction set.
type ChallengeTracker struct {
	challenges   core.ChallengeRepository
	transactions core.TransactionRepository
	awarder      *BadgeAwarder
	now          func() time.Time
}

func NewChallengeTracker(challenges core.ChallengeRepository, transactions core.TransactionRepository, awarder *BadgeAwarder) *ChallengeTracker {
	return &ChallengeTracker{
		challenges:   challenges,
		transactions: transactions,
		awarder:      awarder,
		now:          time.Now,
	}
}

// RecordTransaction re-evaluates the owner's active challenges that tx
// affects and returns them with their new state. A challenge whose derived
// amount reaches its target is completed and awarded a badge.
func (t *ChallengeTracker) RecordTransaction(ctx context.Context, ownerID string, tx core.Transaction) ([]core.Challenge, error) {
	active, err := t.challenges.ListActiveChallenges(ctx, ownerID, t.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list active challenges: %w", err)
	}

	affected := make([]core.Challenge, 0)
	for _, c := range active {
		rule, ok := GetProgressRule(c.Type)
		if !ok || !rule.Affects(c, tx) {
			continue
		}
		updated, err := t.evaluate(ctx, c, rule)
		if err != nil {
			return affected, err
		}
		affected = append(affected, updated)
	}

	if len(affected) > 0 {
		slog.InfoContext(ctx, "Challenges re-evaluated",
			log.FieldComponent, log.ComponentRewards,
			log.FieldOperation, log.OpEvaluate,
			log.FieldOwnerID, ownerID,
			log.FieldTransactionID, tx.ID,
			"count", len(affected))
	}
	return affected, nil
}

func (t *ChallengeTracker) evaluate(ctx context.Context, c core.Challenge, rule ProgressRule) (core.Challenge, error) {
	amount, err := t.derive(ctx, c, rule)
	if err != nil {
		return c, err
	}

	if c.Reached(amount) {
		updated, _, err := t.awarder.AwardChallengeBadge(ctx, c, amount)
		if errors.Is(err, core.ErrNotActive) {
			// Someone else settled it first; report the stored state.
			return t.challenges.GetChallenge(ctx, c.OwnerID, c.ID)
		}
		if err != nil {
			return c, err
		}
		return updated, nil
	}

	if !amount.Equal(c.CurrentAmount) {
		if err := t.challenges.SetProgress(ctx, c.OwnerID, c.ID, amount); err != nil {
			return c, fmt.Errorf("store progress for %s: %w", c.ID, err)
		}
		c.CurrentAmount = amount
	}
	return c, nil
}

// Derive recomputes c's amount from the transaction set without storing it.
// Challenge types without automatic tracking report their stored amount.
func (t *ChallengeTracker) Derive(ctx context.Context, c core.Challenge) (decimal.Decimal, error) {
	rule, ok := GetProgressRule(c.Type)
	if !ok {
		return c.CurrentAmount, nil
	}
	return t.derive(ctx, c, rule)
}

func (t *ChallengeTracker) derive(ctx context.Context, c core.Challenge, rule ProgressRule) (decimal.Decimal, error) {
	txs, err := t.transactions.ListTransactions(ctx, c.OwnerID, core.TransactionFilter{
		From: c.StartDate,
		To:   c.EndDate,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("list transactions for challenge %s: %w", c.ID, err)
	}
	return rule.Derive(c, txs), nil
}

// Settle closes a challenge whose window has ended: completed when the
// derived amount reached the target, failed otherwise. A challenge that is
// no longer active is left untouched.
func (t *ChallengeTracker) Settle(ctx context.Context, c core.Challenge) (core.ChallengeStatus, error) {
	amount, err := t.Derive(ctx, c)
	if err != nil {
		return c.Status, err
	}

	if c.Reached(amount) {
		_, _, err := t.awarder.AwardChallengeBadge(ctx, c, amount)
		if errors.Is(err, core.ErrNotActive) {
			return c.Status, nil
		}
		if err != nil {
			return c.Status, err
		}
		return core.StatusCompleted, nil
	}

	failed, err := t.challenges.FailChallenge(ctx, c.OwnerID, c.ID, amount)
	if err != nil {
		return c.Status, fmt.Errorf("fail challenge %s: %w", c.ID, err)
	}
	if !failed {
		return c.Status, nil
	}
	slog.InfoContext(ctx, "Challenge failed",
		log.FieldComponent, log.ComponentSweeper,
		log.FieldOperation, log.OpSweep,
		log.FieldChallengeID, c.ID,
		log.FieldOwnerID, c.OwnerID,
		log.FieldStatus, string(core.StatusFailed),
		log.FieldAmount, amount.String(),
		"target", c.TargetAmount.String())
	return core.StatusFailed, nil
}
