package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BadgeAwarder completes challenges and issues their badge.
type BadgeAwarder struct {
	repo      core.ChallengeRepository
	publisher EventPublisher
	now       func() time.Time
	newID     func() string
}

func NewBadgeAwarder(repo core.ChallengeRepository, publisher EventPublisher) *BadgeAwarder {
	return &BadgeAwarder{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// AwardChallengeBadge moves c from active to completed with the given final
// amount and stores its badge in the same atomic step. Exactly one concurrent
// caller wins; the others get an error wrapping core.ErrNotActive and no
// badge is written.
func (a *BadgeAwarder) AwardChallengeBadge(ctx context.Context, c core.Challenge, amount decimal.Decimal) (core.Challenge, core.Badge, error) {
	now := a.now().UTC()
	badge := core.NewChallengeBadge(c, now)
	badge.ID = a.newID()

	awarded, err := a.repo.CompleteChallenge(ctx, c, amount, badge)
	if err != nil {
		return c, core.Badge{}, fmt.Errorf("complete challenge %s: %w", c.ID, err)
	}
	if !awarded {
		slog.DebugContext(ctx, "Challenge already settled, no badge issued",
			log.FieldComponent, log.ComponentRewards,
			log.FieldOperation, log.OpAward,
			log.FieldErrorType, log.ErrorTypeConflict,
			log.FieldChallengeID, c.ID,
			log.FieldOwnerID, c.OwnerID)
		return c, core.Badge{}, fmt.Errorf("complete challenge %s: %w", c.ID, core.ErrNotActive)
	}

	c.Status = core.StatusCompleted
	c.CurrentAmount = amount
	c.CompletedAt = &now

	log.NewStructuredLogger(log.FromContext(ctx)).LogBadgeAwarded(ctx, c.OwnerID, c.ID, badge.ID)

	if a.publisher != nil {
		if err := a.publisher.PublishBadgeAwarded(ctx, amqp.NewBadgeAwardedEvent(badge, c)); err != nil {
			slog.ErrorContext(ctx, "Failed to publish badge event",
				log.FieldComponent, log.ComponentRewards,
				log.FieldOperation, log.OpPublish,
				log.FieldErrorType, log.ErrorTypeNetwork,
				log.FieldBadgeID, badge.ID,
				log.FieldError, err)
		}
	}
	return c, badge, nil
}
