package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RewardsRepository is the storage the challenge service needs.
type RewardsRepository interface {
	core.ChallengeRepository
	core.BadgeRepository
}

// ChallengeDetail is a challenge together with its amount derived from the
// current transaction set.
type ChallengeDetail struct {
	core.Challenge
	DerivedAmount decimal.Decimal `json:"derivedAmount"`
}

// ChallengeService handles user-facing challenge and badge operations.
type ChallengeService struct {
	repo    RewardsRepository
	tracker *ChallengeTracker
	awarder *BadgeAwarder
	now     func() time.Time
	newID   func() string
}

func NewChallengeService(repo RewardsRepository, tracker *ChallengeTracker, awarder *BadgeAwarder) *ChallengeService {
	return &ChallengeService{
		repo:    repo,
		tracker: tracker,
		awarder: awarder,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Create stores a new active challenge. Reward points are computed from the
// type and target; a zero StartDate defaults to now.
func (s *ChallengeService) Create(ctx context.Context, ownerID string, in core.Challenge) (core.Challenge, error) {
	now := s.now().UTC()
	c := core.Challenge{
		ID:            s.newID(),
		OwnerID:       ownerID,
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Type:          in.Type,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: decimal.Zero,
		StartDate:     in.StartDate.UTC(),
		EndDate:       in.EndDate.UTC(),
		Status:        core.StatusActive,
		CreatedAt:     now,
	}
	if in.StartDate.IsZero() {
		c.StartDate = now
	}
	if err := c.Validate(); err != nil {
		return core.Challenge{}, err
	}
	c.Reward = core.Reward{Points: core.RewardPoints(c.Type, c.TargetAmount)}

	if err := s.repo.CreateChallenge(ctx, c); err != nil {
		return core.Challenge{}, fmt.Errorf("save challenge: %w", err)
	}

	slog.InfoContext(ctx, "Challenge created",
		log.FieldComponent, log.ComponentRewards,
		log.FieldOperation, log.OpCreate,
		log.FieldChallengeID, c.ID,
		log.FieldOwnerID, ownerID,
		log.FieldType, string(c.Type),
		"points", c.Reward.Points)
	return c, nil
}

func (s *ChallengeService) List(ctx context.Context, ownerID string) ([]core.Challenge, error) {
	return s.repo.ListChallenges(ctx, ownerID)
}

// Get returns the challenge with its amount derived at read time.
func (s *ChallengeService) Get(ctx context.Context, ownerID, id string) (ChallengeDetail, error) {
	c, err := s.repo.GetChallenge(ctx, ownerID, id)
	if err != nil {
		return ChallengeDetail{}, err
	}
	derived, err := s.tracker.Derive(ctx, c)
	if err != nil {
		return ChallengeDetail{}, err
	}
	return ChallengeDetail{Challenge: c, DerivedAmount: derived}, nil
}

func (s *ChallengeService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.DeleteChallenge(ctx, ownerID, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Challenge deleted",
		log.FieldComponent, log.ComponentRewards,
		log.FieldOperation, log.OpDelete,
		log.FieldChallengeID, id,
		log.FieldOwnerID, ownerID)
	return nil
}

// UpdateProgress overrides the stored amount of an active challenge.
// Reaching the target goes through the same completion path as automatic
// tracking. A settled challenge is left as is and reported with
// core.ErrAlreadyCompleted or core.ErrNotActive.
func (s *ChallengeService) UpdateProgress(ctx context.Context, ownerID, id string, amount decimal.Decimal) (core.Challenge, error) {
	if amount.IsNegative() {
		return core.Challenge{}, core.ErrNegativeProgress
	}

	c, err := s.repo.GetChallenge(ctx, ownerID, id)
	if err != nil {
		return core.Challenge{}, err
	}
	if err := c.SettledError(); err != nil {
		return c, err
	}

	if c.Reached(amount) {
		updated, _, err := s.awarder.AwardChallengeBadge(ctx, c, amount)
		if errors.Is(err, core.ErrNotActive) {
			// Settled between the read and the award.
			if cur, getErr := s.repo.GetChallenge(ctx, ownerID, id); getErr == nil {
				return cur, cur.SettledError()
			}
			return c, err
		}
		if err != nil {
			return core.Challenge{}, err
		}
		return updated, nil
	}

	if err := s.repo.SetProgress(ctx, ownerID, id, amount); err != nil {
		return core.Challenge{}, fmt.Errorf("store progress: %w", err)
	}
	return s.repo.GetChallenge(ctx, ownerID, id)
}

// Badges lists the owner's earned badges, newest first.
func (s *ChallengeService) Badges(ctx context.Context, ownerID string) ([]core.Badge, error) {
	return s.repo.ListBadges(ctx, ownerID)
}
