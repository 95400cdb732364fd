package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Ports implemented by the storage adapters. Every lookup is scoped by owner;
// a record owned by someone else is reported as ErrNotFound.
type (
	TransactionRepository interface {
		CreateTransaction(ctx context.Context, t Transaction) error
		GetTransaction(ctx context.Context, ownerID, id string) (Transaction, error)
		UpdateTransaction(ctx context.Context, t Transaction) error
		DeleteTransaction(ctx context.Context, ownerID, id string) error
		// ListTransactions returns matching records ordered by date, newest first.
		ListTransactions(ctx context.Context, ownerID string, f TransactionFilter) ([]Transaction, error)
	}

	ChallengeRepository interface {
		CreateChallenge(ctx context.Context, c Challenge) error
		GetChallenge(ctx context.Context, ownerID, id string) (Challenge, error)
		ListChallenges(ctx context.Context, ownerID string) ([]Challenge, error)
		// ListActiveChallenges returns active challenges with EndDate >= now.
		ListActiveChallenges(ctx context.Context, ownerID string, now time.Time) ([]Challenge, error)
		// ListExpiredChallenges returns active challenges of every owner with EndDate < now.
		ListExpiredChallenges(ctx context.Context, now time.Time) ([]Challenge, error)
		SetProgress(ctx context.Context, ownerID, id string, amount decimal.Decimal) error
		// CompleteChallenge moves an active challenge to completed and stores the
		// badge in one atomic step. It returns false, without writing anything,
		// when the challenge was no longer active.
		CompleteChallenge(ctx context.Context, c Challenge, amount decimal.Decimal, badge Badge) (bool, error)
		// FailChallenge moves an active challenge to failed; false when it was not active.
		FailChallenge(ctx context.Context, ownerID, id string, amount decimal.Decimal) (bool, error)
		DeleteChallenge(ctx context.Context, ownerID, id string) error
	}

	BadgeRepository interface {
		ListBadges(ctx context.Context, ownerID string) ([]Badge, error)
	}

	SettingsRepository interface {
		// GetSettings returns ErrNotFound when the owner has no record yet.
		GetSettings(ctx context.Context, ownerID string) (Settings, error)
		SaveSettings(ctx context.Context, s Settings) error
	}

	Repository interface {
		TransactionRepository
		ChallengeRepository
		BadgeRepository
		SettingsRepository
		Ping(ctx context.Context) error
		Close() error
	}
)
