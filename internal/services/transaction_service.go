package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"

	"github.com/google/uuid"
)

// Invalidator drops derived data cached for an owner.
type Invalidator interface {
	Invalidate(ctx context.Context, ownerID string)
}

// TransactionService orchestrates transaction writes: persistence first,
// then challenge evaluation, event publishing and cache invalidation. Only
// the persistence step can fail the request.
type TransactionService struct {
	repo        core.TransactionRepository
	tracker     *ChallengeTracker
	publisher   EventPublisher
	invalidator Invalidator
	now         func() time.Time
	newID       func() string
}

func NewTransactionService(repo core.TransactionRepository, tracker *ChallengeTracker, publisher EventPublisher, invalidator Invalidator) *TransactionService {
	return &TransactionService{
		repo:        repo,
		tracker:     tracker,
		publisher:   publisher,
		invalidator: invalidator,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Create validates and stores a new transaction for ownerID, then
// re-evaluates the owner's challenges. A zero Date defaults to now.
func (s *TransactionService) Create(ctx context.Context, ownerID string, t core.Transaction) (core.Transaction, error) {
	now := s.now().UTC()
	t.ID = s.newID()
	t.OwnerID = ownerID
	if t.Date.IsZero() {
		t.Date = now
	}
	t.Date = t.Date.UTC()
	t.Category = strings.TrimSpace(t.Category)
	t.Description = strings.TrimSpace(t.Description)
	t.Tags = core.NormalizeTags(t.Tags)
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.repo.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.logWrite(ctx, log.OpCreate, t)

	if s.tracker != nil {
		if _, err := s.tracker.RecordTransaction(ctx, ownerID, t); err != nil {
			// The transaction stays stored; progress catches up on the next write.
			slog.ErrorContext(ctx, "Challenge evaluation failed",
				log.FieldComponent, log.ComponentRewards,
				log.FieldOperation, log.OpEvaluate,
				log.FieldOwnerID, ownerID,
				log.FieldTransactionID, t.ID,
				log.FieldError, err)
		}
	}

	s.afterWrite(ctx, amqp.ActionCreated, t)
	return t, nil
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	return s.repo.GetTransaction(ctx, ownerID, id)
}

func (s *TransactionService) List(ctx context.Context, ownerID string, f core.TransactionFilter) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, ownerID, f)
}

// Update applies patch to an existing transaction. Challenge progress is not
// re-evaluated here; the next create or a read of the derived amount picks
// the change up.
func (s *TransactionService) Update(ctx context.Context, ownerID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	current, err := s.repo.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	t := patch.Apply(current)
	t.UpdatedAt = s.now().UTC()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.repo.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.logWrite(ctx, log.OpUpdate, t)
	s.afterWrite(ctx, amqp.ActionUpdated, t)
	return t, nil
}

// Delete removes a transaction. Like Update, it leaves stored challenge
// progress as it is.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	current, err := s.repo.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTransaction(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.logWrite(ctx, log.OpDelete, current)
	s.afterWrite(ctx, amqp.ActionDeleted, current)
	return nil
}

func (s *TransactionService) logWrite(ctx context.Context, op string, t core.Transaction) {
	log.NewStructuredLogger(log.FromContext(ctx)).
		LogTransactionWritten(ctx, op, t.OwnerID, t.ID, string(t.Type), t.Amount.String(), t.Category)
}

func (s *TransactionService) afterWrite(ctx context.Context, action amqp.TransactionAction, t core.Transaction) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, t.OwnerID)
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(action, t)); err != nil {
		// Don't fail the request - the transaction is stored
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldComponent, log.ComponentTransactions,
			log.FieldOperation, log.OpPublish,
			log.FieldErrorType, log.ErrorTypeNetwork,
			log.FieldTransactionID, t.ID,
			"action", action,
			log.FieldError, err)
	}
}
