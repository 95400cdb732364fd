package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// EventWorker mirrors domain events from the queue into the ledger
// spreadsheet. Handler errors are returned so the delivery is requeued.
type EventWorker struct {
	mirror sheets.LedgerMirror
	logger *log.Logger

	transactionsMirrored atomic.Int64
	badgesMirrored       atomic.Int64
	failures             atomic.Int64
}

// Stats is a point-in-time view of the worker counters.
type Stats struct {
	TransactionsMirrored int64
	BadgesMirrored       int64
	Failures             int64
}

func NewEventWorker(mirror sheets.LedgerMirror, logger *log.Logger) *EventWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &EventWorker{
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Handlers wires the worker into amqp.Client.Consume.
func (w *EventWorker) Handlers() amqp.Handlers {
	return amqp.Handlers{
		Transaction: w.HandleTransactionEvent,
		Badge:       w.HandleBadgeAwarded,
	}
}

// HandleTransactionEvent appends one audit row per transaction change.
func (w *EventWorker) HandleTransactionEvent(ctx context.Context, msg *amqp.TransactionEvent) error {
	if msg == nil {
		return errors.New("nil transaction event")
	}

	w.logger.InfoContext(ctx, "Processing transaction event",
		"action", msg.Action,
		log.FieldTransactionID, msg.Transaction.ID,
		log.FieldOwnerID, msg.Transaction.OwnerID)

	ref, err := w.mirror.AppendTransaction(ctx, string(msg.Action), msg.Transaction, msg.Timestamp)
	if err != nil {
		w.failures.Add(1)
		return fmt.Errorf("mirror transaction %s: %w", msg.Transaction.ID, err)
	}
	w.transactionsMirrored.Add(1)

	w.logger.InfoContext(ctx, "Transaction mirrored",
		log.FieldOperation, log.OpAppend,
		log.FieldTransactionID, msg.Transaction.ID,
		log.FieldSheetsRef, ref)
	return nil
}

// HandleBadgeAwarded records the badge and emits the user notification.
func (w *EventWorker) HandleBadgeAwarded(ctx context.Context, msg *amqp.BadgeAwardedEvent) error {
	if msg == nil {
		return errors.New("nil badge event")
	}

	ref, err := w.mirror.AppendBadge(ctx, msg.Badge, msg.Points)
	if err != nil {
		w.failures.Add(1)
		return fmt.Errorf("mirror badge %s: %w", msg.Badge.ID, err)
	}
	w.badgesMirrored.Add(1)

	w.logger.InfoContext(ctx, "Badge earned notification",
		log.FieldOperation, log.OpAppend,
		log.FieldOwnerID, msg.Badge.OwnerID,
		log.FieldBadgeID, msg.Badge.ID,
		"badge", msg.Badge.Name,
		"challenge", msg.ChallengeTitle,
		"points", msg.Points,
		log.FieldSheetsRef, ref)
	return nil
}

func (w *EventWorker) Stats() Stats {
	return Stats{
		TransactionsMirrored: w.transactionsMirrored.Load(),
		BadgesMirrored:       w.badgesMirrored.Load(),
		Failures:             w.failures.Load(),
	}
}
