package services

import (
	"context"

	"fintrack/internal/amqp"
)

// EventPublisher is the outbound event port. The services accept a nil
// publisher and skip publishing.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, msg *amqp.TransactionEvent) error
	PublishBadgeAwarded(ctx context.Context, msg *amqp.BadgeAwardedEvent) error
}

var _ EventPublisher = (*amqp.Client)(nil)
