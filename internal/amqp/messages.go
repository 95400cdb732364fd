package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// Routing keys on the fintrack exchange.
const (
	RoutingTransactionChanged = "transaction.changed"
	RoutingBadgeAwarded       = "badge.awarded"
)

type TransactionAction string

const (
	ActionCreated TransactionAction = "created"
	ActionUpdated TransactionAction = "updated"
	ActionDeleted TransactionAction = "deleted"
)

// TransactionEvent carries a full snapshot of the record, so consumers never
// need to read it back (deleted records are gone by the time it is consumed).
type TransactionEvent struct {
	Action      TransactionAction `json:"action"`
	Transaction core.Transaction  `json:"transaction"`
	Timestamp   time.Time         `json:"timestamp"`
}

// BadgeAwardedEvent announces a newly earned badge.
type BadgeAwardedEvent struct {
	Badge          core.Badge `json:"badge"`
	ChallengeTitle string     `json:"challengeTitle"`
	Points         int64      `json:"points"`
	Timestamp      time.Time  `json:"timestamp"`
}

func NewTransactionEvent(action TransactionAction, t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Action:      action,
		Transaction: t,
		Timestamp:   time.Now().UTC(),
	}
}

func NewBadgeAwardedEvent(b core.Badge, c core.Challenge) *BadgeAwardedEvent {
	return &BadgeAwardedEvent{
		Badge:          b,
		ChallengeTitle: c.Title,
		Points:         c.Reward.Points,
		Timestamp:      time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes a transaction event
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ToJSON converts the message to JSON bytes
func (m *BadgeAwardedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BadgeAwardedEventFromJSON decodes a badge event
func BadgeAwardedEventFromJSON(data []byte) (*BadgeAwardedEvent, error) {
	var msg BadgeAwardedEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
