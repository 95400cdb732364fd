package sheets

import (
	"strings"
	"time"

	"fintrack/internal/core"
)

// TransactionRow renders a transaction change in TransactionHeader order.
func TransactionRow(action string, t core.Transaction, at time.Time) []any {
	return []any{
		at.UTC().Format(time.RFC3339),
		action,
		t.ID,
		t.OwnerID,
		t.Date.UTC().Format("2006-01-02"),
		string(t.Type),
		t.Category,
		t.Amount.StringFixed(2),
		t.Description,
		strings.Join(t.Tags, ", "),
	}
}

// BadgeRow renders an awarded badge in BadgeHeader order.
func BadgeRow(b core.Badge, points int64) []any {
	return []any{
		b.EarnedAt.UTC().Format(time.RFC3339),
		b.ID,
		b.OwnerID,
		b.ChallengeID,
		b.Name,
		string(b.Category),
		points,
	}
}
