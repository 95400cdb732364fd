package sheets

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerMirror appends an audit trail of ledger changes to an external
	// spreadsheet. Rows are append-only; a deletion is recorded as a row.
	LedgerMirror interface {
		AppendTransaction(ctx context.Context, action string, t core.Transaction, at time.Time) (rowRef string, err error)
		AppendBadge(ctx context.Context, b core.Badge, points int64) (rowRef string, err error)
	}
)

// Column layout shared by every mirror implementation.
var (
	TransactionHeader = []string{"Recorded At", "Action", "Transaction ID", "Owner", "Date", "Type", "Category", "Amount", "Description", "Tags"}
	BadgeHeader       = []string{"Earned At", "Badge ID", "Owner", "Challenge ID", "Name", "Category", "Points"}
)
