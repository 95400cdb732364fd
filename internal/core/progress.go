package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Evaluable reports whether the challenge takes part in automatic
// progress tracking at time now.
func (c Challenge) Evaluable(now time.Time) bool {
	return c.Status == StatusActive && !c.EndDate.Before(now)
}

// Reached reports whether amount meets the challenge target.
func (c Challenge) Reached(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(c.TargetAmount)
}

// Affects reports whether a transaction of this kind counts toward the challenge.
// Only savings and expense_reduction challenges are tracked automatically.
func (c Challenge) Affects(t Transaction) bool {
	switch c.Type {
	case ChallengeSavings:
		return t.Type == Income && t.Category == SavingsCategory
	case ChallengeExpenseReduction:
		return t.Type == Expense
	}
	return false
}

// InWindow reports whether t falls within [StartDate, EndDate].
func (c Challenge) InWindow(t Transaction) bool {
	return !t.Date.Before(c.StartDate) && !t.Date.After(c.EndDate)
}

// DeriveProgress recomputes a challenge's accumulated amount from scratch:
// the sum of the owner's matching transactions dated inside the window.
// Calling it repeatedly on the same input always yields the same value.
func DeriveProgress(c Challenge, txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.OwnerID != c.OwnerID || !c.Affects(t) || !c.InWindow(t) {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total
}

// SettledError explains why a challenge no longer accepts progress: nil while
// it is active, ErrAlreadyCompleted once completed, ErrNotActive otherwise.
func (c Challenge) SettledError() error {
	switch c.Status {
	case StatusActive:
		return nil
	case StatusCompleted:
		return ErrAlreadyCompleted
	default:
		return ErrNotActive
	}
}
