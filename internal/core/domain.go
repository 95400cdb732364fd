package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	ChallengeSavings          ChallengeType = "savings"
	ChallengeExpenseReduction ChallengeType = "expense_reduction"
	ChallengeStreak           ChallengeType = "streak"
	ChallengeCustom           ChallengeType = "custom"
)

const (
	StatusActive    ChallengeStatus = "active"
	StatusCompleted ChallengeStatus = "completed"
	StatusFailed    ChallengeStatus = "failed"
)

const (
	BadgeSavings   BadgeCategory = "savings"
	BadgeBudget    BadgeCategory = "budget"
	BadgeStreak    BadgeCategory = "streak"
	BadgeChallenge BadgeCategory = "challenge"
)

// SavingsCategory is the transaction category that feeds savings challenges.
const SavingsCategory = "Savings"

const maxDescriptionLen = 200

type (
	TransactionType string
	ChallengeType   string
	ChallengeStatus string
	BadgeCategory   string

	Transaction struct {
		ID          string          `json:"id"`
		OwnerID     string          `json:"ownerId"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        time.Time       `json:"date"`
		Tags        []string        `json:"tags"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}

	Reward struct {
		Points int64 `json:"points"`
	}

	Challenge struct {
		ID            string          `json:"id"`
		OwnerID       string          `json:"ownerId"`
		Title         string          `json:"title"`
		Description   string          `json:"description"`
		Type          ChallengeType   `json:"type"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
		StartDate     time.Time       `json:"startDate"`
		EndDate       time.Time       `json:"endDate"`
		Status        ChallengeStatus `json:"status"`
		Reward        Reward          `json:"reward"`
		CompletedAt   *time.Time      `json:"completedAt,omitempty"`
		CreatedAt     time.Time       `json:"createdAt"`
	}

	Badge struct {
		ID          string        `json:"id"`
		OwnerID     string        `json:"ownerId"`
		ChallengeID string        `json:"challengeId,omitempty"`
		Name        string        `json:"name"`
		Description string        `json:"description"`
		Icon        string        `json:"icon"`
		Category    BadgeCategory `json:"category"`
		EarnedAt    time.Time     `json:"earnedAt"`
		Completed   bool          `json:"completed"`
	}
)

// ValidationError is a client-correctable input problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	ErrInvalidType          = &ValidationError{Field: "type", Message: "Type must be either income or expense"}
	ErrInvalidAmount        = &ValidationError{Field: "amount", Message: "Amount must be a positive number"}
	ErrEmptyCategory        = &ValidationError{Field: "category", Message: "Category is required"}
	ErrDescriptionTooLong   = &ValidationError{Field: "description", Message: "Description too long (max 200 characters)"}
	ErrEmptyTitle           = &ValidationError{Field: "title", Message: "Title is required"}
	ErrInvalidChallengeType = &ValidationError{Field: "type", Message: "Invalid challenge type"}
	ErrInvalidTarget        = &ValidationError{Field: "targetAmount", Message: "Target amount must be a positive number"}
	ErrInvalidDateRange     = &ValidationError{Field: "endDate", Message: "End date must not be before start date"}
	ErrNegativeProgress     = &ValidationError{Field: "currentAmount", Message: "Current amount must be a non-negative number"}
	ErrMissingDate          = &ValidationError{Field: "date", Message: "Date is required"}
	ErrMissingStartDate     = &ValidationError{Field: "startDate", Message: "Start date is required"}
	ErrMissingEndDate       = &ValidationError{Field: "endDate", Message: "End date is required"}

	ErrNotFound         = errors.New("not found")
	ErrAlreadyCompleted = errors.New("challenge already completed")
	ErrNotActive        = errors.New("challenge is not active")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t ChallengeType) Valid() bool {
	switch t {
	case ChallengeSavings, ChallengeExpenseReduction, ChallengeStreak, ChallengeCustom:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

func (c Challenge) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	if !c.Type.Valid() {
		return ErrInvalidChallengeType
	}
	if !c.TargetAmount.IsPositive() {
		return ErrInvalidTarget
	}
	if c.CurrentAmount.IsNegative() {
		return ErrNegativeProgress
	}
	if c.StartDate.IsZero() {
		return ErrMissingStartDate
	}
	if c.EndDate.IsZero() {
		return ErrMissingEndDate
	}
	if c.EndDate.Before(c.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// NormalizeTags trims tags and drops empty ones.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// TransactionPatch carries the fields of a partial update; nil means unchanged.
type TransactionPatch struct {
	Type        *TransactionType
	Amount      *decimal.Decimal
	Category    *string
	Description *string
	Date        *time.Time
	Tags        *[]string
}

// Apply returns a copy of t with the patch applied.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = strings.TrimSpace(*p.Category)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Date != nil {
		t.Date = p.Date.UTC()
	}
	if p.Tags != nil {
		t.Tags = NormalizeTags(*p.Tags)
	}
	return t
}

// TransactionFilter narrows a transaction listing. Zero values mean no constraint.
type TransactionFilter struct {
	Type     TransactionType
	Category string
	From     time.Time
	To       time.Time
	Min      decimal.Decimal
	Max      decimal.Decimal
	Query    string
}

// Match reports whether t satisfies every constraint of the filter.
func (f TransactionFilter) Match(t Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To) {
		return false
	}
	if !f.Min.IsZero() && t.Amount.LessThan(f.Min) {
		return false
	}
	if !f.Max.IsZero() && t.Amount.GreaterThan(f.Max) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(t.Description), q) &&
			!strings.Contains(strings.ToLower(t.Category), q) {
			return false
		}
	}
	return true
}
