package services

import (
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// ProgressRule is the strategy for automatic progress tracking of one
// challenge type. Types without a registered rule (streak, custom) are only
// moved by the manual progress endpoint.
type ProgressRule interface {
	// Affects reports whether t counts toward c.
	Affects(c core.Challenge, t core.Transaction) bool
	// Derive recomputes c's accumulated amount from the owner's transactions.
	Derive(c core.Challenge, txs []core.Transaction) decimal.Decimal
}

// MatchingSumRule sums the amounts of matching transactions inside the
// challenge window.
type MatchingSumRule struct{}

func (MatchingSumRule) Affects(c core.Challenge, t core.Transaction) bool {
	return c.Affects(t)
}

func (MatchingSumRule) Derive(c core.Challenge, txs []core.Transaction) decimal.Decimal {
	return core.DeriveProgress(c, txs)
}

var progressRules = map[core.ChallengeType]ProgressRule{
	core.ChallengeSavings:          MatchingSumRule{},
	core.ChallengeExpenseReduction: MatchingSumRule{},
}

// GetProgressRule returns the rule for a challenge type; false when the type
// is not tracked automatically.
func GetProgressRule(t core.ChallengeType) (ProgressRule, bool) {
	rule, ok := progressRules[t]
	return rule, ok
}

// RegisterProgressRule installs a rule for a challenge type. Call it during
// startup, before any service runs.
func RegisterProgressRule(t core.ChallengeType, rule ProgressRule) {
	progressRules[t] = rule
}
