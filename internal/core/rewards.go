package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var basePoints = map[ChallengeType]int64{
	ChallengeSavings:          10,
	ChallengeExpenseReduction: 8,
	ChallengeStreak:           5,
	ChallengeCustom:           6,
}

var badgeIcons = map[ChallengeType]string{
	ChallengeSavings:          "💰",
	ChallengeExpenseReduction: "📉",
	ChallengeStreak:           "🔥",
	ChallengeCustom:           "🎯",
}

const defaultBadgeIcon = "🏆"

// RewardPoints computes floor(target * base / 100) for the challenge type.
// Unknown types earn no points.
func RewardPoints(t ChallengeType, target decimal.Decimal) int64 {
	base, ok := basePoints[t]
	if !ok {
		return 0
	}
	return target.Mul(decimal.NewFromInt(base)).Div(hundred).Floor().IntPart()
}

// BadgeIcon returns the icon shown on a badge earned by completing a challenge of type t.
func BadgeIcon(t ChallengeType) string {
	if icon, ok := badgeIcons[t]; ok {
		return icon
	}
	return defaultBadgeIcon
}

// NewChallengeBadge builds the badge record for a completed challenge.
// The caller assigns the ID.
func NewChallengeBadge(c Challenge, earnedAt time.Time) Badge {
	return Badge{
		OwnerID:     c.OwnerID,
		ChallengeID: c.ID,
		Name:        fmt.Sprintf("%s Champion", c.Title),
		Description: fmt.Sprintf("Completed the %s challenge", c.Title),
		Icon:        BadgeIcon(c.Type),
		Category:    BadgeChallenge,
		EarnedAt:    earnedAt.UTC(),
		Completed:   true,
	}
}
