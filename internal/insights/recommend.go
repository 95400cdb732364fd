package insights

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	categoryShareLimit = decimal.NewFromInt(30)
	savingsRateFloor   = decimal.NewFromInt(20)
)

const (
	msgOverspend   = "Your expenses exceed your income. Try to identify non-essential expenses you can reduce."
	msgLowSavings  = "Your savings rate is less than 20% of your income over the last 3 months. Consider ways to increase your savings."
	msgHealthy     = "Your spending patterns look healthy! Keep monitoring your expenses and maintain your saving habits."
	msgCategoryFmt = "Your spending in %s (%s%% of total) seems high. Consider setting a budget for this category."
)

// Recommend applies the fixed heuristics: flag categories above 30% of spend,
// flag negative savings in the window, otherwise flag a three-month savings
// rate under 20%. When nothing is flagged a single healthy message is returned.
func Recommend(categories []CategoryTotal, windowSavings decimal.Decimal, rate3m *decimal.Decimal) []string {
	out := make([]string, 0, len(categories)+1)
	for _, c := range categories {
		if c.Percentage.GreaterThan(categoryShareLimit) {
			out = append(out, fmt.Sprintf(msgCategoryFmt, c.Category, c.Percentage.StringFixed(1)))
		}
	}

	switch {
	case windowSavings.IsNegative():
		out = append(out, msgOverspend)
	case rate3m != nil && rate3m.LessThan(savingsRateFloor):
		out = append(out, msgLowSavings)
	}

	if len(out) == 0 {
		out = append(out, msgHealthy)
	}
	return out
}
