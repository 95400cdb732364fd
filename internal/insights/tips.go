package insights

import (
	"fmt"
	"sort"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

var savingSuggestions = map[string][]string{
	"Food": {
		"Plan meals in advance and create a shopping list",
		"Cook meals at home instead of eating out",
		"Buy groceries in bulk when on sale",
	},
	"Entertainment": {
		"Look for free local events and activities",
		"Use streaming services instead of multiple subscriptions",
		"Take advantage of happy hours and discounts",
	},
	"Shopping": {
		"Wait for sales and compare prices online",
		"Use cashback apps and reward programs",
		"Consider second-hand or refurbished items",
	},
	"Transportation": {
		"Use public transportation when possible",
		"Carpool or use ride-sharing services",
		"Plan trips efficiently to save fuel",
	},
	"Utilities": {
		"Use energy-efficient appliances",
		"Monitor and adjust thermostat settings",
		"Fix leaks and maintain appliances regularly",
	},
}

var genericSuggestions = []string{
	"Track your spending in this category",
	"Set a monthly budget",
	"Look for alternatives or bulk deals",
}

// Suggestions returns canned saving ideas for a category.
func Suggestions(category string) []string {
	if s, ok := savingSuggestions[category]; ok {
		return append([]string(nil), s...)
	}
	return append([]string(nil), genericSuggestions...)
}

// SavingTips flags categories whose monthly spend spikes above 1.5x their
// monthly average, then adds suggestions for the three largest categories.
func SavingTips(txs []core.Transaction) []Tip {
	monthly := make(map[string]map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		month := t.Date.UTC().Format("2006-01")
		if monthly[month] == nil {
			monthly[month] = make(map[string]decimal.Decimal)
		}
		monthly[month][t.Category] = monthly[month][t.Category].Add(t.Amount)
	}

	ranked, _ := CategoryTotals(txs)
	tips := make([]Tip, 0)
	if len(monthly) == 0 {
		return tips
	}

	names := make([]string, 0, len(ranked))
	for _, c := range ranked {
		names = append(names, c.Category)
	}
	sort.Strings(names)

	months := decimal.NewFromInt(int64(len(monthly)))
	limit := decimal.NewFromFloat(spikeFactor)
	for _, category := range names {
		sum, peak := decimal.Zero, decimal.Zero
		for _, perCategory := range monthly {
			v := perCategory[category]
			sum = sum.Add(v)
			if v.GreaterThan(peak) {
				peak = v
			}
		}
		avg := sum.Div(months)
		if peak.GreaterThan(avg.Mul(limit)) {
			tips = append(tips, Tip{
				Category: category,
				Tip:      fmt.Sprintf("Your %s spending occasionally spikes. Consider setting a monthly budget of %s.", category, avg.StringFixed(2)),
			})
		}
	}

	for i, c := range ranked {
		if i == topTipCategoryCount {
			break
		}
		tips = append(tips, Tip{
			Category:    c.Category,
			Tip:         fmt.Sprintf("%s is one of your top expenses. Here are some ways to save:", c.Category),
			Suggestions: Suggestions(c.Category),
		})
	}
	return tips
}
