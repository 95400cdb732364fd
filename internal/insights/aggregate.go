// Package insights derives read-only spending statistics and recommendations
// from an owner's transactions. Everything here is a pure function of its
// input; fetching and caching live in the services layer.
package insights

import (
	"sort"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the spend in one category and its share of total spend.
type CategoryTotal struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Spending is the result of computeInsights over a window.
type Spending struct {
	From                  time.Time       `json:"from"`
	To                    time.Time       `json:"to"`
	TopSpendingCategories []CategoryTotal `json:"topSpendingCategories"`
	TotalSpending         decimal.Decimal `json:"totalSpending"`
	TotalIncome           decimal.Decimal `json:"totalIncome"`
	MonthlySavings        decimal.Decimal `json:"monthlySavings"`
	// SavingsRate3M is the percentage of income kept over the last three
	// calendar months; nil when there was no income in that period.
	SavingsRate3M   *decimal.Decimal `json:"savingsRate3m"`
	Recommendations []string         `json:"recommendations"`
}

// Totals sums income and expense amounts separately.
func Totals(txs []core.Transaction) (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			income = income.Add(t.Amount)
		case core.Expense:
			expense = expense.Add(t.Amount)
		}
	}
	return income, expense
}

// CategoryTotals groups expenses by category, sorted by amount descending
// (ties broken by name), with each category's percentage of total spend.
func CategoryTotals(txs []core.Transaction) ([]CategoryTotal, decimal.Decimal) {
	byCategory := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		byCategory[t.Category] = byCategory[t.Category].Add(t.Amount)
		total = total.Add(t.Amount)
	}

	out := make([]CategoryTotal, 0, len(byCategory))
	for category, amount := range byCategory {
		out = append(out, CategoryTotal{
			Category:   category,
			Amount:     amount,
			Percentage: core.Percentage(amount, total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out, total
}

// TopCategories returns the n largest spending categories.
func TopCategories(txs []core.Transaction, n int) []CategoryTotal {
	all, _ := CategoryTotals(txs)
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// SavingsRate returns (income - expense) / income as a percentage rounded to
// one decimal. ok is false when there is no income to measure against.
func SavingsRate(txs []core.Transaction) (rate decimal.Decimal, ok bool) {
	income, expense := Totals(txs)
	if !income.IsPositive() {
		return decimal.Zero, false
	}
	return core.Percentage(income.Sub(expense), income), true
}

// Compute builds the Spending summary. window holds the owner's transactions
// inside [from, to]; quarter holds those of the last three calendar months.
func Compute(window, quarter []core.Transaction, top int, from, to time.Time) Spending {
	categories, totalSpending := CategoryTotals(window)
	income, _ := Totals(window)
	savings := income.Sub(totalSpending)

	topCategories := categories
	if top >= 0 && len(topCategories) > top {
		topCategories = topCategories[:top:top]
	}

	s := Spending{
		From:                  from,
		To:                    to,
		TopSpendingCategories: topCategories,
		TotalSpending:         totalSpending,
		TotalIncome:           income,
		MonthlySavings:        savings,
	}
	if rate, ok := SavingsRate(quarter); ok {
		s.SavingsRate3M = &rate
	}
	s.Recommendations = Recommend(categories, savings, s.SavingsRate3M)
	return s
}

// QuarterStart returns the first instant of the calendar month two months before now.
func QuarterStart(now time.Time) time.Time {
	return MonthsStart(now, 3)
}
