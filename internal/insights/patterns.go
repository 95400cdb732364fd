package insights

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

const (
	overspendThreshold  = 1.5
	budgetAdviceFloor   = 500
	monthPatternFactor  = 1.3
	spikeFactor         = 1.5
	recentWindow        = 30 * 24 * time.Hour
	topTipCategoryCount = 3
)

// Categories never nagged about: fixed costs.
var budgetExempt = map[string]bool{"Rent": true, "Utilities": true}

type (
	Forecast struct {
		NextDay        float64 `json:"nextDay"`
		ProjectedMonth float64 `json:"projectedMonth"`
		DataPoints     int     `json:"dataPoints"`
	}

	Alert struct {
		Type     string  `json:"type"`
		Category string  `json:"category"`
		Score    float64 `json:"score"`
		Message  string  `json:"message"`
	}

	BudgetAdvice struct {
		Category         string          `json:"category"`
		Message          string          `json:"message"`
		PotentialSavings decimal.Decimal `json:"potentialSavings"`
	}

	MonthPattern struct {
		Category string `json:"category"`
		Month    string `json:"month"`
		Message  string `json:"message"`
	}

	Tip struct {
		Category    string   `json:"category"`
		Tip         string   `json:"tip"`
		Suggestions []string `json:"suggestions,omitempty"`
	}

	// Analysis is the result of the heuristic pattern analysis.
	Analysis struct {
		Forecast        *Forecast      `json:"forecast"`
		Alerts          []Alert        `json:"alerts"`
		Recommendations []BudgetAdvice `json:"recommendations"`
		Patterns        []MonthPattern `json:"patterns"`
		Tips            []Tip          `json:"tips"`
	}
)

// Analyzer runs the pattern heuristics. Both predictors can be swapped for
// other implementations of Predictor.
type Analyzer struct {
	Forecaster Predictor
	Growth     Predictor
}

func NewAnalyzer() Analyzer {
	return Analyzer{Forecaster: DefaultForecaster, Growth: GrowthRatio{}}
}

// Analyze inspects the owner's expense history as of now.
func (a Analyzer) Analyze(txs []core.Transaction, now time.Time) (Analysis, error) {
	out := Analysis{
		Alerts:          []Alert{},
		Recommendations: []BudgetAdvice{},
		Patterns:        []MonthPattern{},
		Tips:            []Tip{},
	}

	expenses := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Type == core.Expense {
			expenses = append(expenses, t)
		}
	}
	sort.Slice(expenses, func(i, j int) bool { return expenses[i].Date.Before(expenses[j].Date) })

	forecast, err := a.forecast(expenses)
	if err != nil {
		return Analysis{}, err
	}
	out.Forecast = forecast

	byCategory := make(map[string][]core.Transaction)
	var names []string
	for _, t := range expenses {
		if _, seen := byCategory[t.Category]; !seen {
			names = append(names, t.Category)
		}
		byCategory[t.Category] = append(byCategory[t.Category], t)
	}
	sort.Strings(names)

	cutoff := now.Add(-recentWindow)
	for _, category := range names {
		items := byCategory[category]
		alert, advice, err := a.categoryTrend(category, items, cutoff)
		if err != nil {
			return Analysis{}, err
		}
		if alert != nil {
			out.Alerts = append(out.Alerts, *alert)
		}
		if advice != nil {
			out.Recommendations = append(out.Recommendations, *advice)
		}
		out.Patterns = append(out.Patterns, monthPatterns(category, items)...)
	}

	out.Tips = SavingTips(expenses)
	return out, nil
}

func (a Analyzer) forecast(expenses []core.Transaction) (*Forecast, error) {
	daily := dailyTotals(expenses)
	next, err := a.Forecaster.Predict(Features{History: daily})
	if errors.Is(err, ErrInsufficientData) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("forecast spending: %w", err)
	}
	return &Forecast{NextDay: round2(next), ProjectedMonth: round2(next * 30), DataPoints: len(daily)}, nil
}

func (a Analyzer) categoryTrend(category string, items []core.Transaction, cutoff time.Time) (*Alert, *BudgetAdvice, error) {
	var history, recent []float64
	for _, t := range items {
		v := t.Amount.InexactFloat64()
		history = append(history, v)
		if !t.Date.Before(cutoff) {
			recent = append(recent, v)
		}
	}
	if len(recent) == 0 {
		return nil, nil, nil
	}

	var alert *Alert
	score, err := a.Growth.Predict(Features{History: history, Recent: recent})
	switch {
	case errors.Is(err, ErrInsufficientData):
	case err != nil:
		return nil, nil, fmt.Errorf("score %s: %w", category, err)
	case score > overspendThreshold:
		alert = &Alert{
			Type:     "overspending",
			Category: category,
			Score:    round2(score),
			Message:  fmt.Sprintf("Your spending in %s has increased by %.1f%% compared to your average", category, (score-1)*100),
		}
	}

	var advice *BudgetAdvice
	recentAvg := mean(recent)
	if recentAvg > budgetAdviceFloor && !budgetExempt[category] {
		advice = &BudgetAdvice{
			Category:         category,
			Message:          fmt.Sprintf("Consider setting a budget for %s to reduce spending", category),
			PotentialSavings: decimal.NewFromFloat(recentAvg * 0.2).Round(2),
		}
	}
	return alert, advice, nil
}

// monthPatterns flags calendar months whose spend in the category is more
// than 30% above the category's average month.
func monthPatterns(category string, items []core.Transaction) []MonthPattern {
	totals := make(map[string]decimal.Decimal)
	var keys []string
	for _, t := range items {
		key := t.Date.UTC().Format("2006-01")
		if _, seen := totals[key]; !seen {
			keys = append(keys, key)
		}
		totals[key] = totals[key].Add(t.Amount)
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	sum := decimal.Zero
	for _, v := range totals {
		sum = sum.Add(v)
	}
	threshold := sum.Div(decimal.NewFromInt(int64(len(keys)))).Mul(decimal.NewFromFloat(monthPatternFactor))

	var out []MonthPattern
	for _, key := range keys {
		if !totals[key].GreaterThan(threshold) {
			continue
		}
		month, _ := time.Parse("2006-01", key)
		label := month.Format("January 2006")
		out = append(out, MonthPattern{
			Category: category,
			Month:    label,
			Message:  fmt.Sprintf("Higher %s spending occurred in %s", category, label),
		})
	}
	return out
}

func dailyTotals(sortedExpenses []core.Transaction) []float64 {
	var (
		out     []float64
		lastDay string
	)
	for _, t := range sortedExpenses {
		d := t.Date.UTC().Format(time.DateOnly)
		if d != lastDay {
			out = append(out, 0)
			lastDay = d
		}
		out[len(out)-1] += t.Amount.InexactFloat64()
	}
	return out
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
