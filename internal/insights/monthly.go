package insights

import (
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// MonthlySeries holds per-calendar-month totals, oldest month first.
type MonthlySeries struct {
	Labels   []string          `json:"labels"`
	Months   []string          `json:"months"`
	Income   []decimal.Decimal `json:"income"`
	Expenses []decimal.Decimal `json:"expenses"`
	Savings  []decimal.Decimal `json:"savings"`
}

// Monthly buckets transactions into the n calendar months ending with the
// month containing now. Transactions outside that range are ignored.
func Monthly(txs []core.Transaction, now time.Time, n int) MonthlySeries {
	if n < 1 {
		n = 1
	}
	first := MonthsStart(now, n)

	s := MonthlySeries{
		Labels:   make([]string, n),
		Months:   make([]string, n),
		Income:   make([]decimal.Decimal, n),
		Expenses: make([]decimal.Decimal, n),
		Savings:  make([]decimal.Decimal, n),
	}
	index := make(map[string]int, n)
	for i := 0; i < n; i++ {
		month := first.AddDate(0, i, 0)
		s.Labels[i] = month.Format("Jan 2006")
		s.Months[i] = month.Format("2006-01")
		s.Income[i] = decimal.Zero
		s.Expenses[i] = decimal.Zero
		index[s.Months[i]] = i
	}

	for _, t := range txs {
		i, ok := index[t.Date.UTC().Format("2006-01")]
		if !ok {
			continue
		}
		switch t.Type {
		case core.Income:
			s.Income[i] = s.Income[i].Add(t.Amount)
		case core.Expense:
			s.Expenses[i] = s.Expenses[i].Add(t.Amount)
		}
	}
	for i := range s.Savings {
		s.Savings[i] = s.Income[i].Sub(s.Expenses[i])
	}
	return s
}

// MonthsStart returns the first instant of the oldest month covered by Monthly(…, now, n).
func MonthsStart(now time.Time, n int) time.Time {
	y, m, _ := now.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)
}
