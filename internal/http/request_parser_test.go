package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"plain date", "2026-03-15", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339 utc", "2026-03-15T10:30:00Z", time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC), false},
		{"rfc3339 offset is normalised", "2026-03-15T12:30:00+02:00", time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC), false},
		{"surrounding spaces", "  2026-01-02 ", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"european format", "15/03/2026", time.Time{}, true},
		{"empty", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestFlexDate_EndOfDay(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		dateOnly bool
		want     time.Time
	}{
		{"bare date", `"2026-03-31"`, true, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)},
		{"padded bare date", `" 2026-03-31 "`, true, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)},
		{"timestamp", `"2026-03-31T08:15:00Z"`, false, time.Date(2026, 3, 31, 8, 15, 0, 0, time.UTC)},
		{"midnight timestamp", `"2026-03-31T00:00:00Z"`, false, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d FlexDate
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &d))
			assert.Equal(t, tt.dateOnly, d.DateOnly)
			assert.True(t, tt.want.Equal(d.EndOfDay()), "got %v", d.EndOfDay())
		})
	}
}

func TestFlexAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"number", `12.5`, "12.5", false},
		{"string", `"12.50"`, "12.5", false},
		{"comma decimal", `"12,34"`, "12.34", false},
		{"negative passes through", `-3`, "-3", false},
		{"text", `"twelve"`, "", true},
		{"boolean", `true`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a FlexAmount
			err := json.Unmarshal([]byte(tt.input), &a)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(a.Decimal), "got %s", a.Decimal)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Amount *FlexAmount `json:"amount"`
		Date   *FlexDate   `json:"date"`
	}

	tests := []struct {
		name    string
		payload string
		wantMsg string
	}{
		{"valid", `{"amount": "10", "date": "2026-01-01"}`, ""},
		{"empty body", ``, "Invalid JSON body"},
		{"malformed", `{"amount":`, "Invalid JSON body"},
		{"trailing document", `{} {}`, "Invalid JSON body"},
		{"bad amount", `{"amount": "abc"}`, "Amount must be a number"},
		{"bad date", `{"date": "yesterday"}`, "Invalid date format"},
		{"too large", `{"x":"` + strings.Repeat("a", maxBodyBytes) + `"}`, "Request body too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.payload))
			var dst body
			err := decodeJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, "10", dst.Amount.String())
				return
			}
			require.Error(t, err)
			assert.True(t, core.IsValidation(err))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestParseTransactionFilter(t *testing.T) {
	f, err := ParseTransactionFilter(url.Values{
		"type":     {"Expense"},
		"category": {" Food "},
		"from":     {"2026-01-01"},
		"to":       {"2026-01-31"},
		"min":      {"10"},
		"max":      {"99,5"},
		"q":        {"pizza"},
	})
	require.NoError(t, err)
	assert.Equal(t, core.Expense, f.Type)
	assert.Equal(t, "Food", f.Category)
	assert.Equal(t, "pizza", f.Query)
	assert.True(t, f.From.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, f.To.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)), "bare to date covers the whole day")
	assert.Equal(t, "10", f.Min.String())
	assert.Equal(t, "99.5", f.Max.String())

	errs := []url.Values{
		{"type": {"transfer"}},
		{"from": {"soon"}},
		{"from": {"2026-02-01"}, "to": {"2026-01-01"}},
		{"min": {"-1"}},
	}
	for _, q := range errs {
		_, err := ParseTransactionFilter(q)
		assert.True(t, core.IsValidation(err), "query %v", q)
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{"absent uses default", "", 30, false},
		{"in range", "90", 90, false},
		{"lower bound", "1", 1, false},
		{"upper bound", "366", 366, false},
		{"zero", "0", 0, true},
		{"too large", "367", 0, true},
		{"not a number", "week", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := url.Values{}
			if tt.value != "" {
				q.Set("days", tt.value)
			}
			got, err := ParseIntParam(q, "days", 30, 1, 366)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "days must be an integer between 1 and 366", err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
