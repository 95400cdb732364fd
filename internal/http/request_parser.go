// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for decoding request bodies and query
// strings into domain values.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidJSON  = &core.ValidationError{Field: "body", Message: "Invalid JSON body"}
	errBodyTooLarge = &core.ValidationError{Field: "body", Message: "Request body too large"}
)

// decodeJSON reads a single JSON document from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return errInvalidJSON
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errInvalidJSON
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(dst); err != nil {
		var fe *fieldError
		if errors.As(err, &fe) {
			return fe.ValidationError
		}
		return errInvalidJSON
	}
	if dec.More() {
		return errInvalidJSON
	}
	return nil
}

// fieldError lets custom unmarshalers report a field-specific validation
// message through encoding/json.
type fieldError struct {
	*core.ValidationError
}

// FlexDate accepts RFC3339 timestamps or YYYY-MM-DD dates. DateOnly records
// which form was sent.
type FlexDate struct {
	time.Time
	DateOnly bool
}

// EndOfDay returns the last instant of the day for a bare date and the
// timestamp unchanged otherwise.
func (d FlexDate) EndOfDay() time.Time {
	if d.DateOnly {
		return endOfDay(d.Time)
	}
	return d.Time
}

func (d *FlexDate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &fieldError{&core.ValidationError{Field: "date", Message: "Invalid date format"}}
	}
	t, err := ParseDate(s)
	if err != nil {
		return &fieldError{&core.ValidationError{Field: "date", Message: "Invalid date format"}}
	}
	d.Time = t
	d.DateOnly = isDateOnly(s)
	return nil
}

// FlexAmount accepts a JSON number or a numeric string. Any decimal value is
// decoded; sign and zero checks belong to the domain validation.
type FlexAmount struct {
	decimal.Decimal
}

func (a *FlexAmount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.ReplaceAll(strings.TrimSpace(unquoted), ",", ".")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return &fieldError{&core.ValidationError{Field: "amount", Message: "Amount must be a number"}}
	}
	a.Decimal = d
	return nil
}

// ParseDate parses an RFC3339 timestamp or a YYYY-MM-DD date (midnight UTC).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

const dateLayout = "2006-01-02"

func isDateOnly(s string) bool {
	return len(strings.TrimSpace(s)) == len(dateLayout)
}

func endOfDay(t time.Time) time.Time {
	return t.Add(24*time.Hour - time.Nanosecond)
}

// ParseTransactionFilter reads the listing filters from query parameters.
// A bare "to" date covers the whole day.
func ParseTransactionFilter(q url.Values) (core.TransactionFilter, error) {
	f := core.TransactionFilter{
		Category: sanitizeInput(q.Get("category")),
		Query:    sanitizeInput(q.Get("q")),
	}

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		f.Type = core.TransactionType(strings.ToLower(v))
		if !f.Type.Valid() {
			return f, core.ErrInvalidType
		}
	}

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := ParseDate(v)
		if err != nil {
			return f, &core.ValidationError{Field: "from", Message: "Invalid from date"}
		}
		f.From = t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := ParseDate(v)
		if err != nil {
			return f, &core.ValidationError{Field: "to", Message: "Invalid to date"}
		}
		if isDateOnly(v) {
			t = endOfDay(t)
		}
		f.To = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, core.ErrInvalidDateRange
	}

	for _, p := range []struct {
		name string
		dst  *decimal.Decimal
	}{{"min", &f.Min}, {"max", &f.Max}} {
		v := strings.TrimSpace(q.Get(p.name))
		if v == "" {
			continue
		}
		d, err := core.ParseAmount(v)
		if err != nil {
			return f, &core.ValidationError{Field: p.name, Message: fmt.Sprintf("Invalid %s amount", p.name)}
		}
		*p.dst = d
	}
	return f, nil
}

// ParseIntParam reads an integer query parameter, falling back to def when
// absent and rejecting values outside [min, max].
func ParseIntParam(q url.Values, name string, def, min, max int) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return 0, &core.ValidationError{
			Field:   name,
			Message: fmt.Sprintf("%s must be an integer between %d and %d", name, min, max),
		}
	}
	return n, nil
}
