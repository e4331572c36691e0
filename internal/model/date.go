package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nao1215/secregistry/internal/normalize"
)

// Date is a calendar date without time of day.
// The zero value means the date is absent and marshals to JSON null.
type Date struct {
	time.Time
}

// NewDate returns the date for the given year, month and day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads a day-first date from text.
// It returns the parse failure so required fields can report it.
func ParseDate(text string) (Date, error) {
	t, err := normalize.ParseDate(text)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// OptionalDate reads a day-first date from text, returning the absent
// date when text has none.
func OptionalDate(text string) Date {
	d, err := ParseDate(text)
	if err != nil {
		return Date{}
	}
	return d
}

// Valid reports whether the date is present.
func (d Date) Valid() bool {
	return !d.IsZero()
}

// String returns the date as YYYY-MM-DD, or an empty string when absent.
func (d Date) String() string {
	if !d.Valid() {
		return ""
	}
	return d.Format(normalize.ISOLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD" or null.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes "YYYY-MM-DD", an empty string or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}

	t, err := time.Parse(normalize.ISOLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*d = Date{Time: t}
	return nil
}
