package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MonthKey identifies a month in the canonical "YYYY-MM" form (zero-padded
// month). Lexical order on valid keys equals chronological order.
type MonthKey string

// ParseMonthKey validates s and returns it as a MonthKey.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	if len(s) != 7 || s[4] != '-' {
		return "", ErrInvalidMonthKey
	}
	year, err := strconv.Atoi(s[0:4])
	if err != nil || year < 1 {
		return "", ErrInvalidMonthKey
	}
	month, err := strconv.Atoi(s[5:7])
	if err != nil || month < 1 || month > 12 {
		return "", ErrInvalidMonthKey
	}
	return MonthKey(s), nil
}

// MonthKeyOf returns the key for the calendar month containing t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())))
}

// CurrentMonthKey returns the key for the present calendar month.
func CurrentMonthKey() MonthKey {
	return MonthKeyOf(time.Now())
}

func (k MonthKey) String() string { return string(k) }

// Year returns the key's year component.
func (k MonthKey) Year() int {
	y, _ := strconv.Atoi(string(k)[0:4])
	return y
}

// Month returns the key's month component, 1-12.
func (k MonthKey) Month() int {
	m, _ := strconv.Atoi(string(k)[5:7])
	return m
}

// Time returns midnight UTC on the first day of the month.
func (k MonthKey) Time() time.Time {
	return time.Date(k.Year(), time.Month(k.Month()), 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the key for the following calendar month.
func (k MonthKey) Next() MonthKey {
	return MonthKeyOf(k.Time().AddDate(0, 1, 0))
}

// Prev returns the key for the preceding calendar month.
func (k MonthKey) Prev() MonthKey {
	return MonthKeyOf(k.Time().AddDate(0, -1, 0))
}

// Before reports whether k is chronologically earlier than other.
func (k MonthKey) Before(other MonthKey) bool {
	return string(k) < string(other)
}
