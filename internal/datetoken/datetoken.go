package datetoken

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Len is the number of digits in a date token.
const Len = 8

// Layout is the Format pattern of a date token (YYYYMMDD).
const Layout = "yyyyMMdd"

// ErrMalformed is returned for tokens that are not exactly eight ASCII digits.
var ErrMalformed = errors.New("malformed date token")

// Parse turns a YYYYMMDD token into wall-clock midnight of that date.
// Month and day are not range-checked; out-of-range values roll over the
// same way time.Date normalizes them (day 0 is the last day of the
// previous month).
func Parse(token string) (time.Time, error) {
	if len(token) != Len || !allDigits(token) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformed, token)
	}

	year, _ := strconv.Atoi(token[0:4])
	month, _ := strconv.Atoi(token[4:6])
	dd, _ := strconv.Atoi(token[6:8])

	// UTC stands in for the wall clock so that adding whole days is never
	// skewed by a DST transition.
	return time.Date(year, time.Month(month), dd, 0, 0, 0, 0, time.UTC), nil
}

// Shift returns the token for the date delta days away from token.
// Parse yields UTC midnight, so a calendar day is always 24h here.
func Shift(token string, delta int) (string, error) {
	t, err := Parse(token)
	if err != nil {
		return "", err
	}
	return Format(t.AddDate(0, 0, delta), Layout), nil
}

// Neighbors returns the tokens of the previous and the next day.
func Neighbors(token string) (prev, next string, err error) {
	if prev, err = Shift(token, -1); err != nil {
		return "", "", err
	}
	if next, err = Shift(token, 1); err != nil {
		return "", "", err
	}
	return prev, next, nil
}

// FromPath extracts the date token from the end of a URL path. One trailing
// slash is ignored.
func FromPath(p string) (string, error) {
	p = strings.TrimSuffix(p, "/")
	if len(p) < Len {
		return "", fmt.Errorf("%w: path %q too short", ErrMalformed, p)
	}
	token := p[len(p)-Len:]
	if !allDigits(token) {
		return "", fmt.Errorf("%w: path %q", ErrMalformed, p)
	}
	return token, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
