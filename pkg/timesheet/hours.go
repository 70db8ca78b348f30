package timesheet

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	MaxHoursPerCell = 24.0
	hourQuarters    = 4
)

// decimalPrefix matches the leading decimal number of a cell input:
// optional sign, digits with an optional fraction, optional exponent.
var decimalPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseHours turns raw cell input into a valid hour value. Only the leading
// decimal number counts, so "8h" is 8 and "0x1p3" is 0. Input without one
// becomes 0. The result is passed through NormalizeHours.
func ParseHours(raw string) float64 {
	number := decimalPrefix.FindString(strings.TrimSpace(raw))
	if number == "" {
		return 0
	}
	// out of range still yields ±Inf, which NormalizeHours clamps
	v, err := strconv.ParseFloat(number, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return NormalizeHours(v)
}

// NormalizeHours clamps v to [0, 24] and rounds it to the nearest quarter
// hour, ties rounding up. It never fails and is idempotent.
func NormalizeHours(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > MaxHoursPerCell {
		v = MaxHoursPerCell
	}
	return math.Floor(v*hourQuarters+0.5) / hourQuarters
}
