package timesheet

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHours(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"integer", "8", 8},
		{"rounds down to nearest quarter", "9.37", 9.25},
		{"rounds up to nearest quarter", "9.38", 9.5},
		{"tie rounds up", "8.125", 8.25},
		{"clamps above 24", "27", 24},
		{"negative becomes zero", "-3", 0},
		{"not a number becomes zero", "abc", 0},
		{"empty becomes zero", "", 0},
		{"surrounding spaces are ignored", "  7.5 ", 7.5},
		{"NaN becomes zero", "NaN", 0},
		{"infinity is not a number", "Inf", 0},
		{"exponent notation", "1e1", 10},
		{"trailing unit is ignored", "8h", 8},
		{"trailing text after fraction", "7.5 hours", 7.5},
		{"leading dot", ".75", 0.75},
		{"explicit plus sign", "+2", 2},
		{"incomplete exponent is dropped", "3e", 3},
		{"hex float reads as its leading zero", "0x1p3", 0},
		{"comma is not a decimal separator", "7,5", 7},
		{"huge exponent clamps", "1e400", 24},
		{"below first quarter rounds to zero", "0.1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseHours(tt.raw))
		})
	}
}

func TestNormalizeHours_Properties(t *testing.T) {
	for i := -500; i <= 3000; i++ {
		x := float64(i) / 100
		n := NormalizeHours(x)

		assert.GreaterOrEqual(t, n, 0.0, "lower bound for %v", x)
		assert.LessOrEqual(t, n, 24.0, "upper bound for %v", x)
		assert.Equal(t, n, NormalizeHours(n), "idempotence for %v", x)
		assert.Equal(t, 0.0, math.Mod(n*4, 1), "quarter granularity for %v", x)

		raw := strconv.FormatFloat(x, 'f', -1, 64)
		assert.Equal(t, ParseHours(raw), ParseHours(strconv.FormatFloat(ParseHours(raw), 'f', -1, 64)), "string idempotence for %q", raw)
	}
}

func TestNormalizeHours_SpecialValues(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeHours(math.NaN()))
	assert.Equal(t, 24.0, NormalizeHours(math.Inf(1)))
	assert.Equal(t, 0.0, NormalizeHours(math.Inf(-1)))
	assert.Equal(t, 24.0, NormalizeHours(23.9))
}
