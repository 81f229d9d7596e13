package domain

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrecisionPipSize(t *testing.T) {
	assert.InDelta(t, 0.0001, Precision{PipLocation: -4}.PipSize(), 1e-12)
	assert.InDelta(t, 0.01, Precision{PipLocation: -2}.PipSize(), 1e-12)
	assert.InDelta(t, 1.0, Precision{PipLocation: 0}.PipSize(), 1e-12)
}

func TestPrecisionFormatPrice(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		price     float64
		expected  string
	}{
		{"five decimals", 5, 1.08432, "1.08432"},
		{"pads trailing zeros", 5, 1.11, "1.11000"},
		{"rounds excess digits", 5, 1.084327777, "1.08433"},
		{"three decimals", 3, 145.2345, "145.234"},
		{"zero price", 5, 0, "0.00000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Precision{DisplayPrecision: tt.precision}
			assert.Equal(t, tt.expected, p.FormatPrice(tt.price))
		})
	}
}

// Formatting then parsing must stay within half of the last rendered digit.
func TestPrecisionFormatRoundTrip(t *testing.T) {
	prices := []float64{1.08432, 0.99997, 1.1100000001, 123.456789, 0.000071}
	for _, digits := range []int{3, 5} {
		p := Precision{DisplayPrecision: digits}
		tolerance := 0.5 * math.Pow(10, -float64(digits))
		for _, price := range prices {
			parsed, err := strconv.ParseFloat(p.FormatPrice(price), 64)
			require.NoError(t, err)
			assert.LessOrEqual(t, math.Abs(parsed-price), tolerance,
				"price %v at %d digits", price, digits)
		}
	}
}
