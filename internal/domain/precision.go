package domain

import (
	"math"
	"strconv"
)

// Precision describes the price formatting contract of one instrument.
// PipSize = 10^PipLocation; order prices are rendered with DisplayPrecision
// decimal places.
type Precision struct {
	// PipLocation is the pip exponent, e.g. -4 for EUR_USD.
	PipLocation int
	// DisplayPrecision is the number of decimal places in order price strings,
	// e.g. 5 for EUR_USD.
	DisplayPrecision int
}

// PipSize returns the price increment of one pip.
func (p Precision) PipSize() float64 {
	return math.Pow(10, float64(p.PipLocation))
}

// FormatPrice renders a raw price as the fixed-precision decimal string the
// broker expects, e.g. 1.08432 with DisplayPrecision 5 -> "1.08432".
func (p Precision) FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', p.DisplayPrecision, 64)
}
