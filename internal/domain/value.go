package domain

// Value is an optional float64. Undefined values (insufficient history,
// zero denominators, missing volume) stay undefined instead of turning into
// NaN or a silent zero, and every computation built on an undefined input
// produces an undefined output.
type Value struct {
	Float64 float64
	Valid   bool
}

// Def returns a defined value.
func Def(f float64) Value {
	return Value{Float64: f, Valid: true}
}

// Undef returns an undefined value.
func Undef() Value {
	return Value{}
}

// Get returns the numeric value and whether it is defined.
func (v Value) Get() (float64, bool) {
	return v.Float64, v.Valid
}
