package domain

// Model feature names. The set and the semantics of each value are a training
// contract with the external classifier and must not drift.
const (
	FeatureBBPercent       = "bb_percent"
	FeatureRSI             = "rsi"
	FeatureMACD            = "macd"
	FeatureMACDSignal      = "macd_signal"
	FeaturePriceChange1    = "price_change_1"
	FeaturePriceChange5    = "price_change_5"
	FeatureVolatility      = "volatility"
	FeatureVolumeRatio     = "volume_ratio"
	FeatureHour            = "hour"
	FeatureDayOfWeek       = "day_of_week"
	FeatureBreakType       = "break_type"
	FeatureProfitPotential = "profit_potential"
)

// FeatureVector is a complete, ordered feature row for one inference call.
// Names and Values are index-aligned in the externally supplied feature order.
type FeatureVector struct {
	Names  []string
	Values []float64
}

// Get returns the value for a feature name.
func (f FeatureVector) Get(name string) (float64, bool) {
	for i, n := range f.Names {
		if n == name {
			return f.Values[i], true
		}
	}
	return 0, false
}

// Len returns the number of features.
func (f FeatureVector) Len() int {
	return len(f.Names)
}
