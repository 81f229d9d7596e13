package domain

// IndicatorRow is a candle augmented with derived indicator fields.
// Any field may be undefined when the trailing window has not filled yet;
// undefined fields propagate through the pipeline, they are never defaulted.
type IndicatorRow struct {
	Candle

	// Bollinger bands over the close price.
	BBMiddle Value
	BBUpper  Value
	BBLower  Value
	// BBPercent position of the close inside the band range, (close-lower)/(upper-lower).
	BBPercent Value

	// RSI bounded momentum oscillator in [0,100].
	RSI Value

	// MACD trend difference and its smoothed signal line.
	MACD       Value
	MACDSignal Value

	// Volume relative to its trailing 20-candle mean.
	VolumeSMA   Value
	VolumeRatio Value

	// Fractional close changes over 1 and 5 candles.
	PriceChange1 Value
	PriceChange5 Value

	// Volatility trailing standard deviation of close over 20 candles.
	Volatility Value

	// Calendar features from the candle timestamp.
	// DayOfWeek uses Monday=0..Sunday=6, matching the model training data.
	Hour      Value
	DayOfWeek Value
}
