// Package indicators computes the technical indicators consumed by the
// breakout pipeline. The numeric conventions here (undefined warm-up
// prefixes, zero-bias EMA seeding, RSI division policy) mirror the data the
// external model was trained on and are part of its contract.
package indicators

import (
	"math"

	"github.com/pkg/errors"

	"bandrev/internal/domain"
)

// Config holds the indicator periods and multipliers.
type Config struct {
	BandPeriod int     `yaml:"band_period"`
	BandStdDev float64 `yaml:"band_std_dev"`
	RSIPeriod  int     `yaml:"rsi_period"`
	MACDFast   int     `yaml:"macd_fast"`
	MACDSlow   int     `yaml:"macd_slow"`
	MACDSignal int     `yaml:"macd_signal"`
}

// DefaultConfig returns the periods the model was trained with.
func DefaultConfig() Config {
	return Config{
		BandPeriod: 20,
		BandStdDev: 2.0,
		RSIPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
	}
}

// volatilityWindow is fixed at 20 candles; it is not configurable because the
// trained model expects exactly this window.
const volatilityWindow = 20

// Engine computes indicator rows from a candle series.
type Engine struct {
	cfg Config
}

// NewEngine validates the configuration and returns an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.BandPeriod <= 0 || cfg.RSIPeriod <= 0 ||
		cfg.MACDFast <= 0 || cfg.MACDSlow <= 0 || cfg.MACDSignal <= 0 {
		return nil, errors.Wrapf(domain.ErrInvalidConfiguration,
			"indicator periods must be positive: band=%d rsi=%d macd=%d/%d/%d",
			cfg.BandPeriod, cfg.RSIPeriod, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	}
	return &Engine{cfg: cfg}, nil
}

// Compute derives an indicator row for every candle, same length and order as
// the input. Pure function of the series and the configuration.
func (e *Engine) Compute(series domain.Series) []domain.IndicatorRow {
	n := len(series)
	rows := make([]domain.IndicatorRow, n)
	closes := series.Closes()

	middle := rollingMean(closes, e.cfg.BandPeriod, e.cfg.BandPeriod)
	std := rollingStd(closes, e.cfg.BandPeriod, e.cfg.BandPeriod)
	rsi := computeRSI(closes, e.cfg.RSIPeriod)
	macd, macdSignal := computeMACD(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	volatility := rollingStd(closes, volatilityWindow, 1)
	change1 := pctChange(closes, 1)
	change5 := pctChange(closes, 5)

	volumes := make([]float64, n)
	for i := range series {
		volumes[i] = float64(series[i].Volume)
	}
	volumeSMA := rollingMean(volumes, volatilityWindow, 1)

	for i := range rows {
		rows[i].Candle = series[i]
		rows[i].BBMiddle = middle[i]
		if m, ok := middle[i].Get(); ok {
			if s, ok := std[i].Get(); ok {
				rows[i].BBUpper = domain.Def(m + s*e.cfg.BandStdDev)
				rows[i].BBLower = domain.Def(m - s*e.cfg.BandStdDev)
			}
		}
		rows[i].BBPercent = bandPercent(closes[i], rows[i].BBUpper, rows[i].BBLower)
		rows[i].RSI = rsi[i]
		rows[i].MACD = macd[i]
		rows[i].MACDSignal = macdSignal[i]
		rows[i].VolumeSMA = volumeSMA[i]
		if sma, ok := volumeSMA[i].Get(); ok && sma != 0 {
			rows[i].VolumeRatio = domain.Def(volumes[i] / sma)
		}
		rows[i].PriceChange1 = change1[i]
		rows[i].PriceChange5 = change5[i]
		rows[i].Volatility = volatility[i]
		rows[i].Hour, rows[i].DayOfWeek = calendarFeatures(series[i])
	}

	return rows
}

func bandPercent(close float64, upper, lower domain.Value) domain.Value {
	u, okU := upper.Get()
	l, okL := lower.Get()
	if !okU || !okL || u == l {
		return domain.Undef()
	}
	return domain.Def((close - l) / (u - l))
}

// calendarFeatures extracts hour-of-day and day-of-week from the candle time.
// Day of week is Monday=0..Sunday=6, matching the training data, not Go's
// Sunday-first weekday numbering.
func calendarFeatures(c domain.Candle) (hour, dayOfWeek domain.Value) {
	if c.Time.IsZero() {
		return domain.Undef(), domain.Undef()
	}
	utc := c.Time.UTC()
	return domain.Def(float64(utc.Hour())), domain.Def(float64((int(utc.Weekday()) + 6) % 7))
}

// rollingMean computes a trailing mean over at most window values, defined
// once minPeriods observations are available.
func rollingMean(values []float64, window, minPeriods int) []domain.Value {
	out := make([]domain.Value, len(values))
	var sum float64
	for i := range values {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		count := i + 1
		if count > window {
			count = window
		}
		if count >= minPeriods {
			out[i] = domain.Def(sum / float64(count))
		}
	}
	return out
}

// rollingStd computes a trailing sample standard deviation (ddof=1) over at
// most window values. A single observation has no sample deviation, so the
// result is undefined until two observations are available regardless of
// minPeriods.
func rollingStd(values []float64, window, minPeriods int) []domain.Value {
	out := make([]domain.Value, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		count := i - start + 1
		if count < minPeriods || count < 2 {
			continue
		}
		var sum float64
		for j := start; j <= i; j++ {
			sum += values[j]
		}
		mean := sum / float64(count)
		var ss float64
		for j := start; j <= i; j++ {
			d := values[j] - mean
			ss += d * d
		}
		out[i] = domain.Def(math.Sqrt(ss / float64(count-1)))
	}
	return out
}

// computeRSI derives the relative strength index from trailing means of
// positive and negative close deltas (min one observation). The first row has
// no delta and contributes zero gain and zero loss. A window with gains but no
// losses saturates at exactly 100; a window with neither stays undefined
// rather than forcing 0/0 into a number.
func computeRSI(closes []float64, period int) []domain.Value {
	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	gainAvg := rollingMean(gains, period, 1)
	lossAvg := rollingMean(losses, period, 1)

	out := make([]domain.Value, n)
	for i := 0; i < n; i++ {
		g, _ := gainAvg[i].Get()
		l, _ := lossAvg[i].Get()
		if l == 0 {
			if g == 0 {
				continue
			}
			out[i] = domain.Def(100)
			continue
		}
		rs := g / l
		out[i] = domain.Def(100 - 100/(1+rs))
	}
	return out
}

// computeMACD returns the fast/slow EMA difference and its signal line.
// EMAs are zero-bias: seeded with the first value, no warm-up adjustment,
// so both outputs are defined from the first row.
func computeMACD(closes []float64, fast, slow, signal int) (macd, macdSignal []domain.Value) {
	emaFast := ema(closes, fast)
	emaSlow := ema(closes, slow)

	diff := make([]float64, len(closes))
	for i := range closes {
		diff[i] = emaFast[i] - emaSlow[i]
	}
	signalLine := ema(diff, signal)

	macd = make([]domain.Value, len(closes))
	macdSignal = make([]domain.Value, len(closes))
	for i := range closes {
		macd[i] = domain.Def(diff[i])
		macdSignal[i] = domain.Def(signalLine[i])
	}
	return macd, macdSignal
}

func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = out[i-1] + alpha*(values[i]-out[i-1])
	}
	return out
}

// pctChange computes the fractional change over lag candles, undefined for
// the first lag rows and when the reference close is zero.
func pctChange(values []float64, lag int) []domain.Value {
	out := make([]domain.Value, len(values))
	for i := lag; i < len(values); i++ {
		prev := values[i-lag]
		if prev == 0 {
			continue
		}
		out[i] = domain.Def((values[i] - prev) / prev)
	}
	return out
}
