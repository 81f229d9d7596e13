package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandrev/internal/domain"
)

func seriesFromCloses(closes []float64) domain.Series {
	base := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC) // a Monday
	s := make(domain.Series, len(closes))
	for i, c := range closes {
		s[i] = domain.Candle{
			Time:   base.Add(time.Duration(i) * 15 * time.Minute),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 100,
		}
	}
	return s
}

func mustEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func TestNewEngineRejectsNonPositivePeriods(t *testing.T) {
	bad := []Config{
		{BandPeriod: 0, BandStdDev: 2, RSIPeriod: 14, MACDFast: 12, MACDSlow: 26, MACDSignal: 9},
		{BandPeriod: 20, BandStdDev: 2, RSIPeriod: -1, MACDFast: 12, MACDSlow: 26, MACDSignal: 9},
		{BandPeriod: 20, BandStdDev: 2, RSIPeriod: 14, MACDFast: 0, MACDSlow: 26, MACDSignal: 9},
		{BandPeriod: 20, BandStdDev: 2, RSIPeriod: 14, MACDFast: 12, MACDSlow: 0, MACDSignal: 9},
		{BandPeriod: 20, BandStdDev: 2, RSIPeriod: 14, MACDFast: 12, MACDSlow: 26, MACDSignal: -3},
	}
	for _, cfg := range bad {
		_, err := NewEngine(cfg)
		assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	}
}

func TestComputePreservesLengthAndOrder(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	series := seriesFromCloses(make([]float64, 40))
	for i := range series {
		series[i].Close = 1.1 + float64(i)*0.0001
	}
	rows := e.Compute(series)
	require.Len(t, rows, len(series))
	for i := range rows {
		assert.Equal(t, series[i].Time, rows[i].Time)
		assert.Equal(t, series[i].Close, rows[i].Close)
	}
}

func TestBollingerWarmupPrefix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BandPeriod = 5
	e := mustEngine(t, cfg)

	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	rows := e.Compute(seriesFromCloses(closes))

	for i := 0; i < 4; i++ {
		assert.False(t, rows[i].BBMiddle.Valid, "row %d middle should be undefined", i)
		assert.False(t, rows[i].BBUpper.Valid, "row %d upper should be undefined", i)
		assert.False(t, rows[i].BBLower.Valid, "row %d lower should be undefined", i)
	}
	for i := 4; i < len(rows); i++ {
		require.True(t, rows[i].BBMiddle.Valid, "row %d middle should be defined", i)
		require.True(t, rows[i].BBUpper.Valid, "row %d upper should be defined", i)
		require.True(t, rows[i].BBLower.Valid, "row %d lower should be defined", i)
	}

	// window 1..5: mean 3, sample std sqrt(2.5)
	middle, _ := rows[4].BBMiddle.Get()
	upper, _ := rows[4].BBUpper.Get()
	lower, _ := rows[4].BBLower.Get()
	std := math.Sqrt(2.5)
	assert.InDelta(t, 3, middle, 1e-12)
	assert.InDelta(t, 3+2*std, upper, 1e-12)
	assert.InDelta(t, 3-2*std, lower, 1e-12)
}

func TestBandPercent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BandPeriod = 5
	e := mustEngine(t, cfg)

	t.Run("defined when band has width", func(t *testing.T) {
		rows := e.Compute(seriesFromCloses([]float64{1, 2, 3, 4, 5}))
		pct, ok := rows[4].BBPercent.Get()
		require.True(t, ok)
		lower, _ := rows[4].BBLower.Get()
		upper, _ := rows[4].BBUpper.Get()
		assert.InDelta(t, (5-lower)/(upper-lower), pct, 1e-12)
	})

	t.Run("undefined when band range is zero", func(t *testing.T) {
		rows := e.Compute(seriesFromCloses([]float64{2, 2, 2, 2, 2}))
		assert.False(t, rows[4].BBPercent.Valid)
	})
}

func TestRSI(t *testing.T) {
	cfg := DefaultConfig()
	e := mustEngine(t, cfg)

	t.Run("always within bounds or undefined", func(t *testing.T) {
		closes := []float64{1, 3, 2, 5, 4, 4.5, 3.9, 6, 5.5, 7, 6.8, 8, 7.5, 9, 8.8, 10}
		rows := e.Compute(seriesFromCloses(closes))
		for i, row := range rows {
			if rsi, ok := row.RSI.Get(); ok {
				assert.GreaterOrEqual(t, rsi, 0.0, "row %d", i)
				assert.LessOrEqual(t, rsi, 100.0, "row %d", i)
			}
		}
	})

	t.Run("saturates at exactly 100 with no losses", func(t *testing.T) {
		closes := []float64{1, 2, 3, 4, 5, 6}
		rows := e.Compute(seriesFromCloses(closes))
		for i := 1; i < len(rows); i++ {
			rsi, ok := rows[i].RSI.Get()
			require.True(t, ok, "row %d", i)
			assert.Equal(t, 100.0, rsi, "row %d", i)
		}
	})

	t.Run("zero with no gains", func(t *testing.T) {
		closes := []float64{6, 5, 4, 3}
		rows := e.Compute(seriesFromCloses(closes))
		for i := 1; i < len(rows); i++ {
			rsi, ok := rows[i].RSI.Get()
			require.True(t, ok, "row %d", i)
			assert.Equal(t, 0.0, rsi, "row %d", i)
		}
	})

	t.Run("undefined on a flat series", func(t *testing.T) {
		closes := []float64{2, 2, 2, 2}
		rows := e.Compute(seriesFromCloses(closes))
		for i, row := range rows {
			assert.False(t, row.RSI.Valid, "row %d", i)
		}
	})

	t.Run("known mixed value", func(t *testing.T) {
		// deltas: +1, +1, -1; trailing means over 4 rows: gain 0.5, loss 0.25
		closes := []float64{1, 2, 3, 2}
		rows := e.Compute(seriesFromCloses(closes))
		rsi, ok := rows[3].RSI.Get()
		require.True(t, ok)
		assert.InDelta(t, 100-100.0/3.0, rsi, 1e-12) // rs = 2
	})
}

func TestMACDZeroBiasEMA(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	closes := []float64{1, 2}
	rows := e.Compute(seriesFromCloses(closes))

	// EMAs are seeded with the first close, so MACD is 0 there.
	macd0, ok := rows[0].MACD.Get()
	require.True(t, ok)
	assert.Equal(t, 0.0, macd0)

	// fast alpha 2/13, slow alpha 2/27, both seeded at 1
	wantMACD1 := (1 + 2.0/13.0) - (1 + 2.0/27.0)
	macd1, ok := rows[1].MACD.Get()
	require.True(t, ok)
	assert.InDelta(t, wantMACD1, macd1, 1e-12)

	// signal alpha 2/10 over macd values [0, macd1]
	signal1, ok := rows[1].MACDSignal.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.2*wantMACD1, signal1, 1e-12)
}

func TestPriceChanges(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	closes := []float64{100, 110, 99, 99, 99, 121}
	rows := e.Compute(seriesFromCloses(closes))

	assert.False(t, rows[0].PriceChange1.Valid)
	change1, ok := rows[1].PriceChange1.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.1, change1, 1e-12)

	for i := 0; i < 5; i++ {
		assert.False(t, rows[i].PriceChange5.Valid, "row %d", i)
	}
	change5, ok := rows[5].PriceChange5.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.21, change5, 1e-12)
}

func TestVolatility(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	closes := []float64{1, 3, 5}
	rows := e.Compute(seriesFromCloses(closes))

	// a single observation has no sample deviation
	assert.False(t, rows[0].Volatility.Valid)

	vol1, ok := rows[1].Volatility.Get()
	require.True(t, ok)
	assert.InDelta(t, math.Sqrt(2), vol1, 1e-12) // std of {1,3}

	vol2, ok := rows[2].Volatility.Get()
	require.True(t, ok)
	assert.InDelta(t, 2, vol2, 1e-12) // std of {1,3,5}
}

func TestVolumeRatio(t *testing.T) {
	e := mustEngine(t, DefaultConfig())

	t.Run("ratio against trailing mean", func(t *testing.T) {
		series := seriesFromCloses([]float64{1, 1, 1})
		series[0].Volume = 100
		series[1].Volume = 100
		series[2].Volume = 400
		rows := e.Compute(series)

		ratio, ok := rows[2].VolumeRatio.Get()
		require.True(t, ok)
		assert.InDelta(t, 2, ratio, 1e-12) // 400 / mean(100,100,400)
	})

	t.Run("undefined without volume", func(t *testing.T) {
		series := seriesFromCloses([]float64{1, 1, 1})
		for i := range series {
			series[i].Volume = 0
		}
		rows := e.Compute(series)
		for i, row := range rows {
			assert.False(t, row.VolumeRatio.Valid, "row %d", i)
		}
	})
}

func TestCalendarFeatures(t *testing.T) {
	e := mustEngine(t, DefaultConfig())

	t.Run("monday is day zero", func(t *testing.T) {
		series := domain.Series{{Time: time.Date(2024, 6, 3, 13, 15, 0, 0, time.UTC), Close: 1}}
		rows := e.Compute(series)

		hour, ok := rows[0].Hour.Get()
		require.True(t, ok)
		assert.Equal(t, 13.0, hour)

		day, ok := rows[0].DayOfWeek.Get()
		require.True(t, ok)
		assert.Equal(t, 0.0, day)
	})

	t.Run("sunday is day six", func(t *testing.T) {
		series := domain.Series{{Time: time.Date(2024, 6, 9, 2, 0, 0, 0, time.UTC), Close: 1}}
		rows := e.Compute(series)

		day, ok := rows[0].DayOfWeek.Get()
		require.True(t, ok)
		assert.Equal(t, 6.0, day)
	})

	t.Run("undefined without timestamps", func(t *testing.T) {
		series := domain.Series{{Close: 1}}
		rows := e.Compute(series)
		assert.False(t, rows[0].Hour.Valid)
		assert.False(t, rows[0].DayOfWeek.Valid)
	})
}
