package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandrev/internal/domain"
)

func row(close float64, lower, upper domain.Value) domain.IndicatorRow {
	return domain.IndicatorRow{
		Candle:  domain.Candle{Close: close},
		BBLower: lower,
		BBUpper: upper,
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		signal domain.IndicatorRow
		want   Break
	}{
		{
			name:   "close above upper band",
			signal: row(1.1060, domain.Def(1.0940), domain.Def(1.1050)),
			want:   BreakUpper,
		},
		{
			name:   "close below lower band",
			signal: row(1.0930, domain.Def(1.0940), domain.Def(1.1050)),
			want:   BreakLower,
		},
		{
			name:   "close inside band",
			signal: row(1.1000, domain.Def(1.0940), domain.Def(1.1050)),
			want:   BreakNone,
		},
		{
			name:   "close exactly on upper band is not a breakout",
			signal: row(1.1050, domain.Def(1.0940), domain.Def(1.1050)),
			want:   BreakNone,
		},
		{
			name:   "close exactly on lower band is not a breakout",
			signal: row(1.0940, domain.Def(1.0940), domain.Def(1.1050)),
			want:   BreakNone,
		},
		{
			name:   "undefined upper band",
			signal: row(1.2000, domain.Def(1.0940), domain.Undef()),
			want:   BreakNone,
		},
		{
			name:   "undefined lower band",
			signal: row(1.0000, domain.Undef(), domain.Def(1.1050)),
			want:   BreakNone,
		},
		{
			// inverted bands would satisfy both comparisons at once;
			// the detector treats that as no breakout
			name:   "degenerate inverted bands",
			signal: row(1.1000, domain.Def(1.1050), domain.Def(1.0940)),
			want:   BreakNone,
		},
	}

	feature := row(1.1020, domain.Def(1.0940), domain.Def(1.1050))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []domain.IndicatorRow{tt.signal, feature}
			event := Detect(rows)
			assert.Equal(t, tt.want, event.Kind)
			require.NotNil(t, event.Signal)
			require.NotNil(t, event.Feature)
			assert.Equal(t, tt.signal.Close, event.Signal.Close)
			assert.Equal(t, feature.Close, event.Feature.Close)
		})
	}
}

func TestDetectUsesSecondToLastRowAsSignal(t *testing.T) {
	base := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

	breaking := row(1.2000, domain.Def(1.0940), domain.Def(1.1050))
	breaking.Time = base
	calm := row(1.1000, domain.Def(1.0940), domain.Def(1.1050))
	calm.Time = base.Add(15 * time.Minute)

	t.Run("breakout on signal candle is reported", func(t *testing.T) {
		event := Detect([]domain.IndicatorRow{breaking, calm})
		assert.Equal(t, BreakUpper, event.Kind)
		assert.Equal(t, base, event.Signal.Time)
		assert.Equal(t, base.Add(15*time.Minute), event.Feature.Time)
	})

	t.Run("breakout only on the last row is ignored", func(t *testing.T) {
		event := Detect([]domain.IndicatorRow{calm, breaking})
		assert.Equal(t, BreakNone, event.Kind)
	})
}

func TestDetectShortSequences(t *testing.T) {
	assert.Equal(t, BreakNone, Detect(nil).Kind)
	assert.Equal(t, BreakNone, Detect([]domain.IndicatorRow{row(1.2, domain.Def(1.0), domain.Def(1.1))}).Kind)
}
