// Package detector classifies Bollinger band breakouts on a closed candle.
package detector

import (
	"bandrev/internal/domain"
)

// Break is the breakout polarity on the signal candle.
type Break int

const (
	// BreakNone no breakout on the signal candle.
	BreakNone Break = iota
	// BreakUpper close strictly above the upper band.
	BreakUpper
	// BreakLower close strictly below the lower band.
	BreakLower
)

// String returns the string representation of the breakout kind.
func (b Break) String() string {
	switch b {
	case BreakUpper:
		return "upper"
	case BreakLower:
		return "lower"
	default:
		return "none"
	}
}

// Event pairs a detected breakout with the two rows the pipeline works from.
//
// Signal is the second-to-last row: the breakout is confirmed on the candle
// that closed it. Feature is the last row, one candle later; the tradable
// feature snapshot is deliberately taken after a one-candle decision delay.
type Event struct {
	Kind    Break
	Signal  *domain.IndicatorRow
	Feature *domain.IndicatorRow
}

// Detect inspects the signal candle of the row sequence. Fewer than two rows,
// an undefined close or band on the signal candle, or a close inside the band
// all yield BreakNone; detection itself never fails.
func Detect(rows []domain.IndicatorRow) Event {
	if len(rows) < 2 {
		return Event{Kind: BreakNone}
	}

	signal := &rows[len(rows)-2]
	feature := &rows[len(rows)-1]
	event := Event{Kind: BreakNone, Signal: signal, Feature: feature}

	upper, okU := signal.BBUpper.Get()
	lower, okL := signal.BBLower.Get()
	if !okU || !okL {
		return event
	}

	above := signal.Close > upper
	below := signal.Close < lower
	if above == below {
		// neither, or the impossible both-sides case
		return event
	}

	if above {
		event.Kind = BreakUpper
	} else {
		event.Kind = BreakLower
	}
	return event
}
