package domain

import "time"

// Direction of a proposed trade.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Outcome classifies the result of one evaluation cycle for one instrument.
type Outcome int

const (
	// OutcomeNoSignal means no breakout was detected.
	OutcomeNoSignal Outcome = iota
	// OutcomeBreakoutNoTrade means a breakout was detected but some later
	// gate (features, inference, prediction label) stopped the trade.
	OutcomeBreakoutNoTrade
	// OutcomeTrade means the model confirmed a reversion trade.
	OutcomeTrade
	// OutcomeSkipped means the cycle did not get as far as a verdict: the
	// instrument was skipped on a data or collaborator failure.
	OutcomeSkipped
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeNoSignal:
		return "no_signal"
	case OutcomeBreakoutNoTrade:
		return "breakout_no_trade"
	case OutcomeTrade:
		return "trade"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Decision is the result of one evaluation cycle for one instrument.
// StopLoss and TakeProfit are fixed-precision decimal strings rendered at the
// instrument's display precision; the broker requires the textual form verbatim.
type Decision struct {
	Outcome    Outcome
	Direction  Direction
	StopLoss   string
	TakeProfit string
}

// NoSignal returns a no-signal decision.
func NoSignal() Decision {
	return Decision{Outcome: OutcomeNoSignal}
}

// BreakoutNoTrade returns a breakout-without-trade decision.
func BreakoutNoTrade() Decision {
	return Decision{Outcome: OutcomeBreakoutNoTrade}
}

// DecisionEvent is the journal record written after each evaluation cycle.
type DecisionEvent struct {
	ID         string    `json:"id"`
	Instrument string    `json:"instrument"`
	Time       time.Time `json:"time"`
	Outcome    string    `json:"outcome"`
	Direction  string    `json:"direction,omitempty"`
	StopLoss   string    `json:"stop_loss,omitempty"`
	TakeProfit string    `json:"take_profit,omitempty"`
	Units      int64     `json:"units,omitempty"`
	Submitted  bool      `json:"submitted"`
	Reason     string    `json:"reason,omitempty"`
}
