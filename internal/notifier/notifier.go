// Package notifier delivers trade alerts to external channels.
package notifier

import (
	"context"
	"fmt"

	"bandrev/internal/domain"
)

// TradeAlert is the payload sent after a confirmed order acknowledgment.
type TradeAlert struct {
	Instrument string
	Direction  domain.Direction
	Units      int64
	StopLoss   string
	TakeProfit string
}

// Subject returns the alert subject line.
func (a TradeAlert) Subject() string {
	return fmt.Sprintf("Trade Executed: %s", a.Instrument)
}

// Body returns the alert body text.
func (a TradeAlert) Body() string {
	return fmt.Sprintf(
		"A trade has been executed.\n\nDirection: %s\nInstrument: %s\nUnits: %d\nSL: %s\nTP: %s",
		a.Direction, a.Instrument, a.Units, a.StopLoss, a.TakeProfit)
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// NotifyTrade delivers a trade alert. Delivery failure is not a trading
	// failure; callers log and continue.
	NotifyTrade(ctx context.Context, alert TradeAlert) error
}

// Noop is a notifier that does nothing, used when notifications are disabled.
type Noop struct{}

// NotifyTrade discards the alert.
func (Noop) NotifyTrade(context.Context, TradeAlert) error {
	return nil
}
