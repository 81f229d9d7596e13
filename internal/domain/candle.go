// Package domain defines core data structures used throughout the trading bot.
package domain

import (
	"time"

	"github.com/pkg/errors"
)

// Candle single OHLCV candlestick. Close is the canonical reference price.
type Candle struct {
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Complete bool
}

// Series ordered candle sequence, index 0 = oldest.
type Series []Candle

// Validate checks that timestamps are strictly increasing.
func (s Series) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Time.After(s[i-1].Time) {
			return errors.Errorf("candle timestamps must be strictly increasing: index %d (%s) is not after index %d (%s)",
				i, s[i].Time, i-1, s[i-1].Time)
		}
	}
	return nil
}

// Closes returns the close prices in series order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i := range s {
		closes[i] = s[i].Close
	}
	return closes
}
