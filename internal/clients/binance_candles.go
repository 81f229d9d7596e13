package clients

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"

	"bandrev/internal/domain"
)

// BinanceCandleProvider serves candle history from the Binance public API.
// It backs the dry-run mode, which exercises the full pipeline against real
// market data without broker credentials. Instruments use the same
// underscore form as the broker ("BTC_USDT" -> "BTCUSDT").
type BinanceCandleProvider struct {
	client *binance.Client
}

// NewBinanceCandleProvider creates a provider over the public endpoints; no
// API keys are needed for kline data.
func NewBinanceCandleProvider() *BinanceCandleProvider {
	return &BinanceCandleProvider{client: binance.NewClient("", "")}
}

// granularityToInterval maps broker-style granularities to Binance intervals.
var granularityToInterval = map[string]string{
	"M1":  "1m",
	"M5":  "5m",
	"M15": "15m",
	"M30": "30m",
	"H1":  "1h",
	"H4":  "4h",
	"D":   "1d",
}

// GetCandles fetches klines and maps them onto the domain series.
func (p *BinanceCandleProvider) GetCandles(ctx context.Context, instrument string, count int, granularity string) (domain.Series, error) {
	interval, ok := granularityToInterval[granularity]
	if !ok {
		return nil, errors.Wrapf(domain.ErrInvalidConfiguration, "granularity %q has no Binance interval", granularity)
	}

	symbol := strings.ReplaceAll(instrument, "_", "")
	klines, err := p.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(count).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines for %s", symbol)
	}

	series := make(domain.Series, 0, len(klines))
	now := time.Now()
	for i, k := range klines {
		open, err := strconv.ParseFloat(k.Open, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse open price at index %d", i)
		}
		high, err := strconv.ParseFloat(k.High, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse high price at index %d", i)
		}
		low, err := strconv.ParseFloat(k.Low, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse low price at index %d", i)
		}
		closePrice, err := strconv.ParseFloat(k.Close, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse close price at index %d", i)
		}
		volume, err := strconv.ParseFloat(k.Volume, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse volume at index %d", i)
		}

		closeTime := time.Unix(0, k.CloseTime*int64(time.Millisecond))
		series = append(series, domain.Candle{
			Time:     time.Unix(0, k.OpenTime*int64(time.Millisecond)),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePrice,
			Volume:   int64(volume),
			Complete: closeTime.Before(now),
		})
	}

	if err := series.Validate(); err != nil {
		return nil, errors.Wrapf(err, "Binance returned a malformed kline series for %s", symbol)
	}
	return series, nil
}
