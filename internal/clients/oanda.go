// Package clients contains the external collaborators of the decision
// pipeline: the OANDA broker, the Binance public data fallback, and the
// model inference service.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"bandrev/internal/domain"
	"bandrev/pkg/retrier"
)

const (
	oandaPracticeURL = "https://api-fxpractice.oanda.com"
	oandaLiveURL     = "https://api-fxtrade.oanda.com"

	oandaTimeout         = 30 * time.Second
	oandaMaxTransactions = 1000
)

// OandaClient talks to the OANDA v20 REST API: candle history, instrument
// metadata, order submission and account history.
type OandaClient struct {
	baseURL    string
	token      string
	accountID  string
	httpClient *http.Client
	retrier    *retrier.Retrier
}

// NewOandaClient creates a client for the given environment ("practice" or
// "live").
func NewOandaClient(environment, token, accountID string) (*OandaClient, error) {
	var baseURL string
	switch environment {
	case "practice":
		baseURL = oandaPracticeURL
	case "live":
		baseURL = oandaLiveURL
	default:
		return nil, errors.Wrapf(domain.ErrInvalidConfiguration, "unknown OANDA environment %q", environment)
	}
	if token == "" || accountID == "" {
		return nil, errors.Wrap(domain.ErrInvalidConfiguration, "OANDA token and account id are required")
	}

	return &OandaClient{
		baseURL:   baseURL,
		token:     token,
		accountID: accountID,
		httpClient: &http.Client{
			Timeout: oandaTimeout,
		},
		retrier: retrier.New(),
	}, nil
}

type oandaCandle struct {
	Time     time.Time `json:"time"`
	Volume   int64     `json:"volume"`
	Complete bool      `json:"complete"`
	Mid      struct {
		O string `json:"o"`
		H string `json:"h"`
		L string `json:"l"`
		C string `json:"c"`
	} `json:"mid"`
}

type candlesResponse struct {
	Candles []oandaCandle `json:"candles"`
}

// GetCandles fetches the most recent midpoint candles for an instrument.
// An undersized result is a valid outcome, the caller decides whether the
// history is sufficient.
func (c *OandaClient) GetCandles(ctx context.Context, instrument string, count int, granularity string) (domain.Series, error) {
	query := url.Values{}
	query.Set("count", strconv.Itoa(count))
	query.Set("granularity", granularity)
	query.Set("price", "M")

	path := fmt.Sprintf("/v3/instruments/%s/candles?%s", instrument, query.Encode())
	var resp candlesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch candles for %s", instrument)
	}

	series := make(domain.Series, 0, len(resp.Candles))
	for i, raw := range resp.Candles {
		open, err := strconv.ParseFloat(raw.Mid.O, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse open price at index %d", i)
		}
		high, err := strconv.ParseFloat(raw.Mid.H, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse high price at index %d", i)
		}
		low, err := strconv.ParseFloat(raw.Mid.L, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse low price at index %d", i)
		}
		closePrice, err := strconv.ParseFloat(raw.Mid.C, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse close price at index %d", i)
		}

		series = append(series, domain.Candle{
			Time:     raw.Time,
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePrice,
			Volume:   raw.Volume,
			Complete: raw.Complete,
		})
	}

	if err := series.Validate(); err != nil {
		return nil, errors.Wrapf(err, "broker returned a malformed candle series for %s", instrument)
	}

	return series, nil
}

type accountInstrumentsResponse struct {
	Instruments []struct {
		Name             string `json:"name"`
		PipLocation      int    `json:"pipLocation"`
		DisplayPrecision int    `json:"displayPrecision"`
	} `json:"instruments"`
}

// InstrumentPrecision looks up pip location and display precision from the
// account's tradable instruments. The pricing endpoints do not reliably carry
// instrument properties, the account instruments list does.
func (c *OandaClient) InstrumentPrecision(ctx context.Context, instrument string) (domain.Precision, error) {
	path := fmt.Sprintf("/v3/accounts/%s/instruments", c.accountID)
	var resp accountInstrumentsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return domain.Precision{}, errors.Wrapf(err, "failed to fetch account instruments")
	}

	for _, data := range resp.Instruments {
		if data.Name == instrument {
			return domain.Precision{
				PipLocation:      data.PipLocation,
				DisplayPrecision: data.DisplayPrecision,
			}, nil
		}
	}

	return domain.Precision{}, errors.Wrapf(domain.ErrPrecisionUnavailable,
		"instrument %q not found among tradable instruments", instrument)
}

// OpenTrade is one open trade on the account.
type OpenTrade struct {
	ID         string          `json:"id"`
	Instrument string          `json:"instrument"`
	Price      decimal.Decimal `json:"price"`
	Units      decimal.Decimal `json:"currentUnits"`
	OpenTime   time.Time       `json:"openTime"`
}

type openTradesResponse struct {
	Trades []OpenTrade `json:"trades"`
}

// FindOpenTrade returns the first open trade for the instrument, or nil when
// the instrument has no open position.
func (c *OandaClient) FindOpenTrade(ctx context.Context, instrument string) (*OpenTrade, error) {
	path := fmt.Sprintf("/v3/accounts/%s/openTrades", c.accountID)
	var resp openTradesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to fetch open trades")
	}

	for i := range resp.Trades {
		if resp.Trades[i].Instrument == instrument {
			return &resp.Trades[i], nil
		}
	}
	return nil, nil
}

type marketOrderRequest struct {
	Order struct {
		Type           string          `json:"type"`
		Instrument     string          `json:"instrument"`
		Units          string          `json:"units"`
		TimeInForce    string          `json:"timeInForce"`
		PositionFill   string          `json:"positionFill"`
		StopLossOnFill *onFillDetails  `json:"stopLossOnFill,omitempty"`
		TakeProfitFill *onFillDetails  `json:"takeProfitOnFill,omitempty"`
	} `json:"order"`
}

type onFillDetails struct {
	Price string `json:"price"`
}

// OrderAck is the broker's acknowledgment of a market order.
type OrderAck struct {
	OrderCreateTransaction *struct {
		ID string `json:"id"`
	} `json:"orderCreateTransaction"`
	OrderFillTransaction *struct {
		ID    string          `json:"id"`
		Price decimal.Decimal `json:"price"`
	} `json:"orderFillTransaction"`
	OrderCancelTransaction *struct {
		ID     string `json:"id"`
		Reason string `json:"reason"`
	} `json:"orderCancelTransaction"`
}

// Accepted reports whether the order was created or filled.
func (a *OrderAck) Accepted() bool {
	return a != nil && (a.OrderFillTransaction != nil || a.OrderCreateTransaction != nil)
}

// CreateMarketOrder submits a market order with stop-loss and take-profit
// attached on fill. Units are negated for SELL. The price strings must
// already be at the instrument's display precision; they are passed through
// verbatim.
func (c *OandaClient) CreateMarketOrder(ctx context.Context, instrument string, units int64, direction domain.Direction, slPrice, tpPrice string) (*OrderAck, error) {
	if direction == domain.DirectionSell {
		units = -units
	}

	var req marketOrderRequest
	req.Order.Type = "MARKET"
	req.Order.Instrument = instrument
	req.Order.Units = strconv.FormatInt(units, 10)
	req.Order.TimeInForce = "FOK"
	req.Order.PositionFill = "DEFAULT"
	req.Order.StopLossOnFill = &onFillDetails{Price: slPrice}
	req.Order.TakeProfitFill = &onFillDetails{Price: tpPrice}

	path := fmt.Sprintf("/v3/accounts/%s/orders", c.accountID)
	var ack OrderAck
	if err := c.post(ctx, path, req, &ack); err != nil {
		return nil, errors.Wrapf(err, "failed to place %s order for %s", direction, instrument)
	}
	return &ack, nil
}

// Transaction is a single account transaction record.
type Transaction struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Instrument string          `json:"instrument"`
	Units      decimal.Decimal `json:"units"`
	Price      decimal.Decimal `json:"price"`
	PL         decimal.Decimal `json:"pl"`
	Time       time.Time       `json:"time"`
}

type transactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

// TransactionsInRange fetches account transactions between two times. The API
// caps one page at 1000 records; a full page therefore may be truncated.
func (c *OandaClient) TransactionsInRange(ctx context.Context, from, to time.Time) ([]Transaction, bool, error) {
	query := url.Values{}
	query.Set("from", from.UTC().Format(time.RFC3339))
	query.Set("to", to.UTC().Format(time.RFC3339))
	query.Set("pageSize", strconv.Itoa(oandaMaxTransactions))

	path := fmt.Sprintf("/v3/accounts/%s/transactions?%s", c.accountID, query.Encode())
	var resp transactionsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, false, errors.Wrap(err, "failed to fetch transactions")
	}

	truncated := len(resp.Transactions) == oandaMaxTransactions
	return resp.Transactions, truncated, nil
}

// RecentTransactions fetches transactions from the trailing window ending now.
func (c *OandaClient) RecentTransactions(ctx context.Context, window time.Duration) ([]Transaction, bool, error) {
	now := time.Now().UTC()
	return c.TransactionsInRange(ctx, now.Add(-window), now)
}

// ClosedTrade is one settled trade from the account history.
type ClosedTrade struct {
	ID           string          `json:"id"`
	Instrument   string          `json:"instrument"`
	Price        decimal.Decimal `json:"price"`
	RealizedPL   decimal.Decimal `json:"realizedPL"`
	InitialUnits decimal.Decimal `json:"initialUnits"`
	OpenTime     time.Time       `json:"openTime"`
	CloseTime    time.Time       `json:"closeTime"`
}

type closedTradesResponse struct {
	Trades []ClosedTrade `json:"trades"`
}

// ClosedTrades fetches the most recently closed trades. Far more reliable
// than reconstructing results from the raw transaction stream.
func (c *OandaClient) ClosedTrades(ctx context.Context, count int) ([]ClosedTrade, error) {
	query := url.Values{}
	query.Set("state", "CLOSED")
	query.Set("count", strconv.Itoa(count))

	path := fmt.Sprintf("/v3/accounts/%s/trades?%s", c.accountID, query.Encode())
	var resp closedTradesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to fetch closed trades")
	}
	return resp.Trades, nil
}

func (c *OandaClient) get(ctx context.Context, path string, out any) error {
	return c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.doRequest(ctx, http.MethodGet, path, nil, out)
	})
}

func (c *OandaClient) post(ctx context.Context, path string, body, out any) error {
	// orders are not retried: a timeout after submission could double-fill
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *OandaClient) doRequest(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("OANDA API returned status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.Wrap(err, "failed to decode response")
		}
	}
	return nil
}
