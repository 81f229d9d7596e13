// Package internal wires the decision pipeline to its collaborators and runs
// the per-instrument evaluation loop.
package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bandrev/config"
	"bandrev/internal/clients"
	"bandrev/internal/domain"
	"bandrev/internal/notifier"
	"bandrev/internal/services/strategy"
	"bandrev/internal/storage/decisions"
)

// minHistory is the minimum candle count before an instrument is evaluated.
const minHistory = 30

// CandleProvider fetches candle history for one instrument.
type CandleProvider interface {
	GetCandles(ctx context.Context, instrument string, count int, granularity string) (domain.Series, error)
}

// Broker is the execution collaborator: instrument metadata, open-position
// lookup and order submission.
type Broker interface {
	InstrumentPrecision(ctx context.Context, instrument string) (domain.Precision, error)
	FindOpenTrade(ctx context.Context, instrument string) (*clients.OpenTrade, error)
	CreateMarketOrder(ctx context.Context, instrument string, units int64, direction domain.Direction, slPrice, tpPrice string) (*clients.OrderAck, error)
}

// TradingBot evaluates every configured instrument once per cycle. A cycle
// never fails as a whole: any per-instrument problem degrades that instrument
// to "no trade" and the rest of the cycle continues.
type TradingBot struct {
	cfg      config.Config
	candles  CandleProvider
	broker   Broker // nil in dry-run mode
	strategy *strategy.Reversion
	store    *decisions.WALStore
	notify   notifier.Notifier
	logger   *zap.Logger

	// dryRunPrecision stands in for broker metadata when there is no broker.
	dryRunPrecision domain.Precision
}

// NewTradingBot assembles the bot. broker may be nil for dry-run mode.
func NewTradingBot(cfg config.Config, candles CandleProvider, broker Broker, strat *strategy.Reversion,
	store *decisions.WALStore, notify notifier.Notifier, logger *zap.Logger) *TradingBot {

	if notify == nil {
		notify = notifier.Noop{}
	}
	return &TradingBot{
		cfg:             cfg,
		candles:         candles,
		broker:          broker,
		strategy:        strat,
		store:           store,
		notify:          notify,
		logger:          logger,
		dryRunPrecision: domain.Precision{PipLocation: -4, DisplayPrecision: 5},
	}
}

// Run executes evaluation cycles until ctx is cancelled. With Once set a
// single cycle runs and Run returns, leaving scheduling to cron.
func (b *TradingBot) Run(ctx context.Context) error {
	if b.cfg.Once {
		b.RunCycle(ctx)
		return nil
	}

	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	b.logger.Info("starting evaluation loop",
		zap.Strings("instruments", b.cfg.Instruments),
		zap.Duration("poll_interval", b.cfg.PollInterval))

	b.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("context done, stopping evaluation loop")
			return ctx.Err()
		case <-ticker.C:
			b.RunCycle(ctx)
		}
	}
}

// RunCycle evaluates all instruments concurrently. Instrument evaluations
// share no mutable state, so they are free to run in parallel.
func (b *TradingBot) RunCycle(ctx context.Context) {
	g := new(errgroup.Group)
	for _, instrument := range b.cfg.Instruments {
		g.Go(func() error {
			b.evaluateInstrument(ctx, instrument)
			return nil
		})
	}
	_ = g.Wait()
}

func (b *TradingBot) evaluateInstrument(ctx context.Context, instrument string) {
	logger := b.logger.With(zap.String("instrument", instrument))

	event, err := b.runPipeline(ctx, instrument, logger)
	if err != nil {
		// non-fatal: record the skip and move on
		logger.Warn("instrument cycle skipped", zap.Error(err))
		event = domain.DecisionEvent{
			Instrument: instrument,
			Time:       time.Now().UTC(),
			Outcome:    domain.OutcomeSkipped.String(),
			Reason:     err.Error(),
		}
	}
	event.ID = uuid.NewString()

	if b.store != nil {
		if err := b.store.Save(event); err != nil {
			logger.Error("failed to journal decision event", zap.Error(err))
		}
	}
}

func (b *TradingBot) runPipeline(ctx context.Context, instrument string, logger *zap.Logger) (domain.DecisionEvent, error) {
	precision, err := b.instrumentPrecision(ctx, instrument)
	if err != nil {
		return domain.DecisionEvent{}, err
	}

	series, err := b.candles.GetCandles(ctx, instrument, b.cfg.CandlesToFetch, b.cfg.Granularity)
	if err != nil {
		return domain.DecisionEvent{}, err
	}
	if len(series) < minHistory {
		return domain.DecisionEvent{}, errors.Wrapf(domain.ErrInsufficientHistory,
			"got %d candles, need at least %d", len(series), minHistory)
	}

	decision, err := b.strategy.Evaluate(ctx, series, precision)
	if err != nil {
		return domain.DecisionEvent{}, err
	}

	event := domain.DecisionEvent{
		Instrument: instrument,
		Time:       time.Now().UTC(),
		Outcome:    decision.Outcome.String(),
	}

	if decision.Outcome != domain.OutcomeTrade {
		logger.Debug("no trade this cycle", zap.String("outcome", decision.Outcome.String()))
		return event, nil
	}

	event.Direction = string(decision.Direction)
	event.StopLoss = decision.StopLoss
	event.TakeProfit = decision.TakeProfit
	event.Units = b.cfg.TradeUnits

	logger.Info("trade signal",
		zap.String("direction", string(decision.Direction)),
		zap.String("stop_loss", decision.StopLoss),
		zap.String("take_profit", decision.TakeProfit),
		zap.Int64("units", b.cfg.TradeUnits))

	if b.broker == nil {
		event.Reason = "dry run, order not submitted"
		logger.Info("dry run, skipping order submission")
		return event, nil
	}

	submitted, reason := b.submitOrder(ctx, instrument, decision, logger)
	event.Submitted = submitted
	event.Reason = reason
	return event, nil
}

func (b *TradingBot) instrumentPrecision(ctx context.Context, instrument string) (domain.Precision, error) {
	if b.broker == nil {
		return b.dryRunPrecision, nil
	}
	return b.broker.InstrumentPrecision(ctx, instrument)
}

// submitOrder places the market order unless the instrument already holds an
// open position. Returns whether the order was accepted and a human-readable
// reason when it was not.
func (b *TradingBot) submitOrder(ctx context.Context, instrument string, decision domain.Decision, logger *zap.Logger) (bool, string) {
	openTrade, err := b.broker.FindOpenTrade(ctx, instrument)
	if err != nil {
		logger.Error("failed to check open trades, not submitting", zap.Error(err))
		return false, "open trade check failed: " + err.Error()
	}
	if openTrade != nil {
		logger.Info("open trade exists, skipping new trade", zap.String("trade_id", openTrade.ID))
		return false, "open trade exists"
	}

	ack, err := b.broker.CreateMarketOrder(ctx, instrument, b.cfg.TradeUnits, decision.Direction, decision.StopLoss, decision.TakeProfit)
	if err != nil {
		logger.Error("order submission failed", zap.Error(err))
		return false, "order submission failed: " + err.Error()
	}
	if !ack.Accepted() {
		reason := "order rejected"
		if ack.OrderCancelTransaction != nil {
			reason = "order cancelled: " + ack.OrderCancelTransaction.Reason
		}
		logger.Warn("order not accepted", zap.String("reason", reason))
		return false, reason
	}

	logger.Info("trade executed")
	alert := notifier.TradeAlert{
		Instrument: instrument,
		Direction:  decision.Direction,
		Units:      b.cfg.TradeUnits,
		StopLoss:   decision.StopLoss,
		TakeProfit: decision.TakeProfit,
	}
	if err := b.notify.NotifyTrade(ctx, alert); err != nil {
		logger.Error("failed to send trade notification", zap.Error(err))
	}
	return true, ""
}
