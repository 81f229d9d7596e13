// Package strategy turns candle history into a trade decision.
package strategy

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"bandrev/internal/domain"
	"bandrev/internal/services/detector"
	"bandrev/internal/services/features"
	"bandrev/internal/services/indicators"
)

// Predictor is the pretrained classifier collaborator. It returns 1 when the
// detected breakout is expected to revert toward the middle band.
type Predictor interface {
	Predict(ctx context.Context, vector domain.FeatureVector) (int, error)
}

// Reversion evaluates one instrument's candle history per cycle: indicators,
// breakout check on the signal candle, feature vector from the feature candle,
// model inference, and on a positive label a reversion trade against the
// breakout with stop-loss and take-profit at venue precision.
//
// Gates short-circuit in order; a failed gate inside one cycle is terminal,
// the next cycle belongs to the external scheduler.
type Reversion struct {
	engine  *indicators.Engine
	builder *features.Builder
	pred    Predictor
	slPips  float64
	logger  *zap.Logger
}

// NewReversion wires the pipeline. Non-positive stop-loss distance and invalid
// indicator periods are configuration errors and surface immediately.
func NewReversion(logger *zap.Logger, cfg indicators.Config, featureNames []string, pred Predictor, slPips float64) (*Reversion, error) {
	if slPips <= 0 {
		return nil, errors.Wrapf(domain.ErrInvalidConfiguration, "stop-loss pips must be positive, got %f", slPips)
	}

	engine, err := indicators.NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	builder, err := features.NewBuilder(featureNames)
	if err != nil {
		return nil, err
	}

	return &Reversion{
		engine:  engine,
		builder: builder,
		pred:    pred,
		slPips:  slPips,
		logger:  logger,
	}, nil
}

// Evaluate runs one decision cycle over an immutable candle snapshot.
// Everything that can go wrong mid-cycle degrades to a non-trade outcome;
// the returned error is reserved for broken inputs, never for a quiet market.
func (r *Reversion) Evaluate(ctx context.Context, series domain.Series, precision domain.Precision) (domain.Decision, error) {
	if err := series.Validate(); err != nil {
		return domain.Decision{}, err
	}
	if len(series) < 2 {
		return domain.NoSignal(), nil
	}

	rows := r.engine.Compute(series)

	event := detector.Detect(rows)
	if event.Kind == detector.BreakNone {
		return domain.NoSignal(), nil
	}

	r.logger.Info("breakout detected",
		zap.String("kind", event.Kind.String()),
		zap.Time("signal_candle", event.Signal.Time),
		zap.Time("feature_candle", event.Feature.Time))

	middle, ok := event.Feature.BBMiddle.Get()
	if !ok {
		r.logger.Info("feature candle has no middle band, skipping trade",
			zap.Time("feature_candle", event.Feature.Time))
		return domain.BreakoutNoTrade(), nil
	}

	vector, err := r.builder.Build(event.Feature, event.Kind)
	if err != nil {
		if errors.Is(err, domain.ErrIncompleteFeatures) {
			r.logger.Info("feature vector incomplete, skipping trade", zap.Error(err))
			return domain.BreakoutNoTrade(), nil
		}
		return domain.Decision{}, err
	}

	label, err := r.pred.Predict(ctx, vector)
	if err != nil {
		// a failed single-cycle prediction must not crash the evaluation loop
		r.logger.Warn("model inference failed, skipping trade",
			zap.Error(errors.Wrap(err, domain.ErrInferenceFailure.Error())))
		return domain.BreakoutNoTrade(), nil
	}

	if label != 1 {
		r.logger.Info("model predicts no reversion", zap.Int("label", label))
		return domain.BreakoutNoTrade(), nil
	}

	return r.buildTrade(event, middle, precision), nil
}

// buildTrade derives order parameters from the feature candle: the stop-loss
// sits slPips beyond the close against the trade, the take-profit is the
// middle band the price is expected to revert to.
func (r *Reversion) buildTrade(event detector.Event, middle float64, precision domain.Precision) domain.Decision {
	entryRef := event.Feature.Close
	slOffset := r.slPips * precision.PipSize()

	var direction domain.Direction
	var slRaw float64
	if event.Kind == detector.BreakUpper {
		direction = domain.DirectionSell
		slRaw = entryRef + slOffset
	} else {
		direction = domain.DirectionBuy
		slRaw = entryRef - slOffset
	}

	return domain.Decision{
		Outcome:    domain.OutcomeTrade,
		Direction:  direction,
		StopLoss:   precision.FormatPrice(slRaw),
		TakeProfit: precision.FormatPrice(middle),
	}
}

// PredictorFunc adapts a plain function to the Predictor interface.
type PredictorFunc func(ctx context.Context, vector domain.FeatureVector) (int, error)

// Predict calls the wrapped function.
func (f PredictorFunc) Predict(ctx context.Context, vector domain.FeatureVector) (int, error) {
	return f(ctx, vector)
}
