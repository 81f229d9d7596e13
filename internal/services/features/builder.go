// Package features assembles the model input vector from an indicator row.
package features

import (
	"github.com/pkg/errors"

	"bandrev/internal/domain"
	"bandrev/internal/services/detector"
)

// profitScale converts the close-to-middle-band distance into the integer
// pip-like units used at training time. The model was trained with a flat
// x10000 scaling for every instrument, so the true pip size must not be
// substituted here.
const profitScale = 10000

// rowAccessors is the closed mapping from feature names to indicator fields.
// break_type and profit_potential are structural and handled separately.
var rowAccessors = map[string]func(*domain.IndicatorRow) domain.Value{
	domain.FeatureBBPercent:    func(r *domain.IndicatorRow) domain.Value { return r.BBPercent },
	domain.FeatureRSI:          func(r *domain.IndicatorRow) domain.Value { return r.RSI },
	domain.FeatureMACD:         func(r *domain.IndicatorRow) domain.Value { return r.MACD },
	domain.FeatureMACDSignal:   func(r *domain.IndicatorRow) domain.Value { return r.MACDSignal },
	domain.FeaturePriceChange1: func(r *domain.IndicatorRow) domain.Value { return r.PriceChange1 },
	domain.FeaturePriceChange5: func(r *domain.IndicatorRow) domain.Value { return r.PriceChange5 },
	domain.FeatureVolatility:   func(r *domain.IndicatorRow) domain.Value { return r.Volatility },
	domain.FeatureVolumeRatio:  func(r *domain.IndicatorRow) domain.Value { return r.VolumeRatio },
	domain.FeatureHour:         func(r *domain.IndicatorRow) domain.Value { return r.Hour },
	domain.FeatureDayOfWeek:    func(r *domain.IndicatorRow) domain.Value { return r.DayOfWeek },
}

// Builder assembles feature vectors in the order the model expects.
type Builder struct {
	names []string
}

// NewBuilder returns a builder for the externally supplied ordered feature
// list. Names outside the known feature set are rejected up front.
func NewBuilder(names []string) (*Builder, error) {
	if len(names) == 0 {
		return nil, errors.Wrap(domain.ErrInvalidConfiguration, "feature list is empty")
	}
	for _, name := range names {
		if _, ok := rowAccessors[name]; ok {
			continue
		}
		if name == domain.FeatureBreakType || name == domain.FeatureProfitPotential {
			continue
		}
		return nil, errors.Wrapf(domain.ErrInvalidConfiguration, "unknown feature name %q", name)
	}
	return &Builder{names: names}, nil
}

// Names returns the expected feature order.
func (b *Builder) Names() []string {
	return b.names
}

// Build resolves every expected feature from the feature candle's row and the
// breakout polarity. If any value is undefined the vector is invalid and
// ErrIncompleteFeatures is returned; no partial vector ever reaches the model.
func (b *Builder) Build(row *domain.IndicatorRow, kind detector.Break) (domain.FeatureVector, error) {
	if kind == detector.BreakNone {
		return domain.FeatureVector{}, errors.Wrap(domain.ErrIncompleteFeatures, "no breakout polarity")
	}

	values := make([]float64, len(b.names))
	for i, name := range b.names {
		value, err := b.resolve(row, kind, name)
		if err != nil {
			return domain.FeatureVector{}, err
		}
		values[i] = value
	}

	return domain.FeatureVector{Names: b.names, Values: values}, nil
}

func (b *Builder) resolve(row *domain.IndicatorRow, kind detector.Break, name string) (float64, error) {
	switch name {
	case domain.FeatureBreakType:
		if kind == detector.BreakUpper {
			return 1, nil
		}
		return 0, nil
	case domain.FeatureProfitPotential:
		return profitPotential(row, kind)
	}

	value, ok := rowAccessors[name](row).Get()
	if !ok {
		return 0, errors.Wrapf(domain.ErrIncompleteFeatures, "feature %q is undefined at %s", name, row.Time)
	}
	return value, nil
}

// profitPotential is the signed distance from the close to the middle band,
// oriented toward the anticipated reversion: an upper break anticipates a
// short, a lower break a long.
func profitPotential(row *domain.IndicatorRow, kind detector.Break) (float64, error) {
	middle, ok := row.BBMiddle.Get()
	if !ok {
		return 0, errors.Wrapf(domain.ErrIncompleteFeatures, "middle band is undefined at %s", row.Time)
	}
	if kind == detector.BreakUpper {
		return (row.Close - middle) * profitScale, nil
	}
	return (middle - row.Close) * profitScale, nil
}
