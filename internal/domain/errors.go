package domain

import "github.com/pkg/errors"

// Failure taxonomy for one evaluation cycle. Only ErrInvalidConfiguration is
// fatal and surfaces at startup; every other error degrades one instrument's
// cycle to "no trade" and the loop moves on.
var (
	// ErrInvalidConfiguration programmer error, e.g. a non-positive indicator period.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInsufficientHistory the data provider returned fewer candles than required.
	ErrInsufficientHistory = errors.New("insufficient candle history")
	// ErrIncompleteFeatures a breakout was detected but the feature vector has undefined values.
	ErrIncompleteFeatures = errors.New("incomplete feature vector")
	// ErrInferenceFailure the model collaborator failed for this cycle.
	ErrInferenceFailure = errors.New("inference failure")
	// ErrPrecisionUnavailable instrument precision metadata could not be resolved.
	ErrPrecisionUnavailable = errors.New("instrument precision unavailable")
)
