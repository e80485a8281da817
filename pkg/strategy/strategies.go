package strategy

import (
	"math/big"
)

// Func resolves one price from an ordered observation set and an opaque parameter blob.
//
// A zero result with a nil error means no source had data. Observations are
// never modified.
type Func func(observations []*big.Int, params []byte) (*big.Int, error)

// Ensure the strategies satisfy Func.
var (
	_ Func = FirstNonZeroPrice
	_ Func = AveragePrice
	_ Func = MedianPrice
	_ Func = AveragePriceIfDeviation
	_ Func = MedianPriceIfDeviation
)

// FirstNonZeroPrice returns the first non-zero observation in priority order.
// An empty set is a configuration error; an all-zero set yields 0.
func FirstNonZeroPrice(observations []*big.Int, _ []byte) (*big.Int, error) {
	if len(observations) == 0 {
		return nil, ErrNoObservations
	}
	if err := validate(observations); err != nil {
		return nil, err
	}
	return firstNonZero(observations), nil
}

// AveragePrice returns the floor mean of the non-zero observations.
// It needs at least two configured observations.
func AveragePrice(observations []*big.Int, _ []byte) (*big.Int, error) {
	if err := requireCount(observations, baselineMean.minimum()); err != nil {
		return nil, err
	}
	return Average(observations)
}

// MedianPrice returns the median of the non-zero observations.
// It needs at least three configured observations. With only one or two
// live values there is no meaningful median and the first live value is used.
func MedianPrice(observations []*big.Int, _ []byte) (*big.Int, error) {
	if err := requireCount(observations, baselineMedian.minimum()); err != nil {
		return nil, err
	}

	nonZero := FilterNonZero(observations)
	if len(nonZero) < baselineMedian.minimum() {
		return firstNonZero(nonZero), nil
	}
	return Median(SortAscending(nonZero)), nil
}

// AveragePriceIfDeviation returns the mean when the live observations deviate
// from it by more than the threshold in params, and the first live
// observation otherwise.
func AveragePriceIfDeviation(observations []*big.Int, params []byte) (*big.Int, error) {
	return resolveWithDeviation(observations, params, baselineMean)
}

// MedianPriceIfDeviation returns the median when the live observations
// deviate from their mean by more than the threshold in params, and the first
// live observation otherwise.
func MedianPriceIfDeviation(observations []*big.Int, params []byte) (*big.Int, error) {
	return resolveWithDeviation(observations, params, baselineMedian)
}
