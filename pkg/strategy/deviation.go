package strategy

import (
	"fmt"
	"math/big"
)

// baseline selects the statistic returned when sources disagree.
type baseline int

const (
	baselineMean baseline = iota
	baselineMedian
)

// minimum is the number of live values the statistic needs to be meaningful.
func (b baseline) minimum() int {
	if b == baselineMedian {
		return 3
	}
	return 2
}

var basisPoints = big.NewInt(BasisPoints)

// Spread holds the deviation of the extremes of a set from its mean, in basis points.
// Both sides are relative to the mean.
type Spread struct {
	Mean *big.Int
	Low  *big.Int // (mean - min) * 10000 / mean
	High *big.Int // (max - mean) * 10000 / mean
}

// Exceeds reports whether either side is strictly above bps.
func (s Spread) Exceeds(bps *big.Int) bool {
	return s.Low.Cmp(bps) > 0 || s.High.Cmp(bps) > 0
}

// spreadOf computes the spread of a sanitized, ascending, non-empty set with the given mean.
func spreadOf(sorted []*big.Int, mean *big.Int) (Spread, error) {
	low, err := checkedMul(new(big.Int).Sub(mean, sorted[0]), basisPoints)
	if err != nil {
		return Spread{}, err
	}
	high, err := checkedMul(new(big.Int).Sub(sorted[len(sorted)-1], mean), basisPoints)
	if err != nil {
		return Spread{}, err
	}

	return Spread{
		Mean: mean,
		Low:  low.Quo(low, mean),
		High: high.Quo(high, mean),
	}, nil
}

// SpreadOf sanitizes raw observations and measures how far the cheapest and
// dearest live values sit from their mean. It returns a zero Spread when
// there are no live values.
func SpreadOf(observations []*big.Int) (Spread, error) {
	if err := validate(observations); err != nil {
		return Spread{}, err
	}

	sorted := SortAscending(FilterNonZero(observations))
	if len(sorted) == 0 {
		return Spread{Mean: new(big.Int), Low: new(big.Int), High: new(big.Int)}, nil
	}

	mean, err := Average(sorted)
	if err != nil {
		return Spread{}, err
	}
	return spreadOf(sorted, mean)
}

// resolveWithDeviation returns the baseline statistic when the live values
// disagree by more than the encoded threshold, and the first live value in
// priority order otherwise.
func resolveWithDeviation(observations []*big.Int, params []byte, stat baseline) (*big.Int, error) {
	if err := requireCount(observations, stat.minimum()); err != nil {
		return nil, err
	}

	nonZero := FilterNonZero(observations)
	if len(nonZero) == 0 {
		return new(big.Int), nil
	}

	first := new(big.Int).Set(nonZero[0])
	if len(nonZero) < stat.minimum() {
		return first, nil
	}

	sorted := SortAscending(nonZero)
	mean, err := Average(sorted)
	if err != nil {
		return nil, err
	}

	aggregate := mean
	if stat == baselineMedian {
		aggregate = Median(sorted)
	}

	bps, err := DecodeDeviationParams(params)
	if err != nil {
		return nil, err
	}

	spread, err := spreadOf(sorted, mean)
	if err != nil {
		return nil, fmt.Errorf("deviation check: %w", err)
	}

	if spread.Exceeds(bps) {
		return aggregate, nil
	}
	return first, nil
}
