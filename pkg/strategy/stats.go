package strategy

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
)

var two = big.NewInt(2)

// Average returns the floor of the arithmetic mean of the non-zero values.
// An empty (or all-zero) set yields 0. A running sum above 2^256-1 is an
// ErrOverflow.
func Average(values []*big.Int) (*big.Int, error) {
	nonZero := FilterNonZero(values)
	if len(nonZero) == 0 {
		return new(big.Int), nil
	}

	sum := new(big.Int)
	for _, v := range nonZero {
		sum.Add(sum, v)
		if sum.Cmp(math.MaxBig256) > 0 {
			return nil, fmt.Errorf("%w: sum of %d observations exceeds uint256", ErrOverflow, len(nonZero))
		}
	}

	return sum.Quo(sum, big.NewInt(int64(len(nonZero)))), nil
}

// Median returns the median of values, which must already be sanitized and
// sorted ascending. For an even count it is the floor of the mean of the two
// central values.
func Median(sorted []*big.Int) *big.Int {
	n := len(sorted)
	if n == 0 {
		return new(big.Int)
	}

	if n%2 == 0 {
		mid := new(big.Int).Add(sorted[n/2-1], sorted[n/2])
		return mid.Quo(mid, two)
	}

	return new(big.Int).Set(sorted[(n-1)/2])
}

// MedianOf sanitizes and sorts raw observations, then takes the median.
func MedianOf(observations []*big.Int) *big.Int {
	return Median(SortAscending(FilterNonZero(observations)))
}
