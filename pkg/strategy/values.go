package strategy

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common/math"
)

// MaxObservations bounds the size of an observation set.
// Sources are configured per asset and number in the single digits in practice.
const MaxObservations = 64

// IsNoData reports whether a resolved price is the "no data" sentinel.
func IsNoData(price *big.Int) bool {
	return price == nil || price.Sign() == 0
}

// validate checks the observation set against the uint256 domain.
func validate(observations []*big.Int) error {
	if len(observations) > MaxObservations {
		return fmt.Errorf("%w: got %d, limit %d", ErrTooManyObservations, len(observations), MaxObservations)
	}
	for i, v := range observations {
		if v == nil {
			continue
		}
		if v.Sign() < 0 {
			return fmt.Errorf("%w: index %d", ErrNegativeObservation, i)
		}
		if v.Cmp(math.MaxBig256) > 0 {
			return fmt.Errorf("%w: observation %d exceeds uint256", ErrOverflow, i)
		}
	}
	return nil
}

// requireCount enforces the nominal floor of a strategy, zeros included.
func requireCount(observations []*big.Int, minimum int) error {
	if len(observations) < minimum {
		return fmt.Errorf("%w: got %d, need at least %d", ErrPriceCountInvalid, len(observations), minimum)
	}
	return validate(observations)
}

// FilterNonZero returns the non-zero observations in their original order.
// Nil entries count as zero. The input is not modified.
func FilterNonZero(observations []*big.Int) []*big.Int {
	out := make([]*big.Int, 0, len(observations))
	for _, v := range observations {
		if v == nil || v.Sign() == 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}

// SortAscending returns an ascending copy of values. The input is not modified.
func SortAscending(values []*big.Int) []*big.Int {
	sorted := make([]*big.Int, len(values))
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Cmp(sorted[j]) < 0
	})
	return sorted
}

// firstNonZero returns a copy of the first non-zero value, or zero.
func firstNonZero(observations []*big.Int) *big.Int {
	for _, v := range observations {
		if v != nil && v.Sign() != 0 {
			return new(big.Int).Set(v)
		}
	}
	return new(big.Int)
}

// checkedMul multiplies and fails if the product leaves the uint256 range.
func checkedMul(a, b *big.Int) (*big.Int, error) {
	product := new(big.Int).Mul(a, b)
	if product.Cmp(math.MaxBig256) > 0 {
		return nil, fmt.Errorf("%w: %s * %s", ErrOverflow, a, b)
	}
	return product, nil
}
