package strategy

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prices(values ...int64) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = big.NewInt(v)
	}
	return out
}

func mustParams(t *testing.T, bps uint64) []byte {
	t.Helper()
	params, err := EncodeDeviationParams(bps)
	require.NoError(t, err)
	return params
}

func assertPrice(t *testing.T, expected int64, got *big.Int) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, 0, got.Cmp(big.NewInt(expected)), "expected %d, got %s", expected, got)
}

func TestFirstNonZeroPrice(t *testing.T) {
	tests := []struct {
		name     string
		input    []*big.Int
		expected int64
	}{
		{name: "first is live", input: prices(7, 8, 9), expected: 7},
		{name: "skips leading zeros", input: prices(0, 0, 9, 3), expected: 9},
		{name: "nil is a zero", input: []*big.Int{nil, big.NewInt(4)}, expected: 4},
		{name: "all zero", input: prices(0, 0), expected: 0},
		{name: "single", input: prices(12), expected: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FirstNonZeroPrice(tt.input, nil)
			require.NoError(t, err)
			assertPrice(t, tt.expected, got)
		})
	}
}

func TestFirstNonZeroPrice_Empty(t *testing.T) {
	_, err := FirstNonZeroPrice(nil, nil)
	require.ErrorIs(t, err, ErrNoObservations)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestAveragePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    []*big.Int
		expected int64
	}{
		{name: "two values", input: prices(5, 15), expected: 10},
		{name: "floors", input: prices(1, 2, 4), expected: 2},
		{name: "ignores zeros", input: prices(0, 10, 0, 20), expected: 15},
		{name: "single live value", input: prices(0, 42), expected: 42},
		{name: "all invalid", input: prices(0, 0), expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AveragePrice(tt.input, nil)
			require.NoError(t, err)
			assertPrice(t, tt.expected, got)
		})
	}
}

func TestAveragePrice_BelowFloor(t *testing.T) {
	_, err := AveragePrice(prices(5), nil)
	require.ErrorIs(t, err, ErrPriceCountInvalid)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.NotErrorIs(t, err, ErrParameter)
}

func TestAveragePrice_Overflow(t *testing.T) {
	_, err := AveragePrice([]*big.Int{new(big.Int).Set(math.MaxBig256), big.NewInt(1)}, nil)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestMedianPrice(t *testing.T) {
	tests := []struct {
		name     string
		input    []*big.Int
		expected int64
	}{
		{name: "odd", input: prices(30, 10, 20), expected: 20},
		{name: "even", input: prices(40, 10, 30, 20), expected: 25},
		{name: "even floors", input: prices(10, 0, 11, 20, 21), expected: 15},
		{name: "all zero", input: prices(0, 0, 0), expected: 0},
		{name: "one live value", input: prices(0, 0, 8), expected: 8},
		{name: "two live values use first", input: prices(0, 9, 3), expected: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MedianPrice(tt.input, nil)
			require.NoError(t, err)
			assertPrice(t, tt.expected, got)
		})
	}
}

func TestMedianPrice_BelowFloor(t *testing.T) {
	_, err := MedianPrice(prices(5, 6), nil)
	require.ErrorIs(t, err, ErrPriceCountInvalid)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestAveragePriceIfDeviation(t *testing.T) {
	// Live values sort to [90, 100, 130]: mean 106, low 1509 bps, high 2264 bps.
	observations := prices(0, 130, 90, 100)

	tests := []struct {
		name     string
		bps      uint64
		expected int64
	}{
		{name: "both sides exceed", bps: 1000, expected: 106},
		{name: "only high side exceeds", bps: 2000, expected: 106},
		{name: "high side at threshold", bps: 2264, expected: 130},
		{name: "high side just above threshold", bps: 2263, expected: 106},
		{name: "within threshold", bps: 3000, expected: 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AveragePriceIfDeviation(observations, mustParams(t, tt.bps))
			require.NoError(t, err)
			assertPrice(t, tt.expected, got)
		})
	}
}

func TestMedianPriceIfDeviation(t *testing.T) {
	observations := prices(130, 0, 90, 100)

	got, err := MedianPriceIfDeviation(observations, mustParams(t, 1000))
	require.NoError(t, err)
	assertPrice(t, 100, got)

	got, err = MedianPriceIfDeviation(observations, mustParams(t, 3000))
	require.NoError(t, err)
	assertPrice(t, 130, got)
}

func TestDeviation_ShortCircuits(t *testing.T) {
	tests := []struct {
		name     string
		fn       Func
		input    []*big.Int
		expected int64
	}{
		{name: "average all zero", fn: AveragePriceIfDeviation, input: prices(0, 0), expected: 0},
		{name: "average one live", fn: AveragePriceIfDeviation, input: prices(0, 5), expected: 5},
		{name: "median all zero", fn: MedianPriceIfDeviation, input: prices(0, 0, 0), expected: 0},
		{name: "median one live", fn: MedianPriceIfDeviation, input: prices(0, 0, 7), expected: 7},
		{name: "median two live", fn: MedianPriceIfDeviation, input: prices(0, 11, 7), expected: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Parameters are only decoded once a statistic is actually computed.
			got, err := tt.fn(tt.input, nil)
			require.NoError(t, err)
			assertPrice(t, tt.expected, got)
		})
	}
}

func TestDeviation_ConfigurationFloor(t *testing.T) {
	params := mustParams(t, 100)

	_, err := AveragePriceIfDeviation(prices(5), params)
	require.ErrorIs(t, err, ErrPriceCountInvalid)

	_, err = MedianPriceIfDeviation(prices(5, 6), params)
	require.ErrorIs(t, err, ErrPriceCountInvalid)
}

func TestDeviation_ParameterErrors(t *testing.T) {
	observations := prices(90, 100, 130)

	tests := []struct {
		name   string
		params []byte
		target error
	}{
		{name: "empty", params: nil, target: ErrParamsLength},
		{name: "short", params: make([]byte, 31), target: ErrParamsLength},
		{name: "long", params: make([]byte, 64), target: ErrParamsLength},
		{name: "zero", params: make([]byte, 32), target: ErrDeviationZero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, fn := range []Func{AveragePriceIfDeviation, MedianPriceIfDeviation} {
				_, err := fn(observations, tt.params)
				require.ErrorIs(t, err, tt.target)
				assert.ErrorIs(t, err, ErrParameter)
				assert.NotErrorIs(t, err, ErrConfiguration)
			}
		})
	}
}

func TestDeviation_ProductOverflow(t *testing.T) {
	// Sum is exactly 2^256-1, but (mean - min) * 10000 is not representable.
	top := new(big.Int).Sub(math.MaxBig256, big.NewInt(1))
	_, err := AveragePriceIfDeviation([]*big.Int{big.NewInt(1), top}, mustParams(t, 100))
	require.ErrorIs(t, err, ErrOverflow)
}

func TestValidation(t *testing.T) {
	tooMany := make([]*big.Int, MaxObservations+1)
	_, err := AveragePrice(tooMany, nil)
	require.ErrorIs(t, err, ErrTooManyObservations)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = MedianPrice(prices(1, -2, 3), nil)
	require.ErrorIs(t, err, ErrNegativeObservation)

	huge := new(big.Int).Add(math.MaxBig256, big.NewInt(1))
	_, err = FirstNonZeroPrice([]*big.Int{huge}, nil)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestStrategies_Idempotent(t *testing.T) {
	observations := prices(130, 0, 90, 100)
	snapshot := prices(130, 0, 90, 100)
	params := mustParams(t, 1000)

	for _, name := range Names() {
		first, err := Resolve(name, observations, params)
		require.NoError(t, err, name)
		second, err := Resolve(name, observations, params)
		require.NoError(t, err, name)
		assert.Equal(t, 0, first.Cmp(second), name)
	}

	for i := range observations {
		assert.Equal(t, 0, observations[i].Cmp(snapshot[i]), "input mutated at %d", i)
	}
}

func TestStrategies_ResultIsACopy(t *testing.T) {
	observations := prices(0, 50, 60)
	got, err := FirstNonZeroPrice(observations, nil)
	require.NoError(t, err)

	got.SetInt64(1)
	assertPrice(t, 50, observations[1])
}

func TestStatistics_PermutationInvariant(t *testing.T) {
	a := prices(3, 0, 9, 1, 7)
	b := prices(7, 1, 0, 3, 9)

	meanA, err := Average(a)
	require.NoError(t, err)
	meanB, err := Average(b)
	require.NoError(t, err)
	assert.Equal(t, 0, meanA.Cmp(meanB))
	assert.Equal(t, 0, MedianOf(a).Cmp(MedianOf(b)))

	// Order-sensitive strategies are not.
	firstA, _ := FirstNonZeroPrice(a, nil)
	firstB, _ := FirstNonZeroPrice(b, nil)
	assert.NotEqual(t, 0, firstA.Cmp(firstB))
}
