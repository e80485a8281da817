package strategy

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// DeviationParamsLength is the size of the deviation parameter blob: one ABI-encoded uint256.
const DeviationParamsLength = 32

// BasisPoints is the denominator of deviation thresholds (10000 = 100%).
const BasisPoints = 10_000

var deviationArgs = mustUint256Arguments()

func mustUint256Arguments() abi.Arguments {
	t, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(fmt.Sprintf("strategy: build uint256 abi type: %v", err))
	}
	return abi.Arguments{{Name: "deviationBps", Type: t}}
}

// EncodeDeviationParams ABI-encodes a deviation threshold in basis points.
func EncodeDeviationParams(bps uint64) ([]byte, error) {
	if bps == 0 {
		return nil, fmt.Errorf("%w", ErrDeviationZero)
	}
	return deviationArgs.Pack(new(big.Int).SetUint64(bps))
}

// DecodeDeviationParams decodes a deviation threshold from exactly one ABI word.
// Any other length, or a zero value, is an ErrParameter.
func DecodeDeviationParams(params []byte) (*big.Int, error) {
	if len(params) != DeviationParamsLength {
		return nil, fmt.Errorf("%w: got %d bytes", ErrParamsLength, len(params))
	}

	values, err := deviationArgs.Unpack(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParameter, err)
	}

	bps, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected decoded type %T", ErrParameter, values[0])
	}
	if bps.Sign() == 0 {
		return nil, fmt.Errorf("%w", ErrDeviationZero)
	}

	return bps, nil
}
