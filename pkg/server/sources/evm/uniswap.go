package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"

	"github.com/StrathCole/pricefeed/pkg/server/sources"
)

// Uniswap V2 Pair ABI (only getReserves function).
const pairABIJSON = `[{
	"constant": true,
	"inputs": [],
	"name": "getReserves",
	"outputs": [
		{"internalType": "uint112", "name": "reserve0", "type": "uint112"},
		{"internalType": "uint112", "name": "reserve1", "type": "uint112"},
		{"internalType": "uint32", "name": "blockTimestampLast", "type": "uint32"}
	],
	"payable": false,
	"stateMutability": "view",
	"type": "function"
}]`

// maxTokenDecimals bounds token decimals read from config.
const maxTokenDecimals = 36

// UniswapV2Source derives a spot price from the reserves of a Uniswap V2
// style pair. Any fork exposing getReserves() works (PancakeSwap, SushiSwap).
//
// Config:
//
//	rpc_url:   JSON-RPC endpoint
//	address:   pair address
//	decimals0: token0 decimals (default 18)
//	decimals1: token1 decimals (default 18)
//	invert:    quote token1 in token0 instead of token0 in token1
type UniswapV2Source struct {
	*sources.BaseSource
	pair      *contract
	decimals  int
	decimals0 int
	decimals1 int
	invert    bool
	closeFn   func()
}

var _ sources.Source = (*UniswapV2Source)(nil)

// Reserves holds the pair reserves.
type Reserves struct {
	Reserve0           *big.Int
	Reserve1           *big.Int
	BlockTimestampLast uint32
}

// NewUniswapV2Source creates a pair source connected to rpc_url.
func NewUniswapV2Source(name string, config map[string]interface{}) (sources.Source, error) {
	if _, err := parseAddress(config); err != nil {
		return nil, err
	}
	caller, closeFn, err := dial(config)
	if err != nil {
		return nil, err
	}
	s, err := newUniswapV2Source(name, config, caller)
	if err != nil {
		closeFn()
		return nil, err
	}
	s.closeFn = closeFn
	return s, nil
}

func newUniswapV2Source(name string, config map[string]interface{}, caller ethereum.ContractCaller) (*UniswapV2Source, error) {
	address, err := parseAddress(config)
	if err != nil {
		return nil, err
	}
	decimals, err := sources.GetDecimals(config)
	if err != nil {
		return nil, err
	}
	decimals0 := sources.GetInt(config, "decimals0", 18)
	decimals1 := sources.GetInt(config, "decimals1", 18)
	if decimals0 < 0 || decimals0 > maxTokenDecimals || decimals1 < 0 || decimals1 > maxTokenDecimals {
		return nil, fmt.Errorf("%w: token decimals must be 0-%d", sources.ErrInvalidConfig, maxTokenDecimals)
	}
	pair, err := newContract(caller, address, pairABIJSON)
	if err != nil {
		return nil, err
	}

	return &UniswapV2Source{
		BaseSource: sources.NewBaseSource(name, sources.SourceTypeUniswapV2, sources.GetLoggerFromConfig(config)),
		pair:       pair,
		decimals:   decimals,
		decimals0:  decimals0,
		decimals1:  decimals1,
		invert:     sources.GetBool(config, "invert", false),
	}, nil
}

// Fetch reads the pair reserves and returns the spot price.
func (s *UniswapV2Source) Fetch(ctx context.Context) (*big.Int, error) {
	price, err := s.fetch(ctx)
	s.RecordFetch(err)
	return price, err
}

func (s *UniswapV2Source) fetch(ctx context.Context) (*big.Int, error) {
	reserves, err := s.getReserves(ctx)
	if err != nil {
		return nil, err
	}
	price, err := SpotPrice(reserves, s.decimals0, s.decimals1, s.decimals, s.invert)
	if err != nil {
		return nil, err
	}
	if err := sources.CheckPrice(price); err != nil {
		return nil, err
	}
	return price, nil
}

// getReserves calls the getReserves() function on the pair contract.
func (s *UniswapV2Source) getReserves(ctx context.Context) (*Reserves, error) {
	out, err := s.pair.call(ctx, "getReserves")
	if err != nil {
		return nil, err
	}
	if len(out) != 3 {
		return nil, fmt.Errorf("%w: getReserves returned %d values", ErrUnexpectedOutput, len(out))
	}
	reserve0, ok0 := out[0].(*big.Int)
	reserve1, ok1 := out[1].(*big.Int)
	ts, ok2 := out[2].(uint32)
	if !ok0 || !ok1 || !ok2 {
		return nil, fmt.Errorf("%w: getReserves", ErrUnexpectedOutput)
	}
	return &Reserves{Reserve0: reserve0, Reserve1: reserve1, BlockTimestampLast: ts}, nil
}

// SpotPrice calculates the price of token0 in token1 from reserves, scaled to
// outDecimals and truncated:
//
//	price = (reserve1 / 10^decimals1) / (reserve0 / 10^decimals0)
//
// With invert set, the price of token1 in token0 is returned instead.
func SpotPrice(r *Reserves, decimals0, decimals1, outDecimals int, invert bool) (*big.Int, error) {
	if r.Reserve0.Sign() == 0 || r.Reserve1.Sign() == 0 {
		return nil, fmt.Errorf("%w", ErrZeroLiquidity)
	}

	base, quote := r.Reserve0, r.Reserve1
	baseDecimals, quoteDecimals := decimals0, decimals1
	if invert {
		base, quote = quote, base
		baseDecimals, quoteDecimals = quoteDecimals, baseDecimals
	}

	num := new(big.Int).Mul(quote, pow10(baseDecimals+outDecimals))
	den := new(big.Int).Mul(base, pow10(quoteDecimals))
	price := num.Quo(num, den)
	if price.Sign() == 0 {
		return nil, fmt.Errorf("%w: price rounds to zero at %d decimals", sources.ErrNonPositivePrice, outDecimals)
	}
	return price, nil
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
