package evm

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"

	"github.com/StrathCole/pricefeed/pkg/server/sources"
)

// AggregatorV3Interface subset.
const aggregatorABIJSON = `[
	{
		"inputs": [],
		"name": "latestRoundData",
		"outputs": [
			{"internalType": "uint80", "name": "roundId", "type": "uint80"},
			{"internalType": "int256", "name": "answer", "type": "int256"},
			{"internalType": "uint256", "name": "startedAt", "type": "uint256"},
			{"internalType": "uint256", "name": "updatedAt", "type": "uint256"},
			{"internalType": "uint80", "name": "answeredInRound", "type": "uint80"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "decimals",
		"outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

const defaultMaxAge = 24 * time.Hour

// ChainlinkSource reads the latest answer of a Chainlink aggregator.
//
// Config:
//
//	rpc_url: JSON-RPC endpoint
//	address: aggregator (or proxy) address
//	max_age: maximum age of updatedAt (default 24h)
type ChainlinkSource struct {
	*sources.BaseSource
	feed     *contract
	decimals int
	maxAge   time.Duration
	closeFn  func()
	now      func() time.Time

	mu           sync.Mutex
	feedDecimals *int
}

var _ sources.Source = (*ChainlinkSource)(nil)

// NewChainlinkSource creates a Chainlink aggregator source connected to rpc_url.
func NewChainlinkSource(name string, config map[string]interface{}) (sources.Source, error) {
	if _, err := parseAddress(config); err != nil {
		return nil, err
	}
	caller, closeFn, err := dial(config)
	if err != nil {
		return nil, err
	}
	s, err := newChainlinkSource(name, config, caller)
	if err != nil {
		closeFn()
		return nil, err
	}
	s.closeFn = closeFn
	return s, nil
}

func newChainlinkSource(name string, config map[string]interface{}, caller ethereum.ContractCaller) (*ChainlinkSource, error) {
	address, err := parseAddress(config)
	if err != nil {
		return nil, err
	}
	decimals, err := sources.GetDecimals(config)
	if err != nil {
		return nil, err
	}
	maxAge, err := sources.GetDuration(config, "max_age", defaultMaxAge)
	if err != nil {
		return nil, err
	}
	feed, err := newContract(caller, address, aggregatorABIJSON)
	if err != nil {
		return nil, err
	}

	return &ChainlinkSource{
		BaseSource: sources.NewBaseSource(name, sources.SourceTypeChainlink, sources.GetLoggerFromConfig(config)),
		feed:       feed,
		decimals:   decimals,
		maxAge:     maxAge,
		now:        time.Now,
	}, nil
}

// Fetch reads latestRoundData and rescales the answer to the output decimals.
func (s *ChainlinkSource) Fetch(ctx context.Context) (*big.Int, error) {
	price, err := s.fetch(ctx)
	s.RecordFetch(err)
	return price, err
}

func (s *ChainlinkSource) fetch(ctx context.Context) (*big.Int, error) {
	feedDecimals, err := s.getFeedDecimals(ctx)
	if err != nil {
		return nil, err
	}

	out, err := s.feed.call(ctx, "latestRoundData")
	if err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("%w: latestRoundData returned %d values", ErrUnexpectedOutput, len(out))
	}
	roundID, ok1 := out[0].(*big.Int)
	answer, ok2 := out[1].(*big.Int)
	updatedAt, ok3 := out[3].(*big.Int)
	answeredInRound, ok4 := out[4].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, fmt.Errorf("%w: latestRoundData", ErrUnexpectedOutput)
	}

	if answer.Sign() <= 0 {
		return nil, fmt.Errorf("%w: answer %s", sources.ErrNonPositivePrice, answer.String())
	}
	if answeredInRound.Cmp(roundID) < 0 {
		return nil, fmt.Errorf("%w: answered in %s, current %s", ErrIncompleteRound, answeredInRound.String(), roundID.String())
	}
	if !updatedAt.IsInt64() {
		return nil, fmt.Errorf("%w: updatedAt %s", ErrUnexpectedOutput, updatedAt.String())
	}
	updated := time.Unix(updatedAt.Int64(), 0)
	if age := s.now().Sub(updated); age > s.maxAge {
		return nil, fmt.Errorf("%w: updated %s ago (max %s)", ErrStalePrice, age.Truncate(time.Second), s.maxAge)
	}

	price := sources.Rescale(answer, feedDecimals, s.decimals)
	if err := sources.CheckPrice(price); err != nil {
		return nil, err
	}
	return price, nil
}

// getFeedDecimals reads decimals() once and caches it.
func (s *ChainlinkSource) getFeedDecimals(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feedDecimals != nil {
		return *s.feedDecimals, nil
	}

	out, err := s.feed.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("%w: decimals returned %d values", ErrUnexpectedOutput, len(out))
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("%w: decimals is %T", ErrUnexpectedOutput, out[0])
	}
	decimals := int(d)
	s.feedDecimals = &decimals
	return decimals, nil
}

// Close closes the RPC connection.
func (s *ChainlinkSource) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
