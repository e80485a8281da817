package sources

import (
	"context"
	"math/big"
)

// SourceType represents the kind of price source
type SourceType string

const (
	SourceTypeStatic    SourceType = "static"
	SourceTypeHTTP      SourceType = "http"
	SourceTypeChainlink SourceType = "chainlink"
	SourceTypeUniswapV2 SourceType = "uniswap_v2"
)

// Source reads one observation of an asset price.
//
// Observations are unsigned fixed-point integers scaled to the feed's
// decimals. A source that cannot produce a positive reading returns an error;
// it never substitutes a value of its own.
type Source interface {
	// Fetch reads the current observation
	Fetch(ctx context.Context) (*big.Int, error)

	// Name returns the unique name of this source within its feed
	Name() string

	// Type returns the type of this source
	Type() SourceType

	// Close releases connections held by the source
	Close() error
}

// SourceFactory creates a new Source from its name and configuration.
// The feed builder injects "decimals" and "logger" into config.
type SourceFactory func(name string, config map[string]interface{}) (Source, error)
