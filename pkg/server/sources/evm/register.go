package evm

import (
	"github.com/StrathCole/pricefeed/pkg/server/sources"
)

func init() {
	sources.Register(sources.SourceTypeChainlink, NewChainlinkSource)
	sources.Register(sources.SourceTypeUniswapV2, NewUniswapV2Source)
}
