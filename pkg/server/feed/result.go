package feed

import (
	"math/big"
	"time"

	"github.com/StrathCole/pricefeed/pkg/strategy"
)

// Observation is one source reading. A failed read carries a zero Value and the error text.
type Observation struct {
	Source string
	Value  *big.Int
	Error  string
}

// Result is the outcome of resolving a feed once.
// Results are shared between the store and subscribers and must not be modified.
type Result struct {
	Asset        string
	Price        *big.Int
	Decimals     int
	Strategy     string
	Observations []Observation
	// Spread is set for deviation strategies when enough sources were live to measure it.
	Spread *strategy.Spread
	// Deviated reports that the spread exceeded the threshold and the aggregate was used.
	Deviated   bool
	ResolvedAt time.Time
}

// NoData reports whether the resolution produced the zero sentinel.
func (r *Result) NoData() bool {
	return strategy.IsNoData(r.Price)
}

// Values returns the observation values in source order.
func (r *Result) Values() []*big.Int {
	values := make([]*big.Int, len(r.Observations))
	for i, o := range r.Observations {
		values[i] = o.Value
	}
	return values
}
