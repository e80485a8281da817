package api

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/StrathCole/pricefeed/pkg/server/feed"
)

// PriceResponse is the wire form of a feed resolution.
type PriceResponse struct {
	Asset        string                `json:"asset"`
	Price        string                `json:"price"`   // fixed-point integer
	Display      string                `json:"display"` // Price shifted by Decimals
	Decimals     int                   `json:"decimals"`
	Strategy     string                `json:"strategy"`
	NoData       bool                  `json:"no_data"`
	Deviated     bool                  `json:"deviated,omitempty"`
	Spread       *SpreadResponse       `json:"spread,omitempty"`
	Observations []ObservationResponse `json:"observations"`
	ResolvedAt   string                `json:"resolved_at"`
}

// ObservationResponse is one source reading.
type ObservationResponse struct {
	Source string `json:"source"`
	Value  string `json:"value"`
	Error  string `json:"error,omitempty"`
}

// SpreadResponse is the source spread in basis points of the mean.
type SpreadResponse struct {
	Mean    string `json:"mean"`
	LowBps  string `json:"low_bps"`
	HighBps string `json:"high_bps"`
}

// NewPriceResponse converts a resolution to its wire form.
func NewPriceResponse(r *feed.Result) PriceResponse {
	resp := PriceResponse{
		Asset:        r.Asset,
		Price:        intString(r.Price),
		Display:      displayPrice(r.Price, r.Decimals),
		Decimals:     r.Decimals,
		Strategy:     r.Strategy,
		NoData:       r.NoData(),
		Deviated:     r.Deviated,
		Observations: make([]ObservationResponse, len(r.Observations)),
		ResolvedAt:   r.ResolvedAt.UTC().Format(time.RFC3339),
	}
	for i, o := range r.Observations {
		resp.Observations[i] = ObservationResponse{Source: o.Source, Value: intString(o.Value), Error: o.Error}
	}
	if r.Spread != nil {
		resp.Spread = &SpreadResponse{
			Mean:    intString(r.Spread.Mean),
			LowBps:  intString(r.Spread.Low),
			HighBps: intString(r.Spread.High),
		}
	}
	return resp
}

func displayPrice(price *big.Int, decimals int) string {
	if price == nil {
		return "0"
	}
	// #nosec G115 -- decimals bounded by config validation
	return decimal.NewFromBigInt(price, -int32(decimals)).String()
}

func intString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
