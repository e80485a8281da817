package sources

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// StaticSource returns a configured constant, e.g. for pegged assets.
type StaticSource struct {
	*BaseSource
	price *big.Int
}

var _ Source = (*StaticSource)(nil)

func init() {
	Register(SourceTypeStatic, NewStaticSource)
}

// NewStaticSource creates a source that always observes config["price"].
func NewStaticSource(name string, config map[string]interface{}) (Source, error) {
	raw := GetString(config, "price", "")
	if raw == "" {
		return nil, fmt.Errorf("%w: price is required", ErrInvalidConfig)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: price: %v", ErrInvalidConfig, err)
	}

	decimals, err := GetDecimals(config)
	if err != nil {
		return nil, err
	}

	scaled, err := ScaleDecimal(price, decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &StaticSource{
		BaseSource: NewBaseSource(name, SourceTypeStatic, GetLoggerFromConfig(config)),
		price:      scaled,
	}, nil
}

// Fetch returns a copy of the configured price.
func (s *StaticSource) Fetch(_ context.Context) (*big.Int, error) {
	s.RecordFetch(nil)
	return new(big.Int).Set(s.price), nil
}
