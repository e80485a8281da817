package strategy

import (
	"fmt"
	"math/big"
	"sort"
)

// Strategy names.
const (
	NameFirstNonZero       = "first_non_zero"
	NameAverage            = "average"
	NameMedian             = "median"
	NameAverageIfDeviation = "average_if_deviation"
	NameMedianIfDeviation  = "median_if_deviation"
)

// Definition describes a registered strategy.
type Definition struct {
	Name string
	Func Func
	// MinObservations is the nominal floor, counting zero observations.
	MinObservations int
	// RequiresParams is set for strategies that decode a deviation threshold.
	RequiresParams bool
}

var registry = map[string]Definition{
	NameFirstNonZero: {
		Name:            NameFirstNonZero,
		Func:            FirstNonZeroPrice,
		MinObservations: 1,
	},
	NameAverage: {
		Name:            NameAverage,
		Func:            AveragePrice,
		MinObservations: baselineMean.minimum(),
	},
	NameMedian: {
		Name:            NameMedian,
		Func:            MedianPrice,
		MinObservations: baselineMedian.minimum(),
	},
	NameAverageIfDeviation: {
		Name:            NameAverageIfDeviation,
		Func:            AveragePriceIfDeviation,
		MinObservations: baselineMean.minimum(),
		RequiresParams:  true,
	},
	NameMedianIfDeviation: {
		Name:            NameMedianIfDeviation,
		Func:            MedianPriceIfDeviation,
		MinObservations: baselineMedian.minimum(),
		RequiresParams:  true,
	},
}

// Lookup returns the definition registered under name.
func Lookup(name string) (Definition, error) {
	def, ok := registry[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s (supported: %v)", ErrUnknownStrategy, name, Names())
	}
	return def, nil
}

// Resolve looks up a strategy by name and applies it.
func Resolve(name string, observations []*big.Int, params []byte) (*big.Int, error) {
	def, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return def.Func(observations, params)
}

// Names returns the registered strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
