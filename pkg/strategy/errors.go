// Package strategy resolves a single price from an ordered set of source observations.
package strategy

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is the root of errors caused by how a strategy was configured or called.
	// Retrying with the same input will fail again.
	ErrConfiguration = errors.New("strategy configuration error")
	// ErrParameter is the root of errors caused by a malformed strategy parameter blob.
	ErrParameter = errors.New("invalid strategy parameters")
	// ErrOverflow indicates that an intermediate value exceeded the uint256 range.
	ErrOverflow = errors.New("arithmetic overflow")
)

var (
	// ErrPriceCountInvalid indicates fewer observations than the strategy requires.
	ErrPriceCountInvalid = fmt.Errorf("%w: price count below strategy minimum", ErrConfiguration)
	// ErrNoObservations indicates an empty observation set, i.e. no configured sources.
	ErrNoObservations = fmt.Errorf("%w: no observations", ErrConfiguration)
	// ErrTooManyObservations indicates an observation set above MaxObservations.
	ErrTooManyObservations = fmt.Errorf("%w: too many observations", ErrConfiguration)
	// ErrNegativeObservation indicates a negative observation value.
	ErrNegativeObservation = fmt.Errorf("%w: negative observation", ErrConfiguration)
	// ErrUnknownStrategy indicates that no strategy is registered under the name.
	ErrUnknownStrategy = fmt.Errorf("%w: unknown strategy", ErrConfiguration)

	// ErrParamsLength indicates a parameter blob that is not exactly one ABI word.
	ErrParamsLength = fmt.Errorf("%w: deviation parameter must be %d bytes", ErrParameter, DeviationParamsLength)
	// ErrDeviationZero indicates a deviation parameter that decodes to zero.
	ErrDeviationZero = fmt.Errorf("%w: deviation must be non-zero", ErrParameter)
)
