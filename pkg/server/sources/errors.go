// Package sources provides observation sources that feed the price strategies.
package sources

import "errors"

var (
	// ErrUnknownSource indicates that no factory is registered for the source type.
	ErrUnknownSource = errors.New("unknown source type")
	// ErrInvalidConfig indicates that the source configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNonPositivePrice indicates a reading of zero or below.
	ErrNonPositivePrice = errors.New("non-positive price")
	// ErrPriceOutOfRange indicates a reading that does not fit in uint256.
	ErrPriceOutOfRange = errors.New("price exceeds uint256")
	// ErrUnexpectedStatus indicates an unexpected HTTP status code.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status code")
	// ErrFieldNotFound indicates that the configured JSON field is missing from the response.
	ErrFieldNotFound = errors.New("field not found in response")
	// ErrInvalidResponse indicates an invalid response from the source.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrInvalidSymbolFormat indicates that the symbol format is invalid.
	ErrInvalidSymbolFormat = errors.New("symbol must be in BASE/QUOTE format")
	// ErrEmptyBaseCurrency indicates that the symbol BASE currency cannot be empty.
	ErrEmptyBaseCurrency = errors.New("symbol BASE currency cannot be empty")
	// ErrEmptyQuoteCurrency indicates that the symbol QUOTE currency cannot be empty.
	ErrEmptyQuoteCurrency = errors.New("symbol QUOTE currency cannot be empty")
)
