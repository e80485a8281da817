// Package evm provides on-chain observation sources read over JSON-RPC.
package evm

import "errors"

var (
	// ErrRPCURLRequired indicates that rpc_url configuration is required.
	ErrRPCURLRequired = errors.New("rpc_url is required")
	// ErrAddressRequired indicates that the contract address is missing or malformed.
	ErrAddressRequired = errors.New("valid contract address is required")
	// ErrStalePrice indicates a feed answer older than max_age.
	ErrStalePrice = errors.New("price feed answer is stale")
	// ErrIncompleteRound indicates a round answered in an earlier round.
	ErrIncompleteRound = errors.New("price feed round is incomplete")
	// ErrZeroLiquidity indicates that a pool reserve is zero.
	ErrZeroLiquidity = errors.New("zero liquidity in pool")
	// ErrUnexpectedOutput indicates a contract returned values of unexpected types.
	ErrUnexpectedOutput = errors.New("unexpected contract output")
)
