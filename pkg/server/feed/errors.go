// Package feed resolves configured assets by reading their sources and
// applying the feed's price strategy.
package feed

import "errors"

var (
	// ErrNotFound indicates that no resolution is stored for the asset.
	ErrNotFound = errors.New("no resolution for asset")
	// ErrUnknownFeed indicates that no feed is configured for the asset.
	ErrUnknownFeed = errors.New("unknown feed")
	// ErrDuplicateFeed indicates two feeds normalize to the same asset.
	ErrDuplicateFeed = errors.New("duplicate feed")
)
