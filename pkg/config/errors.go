package config

import "errors"

var (
	// ErrNoFeedsConfigured indicates that no feeds are configured.
	ErrNoFeedsConfigured = errors.New("at least one feed must be configured")
	// ErrAssetRequired indicates a feed without an asset name.
	ErrAssetRequired = errors.New("asset must be specified")
	// ErrDuplicateAsset indicates two feeds resolving the same asset.
	ErrDuplicateAsset = errors.New("duplicate asset")
	// ErrInvalidDecimals indicates decimals outside the uint256 range.
	ErrInvalidDecimals = errors.New("decimals must be between 0 and 77")
	// ErrInvalidStrategy indicates that the strategy is unknown.
	ErrInvalidStrategy = errors.New("invalid strategy")
	// ErrNotEnoughSources indicates fewer enabled sources than the strategy requires.
	ErrNotEnoughSources = errors.New("not enough enabled sources for strategy")
	// ErrDeviationRequired indicates a deviation strategy without deviation_bps.
	ErrDeviationRequired = errors.New("deviation_bps must be > 0 for deviation strategies")
	// ErrSourceTypeRequired indicates that source type is required.
	ErrSourceTypeRequired = errors.New("source type is required")
	// ErrSourceNameRequired indicates that source name is required.
	ErrSourceNameRequired = errors.New("source name is required")
	// ErrDuplicateSource indicates two sources with the same name in one feed.
	ErrDuplicateSource = errors.New("duplicate source name")
	// ErrInvalidStoreType indicates that the store type is invalid.
	ErrInvalidStoreType = errors.New("invalid store type")
	// ErrRedisAddrRequired indicates a redis store without an address.
	ErrRedisAddrRequired = errors.New("store.redis.addr must be specified")
	// ErrInvalidPollInterval indicates a non-positive poll interval.
	ErrInvalidPollInterval = errors.New("poll_interval must be positive")
	// ErrInvalidLogLevel indicates that the log level is invalid.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat indicates that the log format is invalid.
	ErrInvalidLogFormat = errors.New("invalid log format")
)
