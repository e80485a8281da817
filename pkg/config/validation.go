package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/StrathCole/pricefeed/pkg/strategy"
)

// maxDecimals keeps 10^decimals inside uint256.
const maxDecimals = 77

// Validate checks configuration for errors
func Validate(cfg *Config) error {
	if cfg.Server.PollInterval.ToDuration() <= 0 {
		return fmt.Errorf("server config: %w", ErrInvalidPollInterval)
	}

	if err := validateStoreConfig(&cfg.Store); err != nil {
		return fmt.Errorf("store config: %w", err)
	}

	if len(cfg.Feeds) == 0 {
		return fmt.Errorf("%w", ErrNoFeedsConfigured)
	}
	seen := make(map[string]bool, len(cfg.Feeds))
	for i := range cfg.Feeds {
		feed := &cfg.Feeds[i]
		if err := validateFeedConfig(feed); err != nil {
			return fmt.Errorf("feed %d (%s): %w", i, feed.Asset, err)
		}
		if seen[feed.Asset] {
			return fmt.Errorf("feed %d: %w: %s", i, ErrDuplicateAsset, feed.Asset)
		}
		seen[feed.Asset] = true
	}

	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func validateStoreConfig(cfg *StoreConfig) error {
	switch cfg.Type {
	case StoreMemory:
		return nil
	case StoreRedis:
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("%w", ErrRedisAddrRequired)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s (must be 'memory' or 'redis')", ErrInvalidStoreType, cfg.Type)
	}
}

func validateFeedConfig(cfg *FeedConfig) error {
	if cfg.Asset == "" {
		return fmt.Errorf("%w", ErrAssetRequired)
	}
	if cfg.Decimals < 0 || cfg.Decimals > maxDecimals {
		return fmt.Errorf("%w: %d", ErrInvalidDecimals, cfg.Decimals)
	}

	def, err := strategy.Lookup(cfg.Strategy)
	if err != nil {
		if errors.Is(err, strategy.ErrUnknownStrategy) {
			return fmt.Errorf("%w: %s (must be one of: %s)", ErrInvalidStrategy, cfg.Strategy, strings.Join(strategy.Names(), ", "))
		}
		return err
	}

	if def.RequiresParams && cfg.DeviationBps == 0 {
		return fmt.Errorf("%w: %s", ErrDeviationRequired, def.Name)
	}

	names := make(map[string]bool, len(cfg.Sources))
	for i, source := range cfg.Sources {
		if err := validateSourceConfig(&source); err != nil {
			return fmt.Errorf("source %d (%s.%s): %w", i, source.Type, source.Name, err)
		}
		if names[source.Name] {
			return fmt.Errorf("source %d: %w: %s", i, ErrDuplicateSource, source.Name)
		}
		names[source.Name] = true
	}

	// Same nominal floor the engine enforces on every call.
	enabled := len(cfg.EnabledSources())
	if enabled < def.MinObservations {
		return fmt.Errorf("%w: %s needs %d, %d enabled", ErrNotEnoughSources, def.Name, def.MinObservations, enabled)
	}
	if enabled > strategy.MaxObservations {
		return fmt.Errorf("%w: %d enabled", strategy.ErrTooManyObservations, enabled)
	}

	return nil
}

func validateSourceConfig(cfg *SourceConfig) error {
	if cfg.Type == "" {
		return fmt.Errorf("%w", ErrSourceTypeRequired)
	}
	if cfg.Name == "" {
		return fmt.Errorf("%w", ErrSourceNameRequired)
	}
	return nil
}

func validateLoggingConfig(cfg *LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, l := range validLevels {
		if strings.ToLower(cfg.Level) == l {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("%w: %s (must be one of: %s)", ErrInvalidLogLevel, cfg.Level, strings.Join(validLevels, ", "))
	}

	formatValid := strings.ToLower(cfg.Format) == "json" || strings.ToLower(cfg.Format) == "text"
	if !formatValid {
		return fmt.Errorf("%w: %s (must be 'json' or 'text')", ErrInvalidLogFormat, cfg.Format)
	}

	return nil
}
