package feed

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/StrathCole/pricefeed/pkg/config"
	"github.com/StrathCole/pricefeed/pkg/logging"
	"github.com/StrathCole/pricefeed/pkg/server/sources"
	"github.com/StrathCole/pricefeed/pkg/strategy"
)

// Feed is one asset price resolved from an ordered list of sources.
// Source order is priority order: the first source is the preferred reading.
type Feed struct {
	Asset    string
	Decimals int
	Strategy strategy.Definition
	// Params is the encoded strategy parameter blob, nil for strategies without one.
	Params []byte
	// Threshold is the deviation threshold in basis points, nil when unused.
	Threshold *big.Int
	Sources   []sources.Source
}

// New assembles a feed from already constructed sources.
func New(asset string, decimals int, strategyName string, deviationBps uint64, srcs []sources.Source) (*Feed, error) {
	if err := sources.ValidateSymbolFormat(asset); err != nil {
		return nil, err
	}
	def, err := strategy.Lookup(strategyName)
	if err != nil {
		return nil, err
	}

	f := &Feed{
		Asset:    sources.NormalizeSymbol(asset),
		Decimals: decimals,
		Strategy: def,
		Sources:  srcs,
	}
	if def.RequiresParams {
		params, err := strategy.EncodeDeviationParams(deviationBps)
		if err != nil {
			return nil, err
		}
		f.Params = params
		f.Threshold = new(big.Int).SetUint64(deviationBps)
	}
	return f, nil
}

// NewFeed creates the enabled sources of cfg and assembles the feed.
func NewFeed(cfg config.FeedConfig, logger *logging.Logger) (*Feed, error) {
	enabled := cfg.EnabledSources()
	srcs := make([]sources.Source, 0, len(enabled))

	for _, sc := range enabled {
		// Sources receive their own copy with the feed-level keys injected.
		sourceConfig := make(map[string]interface{}, len(sc.Config)+2)
		for k, v := range sc.Config {
			sourceConfig[k] = v
		}
		sourceConfig[sources.ConfigKeyDecimals] = cfg.Decimals
		sourceConfig[sources.ConfigKeyLogger] = logger.With("asset", cfg.Asset)

		src, err := sources.Create(sc.Type, sc.Name, sourceConfig)
		if err != nil {
			closeSources(srcs)
			return nil, fmt.Errorf("source %s (%s): %w", sc.Name, sc.Type, err)
		}
		srcs = append(srcs, src)
	}

	f, err := New(cfg.Asset, cfg.Decimals, cfg.Strategy, cfg.DeviationBps, srcs)
	if err != nil {
		closeSources(srcs)
		return nil, err
	}
	return f, nil
}

// BuildFeeds creates every configured feed. On error, feeds already built are closed.
func BuildFeeds(cfgs []config.FeedConfig, logger *logging.Logger) ([]*Feed, error) {
	feeds := make([]*Feed, 0, len(cfgs))
	seen := make(map[string]bool, len(cfgs))

	fail := func(err error) ([]*Feed, error) {
		for _, f := range feeds {
			_ = f.Close()
		}
		return nil, err
	}

	for _, cfg := range cfgs {
		f, err := NewFeed(cfg, logger)
		if err != nil {
			return fail(fmt.Errorf("feed %s: %w", cfg.Asset, err))
		}
		if seen[f.Asset] {
			_ = f.Close()
			return fail(fmt.Errorf("%w: %s", ErrDuplicateFeed, f.Asset))
		}
		seen[f.Asset] = true
		feeds = append(feeds, f)

		logger.Info("Feed configured",
			"asset", f.Asset,
			"strategy", f.Strategy.Name,
			"sources", len(f.Sources),
			"decimals", f.Decimals)
	}
	return feeds, nil
}

// Close closes all sources of the feed.
func (f *Feed) Close() error {
	return closeSources(f.Sources)
}

func closeSources(srcs []sources.Source) error {
	var errs []error
	for _, src := range srcs {
		if err := src.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", src.Name(), err))
		}
	}
	return errors.Join(errs...)
}
