package feed

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/StrathCole/pricefeed/pkg/logging"
	"github.com/StrathCole/pricefeed/pkg/metrics"
	"github.com/StrathCole/pricefeed/pkg/server/sources"
	"github.com/StrathCole/pricefeed/pkg/strategy"
)

// Resolver reads feed sources and applies the feed strategy.
type Resolver struct {
	feeds        []*Feed
	byAsset      map[string]*Feed
	fetchTimeout time.Duration
	logger       *logging.Logger
	now          func() time.Time
}

// NewResolver creates a resolver over feeds. fetchTimeout bounds each round
// of source reads; zero disables the bound.
func NewResolver(feeds []*Feed, fetchTimeout time.Duration, logger *logging.Logger) *Resolver {
	byAsset := make(map[string]*Feed, len(feeds))
	for _, f := range feeds {
		byAsset[f.Asset] = f
	}
	return &Resolver{
		feeds:        feeds,
		byAsset:      byAsset,
		fetchTimeout: fetchTimeout,
		logger:       logger,
		now:          time.Now,
	}
}

// Feeds returns the configured feeds in configuration order.
func (r *Resolver) Feeds() []*Feed {
	return r.feeds
}

// Feed returns the feed for asset.
func (r *Resolver) Feed(asset string) (*Feed, error) {
	f, ok := r.byAsset[sources.NormalizeSymbol(asset)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFeed, asset)
	}
	return f, nil
}

// Resolve reads all sources of f concurrently and applies its strategy.
// Failed reads become zero observations at the source's position. An error
// is returned only when the strategy itself rejects the observations.
func (r *Resolver) Resolve(ctx context.Context, f *Feed) (*Result, error) {
	start := time.Now()

	observations := r.fetchAll(ctx, f)
	values := make([]*big.Int, len(observations))
	for i, o := range observations {
		values[i] = o.Value
	}

	price, err := f.Strategy.Func(values, f.Params)
	if err != nil {
		metrics.RecordResolution(f.Asset, f.Strategy.Name, metrics.OutcomeError, time.Since(start))
		r.logger.Error("Price resolution failed", "asset", f.Asset, "strategy", f.Strategy.Name, "error", err)
		return nil, fmt.Errorf("resolve %s: %w", f.Asset, err)
	}

	result := &Result{
		Asset:        f.Asset,
		Price:        price,
		Decimals:     f.Decimals,
		Strategy:     f.Strategy.Name,
		Observations: observations,
		ResolvedAt:   r.now(),
	}
	if f.Threshold != nil {
		r.measureSpread(f, result, values)
	}

	outcome := metrics.OutcomePrice
	if result.NoData() {
		outcome = metrics.OutcomeNoData
		r.logger.Warn("No live observations", "asset", f.Asset, "sources", len(f.Sources))
	}
	metrics.RecordResolution(f.Asset, f.Strategy.Name, outcome, time.Since(start))

	r.logger.Debug("Price resolved",
		"asset", f.Asset,
		"strategy", f.Strategy.Name,
		"price", price.String(),
		"deviated", result.Deviated)

	return result, nil
}

// measureSpread records the source spread for deviation strategies once
// enough sources are live for the aggregate to apply.
func (r *Resolver) measureSpread(f *Feed, result *Result, values []*big.Int) {
	if len(strategy.FilterNonZero(values)) < f.Strategy.MinObservations {
		return
	}
	spread, err := strategy.SpreadOf(values)
	if err != nil {
		r.logger.Warn("Spread measurement failed", "asset", f.Asset, "error", err)
		return
	}
	result.Spread = &spread
	if spread.Exceeds(f.Threshold) {
		result.Deviated = true
		metrics.RecordDeviationOverride(f.Asset, f.Strategy.Name)
		r.logger.Info("Source deviation above threshold",
			"asset", f.Asset,
			"low_bps", spread.Low.String(),
			"high_bps", spread.High.String(),
			"threshold_bps", f.Threshold.String())
	}
}

// fetchAll reads every source concurrently, keeping source order.
func (r *Resolver) fetchAll(ctx context.Context, f *Feed) []Observation {
	if r.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.fetchTimeout)
		defer cancel()
	}

	observations := make([]Observation, len(f.Sources))
	var wg sync.WaitGroup
	for i, src := range f.Sources {
		wg.Add(1)
		go func(i int, src sources.Source) {
			defer wg.Done()

			value, err := src.Fetch(ctx)
			if err == nil {
				err = sources.CheckPrice(value)
			}
			if err != nil {
				r.logger.Warn("Source fetch failed", "asset", f.Asset, "source", src.Name(), "error", err)
				observations[i] = Observation{Source: src.Name(), Value: new(big.Int), Error: err.Error()}
				return
			}
			observations[i] = Observation{Source: src.Name(), Value: value}
		}(i, src)
	}
	wg.Wait()

	return observations
}

// ResolveAll resolves every feed. Results of successful feeds are returned
// in configuration order together with the joined errors of the others.
func (r *Resolver) ResolveAll(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, 0, len(r.feeds))
	var errs []error
	for _, f := range r.feeds {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := r.Resolve(ctx, f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, result)
	}
	return results, errors.Join(errs...)
}

// Close closes the sources of every feed.
func (r *Resolver) Close() error {
	var errs []error
	for _, f := range r.feeds {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
