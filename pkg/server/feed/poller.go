package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/StrathCole/pricefeed/pkg/logging"
)

// Subscriber receives every stored resolution.
type Subscriber func(result *Result)

// Poller periodically resolves all feeds into a Store.
type Poller struct {
	resolver *Resolver
	store    Store
	interval time.Duration
	logger   *logging.Logger

	mu          sync.RWMutex
	subscribers []Subscriber
}

// NewPoller creates a poller resolving every interval.
func NewPoller(resolver *Resolver, store Store, interval time.Duration, logger *logging.Logger) *Poller {
	return &Poller{
		resolver: resolver,
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

// Subscribe registers fn to be called after each stored resolution.
func (p *Poller) Subscribe(fn Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

// Poll resolves all feeds once, stores the results and notifies subscribers.
// Feeds that fail keep their previous stored resolution.
func (p *Poller) Poll(ctx context.Context) error {
	results, resolveErr := p.resolver.ResolveAll(ctx)

	var errs []error
	if resolveErr != nil {
		errs = append(errs, resolveErr)
	}

	p.mu.RLock()
	subscribers := p.subscribers
	p.mu.RUnlock()

	for _, result := range results {
		if err := p.store.Set(ctx, result); err != nil {
			p.logger.Error("Failed to store resolution", "asset", result.Asset, "error", err)
			errs = append(errs, err)
			continue
		}
		for _, fn := range subscribers {
			fn(result)
		}
	}
	return errors.Join(errs...)
}

// Run polls immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("Starting poller", "feeds", len(p.resolver.Feeds()), "interval", p.interval.String())

	if err := p.Poll(ctx); err != nil {
		p.logger.Warn("Poll completed with errors", "error", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poller stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := p.Poll(ctx); err != nil {
				p.logger.Warn("Poll completed with errors", "error", err)
			}
		}
	}
}
