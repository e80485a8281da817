package sources

import (
	"sync"
	"time"

	"github.com/StrathCole/pricefeed/pkg/logging"
	"github.com/StrathCole/pricefeed/pkg/metrics"
)

// BaseSource provides common functionality for all price sources
type BaseSource struct {
	name       string
	sourcetype SourceType
	lastUpdate time.Time
	healthy    bool
	mu         sync.RWMutex
	logger     *logging.Logger
}

// NewBaseSource creates a new base source
func NewBaseSource(name string, sourcetype SourceType, logger *logging.Logger) *BaseSource {
	return &BaseSource{
		name:       name,
		sourcetype: sourcetype,
		logger:     logger.With("source", name, "source_type", string(sourcetype)),
	}
}

// Name returns the source name
func (b *BaseSource) Name() string {
	return b.name
}

// Type returns the source type
func (b *BaseSource) Type() SourceType {
	return b.sourcetype
}

// IsHealthy reports whether the last fetch succeeded
func (b *BaseSource) IsHealthy() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.healthy
}

// LastUpdate returns the time of the last successful fetch
func (b *BaseSource) LastUpdate() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdate
}

// RecordFetch updates health bookkeeping after a fetch
func (b *BaseSource) RecordFetch(err error) {
	b.mu.Lock()
	b.healthy = err == nil
	if err == nil {
		b.lastUpdate = time.Now()
	}
	b.mu.Unlock()

	metrics.RecordSourceFetch(b.name, string(b.sourcetype), err == nil)
	if err != nil {
		b.logger.Debug("Fetch failed", "error", err)
	}
}

// Logger returns the logger
func (b *BaseSource) Logger() *logging.Logger {
	return b.logger
}

// Close is a no-op for sources without connections
func (b *BaseSource) Close() error {
	return nil
}
