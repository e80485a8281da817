package feed

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Store keeps the latest resolution per asset.
type Store interface {
	// Set replaces the stored resolution for result.Asset
	Set(ctx context.Context, result *Result) error

	// Get returns the stored resolution, or ErrNotFound
	Get(ctx context.Context, asset string) (*Result, error)

	// All returns every stored resolution ordered by asset
	All(ctx context.Context) ([]*Result, error)

	// Close releases the backing connection
	Close() error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]*Result
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]*Result)}
}

func (s *MemoryStore) Set(_ context.Context, result *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.Asset] = result
	return nil
}

func (s *MemoryStore) Get(_ context.Context, asset string) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, asset)
	}
	return result, nil
}

func (s *MemoryStore) All(_ context.Context) ([]*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*Result, 0, len(s.results))
	for _, r := range s.results {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Asset < results[j].Asset })
	return results, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
