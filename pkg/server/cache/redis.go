// Package cache keeps the latest feed resolutions in Redis so that several
// API replicas can serve one poller's output.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/StrathCole/pricefeed/pkg/config"
	"github.com/StrathCole/pricefeed/pkg/server/feed"
	"github.com/StrathCole/pricefeed/pkg/strategy"
)

// ErrInvalidRecord indicates a stored value that does not decode to a resolution.
var ErrInvalidRecord = errors.New("invalid cached resolution")

// RedisStore implements feed.Store on Redis strings with a TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ feed.Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL.ToDuration(),
	}, nil
}

func (s *RedisStore) key(asset string) string {
	return s.prefix + "latest:" + asset
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Set stores result under its asset; the entry expires after the configured TTL.
func (s *RedisStore) Set(ctx context.Context, result *feed.Result) error {
	data, err := encode(result)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(result.Asset), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set resolution in redis: %w", err)
	}
	return nil
}

// Get returns the stored resolution for asset.
func (s *RedisStore) Get(ctx context.Context, asset string) (*feed.Result, error) {
	data, err := s.client.Get(ctx, s.key(asset)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", feed.ErrNotFound, asset)
		}
		return nil, fmt.Errorf("failed to get resolution from redis: %w", err)
	}
	return decode(data)
}

// All scans the key prefix and returns every stored resolution ordered by asset.
func (s *RedisStore) All(ctx context.Context) ([]*feed.Result, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.key("*"), 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan redis keys: %w", err)
	}
	if len(keys) == 0 {
		return []*feed.Result{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get resolutions from redis: %w", err)
	}

	results := make([]*feed.Result, 0, len(values))
	for i, v := range values {
		// Keys may expire between SCAN and MGET.
		raw, ok := v.(string)
		if !ok {
			continue
		}
		result, err := decode([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", keys[i], err)
		}
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Asset < results[j].Asset })
	return results, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// record is the stored form of a feed.Result. Integers are decimal strings.
type record struct {
	Asset        string              `json:"asset"`
	Price        string              `json:"price"`
	Decimals     int                 `json:"decimals"`
	Strategy     string              `json:"strategy"`
	Observations []observationRecord `json:"observations"`
	Spread       *spreadRecord       `json:"spread,omitempty"`
	Deviated     bool                `json:"deviated,omitempty"`
	ResolvedAt   time.Time           `json:"resolved_at"`
}

type observationRecord struct {
	Source string `json:"source"`
	Value  string `json:"value"`
	Error  string `json:"error,omitempty"`
}

type spreadRecord struct {
	Mean string `json:"mean"`
	Low  string `json:"low_bps"`
	High string `json:"high_bps"`
}

func encode(result *feed.Result) ([]byte, error) {
	rec := record{
		Asset:        result.Asset,
		Price:        intString(result.Price),
		Decimals:     result.Decimals,
		Strategy:     result.Strategy,
		Observations: make([]observationRecord, len(result.Observations)),
		Deviated:     result.Deviated,
		ResolvedAt:   result.ResolvedAt.UTC(),
	}
	for i, o := range result.Observations {
		rec.Observations[i] = observationRecord{Source: o.Source, Value: intString(o.Value), Error: o.Error}
	}
	if result.Spread != nil {
		rec.Spread = &spreadRecord{
			Mean: intString(result.Spread.Mean),
			Low:  intString(result.Spread.Low),
			High: intString(result.Spread.High),
		}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resolution: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*feed.Result, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if strings.TrimSpace(rec.Asset) == "" {
		return nil, fmt.Errorf("%w: missing asset", ErrInvalidRecord)
	}

	price, err := parseInt(rec.Price)
	if err != nil {
		return nil, err
	}
	result := &feed.Result{
		Asset:        rec.Asset,
		Price:        price,
		Decimals:     rec.Decimals,
		Strategy:     rec.Strategy,
		Observations: make([]feed.Observation, len(rec.Observations)),
		Deviated:     rec.Deviated,
		ResolvedAt:   rec.ResolvedAt,
	}
	for i, o := range rec.Observations {
		v, err := parseInt(o.Value)
		if err != nil {
			return nil, err
		}
		result.Observations[i] = feed.Observation{Source: o.Source, Value: v, Error: o.Error}
	}
	if rec.Spread != nil {
		mean, err := parseInt(rec.Spread.Mean)
		if err != nil {
			return nil, err
		}
		low, err := parseInt(rec.Spread.Low)
		if err != nil {
			return nil, err
		}
		high, err := parseInt(rec.Spread.High)
		if err != nil {
			return nil, err
		}
		result.Spread = &strategy.Spread{Mean: mean, Low: low, High: high}
	}
	return result, nil
}

func intString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseInt(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: bad integer %q", ErrInvalidRecord, s)
	}
	return v, nil
}
