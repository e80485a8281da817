package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/pricefeed/pkg/strategy"
)

const sampleConfig = `
server:
  http:
    addr: ":9000"
  poll_interval: 15s
store:
  type: memory
logging:
  level: debug
feeds:
  - asset: OHM/USD
    decimals: 18
    strategy: median_if_deviation
    deviation_bps: 300
    sources:
      - type: chainlink
        name: ohm_eth_chainlink
        config:
          rpc_url: ${TEST_RPC_URL}
          address: "0x9a72298ae3886221820B1c878d12D872087D3a23"
      - type: uniswap_v2
        name: ohm_dai_pool
        config:
          rpc_url: ${TEST_RPC_URL}
      - type: static
        name: floor
        enabled: false
        config:
          price: "10.5"
      - type: http
        name: api
        config:
          url: https://example.com/ohm
          field: data.price
`

func TestParse(t *testing.T) {
	t.Setenv("TEST_RPC_URL", "https://rpc.example")

	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.HTTP.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.PollInterval.ToDuration())
	assert.Equal(t, 10*time.Second, cfg.Server.FetchTimeout.ToDuration())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "pricefeed:", cfg.Store.Redis.KeyPrefix)
	assert.Equal(t, 75*time.Second, cfg.Store.Redis.TTL.ToDuration())

	require.Len(t, cfg.Feeds, 1)
	feed := cfg.Feeds[0]
	assert.Equal(t, strategy.NameMedianIfDeviation, feed.Strategy)
	assert.Equal(t, uint64(300), feed.DeviationBps)
	require.Len(t, feed.Sources, 4)
	assert.Equal(t, "https://rpc.example", feed.Sources[0].Config["rpc_url"])

	enabled := feed.EnabledSources()
	require.Len(t, enabled, 3)
	assert.Equal(t, []string{"ohm_eth_chainlink", "ohm_dai_pool", "api"},
		[]string{enabled[0].Name, enabled[1].Name, enabled[2].Name})

	require.NoError(t, Validate(cfg))
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_RPC_URL", "https://rpc.example")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Feeds, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func validConfig() *Config {
	cfg := &Config{
		Feeds: []FeedConfig{{
			Asset:    "OHM/USD",
			Strategy: strategy.NameAverage,
			Sources: []SourceConfig{
				{Type: "static", Name: "a"},
				{Type: "static", Name: "b"},
			},
		}},
	}
	applyDefaults(cfg)
	return cfg
}

func TestValidate(t *testing.T) {
	disabled := false

	tests := []struct {
		name   string
		mutate func(cfg *Config)
		target error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no feeds", mutate: func(cfg *Config) { cfg.Feeds = nil }, target: ErrNoFeedsConfigured},
		{name: "missing asset", mutate: func(cfg *Config) { cfg.Feeds[0].Asset = "" }, target: ErrAssetRequired},
		{name: "unknown strategy", mutate: func(cfg *Config) { cfg.Feeds[0].Strategy = "tvwap" }, target: ErrInvalidStrategy},
		{name: "decimals too large", mutate: func(cfg *Config) { cfg.Feeds[0].Decimals = 78 }, target: ErrInvalidDecimals},
		{
			name: "average below floor",
			mutate: func(cfg *Config) {
				cfg.Feeds[0].Sources[1].Enabled = &disabled
			},
			target: ErrNotEnoughSources,
		},
		{
			name: "median below floor",
			mutate: func(cfg *Config) {
				cfg.Feeds[0].Strategy = strategy.NameMedian
			},
			target: ErrNotEnoughSources,
		},
		{
			name: "deviation without threshold",
			mutate: func(cfg *Config) {
				cfg.Feeds[0].Strategy = strategy.NameAverageIfDeviation
			},
			target: ErrDeviationRequired,
		},
		{
			name: "duplicate source",
			mutate: func(cfg *Config) {
				cfg.Feeds[0].Sources[1].Name = "a"
			},
			target: ErrDuplicateSource,
		},
		{
			name: "source without type",
			mutate: func(cfg *Config) {
				cfg.Feeds[0].Sources[0].Type = ""
			},
			target: ErrSourceTypeRequired,
		},
		{
			name: "duplicate asset",
			mutate: func(cfg *Config) {
				cfg.Feeds = append(cfg.Feeds, cfg.Feeds[0])
			},
			target: ErrDuplicateAsset,
		},
		{name: "bad store", mutate: func(cfg *Config) { cfg.Store.Type = "etcd" }, target: ErrInvalidStoreType},
		{name: "redis without addr", mutate: func(cfg *Config) { cfg.Store.Type = StoreRedis }, target: ErrRedisAddrRequired},
		{name: "bad log level", mutate: func(cfg *Config) { cfg.Logging.Level = "trace" }, target: ErrInvalidLogLevel},
		{name: "bad log format", mutate: func(cfg *Config) { cfg.Logging.Format = "xml" }, target: ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.target == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.target)
		})
	}
}
