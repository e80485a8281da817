package cache

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/pricefeed/pkg/config"
	"github.com/StrathCole/pricefeed/pkg/server/feed"
	"github.com/StrathCole/pricefeed/pkg/strategy"
)

func TestKey(t *testing.T) {
	s := &RedisStore{prefix: "pricefeed:"}
	assert.Equal(t, "pricefeed:latest:OHM/USD", s.key("OHM/USD"))
	assert.Equal(t, "pricefeed:latest:*", s.key("*"))
}

func TestEncodeDecode(t *testing.T) {
	resolvedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := &feed.Result{
		Asset:    "OHM/USD",
		Price:    new(big.Int).Set(math.MaxBig256),
		Decimals: 18,
		Strategy: strategy.NameMedianIfDeviation,
		Observations: []feed.Observation{
			{Source: "chainlink", Value: big.NewInt(0), Error: "price feed answer is stale"},
			{Source: "pool", Value: big.NewInt(130)},
		},
		Spread:     &strategy.Spread{Mean: big.NewInt(106), Low: big.NewInt(1509), High: big.NewInt(2264)},
		Deviated:   true,
		ResolvedAt: resolvedAt,
	}

	data, err := encode(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":"`+math.MaxBig256.String()+`"`)

	out, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, in.Asset, out.Asset)
	assert.Equal(t, 0, in.Price.Cmp(out.Price))
	assert.Equal(t, in.Strategy, out.Strategy)
	assert.True(t, out.Deviated)
	assert.True(t, resolvedAt.Equal(out.ResolvedAt))
	require.Len(t, out.Observations, 2)
	assert.Equal(t, "price feed answer is stale", out.Observations[0].Error)
	assert.Equal(t, int64(130), out.Observations[1].Value.Int64())
	require.NotNil(t, out.Spread)
	assert.Equal(t, int64(2264), out.Spread.High.Int64())
}

func TestEncodeNoData(t *testing.T) {
	data, err := encode(&feed.Result{Asset: "OHM/USD", Strategy: strategy.NameAverage})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "spread")

	out, err := decode(data)
	require.NoError(t, err)
	assert.True(t, out.NoData())
	assert.Nil(t, out.Spread)
}

func TestDecodeInvalid(t *testing.T) {
	for _, data := range []string{
		`not json`,
		`{"price":"1"}`,
		`{"asset":"OHM/USD","price":"1.5"}`,
		`{"asset":"OHM/USD","price":"-1"}`,
		`{"asset":"OHM/USD","price":"1","observations":[{"source":"a","value":"x"}]}`,
	} {
		_, err := decode([]byte(data))
		require.ErrorIs(t, err, ErrInvalidRecord, data)
	}
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisStore(ctx, config.RedisConfig{Addr: "127.0.0.1:1"})
	require.ErrorContains(t, err, "failed to connect to redis")
}
