package sources

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleDecimal(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		decimals int
		want     string
		target   error
	}{
		{name: "integer", price: "11", decimals: 18, want: "11000000000000000000"},
		{name: "fraction", price: "10.5", decimals: 2, want: "1050"},
		{name: "truncates", price: "1.239", decimals: 2, want: "123"},
		{name: "no decimals", price: "42.9", decimals: 0, want: "42"},
		{name: "rounds to zero", price: "0.001", decimals: 2, target: ErrNonPositivePrice},
		{name: "zero", price: "0", decimals: 18, target: ErrNonPositivePrice},
		{name: "negative", price: "-1", decimals: 18, target: ErrNonPositivePrice},
		{name: "too wide", price: "1e60", decimals: 18, target: ErrPriceOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScaleDecimal(decimal.RequireFromString(tt.price), tt.decimals)
			if tt.target != nil {
				require.ErrorIs(t, err, tt.target)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestRescale(t *testing.T) {
	v := big.NewInt(123_456_789)

	assert.Equal(t, "1234567890000000000", Rescale(v, 8, 18).String())
	assert.Equal(t, "1234", Rescale(v, 8, 3).String())
	assert.Equal(t, "123456789", Rescale(v, 6, 6).String())
	assert.Equal(t, int64(123_456_789), v.Int64(), "input must not be modified")
}

func TestCheckPrice(t *testing.T) {
	require.NoError(t, CheckPrice(big.NewInt(1)))
	require.NoError(t, CheckPrice(math.MaxBig256))
	require.ErrorIs(t, CheckPrice(nil), ErrNonPositivePrice)
	require.ErrorIs(t, CheckPrice(big.NewInt(0)), ErrNonPositivePrice)
	require.ErrorIs(t, CheckPrice(new(big.Int).Add(math.MaxBig256, big.NewInt(1))), ErrPriceOutOfRange)
}

func TestConfigGetters(t *testing.T) {
	config := map[string]interface{}{
		"url":      "https://example.com",
		"int":      7,
		"int64":    int64(8),
		"float":    9.0,
		"flag":     true,
		"interval": "90s",
		"bad":      "soon",
		"number":   30,
	}

	assert.Equal(t, "https://example.com", GetString(config, "url", ""))
	assert.Equal(t, "fallback", GetString(config, "missing", "fallback"))
	assert.Equal(t, 7, GetInt(config, "int", 0))
	assert.Equal(t, 8, GetInt(config, "int64", 0))
	assert.Equal(t, 9, GetInt(config, "float", 0))
	assert.Equal(t, 5, GetInt(config, "url", 5))
	assert.True(t, GetBool(config, "flag", false))
	assert.True(t, GetBool(config, "missing", true))

	d, err := GetDuration(config, "interval", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	d, err = GetDuration(config, "missing", time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)

	_, err = GetDuration(config, "bad", time.Second)
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = GetDuration(config, "number", time.Second)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestGetDecimals(t *testing.T) {
	d, err := GetDecimals(map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, 18, d)

	d, err = GetDecimals(map[string]interface{}{ConfigKeyDecimals: 8})
	require.NoError(t, err)
	assert.Equal(t, 8, d)

	_, err = GetDecimals(map[string]interface{}{ConfigKeyDecimals: 78})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNormalizeSymbol(t *testing.T) {
	tests := map[string]string{
		"OHM/USDT":   "OHM/USD",
		"ohm/dai":    "OHM/USD",
		"WETH/USD":   "ETH/USD",
		"OHM/ETH":    "OHM/ETH",
		" wbtc/usdc": "BTC/USD",
		"OHM":        "OHM",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeSymbol(in), in)
	}
}

func TestValidateSymbolFormat(t *testing.T) {
	require.NoError(t, ValidateSymbolFormat("OHM/USD"))
	require.ErrorIs(t, ValidateSymbolFormat(""), ErrInvalidSymbolFormat)
	require.ErrorIs(t, ValidateSymbolFormat("OHMUSD"), ErrInvalidSymbolFormat)
	require.ErrorIs(t, ValidateSymbolFormat("OHM/USD/X"), ErrInvalidSymbolFormat)
	require.ErrorIs(t, ValidateSymbolFormat(" /USD"), ErrEmptyBaseCurrency)
	require.ErrorIs(t, ValidateSymbolFormat("OHM/"), ErrEmptyQuoteCurrency)
}
