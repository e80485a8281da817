package sources

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"

	"github.com/StrathCole/pricefeed/pkg/logging"
)

// Keys injected into every source config by the feed builder.
const (
	ConfigKeyDecimals = "decimals"
	ConfigKeyLogger   = "logger"
)

// maxDecimals keeps 10^decimals inside uint256.
const maxDecimals = 77

// GetLoggerFromConfig extracts logger from config map or returns a default noop logger.
func GetLoggerFromConfig(config map[string]interface{}) *logging.Logger {
	if loggerInterface, ok := config[ConfigKeyLogger]; ok {
		if logger, ok := loggerInterface.(*logging.Logger); ok {
			return logger
		}
	}
	return logging.NewNoopLogger()
}

// GetString retrieves a string value from source config.
func GetString(config map[string]interface{}, key, defaultValue string) string {
	if v, ok := config[key].(string); ok {
		return v
	}
	return defaultValue
}

// GetInt retrieves an integer from source config. YAML and JSON decoders
// produce different numeric types, all of which are accepted.
func GetInt(config map[string]interface{}, key string, defaultValue int) int {
	switch v := config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v) // #nosec G115 -- config values are small
	case float64:
		return int(v)
	default:
		return defaultValue
	}
}

// GetBool retrieves a boolean from source config.
func GetBool(config map[string]interface{}, key string, defaultValue bool) bool {
	if v, ok := config[key].(bool); ok {
		return v
	}
	return defaultValue
}

// GetDuration retrieves a duration written as a Go duration string ("90s", "24h").
func GetDuration(config map[string]interface{}, key string, defaultValue time.Duration) (time.Duration, error) {
	raw, ok := config[key]
	if !ok {
		return defaultValue, nil
	}
	s, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a duration string, got %T", ErrInvalidConfig, key, raw)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return d, nil
}

// GetDecimals returns the output decimals injected into config.
func GetDecimals(config map[string]interface{}) (int, error) {
	decimals := GetInt(config, ConfigKeyDecimals, 18)
	if decimals < 0 || decimals > maxDecimals {
		return 0, fmt.Errorf("%w: decimals %d out of range", ErrInvalidConfig, decimals)
	}
	return decimals, nil
}

// ScaleDecimal converts a decimal price to a fixed-point integer with the
// given decimals, truncating digits beyond that precision.
func ScaleDecimal(price decimal.Decimal, decimals int) (*big.Int, error) {
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrNonPositivePrice, price.String())
	}
	// #nosec G115 -- decimals bounded by maxDecimals
	scaled := price.Shift(int32(decimals)).BigInt()
	if scaled.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s rounds to zero at %d decimals", ErrNonPositivePrice, price.String(), decimals)
	}
	if err := CheckPrice(scaled); err != nil {
		return nil, err
	}
	return scaled, nil
}

// CheckPrice rejects observations outside the open range (0, 2^256).
func CheckPrice(price *big.Int) error {
	if price == nil || price.Sign() <= 0 {
		return fmt.Errorf("%w: %v", ErrNonPositivePrice, price)
	}
	if price.Cmp(math.MaxBig256) > 0 {
		return fmt.Errorf("%w: %s", ErrPriceOutOfRange, price.String())
	}
	return nil
}

// Rescale converts a fixed-point integer from one number of decimals to another.
// Scaling down truncates.
func Rescale(value *big.Int, from, to int) *big.Int {
	out := new(big.Int).Set(value)
	switch {
	case to > from:
		out.Mul(out, pow10(to-from))
	case from > to:
		out.Quo(out, pow10(from-to))
	}
	return out
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
