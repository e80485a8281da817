package config

import "time"

// Config is the root configuration structure
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
	Feeds   []FeedConfig  `yaml:"feeds"`
}

// ServerConfig configures the price server component
type ServerConfig struct {
	HTTP         HTTPConfig `yaml:"http"`
	WebSocket    WSConfig   `yaml:"websocket"`
	PollInterval Duration   `yaml:"poll_interval"`
	FetchTimeout Duration   `yaml:"fetch_timeout"`
}

// HTTPConfig configures the HTTP server
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// WSConfig configures the WebSocket server
type WSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// StoreConfig selects where the latest resolutions are kept
type StoreConfig struct {
	Type  string      `yaml:"type"` // "memory" or "redis"
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis-backed store
type RedisConfig struct {
	Addr      string   `yaml:"addr"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	TTL       Duration `yaml:"ttl"`
	KeyPrefix string   `yaml:"key_prefix"`
}

// FeedConfig configures one resolved asset price
type FeedConfig struct {
	Asset        string         `yaml:"asset"`         // e.g. "OHM/USD"
	Decimals     int            `yaml:"decimals"`      // fixed-point scale of observations and result
	Strategy     string         `yaml:"strategy"`      // see strategy.Names()
	DeviationBps uint64         `yaml:"deviation_bps"` // required by *_if_deviation strategies
	Sources      []SourceConfig `yaml:"sources"`       // priority order
}

// SourceConfig configures an observation source
type SourceConfig struct {
	Type    string                 `yaml:"type"`
	Name    string                 `yaml:"name"`
	Enabled *bool                  `yaml:"enabled"`
	Config  map[string]interface{} `yaml:"config"`
}

// IsEnabled reports whether the source is enabled; sources are enabled unless disabled explicitly.
func (sc SourceConfig) IsEnabled() bool {
	return sc.Enabled == nil || *sc.Enabled
}

// EnabledSources returns the enabled sources in priority order.
func (fc FeedConfig) EnabledSources() []SourceConfig {
	out := make([]SourceConfig, 0, len(fc.Sources))
	for _, s := range fc.Sources {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}

// MetricsConfig configures Prometheus metrics
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Duration is a wrapper around time.Duration for YAML parsing
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(td)
	return nil
}

// ToDuration converts Duration to time.Duration
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}
