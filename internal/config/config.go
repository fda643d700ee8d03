// Package config loads flowbridge settings from flags, environment and an
// optional YAML file through viper.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/a2y-d5l/flowbridge"
	"github.com/a2y-d5l/flowbridge/internal/logging"
	"github.com/a2y-d5l/flowbridge/pkg/stream"
)

// EnvPrefix is the prefix of environment overrides, e.g. FLOWBRIDGE_SOURCE_SEED.
const EnvPrefix = "FLOWBRIDGE"

// Config is the full set of settings of the flowbridge binaries.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Bridge  BridgeConfig  `mapstructure:"bridge"`
	Driver  DriverConfig  `mapstructure:"driver"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// SourceConfig configures the event source.
type SourceConfig struct {
	Seed      int `mapstructure:"seed"`
	Threshold int `mapstructure:"threshold"`
}

// BridgeConfig configures the bridge's delivery.
type BridgeConfig struct {
	Buffer      string        `mapstructure:"buffer"`
	BufferSize  int           `mapstructure:"buffer_size"`
	Delivery    string        `mapstructure:"delivery"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// DriverConfig configures the driver and its tick trigger.
type DriverConfig struct {
	// Count is the last element of the synthetic sequence 0..Count.
	Count int `mapstructure:"count"`

	// Interval ticks the source periodically. Zero ticks once per input line.
	Interval time.Duration `mapstructure:"interval"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint; empty disables it.
	Addr string `mapstructure:"addr"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Seed:      5,
			Threshold: flowbridge.DefaultThreshold,
		},
		Bridge: BridgeConfig{
			Buffer:   "unbounded",
			Delivery: flowbridge.DeliverySwallow.String(),
		},
		Driver: DriverConfig{
			Count: 10,
		},
		Log: LogConfig{
			Level: logging.LevelInfo,
		},
	}
}

// SetDefaults registers the defaults with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("source.seed", d.Source.Seed)
	v.SetDefault("source.threshold", d.Source.Threshold)
	v.SetDefault("bridge.buffer", d.Bridge.Buffer)
	v.SetDefault("bridge.buffer_size", d.Bridge.BufferSize)
	v.SetDefault("bridge.delivery", d.Bridge.Delivery)
	v.SetDefault("bridge.send_timeout", d.Bridge.SendTimeout)
	v.SetDefault("driver.count", d.Driver.Count)
	v.SetDefault("driver.interval", d.Driver.Interval)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// Init prepares v: defaults, environment binding and the config file.
//
// cfgFile is read when set; otherwise flowbridge.yaml is looked up in the
// working directory and $HOME/.config/flowbridge. A missing file is not an
// error.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("flowbridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/flowbridge")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return cfg, nil
}

// BufferPolicy returns the parsed buffer policy.
func (c *Config) BufferPolicy() (stream.Policy, error) {
	return stream.ParsePolicy(c.Bridge.Buffer, c.Bridge.BufferSize)
}

// DeliveryPolicy returns the parsed delivery policy.
func (c *Config) DeliveryPolicy() (flowbridge.DeliveryPolicy, error) {
	return flowbridge.ParseDeliveryPolicy(c.Bridge.Delivery)
}

// BridgeOptions translates the bridge settings into flowbridge options.
func (c *Config) BridgeOptions() ([]flowbridge.Option, error) {
	policy, err := c.BufferPolicy()
	if err != nil {
		return nil, err
	}
	delivery, err := c.DeliveryPolicy()
	if err != nil {
		return nil, err
	}
	return []flowbridge.Option{
		flowbridge.WithBufferPolicy(policy),
		flowbridge.WithDeliveryPolicy(delivery),
		flowbridge.WithSendTimeout(c.Bridge.SendTimeout),
	}, nil
}

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate checks c and returns every problem found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Driver.Count < 0 {
		errs = append(errs, ValidationError{"driver.count", c.Driver.Count, "must not be negative"})
	}
	if c.Driver.Interval < 0 {
		errs = append(errs, ValidationError{"driver.interval", c.Driver.Interval, "must not be negative"})
	}
	if c.Bridge.SendTimeout < 0 {
		errs = append(errs, ValidationError{"bridge.send_timeout", c.Bridge.SendTimeout, "must not be negative"})
	}
	if _, err := c.BufferPolicy(); err != nil {
		errs = append(errs, ValidationError{"bridge.buffer", c.Bridge.Buffer, err.Error()})
	}
	if _, err := c.DeliveryPolicy(); err != nil {
		errs = append(errs, ValidationError{"bridge.delivery", c.Bridge.Delivery, err.Error()})
	}
	if !slices.Contains(logging.ValidLevels(), strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{"log.level", c.Log.Level,
			"must be one of " + strings.Join(logging.ValidLevels(), ", ")})
	}

	return errs
}
