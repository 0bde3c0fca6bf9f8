/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"fmt"
	"sort"
	"time"

	"github.com/dexkit/go-dexscreener/config"
	"github.com/dexkit/go-dexscreener/ratelimit"
	"github.com/dexkit/go-dexscreener/retry"
)

const (
	// DefaultClientWaitTimeout is a default timeout for a client to wait for a request.
	DefaultClientWaitTimeout = 30 * time.Second

	// RetryPolicyExponential is a policy for exponential retries.
	RetryPolicyExponential = "exponential"

	// RetryPolicyConstant is a policy for constant retries.
	RetryPolicyConstant = "constant"
)

const (
	cfgKeyTimeout                                 = "timeout"
	cfgKeyRetriesEnabled                          = "retries.enabled"
	cfgKeyRetriesMax                              = "retries.maxAttempts"
	cfgKeyRetriesMaxRetryAfter                    = "retries.maxRetryAfter"
	cfgKeyRetriesPolicyStrategy                   = "retries.policy.strategy"
	cfgKeyRetriesPolicyExponentialInitialInterval = "retries.policy.exponentialBackoffInitialInterval"
	cfgKeyRetriesPolicyExponentialMultiplier      = "retries.policy.exponentialBackoffMultiplier"
	cfgKeyRetriesPolicyExponentialMaxInterval     = "retries.policy.exponentialBackoffMaxInterval"
	cfgKeyRetriesPolicyConstantInterval           = "retries.policy.constantBackoffInterval"
	cfgKeyRateLimitsEnabled                       = "rateLimits.enabled"
	cfgKeyRateLimitsLimit                         = "rateLimits.limit"
	cfgKeyRateLimitsBurst                         = "rateLimits.burst"
	cfgKeyRateLimitsWaitTimeout                   = "rateLimits.waitTimeout"
	cfgKeyGates                                   = "gates"
	cfgKeyGatesDefaultTier                        = "defaultTier"
	cfgKeyLogEnabled                              = "log.enabled"
	cfgKeyLogMode                                 = "log.mode"
	cfgKeyLogSlowRequestThreshold                 = "log.slowRequestThreshold"
	cfgKeyMetricsEnabled                          = "metrics.enabled"
)

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// RetriesConfig represents configuration options for HTTP client retries policy.
type RetriesConfig struct {
	Enabled     bool         `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	MaxAttempts int          `mapstructure:"maxAttempts" yaml:"maxAttempts" json:"maxAttempts"`
	Policy      PolicyConfig `mapstructure:"policy" yaml:"policy" json:"policy"`

	// MaxRetryAfter stops retrying when the server asks to come back later than this.
	MaxRetryAfter config.TimeDuration `mapstructure:"maxRetryAfter" yaml:"maxRetryAfter" json:"maxRetryAfter"`
}

// PolicyConfig represents configuration options for policy retry.
type PolicyConfig struct {
	Strategy                          string              `mapstructure:"strategy" yaml:"strategy" json:"strategy"`
	ExponentialBackoffInitialInterval config.TimeDuration `mapstructure:"exponentialBackoffInitialInterval" yaml:"exponentialBackoffInitialInterval" json:"exponentialBackoffInitialInterval"`
	ExponentialBackoffMultiplier      float64             `mapstructure:"exponentialBackoffMultiplier" yaml:"exponentialBackoffMultiplier" json:"exponentialBackoffMultiplier"`
	ExponentialBackoffMaxInterval     config.TimeDuration `mapstructure:"exponentialBackoffMaxInterval" yaml:"exponentialBackoffMaxInterval,omitempty" json:"exponentialBackoffMaxInterval,omitempty"`
	ConstantBackoffInterval           config.TimeDuration `mapstructure:"constantBackoffInterval" yaml:"constantBackoffInterval" json:"constantBackoffInterval"`
}

// GetPolicy returns a retry policy based on strategy or nil if none is provided.
func (c *RetriesConfig) GetPolicy() retry.Policy {
	switch c.Policy.Strategy {
	case RetryPolicyExponential:
		policy := retry.NewExponentialBackoffPolicy(
			time.Duration(c.Policy.ExponentialBackoffInitialInterval), c.Policy.ExponentialBackoffMultiplier, 0)
		policy.MaxInterval = time.Duration(c.Policy.ExponentialBackoffMaxInterval)
		return policy
	case RetryPolicyConstant:
		return retry.NewConstantBackoffPolicy(time.Duration(c.Policy.ConstantBackoffInterval), 0)
	}
	return nil
}

// RateLimitConfig represents configuration options for the token-bucket request smoothing.
type RateLimitConfig struct {
	Enabled     bool                `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Limit       float64             `mapstructure:"limit" yaml:"limit" json:"limit"`
	Burst       int                 `mapstructure:"burst" yaml:"burst" json:"burst"`
	WaitTimeout config.TimeDuration `mapstructure:"waitTimeout" yaml:"waitTimeout" json:"waitTimeout"`
}

// GateConfig represents a quota of one rate tier: at most Limit requests within Period.
type GateConfig struct {
	Limit  int                 `mapstructure:"limit" yaml:"limit" json:"limit"`
	Period config.TimeDuration `mapstructure:"period" yaml:"period" json:"period"`
}

// LogConfig represents configuration options for HTTP client logs.
type LogConfig struct {
	Enabled              bool                `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Mode                 LoggingMode         `mapstructure:"mode" yaml:"mode" json:"mode"`
	SlowRequestThreshold config.TimeDuration `mapstructure:"slowRequestThreshold" yaml:"slowRequestThreshold" json:"slowRequestThreshold"`
}

// MetricsConfig represents configuration options for HTTP client metrics.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

// Config represents options for HTTP client configuration.
type Config struct {
	Timeout     config.TimeDuration   `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	Retries     RetriesConfig         `mapstructure:"retries" yaml:"retries" json:"retries"`
	RateLimits  RateLimitConfig       `mapstructure:"rateLimits" yaml:"rateLimits" json:"rateLimits"`
	Gates       map[string]GateConfig `mapstructure:"gates" yaml:"gates" json:"gates"`
	DefaultTier string                `mapstructure:"defaultTier" yaml:"defaultTier" json:"defaultTier"`
	Log         LogConfig             `mapstructure:"log" yaml:"log" json:"log"`
	Metrics     MetricsConfig         `mapstructure:"metrics" yaml:"metrics" json:"metrics"`

	keyPrefix    string
	defaultGates map[string]GateConfig
}

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*Config)

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(c *Config) {
		c.keyPrefix = keyPrefix
	}
}

// WithDefaultGates returns a ConfigOption that sets rate tiers used when the configuration doesn't override them.
func WithDefaultGates(gates map[string]GateConfig) ConfigOption {
	return func(c *Config) {
		c.defaultGates = gates
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	c := &Config{}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig(options ...ConfigOption) *Config {
	c := NewConfig(options...)
	c.Timeout = config.TimeDuration(DefaultClientWaitTimeout)
	c.Retries = RetriesConfig{
		Enabled:       true,
		MaxAttempts:   DefaultMaxRetryAttempts,
		MaxRetryAfter: config.TimeDuration(DefaultMaxRetryAfter),
	}
	c.Log = LogConfig{Enabled: true, Mode: LoggingModeAll}
	c.Gates = copyGates(c.defaultGates)
	return c
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults is part of config interface implementation.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyTimeout, DefaultClientWaitTimeout)
	dp.SetDefault(cfgKeyRetriesEnabled, true)
	dp.SetDefault(cfgKeyRetriesMax, DefaultMaxRetryAttempts)
	dp.SetDefault(cfgKeyRetriesMaxRetryAfter, DefaultMaxRetryAfter)
	dp.SetDefault(cfgKeyLogEnabled, true)
	dp.SetDefault(cfgKeyLogMode, string(LoggingModeAll))
}

// Set is part of config interface implementation.
func (c *Config) Set(dp config.DataProvider) error {
	timeout, err := dp.GetDuration(cfgKeyTimeout)
	if err != nil {
		return err
	}
	if timeout < 0 {
		return dp.WrapKeyErr(cfgKeyTimeout, fmt.Errorf("can not be negative"))
	}
	c.Timeout = config.TimeDuration(timeout)

	if err = c.setRetries(dp); err != nil {
		return err
	}
	if err = c.setRateLimits(dp); err != nil {
		return err
	}
	if err = c.setGates(dp); err != nil {
		return err
	}
	if err = c.setLog(dp); err != nil {
		return err
	}
	if c.Metrics.Enabled, err = dp.GetBool(cfgKeyMetricsEnabled); err != nil {
		return err
	}
	return nil
}

func (c *Config) setRetries(dp config.DataProvider) (err error) {
	if c.Retries.Enabled, err = dp.GetBool(cfgKeyRetriesEnabled); err != nil || !c.Retries.Enabled {
		return err
	}
	if c.Retries.MaxAttempts, err = dp.GetInt(cfgKeyRetriesMax); err != nil {
		return err
	}
	if c.Retries.MaxAttempts < 0 && c.Retries.MaxAttempts != UnlimitedRetryAttempts {
		return dp.WrapKeyErr(cfgKeyRetriesMax, fmt.Errorf("can not be negative"))
	}
	maxRetryAfter, err := dp.GetDuration(cfgKeyRetriesMaxRetryAfter)
	if err != nil {
		return err
	}
	if maxRetryAfter < 0 {
		return dp.WrapKeyErr(cfgKeyRetriesMaxRetryAfter, fmt.Errorf("can not be negative"))
	}
	c.Retries.MaxRetryAfter = config.TimeDuration(maxRetryAfter)

	if c.Retries.Policy.Strategy, err = dp.GetStringFromSet(cfgKeyRetriesPolicyStrategy,
		[]string{"", RetryPolicyExponential, RetryPolicyConstant}, false); err != nil {
		return err
	}
	switch c.Retries.Policy.Strategy {
	case RetryPolicyExponential:
		var interval time.Duration
		if interval, err = dp.GetDuration(cfgKeyRetriesPolicyExponentialInitialInterval); err != nil {
			return err
		}
		if interval <= 0 {
			return dp.WrapKeyErr(cfgKeyRetriesPolicyExponentialInitialInterval, fmt.Errorf("must be positive"))
		}
		c.Retries.Policy.ExponentialBackoffInitialInterval = config.TimeDuration(interval)
		if c.Retries.Policy.ExponentialBackoffMultiplier, err = dp.GetFloat64(cfgKeyRetriesPolicyExponentialMultiplier); err != nil {
			return err
		}
		if c.Retries.Policy.ExponentialBackoffMultiplier <= 1 {
			return dp.WrapKeyErr(cfgKeyRetriesPolicyExponentialMultiplier, fmt.Errorf("must be greater than 1"))
		}
		if interval, err = dp.GetDuration(cfgKeyRetriesPolicyExponentialMaxInterval); err != nil {
			return err
		}
		c.Retries.Policy.ExponentialBackoffMaxInterval = config.TimeDuration(interval)
	case RetryPolicyConstant:
		var interval time.Duration
		if interval, err = dp.GetDuration(cfgKeyRetriesPolicyConstantInterval); err != nil {
			return err
		}
		if interval <= 0 {
			return dp.WrapKeyErr(cfgKeyRetriesPolicyConstantInterval, fmt.Errorf("must be positive"))
		}
		c.Retries.Policy.ConstantBackoffInterval = config.TimeDuration(interval)
	}
	return nil
}

func (c *Config) setRateLimits(dp config.DataProvider) (err error) {
	if c.RateLimits.Enabled, err = dp.GetBool(cfgKeyRateLimitsEnabled); err != nil || !c.RateLimits.Enabled {
		return err
	}
	if c.RateLimits.Limit, err = dp.GetFloat64(cfgKeyRateLimitsLimit); err != nil {
		return err
	}
	if c.RateLimits.Limit <= 0 {
		return dp.WrapKeyErr(cfgKeyRateLimitsLimit, fmt.Errorf("must be positive"))
	}
	if c.RateLimits.Burst, err = dp.GetInt(cfgKeyRateLimitsBurst); err != nil {
		return err
	}
	if c.RateLimits.Burst < 0 {
		return dp.WrapKeyErr(cfgKeyRateLimitsBurst, fmt.Errorf("can not be negative"))
	}
	var waitTimeout time.Duration
	if waitTimeout, err = dp.GetDuration(cfgKeyRateLimitsWaitTimeout); err != nil {
		return err
	}
	if waitTimeout < 0 {
		return dp.WrapKeyErr(cfgKeyRateLimitsWaitTimeout, fmt.Errorf("can not be negative"))
	}
	c.RateLimits.WaitTimeout = config.TimeDuration(waitTimeout)
	return nil
}

// setGates merges configured tiers into the default ones.
// A tier may override only its limit or only its period.
func (c *Config) setGates(dp config.DataProvider) error {
	gates := copyGates(c.defaultGates)
	if dp.IsSet(cfgKeyGates) {
		var configured map[string]GateConfig
		if err := dp.UnmarshalKey(cfgKeyGates, &configured, config.WithTextUnmarshalerHook()); err != nil {
			return err
		}
		for name, gateCfg := range configured {
			merged := gates[name]
			if gateCfg.Limit != 0 {
				merged.Limit = gateCfg.Limit
			}
			if gateCfg.Period != 0 {
				merged.Period = gateCfg.Period
			}
			gates[name] = merged
		}
	}
	for _, name := range sortedGateNames(gates) {
		if err := gates[name].Rate().Validate(); err != nil {
			return dp.WrapKeyErr(cfgKeyGates+"."+name, err)
		}
	}
	c.Gates = gates

	var err error
	if c.DefaultTier, err = dp.GetString(cfgKeyGatesDefaultTier); err != nil {
		return err
	}
	if _, ok := gates[c.DefaultTier]; c.DefaultTier != "" && !ok {
		return dp.WrapKeyErr(cfgKeyGatesDefaultTier, fmt.Errorf("unknown rate tier %q", c.DefaultTier))
	}
	return nil
}

func (c *Config) setLog(dp config.DataProvider) (err error) {
	if c.Log.Enabled, err = dp.GetBool(cfgKeyLogEnabled); err != nil || !c.Log.Enabled {
		return err
	}
	var mode string
	if mode, err = dp.GetString(cfgKeyLogMode); err != nil {
		return err
	}
	if c.Log.Mode = LoggingMode(mode); !c.Log.Mode.IsValid() {
		return dp.WrapKeyErr(cfgKeyLogMode, fmt.Errorf("invalid mode %q, choose one of: [none, all, failed]", mode))
	}
	var threshold time.Duration
	if threshold, err = dp.GetDuration(cfgKeyLogSlowRequestThreshold); err != nil {
		return err
	}
	if threshold < 0 {
		return dp.WrapKeyErr(cfgKeyLogSlowRequestThreshold, fmt.Errorf("can not be negative"))
	}
	c.Log.SlowRequestThreshold = config.TimeDuration(threshold)
	return nil
}

// Rate converts the gate configuration into ratelimit.Rate.
func (g GateConfig) Rate() ratelimit.Rate {
	return ratelimit.Rate{Count: g.Limit, Duration: time.Duration(g.Period)}
}

// GateRates returns quotas of all configured rate tiers.
func (c *Config) GateRates() map[string]ratelimit.Rate {
	rates := make(map[string]ratelimit.Rate, len(c.Gates))
	for name, gateCfg := range c.Gates {
		rates[name] = gateCfg.Rate()
	}
	return rates
}

func copyGates(gates map[string]GateConfig) map[string]GateConfig {
	res := make(map[string]GateConfig, len(gates))
	for name, gateCfg := range gates {
		res[name] = gateCfg
	}
	return res
}

func sortedGateNames(gates map[string]GateConfig) []string {
	names := make([]string, 0, len(gates))
	for name := range gates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
