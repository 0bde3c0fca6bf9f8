/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package dexscreener

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dexkit/go-dexscreener/config"
	"github.com/dexkit/go-dexscreener/httpclient"
)

// Rate tiers of the DexScreener API.
const (
	// TierPairs is used for pairs, tokens and search endpoints.
	TierPairs = "pairs"
	// TierIO is used for trade history and chart bars endpoints.
	TierIO = "io"
)

// Default configuration values.
const (
	DefaultBaseURL         = "https://api.dexscreener.io/latest"
	DefaultTradeHistoryURL = "https://io6.dexscreener.io/u/trading-history/recent/{network}/{address}"
	DefaultChartBarsURL    = "https://io5.dexscreener.io/u/chart/bars/{network}/{address}"
	DefaultCacheMaxEntries = 1000
	DefaultCacheTTL        = 30 * time.Second
)

// DefaultGates returns default quotas of the DexScreener API rate tiers.
func DefaultGates() map[string]httpclient.GateConfig {
	return map[string]httpclient.GateConfig{
		TierPairs: {Limit: 300, Period: config.TimeDuration(time.Minute)},
		TierIO:    {Limit: 60, Period: config.TimeDuration(time.Minute)},
	}
}

const (
	cfgKeyBaseURL          = "baseURL"
	cfgKeyTradeHistoryURL  = "tradeHistoryURL"
	cfgKeyChartBarsURL     = "chartBarsURL"
	cfgKeyCacheEnabled     = "cache.enabled"
	cfgKeyCacheMaxEntries  = "cache.maxEntries"
	cfgKeyCacheTTL         = "cache.ttl"
	cfgKeyPrefixHTTPClient = "http"
)

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// CacheConfig represents configuration of the response cache.
type CacheConfig struct {
	Enabled    bool                `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	MaxEntries int                 `mapstructure:"maxEntries" yaml:"maxEntries" json:"maxEntries"`
	TTL        config.TimeDuration `mapstructure:"ttl" yaml:"ttl" json:"ttl"`
}

// Config represents configuration of the DexScreener client.
// TradeHistoryURL and ChartBarsURL are templates with {network} and {address} placeholders.
type Config struct {
	BaseURL         string             `mapstructure:"baseURL" yaml:"baseURL" json:"baseURL"`
	TradeHistoryURL string             `mapstructure:"tradeHistoryURL" yaml:"tradeHistoryURL" json:"tradeHistoryURL"`
	ChartBarsURL    string             `mapstructure:"chartBarsURL" yaml:"chartBarsURL" json:"chartBarsURL"`
	Cache           CacheConfig        `mapstructure:"cache" yaml:"cache" json:"cache"`
	HTTP            *httpclient.Config `mapstructure:"http" yaml:"http" json:"http"`

	keyPrefix string
}

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*Config)

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(c *Config) {
		c.keyPrefix = keyPrefix
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	c := &Config{HTTP: httpclient.NewConfig(httpclient.WithDefaultGates(DefaultGates()))}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig(options ...ConfigOption) *Config {
	c := NewConfig(options...)
	c.BaseURL = DefaultBaseURL
	c.TradeHistoryURL = DefaultTradeHistoryURL
	c.ChartBarsURL = DefaultChartBarsURL
	c.Cache = CacheConfig{Enabled: true, MaxEntries: DefaultCacheMaxEntries, TTL: config.TimeDuration(DefaultCacheTTL)}
	c.HTTP = httpclient.NewDefaultConfig(httpclient.WithDefaultGates(DefaultGates()))
	return c
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults is part of config interface implementation.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyBaseURL, DefaultBaseURL)
	dp.SetDefault(cfgKeyTradeHistoryURL, DefaultTradeHistoryURL)
	dp.SetDefault(cfgKeyChartBarsURL, DefaultChartBarsURL)
	dp.SetDefault(cfgKeyCacheEnabled, true)
	dp.SetDefault(cfgKeyCacheMaxEntries, DefaultCacheMaxEntries)
	dp.SetDefault(cfgKeyCacheTTL, DefaultCacheTTL)
	c.HTTP.SetProviderDefaults(config.NewKeyPrefixedDataProvider(dp, cfgKeyPrefixHTTPClient))
}

// Set is part of config interface implementation.
func (c *Config) Set(dp config.DataProvider) (err error) {
	if c.BaseURL, err = getURL(dp, cfgKeyBaseURL); err != nil {
		return err
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.TradeHistoryURL, err = getURLTemplate(dp, cfgKeyTradeHistoryURL); err != nil {
		return err
	}
	if c.ChartBarsURL, err = getURLTemplate(dp, cfgKeyChartBarsURL); err != nil {
		return err
	}

	if c.Cache.Enabled, err = dp.GetBool(cfgKeyCacheEnabled); err != nil {
		return err
	}
	if c.Cache.Enabled {
		if c.Cache.MaxEntries, err = dp.GetInt(cfgKeyCacheMaxEntries); err != nil {
			return err
		}
		if c.Cache.MaxEntries <= 0 {
			return dp.WrapKeyErr(cfgKeyCacheMaxEntries, fmt.Errorf("must be positive"))
		}
		var ttl time.Duration
		if ttl, err = dp.GetDuration(cfgKeyCacheTTL); err != nil {
			return err
		}
		if ttl < 0 {
			return dp.WrapKeyErr(cfgKeyCacheTTL, fmt.Errorf("can not be negative"))
		}
		c.Cache.TTL = config.TimeDuration(ttl)
	}

	if err = c.HTTP.Set(config.NewKeyPrefixedDataProvider(dp, cfgKeyPrefixHTTPClient)); err != nil {
		return err
	}
	for _, tier := range []string{TierPairs, TierIO} {
		if _, ok := c.HTTP.Gates[tier]; !ok {
			return dp.WrapKeyErr(cfgKeyPrefixHTTPClient+".gates", fmt.Errorf("rate tier %q is required", tier))
		}
	}
	return nil
}

func getURL(dp config.DataProvider, key string) (string, error) {
	rawURL, err := dp.GetString(key)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", dp.WrapKeyErr(key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", dp.WrapKeyErr(key, fmt.Errorf("absolute http(s) URL is required, got %q", rawURL))
	}
	return rawURL, nil
}

func getURLTemplate(dp config.DataProvider, key string) (string, error) {
	tmpl, err := getURL(dp, key)
	if err != nil {
		return "", err
	}
	for _, placeholder := range []string{"{network}", "{address}"} {
		if !strings.Contains(tmpl, placeholder) {
			return "", dp.WrapKeyErr(key, fmt.Errorf("%s placeholder is missing", placeholder))
		}
	}
	return tmpl, nil
}
