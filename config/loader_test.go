/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testGateConfig struct {
	Limit  int
	Period time.Duration
	Mode   string
}

func (c *testGateConfig) KeyPrefix() string {
	return "gates.pairs"
}

func (c *testGateConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("limit", 300)
	dp.SetDefault("period", time.Minute)
	dp.SetDefault("mode", "blocking")
}

func (c *testGateConfig) Set(dp DataProvider) (err error) {
	if c.Limit, err = dp.GetInt("limit"); err != nil {
		return err
	}
	if c.Period, err = dp.GetDuration("period"); err != nil {
		return err
	}
	if c.Mode, err = dp.GetStringFromSet("mode", []string{"blocking", "async"}, true); err != nil {
		return err
	}
	return nil
}

type testCacheConfig struct {
	MaxEntries int
}

func (c *testCacheConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("cache.maxEntries", 1000)
}

func (c *testCacheConfig) Set(dp DataProvider) (err error) {
	c.MaxEntries, err = dp.GetInt("cache.maxEntries")
	return err
}

func TestLoader_LoadFromReader(t *testing.T) {
	t.Run("defaults are used", func(t *testing.T) {
		gateCfg := &testGateConfig{}
		cacheCfg := &testCacheConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(`{}`), DataTypeJSON, gateCfg, cacheCfg)
		require.NoError(t, err)
		require.Equal(t, &testGateConfig{Limit: 300, Period: time.Minute, Mode: "blocking"}, gateCfg)
		require.Equal(t, 1000, cacheCfg.MaxEntries)
	})

	t.Run("values from YAML with key prefix", func(t *testing.T) {
		cfgData := `
gates:
  pairs:
    limit: 60
    period: 30s
    mode: ASYNC
cache:
  maxEntries: 10
`
		gateCfg := &testGateConfig{}
		cacheCfg := &testCacheConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(cfgData), DataTypeYAML, gateCfg, cacheCfg)
		require.NoError(t, err)
		require.Equal(t, &testGateConfig{Limit: 60, Period: 30 * time.Second, Mode: "ASYNC"}, gateCfg)
		require.Equal(t, 10, cacheCfg.MaxEntries)
	})

	t.Run("invalid value is reported with full key", func(t *testing.T) {
		gateCfg := &testGateConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(`{"gates":{"pairs":{"mode":"burst"}}}`), DataTypeJSON, gateCfg)
		require.EqualError(t, err, `gates.pairs.mode: unknown value "burst", should be one of [blocking async]`)
	})
}

func TestLoader_LoadFromFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"gates":{"pairs":{"limit":5}}}`), 0o600))

	gateCfg := &testGateConfig{}
	err := NewLoader(NewViperAdapter()).LoadFromFile(cfgPath, DataTypeFromPath(cfgPath), gateCfg)
	require.NoError(t, err)
	require.Equal(t, 5, gateCfg.Limit)
}

func TestLoader_Load(t *testing.T) {
	t.Run("empty path means defaults", func(t *testing.T) {
		gateCfg := &testGateConfig{}
		require.NoError(t, NewLoader(NewViperAdapter()).Load("", gateCfg))
		require.Equal(t, 300, gateCfg.Limit)
	})

	t.Run("format is guessed by extension", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("gates:\n  pairs:\n    limit: 7\n"), 0o600))
		gateCfg := &testGateConfig{}
		require.NoError(t, NewLoader(NewViperAdapter()).Load(cfgPath, gateCfg))
		require.Equal(t, 7, gateCfg.Limit)
	})

	t.Run("missing file", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "missing.json")
		err := NewLoader(NewViperAdapter()).Load(cfgPath, &testGateConfig{})
		require.ErrorContains(t, err, fmt.Sprintf("read json file %q", cfgPath))
	})
}

func TestNewDefaultLoader_EnvVars(t *testing.T) {
	t.Setenv("DEXTEST_GATES_PAIRS_LIMIT", "42")

	gateCfg := &testGateConfig{}
	require.NoError(t, NewDefaultLoader("DEXTEST").LoadDefaults(gateCfg))
	require.Equal(t, 42, gateCfg.Limit)
	require.Equal(t, time.Minute, gateCfg.Period)
}

func TestDataTypeFromPath(t *testing.T) {
	require.Equal(t, DataTypeJSON, DataTypeFromPath("/etc/dexscreener/config.JSON"))
	require.Equal(t, DataTypeYAML, DataTypeFromPath("config.yml"))
	require.Equal(t, DataTypeYAML, DataTypeFromPath("config"))
}
