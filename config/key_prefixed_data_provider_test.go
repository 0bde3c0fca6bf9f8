/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyPrefixedDataProvider(t *testing.T) {
	va := NewViperAdapter()
	cfgData := []byte(`
dexscreener:
  http:
    timeout: 15s
    retries:
      max: 5
`)
	require.NoError(t, va.SetFromReader(bytes.NewReader(cfgData), DataTypeYAML))

	dp := NewKeyPrefixedDataProvider(va, "dexscreener.http")

	timeout, err := dp.GetDuration("timeout")
	require.NoError(t, err)
	require.Equal(t, 15*time.Second, timeout)

	maxRetries, err := dp.GetInt("retries.max")
	require.NoError(t, err)
	require.Equal(t, 5, maxRetries)

	dp.SetDefault("userAgent", "dexscreener-go")
	userAgent, err := va.GetString("dexscreener.http.userAgent")
	require.NoError(t, err)
	require.Equal(t, "dexscreener-go", userAgent)

	require.False(t, dp.IsSet("retries.enabled"))
	require.EqualError(t, dp.WrapKeyErr("timeout", errors.New("bad value")), "dexscreener.http.timeout: bad value")

	t.Run("empty prefix", func(t *testing.T) {
		root := NewKeyPrefixedDataProvider(va, "")
		require.True(t, root.IsSet("dexscreener.http.timeout"))
	})
}
