/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type testPair struct {
	Symbol   string
	PriceUSD float64
}

func newTestCache(t *testing.T, maxEntries int, metrics MetricsCollector, opts Options) (*LRUCache[string, testPair], *time.Time) {
	t.Helper()
	cache, err := NewWithOpts[string, testPair](maxEntries, metrics, opts)
	require.NoError(t, err)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	return cache, &now
}

func TestNew(t *testing.T) {
	_, err := New[string, testPair](0, nil)
	require.EqualError(t, err, "maxEntries must be greater than 0")

	_, err = NewWithOpts[string, testPair](10, nil, Options{DefaultTTL: -time.Second})
	require.EqualError(t, err, "defaultTTL must be greater or equal to 0 (no expiration)")
}

func TestLRUCache(t *testing.T) {
	weth := testPair{Symbol: "WETH", PriceUSD: 3120.5}
	wbtc := testPair{Symbol: "WBTC", PriceUSD: 64000}
	usdc := testPair{Symbol: "USDC", PriceUSD: 1}

	t.Run("add and get", func(t *testing.T) {
		cache, _ := newTestCache(t, 10, nil, Options{})
		_, found := cache.Get("weth")
		require.False(t, found)

		cache.Add("weth", weth)
		val, found := cache.Get("weth")
		require.True(t, found)
		require.Equal(t, weth, val)

		cache.Add("weth", wbtc)
		val, _ = cache.Get("weth")
		require.Equal(t, wbtc, val, "existing entry should be replaced")
		require.Equal(t, 1, cache.Len())
	})

	t.Run("least recently used entry is evicted", func(t *testing.T) {
		cache, _ := newTestCache(t, 2, nil, Options{})
		cache.Add("weth", weth)
		cache.Add("wbtc", wbtc)
		_, _ = cache.Get("weth")
		cache.Add("usdc", usdc)

		require.Equal(t, 2, cache.Len())
		_, found := cache.Get("wbtc")
		require.False(t, found)
		_, found = cache.Get("weth")
		require.True(t, found)
	})

	t.Run("entries expire", func(t *testing.T) {
		cache, now := newTestCache(t, 10, nil, Options{DefaultTTL: time.Minute})
		cache.Add("weth", weth)
		cache.AddWithTTL("wbtc", wbtc, 0)
		cache.AddWithTTL("usdc", usdc, 10*time.Second)

		*now = now.Add(30 * time.Second)
		_, found := cache.Get("usdc")
		require.False(t, found)
		_, found = cache.Get("weth")
		require.True(t, found)

		*now = now.Add(time.Minute)
		_, found = cache.Get("weth")
		require.False(t, found)
		_, found = cache.Get("wbtc")
		require.True(t, found, "entry without TTL should never expire")
		require.Equal(t, 1, cache.Len())
	})

	t.Run("remove and purge", func(t *testing.T) {
		cache, _ := newTestCache(t, 10, nil, Options{})
		cache.Add("weth", weth)
		cache.Add("wbtc", wbtc)

		require.True(t, cache.Remove("weth"))
		require.False(t, cache.Remove("weth"))
		require.Equal(t, 1, cache.Len())

		cache.Purge()
		require.Equal(t, 0, cache.Len())
	})

	t.Run("metrics", func(t *testing.T) {
		metrics := NewPrometheusMetrics()
		cache, _ := newTestCache(t, 2, metrics.ForCache("pairs"), Options{})
		cache.Add("weth", weth)
		cache.Add("wbtc", wbtc)
		cache.Add("usdc", usdc)
		_, _ = cache.Get("usdc")
		_, _ = cache.Get("weth")

		require.Equal(t, 2.0, testutil.ToFloat64(metrics.EntriesAmount.WithLabelValues("pairs")))
		require.Equal(t, 1.0, testutil.ToFloat64(metrics.HitsTotal.WithLabelValues("pairs")))
		require.Equal(t, 1.0, testutil.ToFloat64(metrics.MissesTotal.WithLabelValues("pairs")))
		require.Equal(t, 1.0, testutil.ToFloat64(metrics.EvictionsTotal.WithLabelValues("pairs")))
	})
}

func TestLRUCache_GetOrLoad(t *testing.T) {
	weth := testPair{Symbol: "WETH", PriceUSD: 3120.5}

	t.Run("value is loaded once and then taken from the cache", func(t *testing.T) {
		cache, _ := newTestCache(t, 10, nil, Options{})
		var loads atomic.Int32
		load := func(key string) (testPair, error) {
			loads.Add(1)
			time.Sleep(50 * time.Millisecond)
			return weth, nil
		}

		runConcurrently(5, func(int) {
			val, _, err := cache.GetOrLoad("weth", load)
			require.NoError(t, err)
			require.Equal(t, weth, val)
		})
		require.Equal(t, int32(1), loads.Load())

		val, cached, err := cache.GetOrLoad("weth", load)
		require.NoError(t, err)
		require.True(t, cached)
		require.Equal(t, weth, val)
		require.Equal(t, int32(1), loads.Load())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		cache, _ := newTestCache(t, 10, nil, Options{})
		errLoad := errors.New("too many requests")

		_, cached, err := cache.GetOrLoad("weth", func(string) (testPair, error) { return testPair{}, errLoad })
		require.ErrorIs(t, err, errLoad)
		require.False(t, cached)
		require.Equal(t, 0, cache.Len())

		val, cached, err := cache.GetOrLoad("weth", func(string) (testPair, error) { return weth, nil })
		require.NoError(t, err)
		require.False(t, cached)
		require.Equal(t, weth, val)
	})

	t.Run("load counts a single miss", func(t *testing.T) {
		metrics := NewPrometheusMetrics()
		cache, _ := newTestCache(t, 10, metrics.ForCache("lists"), Options{})
		load := func(string) (testPair, error) { return weth, nil }

		_, cached, err := cache.GetOrLoad("weth", load)
		require.NoError(t, err)
		require.False(t, cached)
		_, cached, err = cache.GetOrLoad("weth", load)
		require.NoError(t, err)
		require.True(t, cached)

		require.Equal(t, 1.0, testutil.ToFloat64(metrics.MissesTotal.WithLabelValues("lists")))
		require.Equal(t, 1.0, testutil.ToFloat64(metrics.HitsTotal.WithLabelValues("lists")))
	})
}

func TestLRUCache_RunPeriodicCleanup(t *testing.T) {
	cache, err := NewWithOpts[string, testPair](10, nil, Options{DefaultTTL: 50 * time.Millisecond})
	require.NoError(t, err)
	cache.Add("weth", testPair{Symbol: "WETH"})
	cache.AddWithTTL("wbtc", testPair{Symbol: "WBTC"}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cache.RunPeriodicCleanup(ctx, 20*time.Millisecond)

	require.Eventually(t, func() bool { return cache.Len() == 1 }, time.Second, 10*time.Millisecond)
	_, found := cache.Get("wbtc")
	require.True(t, found)
}
