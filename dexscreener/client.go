/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package dexscreener

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dexkit/go-dexscreener/httpclient"
	"github.com/dexkit/go-dexscreener/internal/libinfo"
	"github.com/dexkit/go-dexscreener/log"
	"github.com/dexkit/go-dexscreener/lrucache"
	"github.com/dexkit/go-dexscreener/ratelimit"
	"github.com/dexkit/go-dexscreener/restapi"
)

// Chart bars are requested with 15 minutes resolution.
const (
	chartBarsResolution = "15"
	chartBarsCountBack  = "2"
)

// ClientOpts represents options for the Client.
type ClientOpts struct {
	// Logger is used for logging requests. By default, a disabled logger is used.
	Logger log.FieldLogger

	// Transport is the innermost RoundTripper. By default, a clone of http.DefaultTransport is used.
	Transport http.RoundTripper

	// UserAgent overrides the default "go-dexscreener/<version>" User-Agent.
	UserAgent string

	// Metrics is used for collecting Prometheus metrics. It can be nil.
	// HTTP request metrics are collected only when they are enabled in the configuration.
	Metrics *Metrics
}

// Client is a DexScreener API client. It's safe for concurrent use.
type Client struct {
	baseURL         string
	tradeHistoryURL string
	chartBarsURL    string

	httpClient *http.Client
	tiers      *ratelimit.Tiers
	logger     log.FieldLogger

	pairs *lrucache.LRUCache[string, *TokenPair]
	lists *lrucache.LRUCache[string, []TokenPair]
}

// NewClient creates a new Client.
// Gates of the "pairs" and "io" rate tiers are created from the configuration and owned by the client.
func NewClient(cfg *Config, opts ClientOpts) (*Client, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = libinfo.UserAgent()
	}

	gateOpts := ratelimit.GateOpts{Logger: opts.Logger}
	httpOpts := httpclient.Opts{UserAgent: opts.UserAgent, Delegate: opts.Transport, Logger: opts.Logger}
	if opts.Metrics != nil {
		gateOpts.MetricsCollector = opts.Metrics.Gates
		httpOpts.MetricsCollector = opts.Metrics.HTTP
	}

	tiers, err := ratelimit.NewTiers(cfg.HTTP.GateRates(), gateOpts)
	if err != nil {
		return nil, fmt.Errorf("create rate tiers: %w", err)
	}
	for _, tier := range []string{TierPairs, TierIO} {
		if _, ok := tiers.Get(tier); !ok {
			return nil, fmt.Errorf("rate tier %q is not configured", tier)
		}
	}
	httpOpts.Tiers = tiers

	httpClient, err := httpclient.NewWithOpts(cfg.HTTP, httpOpts)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	c := &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		tradeHistoryURL: cfg.TradeHistoryURL,
		chartBarsURL:    cfg.ChartBarsURL,
		httpClient:      httpClient,
		tiers:           tiers,
		logger:          opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.tradeHistoryURL == "" {
		c.tradeHistoryURL = DefaultTradeHistoryURL
	}
	if c.chartBarsURL == "" {
		c.chartBarsURL = DefaultChartBarsURL
	}

	if cfg.Cache.Enabled {
		cacheOpts := lrucache.Options{DefaultTTL: time.Duration(cfg.Cache.TTL)}
		var pairsMetrics, listsMetrics lrucache.MetricsCollector
		if opts.Metrics != nil {
			pairsMetrics = opts.Metrics.Cache.ForCache(CachePairs)
			listsMetrics = opts.Metrics.Cache.ForCache(CacheLists)
		}
		if c.pairs, err = lrucache.NewWithOpts[string, *TokenPair](cfg.Cache.MaxEntries, pairsMetrics, cacheOpts); err != nil {
			return nil, fmt.Errorf("create pairs cache: %w", err)
		}
		if c.lists, err = lrucache.NewWithOpts[string, []TokenPair](cfg.Cache.MaxEntries, listsMetrics, cacheOpts); err != nil {
			return nil, fmt.Errorf("create lists cache: %w", err)
		}
	}
	return c, nil
}

// MustClient creates a new Client and panics if any error occurs.
func MustClient(cfg *Config, opts ClientOpts) *Client {
	c, err := NewClient(cfg, opts)
	if err != nil {
		panic(err)
	}
	return c
}

// Tiers returns gates of the client rate tiers.
func (c *Client) Tiers() *ratelimit.Tiers {
	return c.tiers
}

// RunCacheCleanup removes expired cache entries every interval until ctx is done.
// It's supposed to be run in a separate goroutine and returns immediately if the cache is disabled.
func (c *Client) RunCacheCleanup(ctx context.Context, interval time.Duration) {
	if c.pairs == nil {
		return
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.pairs.RunPeriodicCleanup(ctx, interval)
	}()
	c.lists.RunPeriodicCleanup(ctx, interval)
	wg.Wait()
}

// GetTokenPair returns the pair with the given address on the given chain.
// Nil is returned without an error if the API doesn't know the pair.
func (c *Client) GetTokenPair(ctx context.Context, chainID, pairAddress string) (*TokenPair, error) {
	key := chainID + "/" + pairAddress
	pair, err := loadCached(c.pairs, key, func(string) (*TokenPair, error) {
		var resp pairsResponse
		reqURL := c.baseURL + "/dex/pairs/" + url.PathEscape(chainID) + "/" + url.PathEscape(pairAddress)
		if err := c.getJSON(ctx, TierPairs, reqURL, &resp); err != nil {
			return nil, err
		}
		if resp.Pair != nil {
			return resp.Pair, nil
		}
		if len(resp.Pairs) != 0 {
			return &resp.Pairs[0], nil
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return pair.clone(), nil
}

// GetTokenPairs returns pairs with the given addresses on the given chain.
// At most MaxPairAddresses addresses may be requested, otherwise ErrTooManyAddresses is returned.
// An empty list of addresses gives an empty result without calling the API.
func (c *Client) GetTokenPairs(ctx context.Context, chainID string, pairAddresses []string) ([]TokenPair, error) {
	if len(pairAddresses) > MaxPairAddresses {
		return nil, fmt.Errorf("%w: %d requested, at most %d allowed",
			ErrTooManyAddresses, len(pairAddresses), MaxPairAddresses)
	}
	if len(pairAddresses) == 0 {
		return []TokenPair{}, nil
	}
	escaped := make([]string, len(pairAddresses))
	for i, addr := range pairAddresses {
		escaped[i] = url.PathEscape(addr)
	}
	joined := strings.Join(escaped, ",")
	return c.getPairsList(ctx, "pairs:"+chainID+"/"+joined,
		c.baseURL+"/dex/pairs/"+url.PathEscape(chainID)+"/"+joined)
}

// GetTokensPairs returns pairs of the token(s) with the given address(es).
// Several addresses may be passed separated by commas.
func (c *Client) GetTokensPairs(ctx context.Context, tokenAddresses string) ([]TokenPair, error) {
	parts := strings.Split(tokenAddresses, ",")
	for i := range parts {
		parts[i] = url.PathEscape(strings.TrimSpace(parts[i]))
	}
	joined := strings.Join(parts, ",")
	return c.getPairsList(ctx, "tokens:"+joined, c.baseURL+"/dex/tokens/"+joined)
}

// SearchPairs returns pairs matching the query (pair address, token address, name or symbol).
func (c *Client) SearchPairs(ctx context.Context, query string) ([]TokenPair, error) {
	return c.getPairsList(ctx, "search:"+query, c.baseURL+"/dex/search/?q="+url.QueryEscape(query))
}

// ChartBars returns chart bars of the pair within the [from, to] interval.
func (c *Client) ChartBars(
	ctx context.Context, network, pairAddress string, from, to time.Time,
) (*ChartBarsResponse, error) {
	reqURL, err := url.Parse(expandURLTemplate(c.chartBarsURL, network, pairAddress))
	if err != nil {
		return nil, fmt.Errorf("build chart bars url: %w", err)
	}
	query := reqURL.Query()
	query.Set("from", strconv.FormatInt(int64(toUnixMillis(from)), 10))
	query.Set("to", strconv.FormatInt(int64(toUnixMillis(to)), 10))
	query.Set("res", chartBarsResolution)
	query.Set("cb", chartBarsCountBack)
	reqURL.RawQuery = query.Encode()

	var resp ChartBarsResponse
	if err = c.getJSON(ctx, TierIO, reqURL.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecentTradeHistory returns recent trades of the pair.
func (c *Client) RecentTradeHistory(ctx context.Context, network, pairAddress string) (*TradeHistoryResponse, error) {
	var resp TradeHistoryResponse
	if err := c.getJSON(ctx, TierIO, expandURLTemplate(c.tradeHistoryURL, network, pairAddress), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) getPairsList(ctx context.Context, key, reqURL string) ([]TokenPair, error) {
	pairs, err := loadCached(c.lists, key, func(string) ([]TokenPair, error) {
		var resp pairsResponse
		if err := c.getJSON(ctx, TierPairs, reqURL, &resp); err != nil {
			return nil, err
		}
		if resp.Pairs == nil {
			return []TokenPair{}, nil
		}
		return resp.Pairs, nil
	})
	if err != nil {
		return nil, err
	}
	result := make([]TokenPair, len(pairs))
	for i := range pairs {
		result[i] = *pairs[i].clone()
	}
	return result, nil
}

type validatable interface {
	validate() error
}

// getJSON does a GET request within the rate tier and decodes the response into result.
// Decoding failures of successful responses are reported as ErrParseResponse.
func (c *Client) getJSON(ctx context.Context, tier, reqURL string, result validatable) error {
	req, err := http.NewRequestWithContext(httpclient.NewContextWithTier(ctx, tier), http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", restapi.ContentTypeAppJSON)

	if err = restapi.DoRequestAndUnmarshalJSON(c.httpClient, req, result, c.logger); err != nil {
		var clientErr *restapi.ClientError
		if errors.As(err, &clientErr) && clientErr.StatusCode >= 200 && clientErr.StatusCode < 300 {
			return fmt.Errorf("%w: %w", ErrParseResponse, err)
		}
		return err
	}
	return result.validate()
}

// loadCached calls load through the cache, or directly when caching is disabled.
func loadCached[V any](cache *lrucache.LRUCache[string, V], key string, load func(string) (V, error)) (V, error) {
	if cache == nil {
		return load(key)
	}
	v, _, err := cache.GetOrLoad(key, load)
	return v, err
}

func expandURLTemplate(tmpl, network, address string) string {
	return strings.NewReplacer(
		"{network}", url.PathEscape(network),
		"{address}", url.PathEscape(address),
	).Replace(tmpl)
}

// Result is a value or an error delivered by Async.
type Result[T any] struct {
	Value T
	Err   error
}

// Go runs fn in a separate goroutine and returns a buffered channel that receives its error.
// Requests made by fn through the client are admitted by the gates as usual,
// so synchronous and asynchronous callers share the same quotas.
func (c *Client) Go(ctx context.Context, fn func(ctx context.Context) error) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn(ctx)
	}()
	return errCh
}

// Async runs fn in a separate goroutine and returns a buffered channel that receives its result.
// The channel is buffered, so a caller that stopped waiting doesn't leak the goroutine.
func Async[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) <-chan Result[T] {
	resCh := make(chan Result[T], 1)
	go func() {
		v, err := fn(ctx)
		resCh <- Result[T]{Value: v, Err: err}
	}()
	return resCh
}
