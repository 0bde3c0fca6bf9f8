/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dexkit/go-dexscreener/dexscreener"
	"github.com/dexkit/go-dexscreener/log"
)

type demoFlags struct {
	chain string
	pair  string
	token string
	query string
}

// newDemoCommand runs a pair lookup, a token lookup and a search concurrently.
// All of them share the "pairs" rate tier of the same client.
func newDemoCommand(a *app) *cobra.Command {
	var flags demoFlags
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a pair lookup, a token lookup and a search concurrently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pairs, err := runDemo(cmd.Context(), a.client, flags)
			if err != nil {
				return err
			}
			return renderPairs(a, pairs)
		},
	}
	cmd.Flags().StringVar(&flags.chain, "chain", "harmony", "chain of the looked up pair")
	cmd.Flags().StringVar(&flags.pair, "pair", "0xcd818813f038a4d1a27c84d24d74bbc21551fa83", "address of the looked up pair")
	cmd.Flags().StringVar(&flags.token, "token", "0x2170Ed0880ac9A755fd29B2688956BD959F933F8", "address of the looked up token")
	cmd.Flags().StringVar(&flags.query, "query", "WBTC", "search query")
	return cmd
}

func runDemo(ctx context.Context, client *dexscreener.Client, flags demoFlags) ([]dexscreener.TokenPair, error) {
	pairCh := dexscreener.Async(ctx, func(ctx context.Context) (*dexscreener.TokenPair, error) {
		return client.GetTokenPair(ctx, flags.chain, flags.pair)
	})
	tokensCh := dexscreener.Async(ctx, func(ctx context.Context) ([]dexscreener.TokenPair, error) {
		return client.GetTokensPairs(ctx, flags.token)
	})
	searchCh := dexscreener.Async(ctx, func(ctx context.Context) ([]dexscreener.TokenPair, error) {
		return client.SearchPairs(ctx, flags.query)
	})

	pairRes, tokensRes, searchRes := <-pairCh, <-tokensCh, <-searchCh
	if err := errors.Join(
		wrapErrIfNeeded("get pair", pairRes.Err),
		wrapErrIfNeeded("get token pairs", tokensRes.Err),
		wrapErrIfNeeded("search pairs", searchRes.Err),
	); err != nil {
		return nil, err
	}

	var pairs []dexscreener.TokenPair
	if pairRes.Value != nil {
		pairs = append(pairs, *pairRes.Value)
	}
	pairs = append(pairs, tokensRes.Value...)
	pairs = append(pairs, searchRes.Value...)
	return pairs, nil
}

func wrapErrIfNeeded(msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

type effectiveConfig struct {
	Log         *log.Config         `yaml:"log" json:"log"`
	Dexscreener *dexscreener.Config `yaml:"dexscreener" json:"dexscreener"`
}

func newConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg := effectiveConfig{Log: a.logCfg, Dexscreener: a.apiCfg}
			if a.format == FormatJSON {
				return render(a.out, a.format, cfg, nil)
			}
			enc := yaml.NewEncoder(a.out)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
