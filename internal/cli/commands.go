/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dexkit/go-dexscreener/dexscreener"
)

func newPairCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "pair <chain> <pair-address>",
		Short:   "Show a pair by its chain and address",
		Example: "  dexscreener pair bsc 0x7213a321F1855CF1779f42c0CD85d3D95291D34C",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, err := a.client.GetTokenPair(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if pair == nil {
				return fmt.Errorf("pair %s is not found on %s", args[1], args[0])
			}
			return render(a.out, a.format, pair, func() table.Writer {
				return pairsTable([]dexscreener.TokenPair{*pair})
			})
		},
	}
}

func newPairsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pairs <chain> <pair-address>...",
		Short: fmt.Sprintf("Show up to %d pairs of the chain", dexscreener.MaxPairAddresses),
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := a.client.GetTokenPairs(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}
			return renderPairs(a, pairs)
		},
	}
}

func newTokensCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "tokens <token-address>[,<token-address>...]",
		Short:   "Show pairs of the token(s)",
		Example: "  dexscreener tokens 0x2170Ed0880ac9A755fd29B2688956BD959F933F8",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := a.client.GetTokensPairs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderPairs(a, pairs)
		},
	}
}

func newSearchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "search <query>",
		Short:   "Search pairs by pair or token address, name or symbol",
		Example: "  dexscreener search WBTC",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := a.client.SearchPairs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderPairs(a, pairs)
		},
	}
}

func newBarsCommand(a *app) *cobra.Command {
	var since time.Duration
	cmd := &cobra.Command{
		Use:   "bars <network> <pair-address>",
		Short: "Show 15 minutes chart bars of the pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if since <= 0 {
				return fmt.Errorf("--since must be positive")
			}
			to := time.Now()
			bars, err := a.client.ChartBars(cmd.Context(), args[0], args[1], to.Add(-since), to)
			if err != nil {
				return err
			}
			return render(a.out, a.format, bars, func() table.Writer { return chartBarsTable(bars) })
		},
	}
	cmd.Flags().DurationVar(&since, "since", 6*time.Hour, "how far back bars are requested")
	return cmd
}

func newTradesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trades <network> <pair-address>",
		Short: "Show recent trades of the pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			trades, err := a.client.RecentTradeHistory(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return render(a.out, a.format, trades, func() table.Writer { return tradesTable(trades) })
		},
	}
}

func renderPairs(a *app, pairs []dexscreener.TokenPair) error {
	return render(a.out, a.format, pairs, func() table.Writer { return pairsTable(pairs) })
}
