/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/dexkit/go-dexscreener/dexscreener"
)

// Format is an output format of command results.
type Format string

// Output formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a case-insensitive output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unsupported output format %q, choose one of: [table, json, yaml]", s)
}

// render writes v in the given format. makeTable is used for the table format only.
func render(w io.Writer, format Format, v interface{}, makeTable func() table.Writer) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		// Go through JSON, so YAML keys match the API field names.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic interface{}
		if err = json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, makeTable().Render())
		return err
	}
}

func newTable(header table.Row, rightAligned ...int) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(header)
	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, n := range rightAligned {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
	t.SetColumnConfigs(configs)
	return t
}

func pairsTable(pairs []dexscreener.TokenPair) table.Writer {
	t := newTable(table.Row{"Chain", "DEX", "Pair", "Address", "Price USD", "Liquidity USD", "Volume 24h", "Change 24h"},
		5, 6, 7, 8)
	for i := range pairs {
		p := &pairs[i]
		var liquidity string
		if p.Liquidity != nil {
			liquidity = formatNumber(p.Liquidity.USD, 2)
		}
		t.AppendRow(table.Row{
			p.ChainID,
			p.DexID,
			p.BaseToken.Symbol + "/" + p.QuoteToken.Symbol,
			p.PairAddress,
			p.PriceUSD.String(),
			liquidity,
			formatNumber(p.Volume.H24, 2),
			formatNumber(p.PriceChange.H24, 2) + "%",
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d pair(s)", len(pairs))})
	return t
}

func chartBarsTable(resp *dexscreener.ChartBarsResponse) table.Writer {
	t := newTable(table.Row{"Time", "Open USD", "High USD", "Low USD", "Close USD", "Volume USD"}, 2, 3, 4, 5, 6)
	for _, bar := range resp.Bars {
		t.AppendRow(table.Row{
			formatTime(bar.Timestamp),
			bar.OpenUSD.String(),
			bar.HighUSD.String(),
			bar.LowUSD.String(),
			bar.CloseUSD.String(),
			formatNumber(bar.VolumeUSD, 2),
		})
	}
	return t
}

func tradesTable(resp *dexscreener.TradeHistoryResponse) table.Writer {
	t := newTable(table.Row{"Time", "Type", "Price USD", "Volume USD", "Txn"}, 3, 4)
	t.SetTitle(resp.BaseTokenSymbol + "/" + resp.QuoteTokenSymbol)
	for _, trade := range resp.TradingHistory {
		t.AppendRow(table.Row{
			formatTime(trade.BlockTimestamp),
			trade.Type,
			trade.PriceUSD.String(),
			formatNumber(trade.VolumeUSD, 2),
			trade.TxnHash,
		})
	}
	return t
}

func formatNumber(n dexscreener.Number, precision int) string {
	return fmt.Sprintf("%.*f", precision, n.Float64())
}

func formatTime(ts dexscreener.UnixMillis) string {
	return ts.Time().UTC().Format(time.DateTime)
}
