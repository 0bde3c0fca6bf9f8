/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package dexscreener

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Number is a decimal value that the API sends either as a JSON number
// or as a string, possibly with thousands separators (e.g. "1,234.56").
type Number float64

// UnmarshalJSON implements json.Unmarshaler. JSON null and an empty string are decoded as zero.
// NaN and infinities are rejected, since they can't be written back as JSON.
func (n *Number) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	var raw interface{} = string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if s == "" {
			*n = 0
			return nil
		}
		raw = s
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return fmt.Errorf("invalid number %s: %w", data, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid number %s: not finite", data)
	}
	*n = Number(f)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.String()), nil
}

// Float64 returns the value as float64.
func (n Number) Float64() float64 {
	return float64(n)
}

// String returns the shortest decimal representation of the number.
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

// UnixMillis is a timestamp in milliseconds since the Unix epoch.
type UnixMillis int64

// Time converts the timestamp into time.Time.
func (m UnixMillis) Time() time.Time {
	return time.UnixMilli(int64(m))
}

func toUnixMillis(t time.Time) UnixMillis {
	return UnixMillis(t.UnixMilli())
}

// Token represents a token of a pair.
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// TxnCount represents numbers of buy and sell transactions.
type TxnCount struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// Txns represents transaction counts within the last 5 minutes, 1, 6 and 24 hours.
type Txns struct {
	M5  TxnCount `json:"m5"`
	H1  TxnCount `json:"h1"`
	H6  TxnCount `json:"h6"`
	H24 TxnCount `json:"h24"`
}

// Volume represents USD trading volume within the last 5 minutes, 1, 6 and 24 hours.
type Volume struct {
	M5  Number `json:"m5"`
	H1  Number `json:"h1"`
	H6  Number `json:"h6"`
	H24 Number `json:"h24"`
}

// PriceChange represents price change in percent within the last 5 minutes, 1, 6 and 24 hours.
type PriceChange struct {
	M5  Number `json:"m5"`
	H1  Number `json:"h1"`
	H6  Number `json:"h6"`
	H24 Number `json:"h24"`
}

// Liquidity represents pool liquidity.
type Liquidity struct {
	USD   Number `json:"usd"`
	Base  Number `json:"base"`
	Quote Number `json:"quote"`
}

// TokenPair represents a trading pair on a DEX.
type TokenPair struct {
	ChainID       string      `json:"chainId"`
	DexID         string      `json:"dexId"`
	URL           string      `json:"url"`
	PairAddress   string      `json:"pairAddress"`
	Labels        []string    `json:"labels,omitempty"`
	BaseToken     Token       `json:"baseToken"`
	QuoteToken    Token       `json:"quoteToken"`
	PriceNative   Number      `json:"priceNative"`
	PriceUSD      Number      `json:"priceUsd"`
	Txns          Txns        `json:"txns"`
	Volume        Volume      `json:"volume"`
	PriceChange   PriceChange `json:"priceChange"`
	Liquidity     *Liquidity  `json:"liquidity,omitempty"`
	FDV           Number      `json:"fdv"`
	PairCreatedAt UnixMillis  `json:"pairCreatedAt,omitempty"`
}

func (p *TokenPair) clone() *TokenPair {
	if p == nil {
		return nil
	}
	c := *p
	if p.Labels != nil {
		c.Labels = append([]string(nil), p.Labels...)
	}
	if p.Liquidity != nil {
		liquidity := *p.Liquidity
		c.Liquidity = &liquidity
	}
	return &c
}

func (p *TokenPair) validate() error {
	if p.ChainID == "" || p.PairAddress == "" {
		return fmt.Errorf("%w: pair without chain id or address", ErrParseResponse)
	}
	return nil
}

// TradeHistoryEntry represents a single trade of a pair.
type TradeHistoryEntry struct {
	BlockNumber    int64      `json:"blockNumber"`
	BlockTimestamp UnixMillis `json:"blockTimestamp"`
	TxnHash        string     `json:"txnHash"`
	LogIndex       int        `json:"logIndex"`
	Type           string     `json:"type"`
	PriceUSD       Number     `json:"priceUsd"`
	VolumeUSD      Number     `json:"volumeUsd"`
	Amount0        Number     `json:"amount0"`
	Amount1        Number     `json:"amount1"`
}

// TradeHistoryResponse represents recent trades of a pair.
type TradeHistoryResponse struct {
	SchemaVersion    string              `json:"schemaVersion"`
	BaseTokenSymbol  string              `json:"baseTokenSymbol"`
	QuoteTokenSymbol string              `json:"quoteTokenSymbol"`
	TradingHistory   []TradeHistoryEntry `json:"tradingHistory"`
}

func (r *TradeHistoryResponse) validate() error {
	if r.SchemaVersion == "" {
		return fmt.Errorf("%w: schemaVersion is missing", ErrParseResponse)
	}
	for i := range r.TradingHistory {
		if r.TradingHistory[i].TxnHash == "" {
			return fmt.Errorf("%w: trade #%d without txnHash", ErrParseResponse, i)
		}
	}
	return nil
}

// ChartBar represents an OHLC bar of a pair price chart.
type ChartBar struct {
	Timestamp UnixMillis `json:"timestamp"`
	Open      Number     `json:"open"`
	OpenUSD   Number     `json:"openUsd"`
	High      Number     `json:"high"`
	HighUSD   Number     `json:"highUsd"`
	Low       Number     `json:"low"`
	LowUSD    Number     `json:"lowUsd"`
	Close     Number     `json:"close"`
	CloseUSD  Number     `json:"closeUsd"`
	VolumeUSD Number     `json:"volumeUsd"`
}

// ChartBarsResponse represents chart bars of a pair.
type ChartBarsResponse struct {
	SchemaVersion string     `json:"schemaVersion"`
	Bars          []ChartBar `json:"bars"`
}

func (r *ChartBarsResponse) validate() error {
	if r.SchemaVersion == "" {
		return fmt.Errorf("%w: schemaVersion is missing", ErrParseResponse)
	}
	for i := range r.Bars {
		if r.Bars[i].Timestamp == 0 {
			return fmt.Errorf("%w: bar #%d without timestamp", ErrParseResponse, i)
		}
	}
	return nil
}

type pairsResponse struct {
	SchemaVersion string      `json:"schemaVersion"`
	Pair          *TokenPair  `json:"pair"`
	Pairs         []TokenPair `json:"pairs"`
}

func (r *pairsResponse) validate() error {
	if r.Pair != nil {
		if err := r.Pair.validate(); err != nil {
			return err
		}
	}
	for i := range r.Pairs {
		if err := r.Pairs[i].validate(); err != nil {
			return err
		}
	}
	return nil
}
