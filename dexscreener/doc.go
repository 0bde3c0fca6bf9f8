/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package dexscreener provides a client for the DexScreener market-data API.
//
// Every request of the client passes through a request gate of its rate tier:
// pairs, tokens and search endpoints share the "pairs" tier (300 requests per minute by default),
// trade history and chart bars share the "io" tier (60 requests per minute by default).
// Tiers are independent, so exhausting one of them doesn't throttle the other.
// Pair lookups are cached, and cache hits don't consume the quota.
package dexscreener
