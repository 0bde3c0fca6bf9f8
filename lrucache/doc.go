/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package lrucache provides a generic in-memory cache with LRU eviction, per-entry expiration,
// duplicate suppression of concurrent loads and Prometheus metrics.
// The DexScreener client uses it to keep API responses and to avoid spending rate quota on repeated lookups.
package lrucache
