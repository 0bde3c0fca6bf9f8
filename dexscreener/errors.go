/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package dexscreener

import "errors"

// MaxPairAddresses is the maximum number of pair addresses that can be requested at once.
const MaxPairAddresses = 30

// ErrTooManyAddresses is returned when more than MaxPairAddresses pair addresses are requested.
var ErrTooManyAddresses = errors.New("too many pair addresses")

// ErrParseResponse is returned when a successful response doesn't match the expected model.
var ErrParseResponse = errors.New("unexpected response format")
