/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package config loads configuration of the DexScreener client and CLI from YAML/JSON files
// and environment variables. Every configuration section implements the Config interface
// and reads its values through a DataProvider (viper under the hood).
package config

// Config is a configuration section filled by Loader.
// SetProviderDefaults registers the section's defaults before any source is read,
// Set then reads and validates the values.
type Config interface {
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is implemented by sections that live under a key ("log", "dexscreener").
// Loader hands such a section a KeyPrefixedDataProvider, so the section reads its keys relatively.
type KeyPrefixProvider interface {
	KeyPrefix() string
}
