/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// DataType is a type of data format in which configuration may be described.
type DataType string

// Supported data formats.
const (
	DataTypeYAML DataType = "yaml"
	DataTypeJSON DataType = "json"
)

// DataTypeFromPath guesses the data format by the file extension. YAML is used by default.
func DataTypeFromPath(path string) DataType {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return DataTypeJSON
	}
	return DataTypeYAML
}

// DataProvider gives typed access to configuration values by dotted keys ("dexscreener.cache.ttl").
// Values come from defaults, a YAML/JSON source and environment variables, the latter taking precedence.
// Typed getters return errors already wrapped with the key (see WrapKeyErr).
type DataProvider interface {
	// Sources.
	UseEnvVars(prefix string)
	SetFromFile(path string, dataType DataType) error
	SetFromReader(reader io.Reader, dataType DataType) error

	// Defaults and overrides.
	SetDefault(key string, value interface{})
	Set(key string, value interface{})

	IsSet(key string) bool
	Get(key string) interface{}

	GetBool(key string) (bool, error)
	GetInt(key string) (int, error)
	GetFloat64(key string) (float64, error)
	GetString(key string) (string, error)
	GetStringFromSet(key string, set []string, ignoreCase bool) (string, error)
	GetDuration(key string) (time.Duration, error)
	GetByteSize(key string) (ByteSize, error)

	// UnmarshalKey decodes a whole subtree, e.g. the map of rate tiers.
	UnmarshalKey(key string, rawVal interface{}, opts ...DecoderConfigOption) error

	WrapKeyErr(key string, err error) error
}

// DecoderConfigOption tunes mapstructure decoding in UnmarshalKey.
type DecoderConfigOption func(*mapstructure.DecoderConfig)
// WithTextUnmarshalerHook returns a DecoderConfigOption that decodes strings into types
// implementing encoding.TextUnmarshaler (e.g. TimeDuration and ByteSize) in addition to the existing hooks.
func WithTextUnmarshalerHook() DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		if dc.DecodeHook == nil {
			dc.DecodeHook = mapstructure.TextUnmarshallerHookFunc()
			return
		}
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(dc.DecodeHook, mapstructure.TextUnmarshallerHookFunc())
	}
}

// WrapKeyErrIfNeeded is WrapKeyErr that keeps nil errors nil.
func WrapKeyErrIfNeeded(key string, err error) error {
	if err == nil {
		return nil
	}
	return WrapKeyErr(key, err)
}

// WrapKeyErr prefixes err with the key it's about, "gates.io: max calls must be positive".
func WrapKeyErr(key string, err error) error {
	return fmt.Errorf("%s: %w", key, err)
}
