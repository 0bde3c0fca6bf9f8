/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ViperAdapter is a DataProvider backed by viper. Values are converted with spf13/cast,
// so numbers and durations may be given as strings in files and environment variables.
type ViperAdapter struct {
	viper *viper.Viper
}

var _ DataProvider = (*ViperAdapter)(nil)

// NewViperAdapter creates a new ViperAdapter.
func NewViperAdapter() *ViperAdapter {
	return &ViperAdapter{viper.New()}
}

// UseEnvVars lets environment variables override values: with the "DEXSCREENER" prefix
// the "dexscreener.http.timeout" key is looked up as DEXSCREENER_DEXSCREENER_HTTP_TIMEOUT.
func (va *ViperAdapter) UseEnvVars(prefix string) {
	va.viper.AutomaticEnv()
	va.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	va.viper.SetEnvPrefix(prefix)
}

// Set overrides the value of the key.
func (va *ViperAdapter) Set(key string, value interface{}) {
	va.viper.Set(key, value)
}

// SetDefault sets the value used when neither the data nor the environment provide one.
func (va *ViperAdapter) SetDefault(key string, value interface{}) {
	va.viper.SetDefault(key, value)
}

// IsSet reports (case-insensitively) whether the key has a value in any source.
func (va *ViperAdapter) IsSet(key string) bool {
	return va.viper.IsSet(key)
}

// Get returns the raw value of the key.
func (va *ViperAdapter) Get(key string) interface{} {
	return va.viper.Get(key)
}

// SetFromFile reads the data from the file.
func (va *ViperAdapter) SetFromFile(path string, dataType DataType) error {
	va.viper.SetConfigType(string(dataType))
	va.viper.SetConfigFile(path)
	return va.viper.ReadInConfig()
}

// SetFromReader reads the data from the reader.
func (va *ViperAdapter) SetFromReader(reader io.Reader, dataType DataType) error {
	va.viper.SetConfigType(string(dataType))
	return va.viper.ReadConfig(reader)
}

// getAs converts the value of the key and reports conversion errors with the key.
// Missing values are converted as nil, so they become zero values (e.g. "" or 0).
func getAs[T any](va *ViperAdapter, key string, convert func(interface{}) (T, error)) (T, error) {
	res, err := convert(va.Get(key))
	return res, WrapKeyErrIfNeeded(key, err)
}

// GetInt returns the value of the key as an integer.
func (va *ViperAdapter) GetInt(key string) (int, error) {
	return getAs(va, key, cast.ToIntE)
}

// GetFloat64 returns the value of the key as a float64.
func (va *ViperAdapter) GetFloat64(key string) (float64, error) {
	return getAs(va, key, cast.ToFloat64E)
}

// GetString returns the value of the key as a string.
func (va *ViperAdapter) GetString(key string) (string, error) {
	return getAs(va, key, cast.ToStringE)
}

// GetBool returns the value of the key as a bool.
func (va *ViperAdapter) GetBool(key string) (bool, error) {
	return getAs(va, key, cast.ToBoolE)
}

// GetDuration returns the value of the key as a duration ("30s", "1m") or zero if it's missing.
func (va *ViperAdapter) GetDuration(key string) (time.Duration, error) {
	return getAs(va, key, func(val interface{}) (time.Duration, error) {
		if val == nil {
			return 0, nil
		}
		return cast.ToDurationE(val)
	})
}

// GetStringFromSet returns the value of the key if it's one of the set.
func (va *ViperAdapter) GetStringFromSet(key string, set []string, ignoreCase bool) (string, error) {
	str, err := va.GetString(key)
	if err != nil {
		return "", err
	}
	for _, s := range set {
		if str == s || (ignoreCase && strings.EqualFold(str, s)) {
			return str, nil
		}
	}
	return "", WrapKeyErr(key, fmt.Errorf("unknown value %q, should be one of %v", str, set))
}

// GetByteSize returns the value of the key as a size in bytes.
// Both integers and human-readable strings (e.g. "250M", "1Gi") are supported.
func (va *ViperAdapter) GetByteSize(key string) (ByteSize, error) {
	return getAs(va, key, toByteSize)
}

func toByteSize(val interface{}) (ByteSize, error) {
	switch v := val.(type) {
	case nil:
		return 0, nil
	case ByteSize:
		return v, nil
	case string:
		return parseByteSize(v)
	case float32, float64:
		return ByteSize(uint64(cast.ToFloat64(v))), nil
	}
	num, err := cast.ToInt64E(val)
	if err != nil {
		return 0, fmt.Errorf("unsupported type for byte size: %T", val)
	}
	if num < 0 {
		return 0, fmt.Errorf("negative value is not allowed: %d", num)
	}
	return ByteSize(num), nil
}

// UnmarshalKey decodes the subtree of the key into rawVal with mapstructure.
func (va *ViperAdapter) UnmarshalKey(key string, rawVal interface{}, opts ...DecoderConfigOption) error {
	options := make([]viper.DecoderConfigOption, 0, len(opts))
	for _, opt := range opts {
		options = append(options, viper.DecoderConfigOption(opt))
	}
	return WrapKeyErrIfNeeded(key, va.viper.UnmarshalKey(key, rawVal, options...))
}

// WrapKeyErr wraps the error adding the key where it occurs.
func (va *ViperAdapter) WrapKeyErr(key string, err error) error {
	return WrapKeyErr(key, err)
}
