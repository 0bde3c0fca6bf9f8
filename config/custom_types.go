/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"gopkg.in/yaml.v3"
)

// ByteSize is a size in bytes written either as an integer or as a human-readable string ("250M", "1Gi").
// It's used for log file rotation limits.
type ByteSize uint64

// UnmarshalText parses the size. It's also what mapstructure.TextUnmarshallerHookFunc calls.
func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := parseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

func (b *ByteSize) UnmarshalJSON(data []byte) error { return b.UnmarshalText(unquote(data)) }

func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("invalid byte size format: scalar expected at line %d", value.Line)
	}
	return b.UnmarshalText([]byte(value.Value))
}

func (b ByteSize) String() string { return bytefmt.ByteSize(uint64(b)) }

func (b ByteSize) MarshalJSON() ([]byte, error) { return json.Marshal(b.String()) }

func (b ByteSize) MarshalYAML() (interface{}, error) { return b.String(), nil }

func parseByteSize(s string) (ByteSize, error) {
	v := strings.TrimSpace(s)
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative value is not allowed: %d", n)
		}
		return ByteSize(n), nil
	}
	// bytefmt is power-of-two already, so "Gi" is the same as "G".
	n, err := bytefmt.ToBytes(strings.TrimSuffix(v, "i"))
	if err != nil {
		return 0, fmt.Errorf("invalid byte size format (%s): %w", s, err)
	}
	return ByteSize(n), nil
}

// TimeDuration is a duration written either as an integer number of nanoseconds
// or as a Go duration string ("1m", "500ms"). Gate periods, timeouts and cache TTLs use it.
type TimeDuration time.Duration

// Duration converts d to time.Duration.
func (d TimeDuration) Duration() time.Duration { return time.Duration(d) }

// UnmarshalText parses the duration. It's also what mapstructure.TextUnmarshallerHookFunc calls.
func (d *TimeDuration) UnmarshalText(text []byte) error {
	v, err := parseTimeDuration(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d *TimeDuration) UnmarshalJSON(data []byte) error { return d.UnmarshalText(unquote(data)) }

func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("invalid time duration format: scalar expected at line %d", value.Line)
	}
	return d.UnmarshalText([]byte(value.Value))
}

func (d TimeDuration) String() string { return time.Duration(d).String() }

func (d TimeDuration) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d TimeDuration) MarshalYAML() (interface{}, error) { return d.String(), nil }

func parseTimeDuration(s string) (TimeDuration, error) {
	v := strings.TrimSpace(s)
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative value is not allowed: %d", n)
		}
		return TimeDuration(n), nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid time duration format (%s): %w", s, err)
	}
	return TimeDuration(dur), nil
}

func unquote(data []byte) []byte {
	if s, err := strconv.Unquote(string(data)); err == nil {
		return []byte(s)
	}
	return data
}
