/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
)

// Loader fills configuration objects: every object registers its defaults first, then reads its values.
type Loader struct {
	DataProvider DataProvider
}

// NewDefaultLoader creates a new loader that lets environment variables override values.
// E.g., with the "DEXSCREENER" prefix the "log.level" key may be overridden by DEXSCREENER_LOG_LEVEL.
func NewDefaultLoader(envVarsPrefix string) *Loader {
	va := NewViperAdapter()
	va.UseEnvVars(envVarsPrefix)
	return NewLoader(va)
}

// NewLoader creates a new loader over the given data provider.
func NewLoader(dp DataProvider) *Loader {
	return &Loader{dp}
}

// Load reads the file at path (its format is guessed by the extension) and fills cfgs.
// Empty path means that only defaults and environment variables are used.
func (l *Loader) Load(path string, cfg Config, cfgs ...Config) error {
	if path == "" {
		return l.LoadDefaults(cfg, cfgs...)
	}
	return l.LoadFromFile(path, DataTypeFromPath(path), cfg, cfgs...)
}

// LoadFromFile reads the file of the given format and fills cfgs.
func (l *Loader) LoadFromFile(path string, dataType DataType, cfg Config, cfgs ...Config) error {
	if err := l.DataProvider.SetFromFile(path, dataType); err != nil {
		return fmt.Errorf("read %s file %q: %w", dataType, path, err)
	}
	return l.fill(cfg, cfgs...)
}

// LoadFromReader reads data of the given format and fills cfgs.
func (l *Loader) LoadFromReader(reader io.Reader, dataType DataType, cfg Config, cfgs ...Config) error {
	if err := l.DataProvider.SetFromReader(reader, dataType); err != nil {
		return err
	}
	return l.fill(cfg, cfgs...)
}

// LoadDefaults fills cfgs from defaults and environment variables only.
func (l *Loader) LoadDefaults(cfg Config, cfgs ...Config) error {
	return l.fill(cfg, cfgs...)
}

func (l *Loader) fill(cfg Config, cfgs ...Config) error {
	all := append([]Config{cfg}, cfgs...)
	// All defaults go first, so sections sharing keys see each other's defaults.
	for _, c := range all {
		c.SetProviderDefaults(l.providerFor(c))
	}
	for _, c := range all {
		if err := c.Set(l.providerFor(c)); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) providerFor(cfg Config) DataProvider {
	if kp, ok := cfg.(KeyPrefixProvider); ok && kp.KeyPrefix() != "" {
		return NewKeyPrefixedDataProvider(l.DataProvider, kp.KeyPrefix())
	}
	return l.DataProvider
}
