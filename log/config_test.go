/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dexkit/go-dexscreener/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfgDataType config.DataType
		cfgData     string
		expectedCfg func() *Config
	}{
		{
			name:        "yaml config",
			cfgDataType: config.DataTypeYAML,
			cfgData: `
log:
  level: warn
  format: json
  output: file
  file:
    path: dexscreener.log
    rotation:
      compress: true
      maxSize: 100M
      maxBackups: 42
  addCaller: true
`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.Level = LevelWarn
				cfg.Format = FormatJSON
				cfg.Output = OutputFile
				cfg.File.Path = "dexscreener.log"
				cfg.File.Rotation.MaxSize = 100 * 1024 * 1024
				cfg.File.Rotation.MaxBackups = 42
				cfg.File.Rotation.Compress = true
				cfg.AddCaller = true
				return cfg
			},
		},
		{
			name:        "empty json config",
			cfgDataType: config.DataTypeJSON,
			cfgData:     `{}`,
			expectedCfg: func() *Config { return NewDefaultConfig() },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
				bytes.NewBufferString(tt.cfgData), tt.cfgDataType, cfg)
			require.NoError(t, err)
			require.Equal(t, tt.expectedCfg(), cfg)
		})
	}
}

func TestConfigWithKeyPrefix(t *testing.T) {
	cfgData := `
cli:
  log:
    level: debug
    output: stdout
`
	cfg := NewConfig(WithKeyPrefix("cli.log"))
	err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(bytes.NewBufferString(cfgData), config.DataTypeYAML, cfg)
	require.NoError(t, err)
	require.Equal(t, LevelDebug, cfg.Level)
	require.Equal(t, OutputStdout, cfg.Output)
	require.Equal(t, "cli.log", cfg.KeyPrefix())
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfgData string
		errMsg  string
	}{
		{
			name:    "unknown level",
			cfgData: `{"log":{"level":"trace"}}`,
			errMsg:  `log.level: unknown value "trace", should be one of [error warn info debug]`,
		},
		{
			name:    "file output without path",
			cfgData: `{"log":{"output":"file"}}`,
			errMsg:  `log.file.path: cannot be empty when "file" output is used`,
		},
		{
			name:    "too small rotation size",
			cfgData: `{"log":{"file":{"rotation":{"maxSize":"100K"}}}}`,
			errMsg:  `log.file.rotation.maxSize: should be >= 1M`,
		},
		{
			name:    "unknown output",
			cfgData: `{"log":{"output":"syslog"}}`,
			errMsg:  `log.output: unknown value "syslog", should be one of [stdout stderr file]`,
		},
		{
			name:    "zero max backups",
			cfgData: `{"log":{"file":{"rotation":{"maxBackups":0}}}}`,
			errMsg:  `log.file.rotation.maxBackups: should be >= 1`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
				bytes.NewBufferString(tt.cfgData), config.DataTypeJSON, NewConfig())
			require.EqualError(t, err, tt.errMsg)
		})
	}
}
