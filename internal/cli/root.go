/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package cli implements the dexscreener command-line tool.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dexkit/go-dexscreener/config"
	"github.com/dexkit/go-dexscreener/dexscreener"
	"github.com/dexkit/go-dexscreener/internal/libinfo"
	"github.com/dexkit/go-dexscreener/log"
)

// EnvVarsPrefix is a prefix of environment variables overriding configuration values
// (e.g. DEXSCREENER_LOG_LEVEL or DEXSCREENER_DEXSCREENER_BASEURL).
const EnvVarsPrefix = "DEXSCREENER"

const apiConfigKeyPrefix = "dexscreener"

type globalFlags struct {
	configPath string
	output     string
	logLevel   string
}

type app struct {
	flags  globalFlags
	out    io.Writer
	format Format

	logCfg   *log.Config
	apiCfg   *dexscreener.Config
	logger   log.FieldLogger
	closeLog log.CloseFunc
	client   *dexscreener.Client
}

// Execute runs the command line with the given arguments and writes results to out.
func Execute(ctx context.Context, out io.Writer, args []string) error {
	a := &app{out: out}
	defer a.close()
	cmd := newRootCommand(a)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dexscreener",
		Short:         "Query DexScreener market data: pairs, tokens, chart bars and trades",
		Version:       libinfo.GetLibVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}
	cmd.SetOut(a.out)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.flags.configPath, "config", "c", "", "path to YAML or JSON config file")
	flags.StringVarP(&a.flags.output, "output", "o", string(FormatTable), "output format: table, json or yaml")
	flags.StringVar(&a.flags.logLevel, "log-level", "", "log level (overrides the config): error, warn, info or debug")

	cmd.AddCommand(
		newPairCommand(a),
		newPairsCommand(a),
		newTokensCommand(a),
		newSearchCommand(a),
		newBarsCommand(a),
		newTradesCommand(a),
		newDemoCommand(a),
		newConfigCommand(a),
	)
	return cmd
}

func (a *app) init() (err error) {
	if a.format, err = ParseFormat(a.flags.output); err != nil {
		return err
	}

	a.logCfg = log.NewConfig()
	a.apiCfg = dexscreener.NewConfig(dexscreener.WithKeyPrefix(apiConfigKeyPrefix))
	if err = loadConfig(a.flags.configPath, a.logCfg, a.apiCfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.flags.logLevel != "" {
		if a.logCfg.Level, err = log.ParseLevel(a.flags.logLevel); err != nil {
			return err
		}
	}

	a.logger, a.closeLog = log.NewLogger(a.logCfg)
	if a.client, err = dexscreener.NewClient(a.apiCfg, dexscreener.ClientOpts{Logger: a.logger}); err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (a *app) close() {
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
}

func loadConfig(path string, logCfg *log.Config, apiCfg *dexscreener.Config) error {
	return config.NewDefaultLoader(EnvVarsPrefix).Load(path, logCfg, apiCfg)
}
