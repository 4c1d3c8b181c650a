package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-blackjack/internal/config"
	applog "github.com/vovakirdan/wirechat-blackjack/internal/log"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "blackjackd",
		Short:        "Multiplayer blackjack tables driven by chat reactions",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config.yaml (default $BLACKJACK_CONFIG_DEFAULT_PATH or ./config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (trace, debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newTokenCmd(opts),
		newSimCmd(),
		newPlayCmd(),
	)
	return root
}

// load reads the config file and builds the logger it asks for. The
// --log-level flag wins over the file.
func (o *rootOptions) load() (*config.Config, *zerolog.Logger, error) {
	bootLevel := o.logLevel
	if bootLevel == "" {
		bootLevel = "info"
	}
	boot := applog.New(bootLevel)

	cfg, path, err := config.Load(boot, o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	logger := applog.New(cfg.LogLevel)
	logger.Debug().Str("path", path).Msg("config loaded")
	return &cfg, logger, nil
}
