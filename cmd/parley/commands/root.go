package commands

import (
	"time"

	"github.com/spf13/cobra"

	"parley/internal/app"
)

var (
	appCtx *app.Wire

	configPath string
	relayURL   string
	timeout    time.Duration
	logFile    string
	logLevel   string
	debug      bool
)

func Execute() error {
	root := &cobra.Command{
		Use:           "parley",
		Short:         "Peer-to-peer encrypted messaging over a relay",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				var err error
				if path, err = app.DefaultConfigPath(); err != nil {
					return err
				}
			}
			cfg, err := app.LoadConfig(path)
			if err != nil {
				return err
			}

			// Flags beat both the file and the environment.
			flags := cmd.Flags()
			if flags.Changed("relay") {
				cfg.RelayURL = relayURL
			}
			if flags.Changed("timeout") {
				cfg.HandshakeTimeout = app.Duration(timeout)
			}
			if flags.Changed("log-file") {
				cfg.LogFile = logFile
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("debug") && debug {
				cfg.Debug = true
				cfg.LogLevel = "DEBUG"
			}

			appCtx, err = app.NewWire(cfg)
			return err
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.parley/config.toml)")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (e.g. ws://127.0.0.1:8080)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 0, "handshake timeout (default 30s)")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "log file (default stderr)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (DEBUG, INFO, WARNING, ERROR)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug diagnostics")

	root.AddCommand(startCmd())
	return root.Execute()
}
