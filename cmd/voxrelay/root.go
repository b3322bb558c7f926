package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/voxrelay/internal/app"
	"github.com/vovakirdan/voxrelay/internal/config"
	"github.com/vovakirdan/voxrelay/internal/log"
)

var (
	configPath string
	addr       string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "voxrelay",
	Short: "Relay text and voice messages to WebSocket subscribers",
	Long: `voxrelay accepts text and voice messages over HTTP and WebSocket,
stamps them with the server time, stores them in SQLite and broadcasts
them to every connected subscriber. Voice messages can optionally be
transcribed with the OpenAI audio API.`,
	SilenceUsage: true,
	RunE:         runServer,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: $VOXRELAY_CONFIG_DEFAULT_PATH or ./config.yaml)")
	rootCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
}

// loadConfig resolves the configuration and applies command line overrides.
func loadConfig() (config.Config, string, error) {
	// Keep stdout clean for commands that print machine-readable output.
	bootLog := log.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, "info")
	cfg, path, err := config.Load(bootLog, configPath)
	if err != nil {
		return cfg, path, err
	}
	cfg.UpdateFrom(config.Config{Addr: addr, LogLevel: logLevel})
	return cfg, path, nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting voxrelay")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize app")
		return err
	}

	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
