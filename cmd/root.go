// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Lumeva-AI/playwright-consolelogs-mcp/internal/browser"
	"github.com/Lumeva-AI/playwright-consolelogs-mcp/internal/config"
	"github.com/Lumeva-AI/playwright-consolelogs-mcp/internal/mcp"
	"github.com/Lumeva-AI/playwright-consolelogs-mcp/internal/observability"
)

const closeGracePeriod = 10 * time.Second

var (
	cfgFile  string
	headless bool
)

// rootCmd runs the MCP server over stdio when invoked without subcommands.
var rootCmd = &cobra.Command{
	Use:     "browser-monitor",
	Short:   "MCP server that opens URLs in a real browser and records console and network telemetry.",
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, err := observability.NewLogger(cfg.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		logger.Info("Starting browser-monitor", zap.String("version", Version))

		manager := browser.NewManager(cfg, logger)
		server := mcp.NewServer(&mcp.Deps{Sessions: manager, Logger: logger}, Version)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		err = server.Run(ctx)

		// Release the browser regardless of how the serve loop ended; the
		// signal may already have fired, so use a fresh deadline.
		closeCtx, cancel := context.WithTimeout(context.Background(), closeGracePeriod)
		defer cancel()
		if closeErr := manager.Close(closeCtx); closeErr != nil {
			logger.Warn("Browser teardown reported an error.", zap.Error(closeErr))
		}

		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("MCP server stopped unexpectedly.", zap.Error(err))
			return err
		}
		logger.Info("Shutdown complete.")
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "launch the browser without a visible window")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig reads the config file and environment, applying flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BROWSER_MONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and env vars apply.
	}

	if cmd.Flags().Changed("headless") {
		v.Set("browser.headless", headless)
	}

	return config.NewConfigFromViper(v)
}
