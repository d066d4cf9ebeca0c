package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"weibo-harvest/internal/config"
	"weibo-harvest/internal/observability"
)

var (
	configPath *string
	envPath    *string
)

var rootCmd = &cobra.Command{
	Use:           "weibo-harvest",
	Short:         "weibo-harvest scrolls Weibo feeds, extracts posts and stores each one exactly once.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "configs/config.yaml", "Path to the YAML config.")
	envPath = rootCmd.PersistentFlags().String("env", ".env", "Optional .env file with WEIBO_* overrides.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRuntime читает .env, конфиг и поднимает логгер.
func loadRuntime() (*config.Config, *observability.Logger, error) {
	// .env необязателен
	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("failed to load %s: %w", *envPath, err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func closeLogger(logger *observability.Logger) {
	if err := logger.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
	}
}
