package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"weibo-harvest/internal/app"
)

var runTimeout *time.Duration

func init() {
	runTimeout = runCmd.Flags().Duration("timeout", 0, "Upper bound for the whole run, e.g. 45m. Zero means none.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--config <path>] [--timeout <duration>]",
	Short: "Harvests every configured seed and commits new posts to the store.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer closeLogger(logger)

		ctx, cancel := app.GracefulShutdown(cmd.Context(), logger, *runTimeout)
		defer cancel()

		runner, err := app.Build(cfg, logger)
		if err != nil {
			return err
		}

		logger.Info("Starting harvest",
			"seeds", len(cfg.Seeds),
			"storage", cfg.Storage.Driver,
		)

		start := time.Now()
		summary, err := runner.Run(ctx)
		if err != nil {
			logger.Error("Harvest failed", "error", err)
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %d seeds, %d new posts, %d already stored (%s)\n",
			len(summary.Seeds), summary.Inserted, summary.Skipped, time.Since(start).Round(time.Second))
		return nil
	},
}
