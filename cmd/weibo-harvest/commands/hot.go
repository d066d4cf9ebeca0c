package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"weibo-harvest/internal/app"
	"weibo-harvest/internal/config"
	"weibo-harvest/internal/hot"
	"weibo-harvest/internal/observability"
)

var (
	hotOut     *string
	hotNoStore *bool
)

func init() {
	hotOut = hotCmd.Flags().String("out", "", "Output root for origindata/ and readable/. Defaults to hot.output_dir.")
	hotNoStore = hotCmd.Flags().Bool("no-store", false, "Write the files only, skip the store.")
	hotCmd.AddCommand(hotImportCmd)
	rootCmd.AddCommand(hotCmd)
}

var hotCmd = &cobra.Command{
	Use:   "hot [--out <dir>] [--no-store]",
	Short: "Captures the realtime hot-search list as JSON and Markdown.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer closeLogger(logger)

		ctx, cancel := app.GracefulShutdown(cmd.Context(), logger, 0)
		defer cancel()

		svc, err := app.BuildHotService(cfg, logger)
		if err != nil {
			return err
		}

		snap, err := svc.Capture(ctx)
		if err != nil {
			logger.Error("Hot capture failed", "error", err)
			return err
		}

		outDir := cfg.Hot.OutputDir
		if *hotOut != "" {
			outDir = *hotOut
		}
		jsonPath, mdPath, err := hot.WriteFiles(outDir, snap)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n✓ %s\n", jsonPath, mdPath)

		if !cfg.Hot.Store || *hotNoStore {
			return nil
		}
		return storeHot(cmd, cfg, logger, func(store hot.HotStore) (hot.Result, error) {
			return svc.Store(ctx, store, snap)
		})
	},
}

var hotImportCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Loads saved hot-search snapshots into the store.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer closeLogger(logger)

		ctx, cancel := app.GracefulShutdown(cmd.Context(), logger, 0)
		defer cancel()

		svc, err := app.BuildHotService(cfg, logger)
		if err != nil {
			return err
		}

		return storeHot(cmd, cfg, logger, func(store hot.HotStore) (hot.Result, error) {
			return svc.Import(ctx, store, args[0])
		})
	},
}

func storeHot(cmd *cobra.Command, cfg *config.Config, logger *observability.Logger, write func(hot.HotStore) (hot.Result, error)) error {
	repo, err := app.OpenRepository(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close repository", "error", err)
		}
	}()

	res, err := write(repo)
	if err != nil {
		logger.Error("Failed to store hot list", "error", err)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %d files, %d new titles, %d already stored\n", res.Files, res.Inserted, res.Skipped)
	return nil
}
