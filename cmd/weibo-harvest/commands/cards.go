package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"weibo-harvest/internal/app"
	"weibo-harvest/internal/cards"
)

var (
	cardsLimit *int
	cardsOut   *string
)

func init() {
	cardsLimit = cardsCmd.Flags().Int("limit", 0, "Number of most recent posts to render. Defaults to cards.limit.")
	cardsOut = cardsCmd.Flags().String("out", "", "Output directory. Defaults to cards.output_dir.")
	rootCmd.AddCommand(cardsCmd)
}

var cardsCmd = &cobra.Command{
	Use:   "cards [--limit <n>] [--out <dir>]",
	Short: "Renders the most recent stored posts as HTML and Markdown cards.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer closeLogger(logger)

		limit := cfg.Cards.Limit
		if *cardsLimit > 0 {
			limit = *cardsLimit
		}
		outDir := cfg.Cards.OutputDir
		if *cardsOut != "" {
			outDir = *cardsOut
		}

		repo, err := app.OpenRepository(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := repo.Close(); err != nil {
				logger.Error("Failed to close repository", "error", err)
			}
		}()

		records, err := repo.ListRecent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		records = app.IntactRecords(records, logger)

		loc, err := cfg.SourceLocation()
		if err != nil {
			return err
		}
		formatter, err := cards.NewFormatter(loc)
		if err != nil {
			return err
		}

		written, err := formatter.WriteAll(outDir, records, cfg.Cards.Title, time.Now())
		if err != nil {
			return err
		}

		logger.Info("Cards generated", "records", len(records), "files", len(written), "dir", outDir)
		for _, path := range written {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", path)
		}
		return nil
	},
}
