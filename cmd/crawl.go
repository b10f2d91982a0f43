package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newCrawlCmd creates the 'crawl' subcommand. It runs a single crawl to
// completion and exits.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Runs one catalog crawl and exits",
		Long: `Fetches the categories index, discovers every category page,
extracts the product listings and replaces the stored snapshot with the
results.`,

		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	report, err := appInstance.Engine().Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("run crawl: %w", err)
	}

	appInstance.Logger().Info("crawl complete",
		zap.Int("categories", report.Categories),
		zap.Int("products", report.Products),
		zap.Int64("elapsed_ms", report.ElapsedMs),
	)
	return nil
}
