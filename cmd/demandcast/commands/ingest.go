package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest market news feeds once",
	Long: `Fetch the configured news feeds and store new articles in the
market-context store.

Feed URLs come from INGEST_FEED_URLS.

Example:
  go run ./cmd/demandcast ingest`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	if len(a.cfg.Ingest.FeedURLs) == 0 {
		return fmt.Errorf("no feed URLs configured (set INGEST_FEED_URLS)")
	}

	stored, err := a.ingestor.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Stored %d new articles\n", stored)
	return nil
}
