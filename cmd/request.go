package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

var requestSearchLimit int

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Look up requests on the platform",
	Long: `Request looks up records requests across the whole platform, not just
this installation's own filings. Useful for finding prior requests to an
agency before filing a duplicate.`,
}

var requestSearchCmd = &cobra.Command{
	Use:   "search <terms>",
	Short: "Search platform requests by title and body",
	Args:  cobra.ExactArgs(1),
	Run:   runRequestSearch,
}

func init() {
	rootCmd.AddCommand(requestCmd)
	requestCmd.AddCommand(requestSearchCmd)

	requestSearchCmd.Flags().IntVarP(&requestSearchLimit, "limit", "l", 10, "Maximum results")
}

func runRequestSearch(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	summaries, err := newPlatform().SearchRequests(ctx, args[0], requestSearchLimit)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	for _, s := range summaries {
		filed := "-"
		if !s.FiledAt.IsZero() {
			filed = s.FiledAt.Format("2006-01-02")
		}
		log.Printf("%d  %s (%s, agency %d, filed %s)", s.ID, s.Title, s.Status, s.AgencyID, filed)
	}
	log.Printf("Found %d requests", len(summaries))
}
