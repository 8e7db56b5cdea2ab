package cmd

import (
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/openrecords/foiad/internal/model"
	"github.com/openrecords/foiad/internal/store"
)

var agencySearchLimit int

var agencyCmd = &cobra.Command{
	Use:   "agency",
	Short: "Look up agencies on the platform",
	Long: `Agency looks up target agencies on the records platform and caches
what it finds locally, so planning and serving work offline afterwards.`,
}

var agencySearchCmd = &cobra.Command{
	Use:   "search <name>",
	Short: "Search agencies by name",
	Args:  cobra.ExactArgs(1),
	Run:   runAgencySearch,
}

var agencyGetCmd = &cobra.Command{
	Use:   "get <agency-id>",
	Short: "Fetch one agency by id",
	Args:  cobra.ExactArgs(1),
	Run:   runAgencyGet,
}

func init() {
	rootCmd.AddCommand(agencyCmd)
	agencyCmd.AddCommand(agencySearchCmd, agencyGetCmd)

	agencySearchCmd.Flags().IntVarP(&agencySearchLimit, "limit", "l", 10, "Maximum results")
}

func runAgencySearch(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	platform := newPlatform()
	agencies, err := platform.SearchAgencies(ctx, args[0], agencySearchLimit)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	agencyStore := store.NewAgencyStore(db)
	for i := range agencies {
		if err := agencyStore.Upsert(ctx, &agencies[i]); err != nil {
			log.Printf("Failed to cache agency %d: %v", agencies[i].ID, err)
		}
		printAgency(&agencies[i])
	}

	cached, err := agencyStore.CountAgencies(ctx)
	if err != nil {
		log.Fatalf("Failed to count cached agencies: %v", err)
	}
	log.Printf("Found %d agencies (%d cached locally)", len(agencies), cached)
}

func runAgencyGet(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	id, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("Invalid agency id %q", args[0])
	}

	db, err := openDB(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	platform := newPlatform()
	agency, err := platform.LookupAgency(ctx, id)
	if err != nil {
		log.Fatalf("Lookup failed: %v", err)
	}

	if err := store.NewAgencyStore(db).Upsert(ctx, agency); err != nil {
		log.Printf("Failed to cache agency %d: %v", agency.ID, err)
	}
	printAgency(agency)
}

func printAgency(a *model.Agency) {
	log.Printf("%d  %s (%s), avg response %d days, success rate %.0f%%",
		a.ID, a.Name, a.Jurisdiction, a.AverageResponseDays, a.SuccessRate*100)
}
