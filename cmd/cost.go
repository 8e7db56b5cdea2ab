package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/openrecords/foiad/internal/model"
	"github.com/openrecords/foiad/internal/rules"
	"github.com/openrecords/foiad/internal/service"
	"github.com/openrecords/foiad/internal/store"
)

var (
	costAgencyID int
	costPages    int
	costCategory string
	costWaiver   bool
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Estimate duplication fees for a request",
	Long: `Cost estimates what an agency would charge for the expected page
count, using the agency's published rates where known and the
jurisdiction's statutory defaults otherwise.`,
	Run: runCost,
}

func init() {
	rootCmd.AddCommand(costCmd)

	costCmd.Flags().IntVarP(&costAgencyID, "agency", "a", 0, "Target agency id")
	costCmd.Flags().IntVarP(&costPages, "pages", "p", 0, "Expected page count")
	costCmd.Flags().StringVar(&costCategory, "category", "individual", "Requester category (individual, news_media, educational, commercial)")
	costCmd.Flags().BoolVar(&costWaiver, "fee-waiver", false, "Whether a fee waiver will be requested")
	costCmd.MarkFlagRequired("agency")
	costCmd.MarkFlagRequired("pages")
}

func runCost(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Prefer the local cache; fall back to the platform
	agency, err := store.NewAgencyStore(db).GetByID(ctx, costAgencyID)
	if err != nil {
		log.Fatalf("Failed to load agency: %v", err)
	}
	if agency == nil {
		agency, err = newPlatform().LookupAgency(ctx, costAgencyID)
		if err != nil {
			log.Fatalf("Agency %d not found: %v", costAgencyID, err)
		}
	}

	table, err := rules.LoadJurisdictions()
	if err != nil {
		log.Fatalf("Failed to load jurisdiction rules: %v", err)
	}

	estimate, err := service.NewCostEstimator(table).Estimate(
		agency, costPages, service.RequesterCategory(costCategory), costWaiver)
	if err != nil {
		log.Fatalf("Failed to estimate cost: %v", err)
	}

	printEstimate(agency, estimate)
}

func printEstimate(agency *model.Agency, est *service.CostEstimate) {
	log.Printf("Agency %d (%s): $%.2f for %d pages", agency.ID, agency.Name, est.Fee, costPages)
	log.Printf("  rate $%.2f/page after %d free pages", est.PerPageRate, est.FreePages)
	if est.WaiverEligible {
		log.Printf("  requester category is presumptively waiver-eligible")
	}
	if est.WaiverRequested && !est.WaiverEligible {
		log.Printf("  waiver requested but category does not presumptively qualify")
	}
	log.Printf("  %s", est.Note)
}
