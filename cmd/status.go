package cmd

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/openrecords/foiad/internal/rules"
	"github.com/openrecords/foiad/internal/service"
	"github.com/openrecords/foiad/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [request-id]",
	Short: "Sync tracked requests with the platform",
	Long: `Status refreshes tracked requests from the platform. Remote status
changes pass through the same transition validation as local ones.

With no arguments every open request is synced and system metrics are
recalculated. With a request id only that request is synced and its
detail is printed.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	requestStore := store.NewRequestStore(db)
	syncer := service.NewSyncer(newPlatform(), requestStore, service.NewStateMachine())
	now := time.Now()

	if len(args) == 1 {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			log.Fatalf("Invalid request id %q", args[0])
		}
		syncOne(ctx, syncer, requestStore, id, now)
		return
	}

	stats, err := syncer.SyncAll(ctx, now)
	if stats != nil {
		syncer.PrintSummary(stats)
	}
	if err != nil {
		log.Fatalf("Sync failed: %v", err)
	}

	// Refresh system metrics after every full sync
	if _, err := service.NewMetricsService(db).CalculateAndStore(ctx); err != nil {
		log.Printf("Failed to recalculate metrics: %v", err)
	}
}

func syncOne(ctx context.Context, syncer *service.Syncer, requestStore *store.RequestStore, id int, now time.Time) {
	req, err := requestStore.Get(ctx, id)
	if err != nil {
		log.Fatalf("Failed to load request %d: %v", id, err)
	}
	if req == nil {
		log.Fatalf("Request %d is not tracked", id)
	}

	if !req.Status.Terminal() {
		if _, err := syncer.SyncRequest(ctx, req, now); err != nil {
			log.Printf("Sync failed, showing local state: %v", err)
		}
	}

	log.Printf("Request %d: %s (%s, agency %d)", req.ID, req.Title, req.Status, req.AgencyID)
	if last := req.LastChange(); last != nil {
		log.Printf("  last change %s", last.At.Format("2006-01-02 15:04"))
	}
	for _, change := range req.History {
		log.Printf("  %s  %s", change.At.Format("2006-01-02 15:04"), change.Status)
	}
	for _, reason := range req.DenialReasons {
		log.Printf("  exemption %s cited: %s", reason.ExemptionCode, reason.Justification)
	}
	if req.Fee.Valid {
		log.Printf("  assessed fee $%.2f", req.Fee.Float64)
	}

	table, err := rules.LoadJurisdictions()
	if err != nil {
		log.Fatalf("Failed to load jurisdiction rules: %v", err)
	}
	verdict, due, err := service.NewDeadlineCalculator(table).Assess(req, now)
	if err != nil {
		log.Printf("  no deadline assessment: %v", err)
		return
	}
	if verdict == service.VerdictNotApplicable {
		log.Printf("  verdict: %s", verdict)
		return
	}
	log.Printf("  verdict: %s (due %s)", verdict, due.Format("2006-01-02"))
}
