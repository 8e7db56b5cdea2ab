package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/openrecords/foiad/internal/rules"
	"github.com/openrecords/foiad/internal/service"
	"github.com/openrecords/foiad/internal/store"
)

var monitorFollowUp bool

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Scan open requests for statutory deadline compliance",
	Long: `Monitor assesses every open request against its jurisdiction's
statutory response window and reports the ones needing attention.

With --follow-up, a follow-up message is posted on each overdue request
whose recommended action is a follow-up. Appeals are never filed
automatically; use the appeal command.`,
	Run: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorFollowUp, "follow-up", false, "Post follow-ups on overdue requests")
}

func runMonitor(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	table, err := rules.LoadJurisdictions()
	if err != nil {
		log.Fatalf("Failed to load jurisdiction rules: %v", err)
	}
	monitor := service.NewComplianceMonitor(service.NewDeadlineCalculator(table))

	requestStore := store.NewRequestStore(db)
	open, err := requestStore.OpenRequests(ctx)
	if err != nil {
		log.Fatalf("Failed to load open requests: %v", err)
	}

	now := time.Now()
	findings, err := monitor.Scan(open, now)
	if err != nil {
		log.Fatalf("Failed to assess requests: %v", err)
	}

	attention := 0
	for _, f := range findings {
		if f.Verdict == service.VerdictOnTrack || f.Verdict == service.VerdictNotApplicable {
			continue
		}
		attention++
		log.Printf("request %d agency %d status %s: %s (due %s, recommend %s)",
			f.Request.ID, f.Request.AgencyID, f.Request.Status,
			f.Verdict, f.DueDate.Format("2006-01-02"), f.Action)
	}
	log.Printf("Scanned %d open requests, %d need attention", len(findings), attention)

	if !monitorFollowUp {
		return
	}

	platform := newPlatform()
	for _, f := range findings {
		if f.Verdict != service.VerdictOverdue || f.Action != service.ActionFollowUp {
			continue
		}
		message := followUpMessage(f)
		if err := platform.PostFollowup(ctx, f.Request.ID, message); err != nil {
			log.Printf("Failed to post follow-up on request %d: %v", f.Request.ID, err)
			continue
		}
		log.Printf("Posted follow-up on request %d", f.Request.ID)
	}
}

func followUpMessage(f service.Finding) string {
	return "I am writing to follow up on this records request, filed on " +
		f.Request.FiledAt.Format("January 2, 2006") +
		". The statutory response deadline of " +
		f.DueDate.Format("January 2, 2006") +
		" has passed. Please provide the responsive records or a determination " +
		"as required by the applicable public records law."
}
