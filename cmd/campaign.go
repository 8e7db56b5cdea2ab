package cmd

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/openrecords/foiad/internal/rules"
	"github.com/openrecords/foiad/internal/service"
	"github.com/openrecords/foiad/internal/store"
)

var (
	campaignTitle     string
	campaignBody      string
	campaignAgencies  string
	campaignStagger   time.Duration
	campaignOrgHint   string
	campaignEmbargo   bool
	campaignFeeWaiver bool
	campaignWatch     time.Duration
)

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Manage multi-agency request campaigns",
	Long: `Campaigns file the same request with many agencies, optionally
staggered over time. Plans are persisted, so an interrupted campaign
resumes without double-filing.

Examples:
  # Create a campaign targeting three agencies, 48h apart
  ./foiad campaign create --title "..." --body "..." --agencies 12,48,103 --stagger 48h

  # Submit every entry whose scheduled time has arrived
  ./foiad campaign run

  # Keep submitting as entries come due
  ./foiad campaign run --watch 10m

  # Stop a campaign's remaining submissions
  ./foiad campaign cancel 3f2a...

  # Roll up a campaign's member statuses
  ./foiad campaign status 3f2a...`,
}

var campaignCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a campaign and its submission plan",
	Run:   runCampaignCreate,
}

var campaignRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Submit plan entries whose scheduled time has arrived",
	Run:   runCampaignRun,
}

var campaignCancelCmd = &cobra.Command{
	Use:   "cancel <campaign-id>",
	Short: "Cancel a campaign's not-yet-submitted entries",
	Args:  cobra.ExactArgs(1),
	Run:   runCampaignCancel,
}

var campaignStatusCmd = &cobra.Command{
	Use:   "status <campaign-id>",
	Short: "Show a campaign's rolled-up status",
	Args:  cobra.ExactArgs(1),
	Run:   runCampaignStatus,
}

func init() {
	rootCmd.AddCommand(campaignCmd)
	campaignCmd.AddCommand(campaignCreateCmd, campaignRunCmd, campaignCancelCmd, campaignStatusCmd)

	campaignCreateCmd.Flags().StringVarP(&campaignTitle, "title", "t", "", "Campaign title")
	campaignCreateCmd.Flags().StringVarP(&campaignBody, "body", "b", "", "Requested records description")
	campaignCreateCmd.Flags().StringVarP(&campaignAgencies, "agencies", "a", "", "Comma-separated target agency ids")
	campaignCreateCmd.Flags().DurationVar(&campaignStagger, "stagger", 0, "Delay between consecutive submissions (0 = simultaneous)")
	campaignCreateCmd.Flags().StringVar(&campaignOrgHint, "org", "", "Filing organization name (substring match)")
	campaignCreateCmd.Flags().BoolVar(&campaignEmbargo, "embargo", false, "Embargo every member request")
	campaignCreateCmd.Flags().BoolVar(&campaignFeeWaiver, "fee-waiver", false, "Request a fee waiver on every member")
	campaignCreateCmd.MarkFlagRequired("title")
	campaignCreateCmd.MarkFlagRequired("body")
	campaignCreateCmd.MarkFlagRequired("agencies")

	campaignRunCmd.Flags().DurationVar(&campaignWatch, "watch", 0, "Keep running, polling at this interval")
}

func runCampaignCreate(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	agencyIDs, err := parseAgencyIDs(campaignAgencies)
	if err != nil {
		log.Fatalf("Invalid --agencies: %v", err)
	}

	db, err := openDB(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	platform := newPlatform()
	orgs, err := platform.ListUserOrganizations(ctx)
	if err != nil {
		log.Fatalf("Failed to list organizations: %v", err)
	}

	orchestrator := newOrchestrator()
	now := time.Now()

	campaign, selection := orchestrator.NewCampaign(campaignTitle, campaignBody, campaignStagger, now, orgs, campaignOrgHint)
	if campaign == nil {
		log.Println("Organization selection needs a choice; candidates:")
		printOrganizations(selection.Candidates)
		os.Exit(1)
	}
	campaign.Embargo = campaignEmbargo
	campaign.RequestFeeWaiver = campaignFeeWaiver

	plan := orchestrator.BuildPlan(campaign, agencyIDs, now)

	campaignStore := store.NewCampaignStore(db)
	if err := campaignStore.Save(ctx, campaign); err != nil {
		log.Fatalf("Failed to save campaign: %v", err)
	}
	planStore := store.NewPlanStore(db)
	if err := planStore.SavePlan(ctx, plan); err != nil {
		log.Fatalf("Failed to save submission plan: %v", err)
	}

	log.Printf("Created campaign %s with %d planned submissions", campaign.ID, len(plan.Entries))
	for _, entry := range plan.Entries {
		log.Printf("  agency %d scheduled %s", entry.AgencyID, entry.ScheduledAt.Format(time.RFC3339))
	}
	for _, skip := range plan.Skipped {
		log.Printf("  agency %d skipped: %s", skip.AgencyID, skip.Reason)
	}
}

func runCampaignRun(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := service.NewRunner(
		newPlatform(),
		store.NewPlanStore(db),
		store.NewCampaignStore(db),
		service.NewStateMachine(),
	)

	for {
		stats, err := runner.SubmitReady(ctx, time.Now())
		if stats != nil {
			runner.PrintSummary(stats)
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Fatalf("Submission run failed: %v", err)
		}
		if campaignWatch == 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(campaignWatch):
		}
	}
}

func runCampaignCancel(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	cancelled, err := store.NewPlanStore(db).CancelPending(ctx, args[0])
	if err != nil {
		log.Fatalf("Failed to cancel campaign: %v", err)
	}
	log.Printf("Cancelled %d pending submissions (already-filed requests are unaffected)", cancelled)
}

func runCampaignStatus(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	campaign, err := store.NewCampaignStore(db).Get(ctx, args[0])
	if err != nil {
		log.Fatalf("Failed to load campaign: %v", err)
	}
	if campaign == nil {
		log.Fatalf("Campaign %s not found", args[0])
	}

	report, err := newOrchestrator().RollUp(campaign, time.Now())
	if err != nil {
		log.Fatalf("Failed to assess campaign: %v", err)
	}

	log.Printf("Campaign %s: %s", campaign.ID, report.Status)
	for _, f := range report.Findings {
		line := "-"
		if f.Verdict != service.VerdictNotApplicable {
			line = f.DueDate.Format("2006-01-02")
		}
		log.Printf("  request %d agency %d status %s verdict %s due %s",
			f.Request.ID, f.Request.AgencyID, f.Request.Status, f.Verdict, line)
	}
}

// newOrchestrator wires the orchestrator over the embedded jurisdiction
// rules
func newOrchestrator() *service.CampaignOrchestrator {
	table, err := rules.LoadJurisdictions()
	if err != nil {
		log.Fatalf("Failed to load jurisdiction rules: %v", err)
	}
	monitor := service.NewComplianceMonitor(service.NewDeadlineCalculator(table))
	return service.NewCampaignOrchestrator(monitor)
}

// parseAgencyIDs parses a comma-separated id list
func parseAgencyIDs(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
