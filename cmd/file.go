package cmd

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/openrecords/foiad/internal/model"
	"github.com/openrecords/foiad/internal/rules"
	"github.com/openrecords/foiad/internal/service"
	"github.com/openrecords/foiad/internal/store"
)

var (
	fileTitle     string
	fileBody      string
	fileAgencyID  int
	fileOrgHint   string
	fileEmbargo   bool
	fileFeeWaiver bool
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "File a single records request with one agency",
	Long: `File submits one records request through the platform and starts
tracking its status and statutory deadline locally.

Examples:
  # File with agency 248
  ./foiad file --agency 248 --title "2025 use-of-force reports" --body "All reports..."

  # File on behalf of an organization
  ./foiad file --agency 248 --title "..." --body "..." --org "Beacon"`,
	Run: runFile,
}

func init() {
	rootCmd.AddCommand(fileCmd)

	fileCmd.Flags().StringVarP(&fileTitle, "title", "t", "", "Request title")
	fileCmd.Flags().StringVarP(&fileBody, "body", "b", "", "Requested records description")
	fileCmd.Flags().IntVarP(&fileAgencyID, "agency", "a", 0, "Target agency id")
	fileCmd.Flags().StringVar(&fileOrgHint, "org", "", "Filing organization name (substring match)")
	fileCmd.Flags().BoolVar(&fileEmbargo, "embargo", false, "Embargo the request")
	fileCmd.Flags().BoolVar(&fileFeeWaiver, "fee-waiver", false, "Request a fee waiver")
	fileCmd.MarkFlagRequired("title")
	fileCmd.MarkFlagRequired("body")
	fileCmd.MarkFlagRequired("agency")
}

func runFile(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	platform := newPlatform()

	// Resolve the filing identity once, before anything is submitted
	orgID, ok := resolveOrganization(ctx, platform, fileOrgHint)
	if !ok {
		os.Exit(1)
	}

	req, err := platform.SubmitRequest(ctx, service.Submission{
		Title:            fileTitle,
		Body:             fileBody,
		AgencyID:         fileAgencyID,
		OrganizationID:   orgID,
		Embargo:          fileEmbargo,
		RequestFeeWaiver: fileFeeWaiver,
		IdempotencyKey:   uuid.NewString(),
	})
	if err != nil {
		log.Fatalf("Failed to submit request: %v", err)
	}

	machine := service.NewStateMachine()
	machine.Initialize(req, time.Now())

	requestStore := store.NewRequestStore(db)
	if err := requestStore.Insert(ctx, req, sql.NullString{}); err != nil {
		log.Fatalf("Request %d filed but not tracked locally: %v", req.ID, err)
	}

	log.Printf("Filed request %d with agency %d", req.ID, fileAgencyID)

	table, err := rules.LoadJurisdictions()
	if err != nil {
		log.Fatalf("Failed to load jurisdiction rules: %v", err)
	}
	due, err := service.NewDeadlineCalculator(table).DueDate(req, time.Now())
	if err != nil {
		log.Printf("No statutory deadline: %v", err)
		return
	}
	log.Printf("Statutory response due %s", due.Format("2006-01-02"))
}

// resolveOrganization picks the filing organization for this invocation.
// Ambiguity is never resolved silently: candidates are printed and the
// caller picks by rerunning with a narrower --org.
func resolveOrganization(ctx context.Context, platform *service.MuckRockClient, hint string) (int, bool) {
	orgs, err := platform.ListUserOrganizations(ctx)
	if err != nil {
		log.Printf("Failed to list organizations: %v", err)
		return 0, false
	}

	selection := service.SelectOrganization(orgs, hint)
	switch selection.Outcome {
	case service.SelectionIndividual:
		return 0, true
	case service.SelectionSelected:
		log.Printf("Filing as %s", selection.Organization.Name)
		return selection.Organization.ID, true
	default:
		log.Println("Organization selection needs a choice; candidates:")
		printOrganizations(selection.Candidates)
		return 0, false
	}
}

func printOrganizations(orgs []model.Organization) {
	for _, o := range orgs {
		log.Printf("  %d  %s", o.ID, o.Name)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	return ctx, cancel
}
