package cmd

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/openrecords/foiad/internal/model"
	"github.com/openrecords/foiad/internal/rules"
	"github.com/openrecords/foiad/internal/service"
	"github.com/openrecords/foiad/internal/store"
)

var appealFile bool

var appealCmd = &cobra.Command{
	Use:   "appeal <request-id>",
	Short: "Draft an administrative appeal for a denied request",
	Long: `Appeal drafts an argument for each exemption the agency cited,
backed by controlling precedent where the catalog has one. Exemptions
without a catalog match are flagged, never dropped.

By default the draft is only printed. With --file it is submitted to
the platform and the request moves to appealing.`,
	Args: cobra.ExactArgs(1),
	Run:  runAppeal,
}

func init() {
	rootCmd.AddCommand(appealCmd)
	appealCmd.Flags().BoolVar(&appealFile, "file", false, "Submit the appeal instead of just printing it")
}

func runAppeal(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	id, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("Invalid request id %q", args[0])
	}

	db, err := openDB(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	requestStore := store.NewRequestStore(db)
	req, err := requestStore.Get(ctx, id)
	if err != nil {
		log.Fatalf("Failed to load request %d: %v", id, err)
	}
	if req == nil {
		log.Fatalf("Request %d is not tracked", id)
	}

	catalog, err := rules.LoadPrecedents()
	if err != nil {
		log.Fatalf("Failed to load precedent catalog: %v", err)
	}

	appeal, err := service.NewAppealGenerator(catalog).Generate(req, time.Now())
	if err != nil {
		log.Fatalf("Cannot draft appeal: %v", err)
	}

	text := service.RenderAppealText(req, appeal)
	fmt.Println(text)
	for _, code := range appeal.Unmatched() {
		log.Printf("No controlling precedent on file for exemption %s; review before filing", code)
	}

	if !appealFile {
		return
	}

	platform := newPlatform()
	if err := platform.PostAppeal(ctx, req.ID, text); err != nil {
		log.Fatalf("Failed to file appeal: %v", err)
	}

	machine := service.NewStateMachine()
	if err := machine.Apply(req, model.StatusAppealing, time.Now()); err != nil {
		log.Fatalf("Appeal filed but status not updated: %v", err)
	}
	if err := requestStore.Save(ctx, req); err != nil {
		log.Fatalf("Appeal filed but not saved locally: %v", err)
	}
	log.Printf("Filed appeal on request %d", req.ID)
}
