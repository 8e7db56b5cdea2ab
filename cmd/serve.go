package cmd

import (
	"context"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/cobra"

	"github.com/openrecords/foiad/internal/handlers"
	"github.com/openrecords/foiad/internal/rules"
	"github.com/openrecords/foiad/internal/service"
	"github.com/openrecords/foiad/internal/store"
)

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the records request tracking server",
	Long:  `Start the web server exposing tracked requests, campaigns, and compliance findings.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Use PORT env var if set, otherwise use flag value
		if envPort := os.Getenv("PORT"); envPort != "" && port == "8080" {
			port = envPort
		}

		db, err := openDB(context.Background())
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		table, err := rules.LoadJurisdictions()
		if err != nil {
			log.Fatalf("Failed to load jurisdiction rules: %v", err)
		}
		catalog, err := rules.LoadPrecedents()
		if err != nil {
			log.Fatalf("Failed to load precedent catalog: %v", err)
		}

		// Stores
		agencyStore := store.NewAgencyStore(db)
		requestStore := store.NewRequestStore(db)
		campaignStore := store.NewCampaignStore(db)
		planStore := store.NewPlanStore(db)

		// Services
		monitor := service.NewComplianceMonitor(service.NewDeadlineCalculator(table))
		orchestrator := service.NewCampaignOrchestrator(monitor)
		generator := service.NewAppealGenerator(catalog)
		metrics := service.NewMetricsService(db)

		app := fiber.New(fiber.Config{
			AppName: "foiad",
		})

		app.Use(logger.New())

		// Routes
		app.Get("/", handlers.HomeHandler(metrics))

		// Agency routes
		app.Get("/agencies", handlers.AgenciesHandler(agencyStore))
		app.Get("/agencies/:id", handlers.AgencyDetailHandler(agencyStore))

		// Request routes
		app.Get("/requests", handlers.RequestsHandler(requestStore, monitor))
		app.Get("/requests/:id", handlers.RequestDetailHandler(requestStore, monitor))
		app.Get("/requests/:id/appeal", handlers.AppealPreviewHandler(requestStore, generator))

		// Campaign routes
		app.Get("/campaigns", handlers.CampaignsHandler(campaignStore, orchestrator))
		app.Get("/campaigns/:id", handlers.CampaignDetailHandler(campaignStore, planStore, orchestrator))

		// Compliance route
		app.Get("/compliance", handlers.ComplianceHandler(requestStore, monitor))

		log.Printf("Starting server on :%s", port)
		if err := app.Listen(":" + port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&port, "port", "p", "8080", "Port to run the server on")
}
