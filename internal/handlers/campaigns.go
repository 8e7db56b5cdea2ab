package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/openrecords/foiad/internal/service"
	"github.com/openrecords/foiad/internal/store"
)

// CampaignsHandler lists campaigns with their rolled-up statuses
func CampaignsHandler(campaignStore *store.CampaignStore, orchestrator *service.CampaignOrchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		campaigns, err := campaignStore.GetAll(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading campaigns")
		}

		now := time.Now()
		views := make([]CampaignView, 0, len(campaigns))
		for _, campaign := range campaigns {
			report, err := orchestrator.RollUp(campaign, now)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Error assessing campaign")
			}
			view := campaignView(report)
			view.Members = nil // list view stays shallow
			views = append(views, view)
		}

		return c.JSON(fiber.Map{
			"campaigns": views,
		})
	}
}

// CampaignDetailHandler serves one campaign: its roll-up, member findings,
// and submission plan
func CampaignDetailHandler(campaignStore *store.CampaignStore, planStore *store.PlanStore, orchestrator *service.CampaignOrchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		id := c.Params("id")

		campaign, err := campaignStore.Get(ctx, id)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading campaign")
		}
		if campaign == nil {
			return c.Status(fiber.StatusNotFound).SendString("Campaign not found")
		}

		report, err := orchestrator.RollUp(campaign, time.Now())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error assessing campaign")
		}

		entries, err := planStore.ForCampaign(ctx, id)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading plan")
		}

		view := campaignView(report)
		return c.JSON(fiber.Map{
			"campaign": view,
			"plan":     planEntryViews(entries),
		})
	}
}
