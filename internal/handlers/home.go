package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/openrecords/foiad/internal/service"
)

// HomeHandler serves the system overview: the most recently calculated
// request and campaign metrics.
func HomeHandler(metrics *service.MetricsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		latest, err := metrics.GetLatestMetrics(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading metrics")
		}

		return c.JSON(fiber.Map{
			"metrics": latest,
		})
	}
}
