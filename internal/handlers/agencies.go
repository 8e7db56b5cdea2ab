package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/openrecords/foiad/internal/store"
)

// AgenciesHandler searches the local agency cache
func AgenciesHandler(agencyStore *store.AgencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		query := c.Query("q", "")
		limit := c.QueryInt("limit", 25)

		agencies, err := agencyStore.Search(ctx, query, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error searching agencies")
		}

		return c.JSON(fiber.Map{
			"agencies": agencyViews(agencies),
		})
	}
}

// AgencyDetailHandler serves one cached agency
func AgencyDetailHandler(agencyStore *store.AgencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		id, err := c.ParamsInt("id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid agency id")
		}

		agency, err := agencyStore.GetByID(ctx, id)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading agency")
		}
		if agency == nil {
			return c.Status(fiber.StatusNotFound).SendString("Agency not found")
		}

		return c.JSON(agencyView(agency))
	}
}
