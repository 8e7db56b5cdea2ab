package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/openrecords/foiad/internal/model"
	"github.com/openrecords/foiad/internal/service"
	"github.com/openrecords/foiad/internal/store"
)

// RequestsHandler lists open requests with their compliance findings
func RequestsHandler(requestStore *store.RequestStore, monitor *service.ComplianceMonitor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		open, err := requestStore.OpenRequests(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading requests")
		}

		findings, err := monitor.Scan(open, time.Now())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error assessing requests")
		}

		return c.JSON(fiber.Map{
			"requests": findingViews(findings),
		})
	}
}

// RequestDetailHandler serves one tracked request with its verdict
func RequestDetailHandler(requestStore *store.RequestStore, monitor *service.ComplianceMonitor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		id, err := c.ParamsInt("id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid request id")
		}

		req, err := requestStore.Get(ctx, id)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading request")
		}
		if req == nil {
			return c.Status(fiber.StatusNotFound).SendString("Request not found")
		}

		findings, err := monitor.Scan([]*model.FOIARequest{req}, time.Now())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error assessing request")
		}

		return c.JSON(findingView(findings[0]))
	}
}

// AppealPreviewHandler drafts an appeal for a denied request without filing
// it or moving the request's status
func AppealPreviewHandler(requestStore *store.RequestStore, generator *service.AppealGenerator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		id, err := c.ParamsInt("id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid request id")
		}

		req, err := requestStore.Get(ctx, id)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading request")
		}
		if req == nil {
			return c.Status(fiber.StatusNotFound).SendString("Request not found")
		}

		appeal, err := generator.Generate(req, time.Now())
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).SendString(err.Error())
		}

		return c.JSON(fiber.Map{
			"request_id": req.ID,
			"text":       service.RenderAppealText(req, appeal),
			"unmatched":  appeal.Unmatched(),
		})
	}
}
