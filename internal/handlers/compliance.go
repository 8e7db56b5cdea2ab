package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/openrecords/foiad/internal/service"
	"github.com/openrecords/foiad/internal/store"
)

// ComplianceHandler scans every open request and reports the ones needing
// attention, overdue first
func ComplianceHandler(requestStore *store.RequestStore, monitor *service.ComplianceMonitor) fiber.Handler {
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

		var overdue, dueSoon []FindingView
		for _, f := range findings {
			switch f.Verdict {
			case service.VerdictOverdue:
				overdue = append(overdue, findingView(f))
			case service.VerdictDueSoon:
				dueSoon = append(dueSoon, findingView(f))
			}
		}

		return c.JSON(fiber.Map{
			"overdue":  overdue,
			"due_soon": dueSoon,
			"scanned":  len(findings),
		})
	}
}
