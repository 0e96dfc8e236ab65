package visit

import (
	"errors"
	"time"

	"backend-fieldtrack/internal/position"

	"github.com/gofiber/fiber/v2"
)

// ActiveVisitView adds the display fields dashboards derive at read
// time: elapsed duration and live/stale/none classification.
type ActiveVisitView struct {
	ActiveVisit
	ElapsedSec int64          `json:"elapsed_sec"`
	State      position.State `json:"state"`
}

func RegisterRoutes(r fiber.Router, svc *Service, samples *position.Recorder, staleAfter time.Duration, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			SiteLabel string `json:"site_label"`
		}
		if err := c.BodyParser(&body); err != nil || body.SiteLabel == "" {
			return fiber.NewError(fiber.StatusBadRequest, "site_label required")
		}

		// subject comes from the credential, never the payload
		employeeID, _ := c.Locals("employee_id").(string)
		if employeeID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "no subject identity")
		}

		v, err := svc.Start(c.Context(), employeeID, body.SiteLabel)
		if errors.Is(err, ErrConflict) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(v)
	})

	r.Post("/:id/end", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.End(c.Context(), c.Params("id"), "ended"); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"id": c.Params("id"), "status": StatusClosed})
	})

	r.Get("/active", authMiddleware, func(c *fiber.Ctx) error {
		visits, err := svc.Active(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		now := time.Now()
		views := make([]ActiveVisitView, 0, len(visits))
		for _, v := range visits {
			view := ActiveVisitView{
				ActiveVisit: v,
				ElapsedSec:  int64(now.Sub(v.StartedAt).Seconds()),
				State:       position.StateNone,
			}
			if v.LastSampleAt != nil {
				view.State = position.StateOf(*v.LastSampleAt, now, staleAfter)
			}
			views = append(views, view)
		}
		return c.JSON(views)
	})

	r.Get("/:id/samples", authMiddleware, func(c *fiber.Ctx) error {
		history, err := samples.History(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(history)
	})

	r.Get("/employee/:id", authMiddleware, func(c *fiber.Ctx) error {
		visits, err := svc.ByEmployee(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(visits)
	})
}
