package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/fitonboard/backend/internal/waiver"
	"github.com/fitonboard/backend/pkg/apperrors"
)

type WaiverHandler struct {
	service *waiver.Service
}

func NewWaiverHandler(service *waiver.Service) *WaiverHandler {
	return &WaiverHandler{
		service: service,
	}
}

func (h *WaiverHandler) GetDraft(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"userId": c.Params("userId"),
		"data":   h.service.Draft(c.UserContext(), c.Params("userId")),
	})
}

// SaveDraft accepts the form as-is; the write happens after the debounce
// interval.
func (h *WaiverHandler) SaveDraft(c *fiber.Ctx) error {
	var d waiver.Data
	if err := c.BodyParser(&d); err != nil {
		return badBody(c, err)
	}
	h.service.SaveDraft(c.Params("userId"), d)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "scheduled",
	})
}

func (h *WaiverHandler) ValidateStep(c *fiber.Ctx) error {
	n, err := strconv.Atoi(c.Params("step"))
	if err != nil {
		return respondError(c, apperrors.Validation("step must be 1, 2 or 3",
			apperrors.FieldError{Field: "step", Message: "step must be 1, 2 or 3"}))
	}

	var d waiver.Data
	if err := c.BodyParser(&d); err != nil {
		return badBody(c, err)
	}

	step := waiver.Step(n)
	if err := h.service.ValidateStep(step, d); err != nil {
		return respondError(c, err)
	}

	next := step
	if step < waiver.StepSignature {
		next = step + 1
	}
	return c.JSON(fiber.Map{
		"valid":    true,
		"step":     step.String(),
		"nextStep": int(next),
	})
}

func (h *WaiverHandler) Sign(c *fiber.Ctx) error {
	var d waiver.Data
	if err := c.BodyParser(&d); err != nil {
		return badBody(c, err)
	}

	rec, err := h.service.Sign(c.UserContext(), c.Params("userId"), d)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

func (h *WaiverHandler) GetLatest(c *fiber.Ctx) error {
	rec, err := h.service.Latest(c.Params("userId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rec)
}
