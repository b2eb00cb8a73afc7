package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fitonboard/backend/internal/fitness"
	"github.com/fitonboard/backend/internal/workout"
)

type WorkoutHandler struct {
	service *workout.Service
}

func NewWorkoutHandler(service *workout.Service) *WorkoutHandler {
	return &WorkoutHandler{
		service: service,
	}
}

func (h *WorkoutHandler) Generate(c *fiber.Ctx) error {
	var req workout.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	if req.UserID == "" {
		req.UserID = c.Get("X-User-ID")
	}

	res, err := h.service.Generate(c.UserContext(), req, nil)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *WorkoutHandler) Score(c *fiber.Ctx) error {
	var req struct {
		Request fitness.Request `json:"request"`
		Plan    fitness.Plan    `json:"plan"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	res, err := h.service.Score(req.Request, req.Plan)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

func (h *WorkoutHandler) History(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		userID = c.Get("X-User-ID")
	}

	items, err := h.service.History(userID, c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"history": items,
		"count":   len(items),
	})
}

func (h *WorkoutHandler) Get(c *fiber.Ctx) error {
	item, err := h.service.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

func (h *WorkoutHandler) Feedback(c *fiber.Ctx) error {
	var in workout.FeedbackInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}

	stats, err := h.service.Feedback(c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "recorded",
		"stats":  stats,
	})
}
