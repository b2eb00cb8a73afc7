package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fitonboard/backend/internal/profile"
)

type ProfileHandler struct {
	service *profile.Service
}

func NewProfileHandler(service *profile.Service) *ProfileHandler {
	return &ProfileHandler{
		service: service,
	}
}

func (h *ProfileHandler) Create(c *fiber.Ctx) error {
	var in profile.Input
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}

	p, err := h.service.Create(in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	p, err := h.service.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	var in profile.Input
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}

	p, err := h.service.Update(c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

func (h *ProfileHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProfileHandler) List(c *fiber.Ctx) error {
	profiles, err := h.service.List(c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"profiles": profiles,
		"count":    len(profiles),
	})
}
