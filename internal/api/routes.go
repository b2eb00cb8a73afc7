// Package api wires the HTTP handlers onto fiber routes.
package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/fitonboard/backend/internal/api/handlers"
)

type Handlers struct {
	Health    *handlers.HealthHandler
	Waiver    *handlers.WaiverHandler
	Profile   *handlers.ProfileHandler
	Selection *handlers.SelectionHandler
	Workout   *handlers.WorkoutHandler
	WebSocket *handlers.WebSocketHandler
}

// Register mounts every route under /api/v1 and the progress socket under
// /ws.
func Register(app *fiber.App, h Handlers) {
	api := app.Group("/api/v1")

	api.Get("/health", h.Health.Health)
	api.Get("/ready", h.Health.Ready)
	api.Get("/stats", h.Health.Stats)

	api.Get("/waivers/:userId/draft", h.Waiver.GetDraft)
	api.Put("/waivers/:userId/draft", h.Waiver.SaveDraft)
	api.Post("/waivers/steps/:step/validate", h.Waiver.ValidateStep)
	api.Post("/waivers/:userId", h.Waiver.Sign)
	api.Get("/waivers/:userId", h.Waiver.GetLatest)

	api.Post("/profiles", h.Profile.Create)
	api.Get("/profiles", h.Profile.List)
	api.Get("/profiles/:id", h.Profile.Get)
	api.Put("/profiles/:id", h.Profile.Update)
	api.Delete("/profiles/:id", h.Profile.Delete)

	api.Get("/catalogs/:catalog", h.Selection.GetCatalog)
	api.Post("/selections/:catalog/select", h.Selection.Select)
	api.Post("/selections/:catalog/deselect", h.Selection.Deselect)
	api.Post("/selections/:catalog/toggle", h.Selection.Toggle)
	api.Post("/selections/:catalog/validate", h.Selection.Validate)
	api.Post("/selections/:catalog/disclosure", h.Selection.Disclosure)

	api.Post("/workouts", h.Workout.Generate)
	api.Post("/workouts/score", h.Workout.Score)
	api.Get("/workouts/history", h.Workout.History)
	api.Get("/workouts/:id", h.Workout.Get)
	api.Post("/workouts/:id/feedback", h.Workout.Feedback)

	if h.WebSocket != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if !websocket.IsWebSocketUpgrade(c) {
				return fiber.ErrUpgradeRequired
			}
			if userID := c.Get("X-User-ID"); userID != "" {
				c.Locals("userId", userID)
			}
			return c.Next()
		})
		app.Get("/ws/workouts", websocket.New(h.WebSocket.HandleConnection))
	}
}
