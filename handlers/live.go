// handlers/live.go
package handlers

import (
	"courtside/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLiveRoutes(app *fiber.App, liveService *services.LiveService) {
	live := app.Group("/live")

	live.Post("/sessions", liveService.CreateSession)
	live.Get("/sessions/:id", liveService.GetSession)
	live.Post("/sessions/:id/actions", liveService.Action)
	live.Get("/sessions/:id/snapshots", liveService.ListSnapshots)
	live.Post("/sessions/:id/snapshots/:snapshot_id/restore", liveService.RestoreSnapshot)
	live.Post("/sessions/:id/finalize", liveService.Finalize)
}
