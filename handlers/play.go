// handlers/play.go
package handlers

import (
	"courtside/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPlayRoutes(app *fiber.App, playService *services.PlayService) {
	app.Get("/plays", playService.GetAllPlays)
	app.Get("/plays/:id", playService.GetPlayByID)
	app.Post("/plays", playService.CreatePlay)
	app.Put("/plays/:id", playService.UpdatePlay)
	app.Delete("/plays/:id", playService.DeletePlay)
	app.Post("/plays/:id/image", playService.UploadDiagram)
	app.Post("/plays/seed", playService.SeedEndpoint)
}
