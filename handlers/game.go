// handlers/game.go
package handlers

import (
	"courtside/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(app *fiber.App, gameService *services.GameService, reportService *services.ReportService) {
	app.Get("/games", gameService.GetAllGames)
	app.Get("/games/:id", gameService.GetGameByID)
	app.Get("/games/:id/boxscore", gameService.GetBoxScore)
	app.Delete("/games/:id", gameService.DeleteGame)

	// Finalize-shaped payloads from external tooling
	app.Post("/games/import", gameService.ImportGame)

	// PDF export
	app.Post("/games/:id/report", reportService.GenerateGameReport)
}
