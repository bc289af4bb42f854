// handlers/stats.go
package handlers

import (
	"courtside/services"

	"github.com/gofiber/fiber/v2"
)

func SetupStatsRoutes(app *fiber.App, statsService *services.StatsService) {
	// Play-based aggregation views
	app.Get("/games/:id/plays/breakdown", statsService.GetGamePlayBreakdown)
	app.Get("/games/:id/plays/rankings", statsService.GetPlayRankings)
	app.Get("/players/:name/plays/breakdown", statsService.GetPlayerPlayBreakdown)

	// Season-level views
	app.Get("/players/:name/season", statsService.GetPlayerSeason)
	app.Get("/team/overview", statsService.GetTeamOverview)
}
