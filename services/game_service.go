package services

import (
	"fmt"
	"log"
	"sort"

	"courtside/models"
	"courtside/stats"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GameService struct {
	DB *gorm.DB
}

func NewGameService(db *gorm.DB) *GameService {
	return &GameService{DB: db}
}

// GameSummary is the lightweight listing row.
type GameSummary struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Opponent string `json:"opponent"`
	Score    string `json:"score"`
	Result   string `json:"result"`
	GameType string `json:"game_type"`
	Source   string `json:"source"`
}

// GetAllGames lists games, newest first. Optional ?game_type= filter.
func (s *GameService) GetAllGames(c *fiber.Ctx) error {
	q := s.DB.Model(&models.Game{}).Order("sort_date DESC")
	if gt := c.Query("game_type"); gt != "" {
		q = q.Where("game_type = ?", gt)
	}

	var games []models.Game
	if err := q.Find(&games).Error; err != nil {
		return respondError(c, err)
	}

	summaries := make([]GameSummary, 0, len(games))
	for _, g := range games {
		summaries = append(summaries, GameSummary{
			ID:       g.ID,
			Date:     g.Date,
			Opponent: g.Opponent,
			Score:    fmt.Sprintf("%d - %d", g.TeamScore, g.OpponentScore),
			Result:   g.Result,
			GameType: g.GameType,
			Source:   g.Source,
		})
	}
	return c.JSON(summaries)
}

// GetGameByID returns one game's header row.
func (s *GameService) GetGameByID(c *fiber.Ctx) error {
	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(game)
}

// BoxScore is the per-game stat sheet.
type BoxScore struct {
	Game    models.Game         `json:"game"`
	Players []models.PlayerStat `json:"players"`
}

// GetBoxScore returns the game with its player lines, top scorer first.
func (s *GameService) GetBoxScore(c *fiber.Ctx) error {
	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		return respondError(c, err)
	}

	var players []models.PlayerStat
	if err := s.DB.Where("game_id = ?", game.ID).
		Order("points DESC, player_name ASC").
		Find(&players).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(BoxScore{Game: game, Players: players})
}

// DeleteGame removes a game and, through the cascade constraints, every stat
// and event row it owns.
func (s *GameService) DeleteGame(c *fiber.Ctx) error {
	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		return respondError(c, err)
	}
	if err := s.DB.Delete(&game).Error; err != nil {
		return respondError(c, err)
	}
	log.Printf("🗑️  Deleted game %s vs %s", game.ID, game.Opponent)
	return c.JSON(fiber.Map{"deleted": game.ID})
}

// ImportGame accepts a finalize-shaped payload over HTTP.
func (s *GameService) ImportGame(c *fiber.Ctx) error {
	var payload GamePayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if payload.Source == "" {
		payload.Source = models.GameSourceImport
	}

	game, err := s.CreateFromPayload(&payload)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(game)
}

// CreateFromPayload validates and persists a full game submission in one
// transaction: the game row, every player line, and every shot/game event.
// Unknown play references fail validation before anything is written.
func (s *GameService) CreateFromPayload(payload *GamePayload) (*models.Game, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	game := &models.Game{
		ID:            uuid.NewString(),
		Date:          displayDate(payload.Date),
		SortDate:      payload.Date,
		Opponent:      payload.Opponent,
		GameType:      defaultString(payload.GameType, models.GameTypeSeason),
		TeamScore:     payload.TeamScore,
		OpponentScore: payload.OpponentScore,
		Result:        models.DeriveResult(payload.TeamScore, payload.OpponentScore),
		Source:        defaultString(payload.Source, models.GameSourceImport),
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := validatePlayRefs(tx, payload); err != nil {
			return err
		}

		if err := tx.Create(game).Error; err != nil {
			return err
		}

		names := make([]string, 0, len(payload.PlayerStats))
		for name := range payload.PlayerStats {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			ps := payload.PlayerStats[name]
			row := models.PlayerStat{
				ID:            uuid.NewString(),
				GameID:        game.ID,
				PlayerName:    name,
				SecondsPlayed: ps.SecondsPlayed,
				Minutes:       minutesDisplay(ps.SecondsPlayed),
				Points:        ps.Points,
				FGM:           ps.FGM,
				FGA:           ps.FGA,
				FGPercent:     stats.Percentage(float64(ps.FGM), float64(ps.FGA)),
				TPM:           ps.TPM,
				TPA:           ps.TPA,
				TPPercent:     stats.Percentage(float64(ps.TPM), float64(ps.TPA)),
				FTM:           ps.FTM,
				FTA:           ps.FTA,
				FTPercent:     stats.Percentage(float64(ps.FTM), float64(ps.FTA)),
				OffReb:        ps.OffReb,
				DefReb:        ps.DefReb,
				Rebounds:      ps.OffReb + ps.DefReb,
				Assists:       ps.Assists,
				Turnovers:     ps.Turnovers,
				Steals:        ps.Steals,
				Blocks:        ps.Blocks,
				Fouls:         ps.Fouls,
				PlusMinus:     ps.PlusMinus,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		for _, shot := range payload.Shots {
			x, y := shot.X, shot.Y
			if x != nil && y != nil {
				cx, cy := clampUnit(*x), clampUnit(*y)
				x, y = &cx, &cy
			}
			row := models.ShotEvent{
				ID:         uuid.NewString(),
				GameID:     game.ID,
				PlayerName: shot.Player,
				PlayID:     shot.PlayID,
				ShotType:   shot.ShotType,
				Result:     shotResult(shot.Made),
				Points:     shot.Points,
				XLoc:       x,
				YLoc:       y,
				AssistBy:   shot.AssistBy,
				Quarter:    shot.Quarter,
				Clock:      shot.Clock,
				Seq:        shot.Seq,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		for _, ev := range payload.Events {
			row := models.GameEvent{
				ID:         uuid.NewString(),
				GameID:     game.ID,
				EventType:  ev.EventType,
				PlayerName: ev.Player,
				PlayID:     ev.PlayID,
				Quarter:    ev.Quarter,
				Clock:      ev.Clock,
				Seq:        ev.Seq,
				Detail:     ev.Detail,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Created game %s vs %s (%d shots, %d events)",
		game.ID, game.Opponent, len(payload.Shots), len(payload.Events))
	return game, nil
}

// validatePlayRefs checks every play reference in the payload against the
// plays table, inside the create transaction so the set cannot shift under us.
func validatePlayRefs(tx *gorm.DB, payload *GamePayload) error {
	refs := make(map[string]bool)
	for _, s := range payload.Shots {
		if s.PlayID != nil {
			refs[*s.PlayID] = true
		}
	}
	for _, e := range payload.Events {
		if e.PlayID != nil {
			refs[*e.PlayID] = true
		}
	}
	if len(refs) == 0 {
		return nil
	}

	ids := make([]string, 0, len(refs))
	for id := range refs {
		ids = append(ids, id)
	}
	var count int64
	if err := tx.Model(&models.Play{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(ids) {
		return validationf("payload references unknown plays")
	}
	return nil
}

func shotResult(made bool) string {
	if made {
		return models.ShotResultMade
	}
	return models.ShotResultMissed
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
