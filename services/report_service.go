package services

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"courtside/models"
	"courtside/utils"

	"github.com/go-pdf/fpdf"
	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ReportService renders per-game PDF reports (header, box score, play
// breakdown) and stores them: R2 when configured, local disk otherwise.
type ReportService struct {
	DB    *gorm.DB
	stats *StatsService
}

func NewReportService(db *gorm.DB, stats *StatsService) *ReportService {
	return &ReportService{DB: db, stats: stats}
}

// GenerateGameReport serves POST /games/:id/report.
func (s *ReportService) GenerateGameReport(c *fiber.Ctx) error {
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

	var shots []models.ShotEvent
	if err := s.DB.Where("game_id = ?", game.ID).Order("seq ASC").Find(&shots).Error; err != nil {
		return respondError(c, err)
	}
	names, err := s.stats.playNameIndex()
	if err != nil {
		return respondError(c, err)
	}
	breakdown := buildPlayBreakdown(shots, names)

	pdfBytes, err := renderGameReport(game, players, breakdown)
	if err != nil {
		log.Printf("⚠️  Report render failed for game %s: %v", game.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "report generation failed"})
	}

	key := fmt.Sprintf("reports/%s-%s-%s.pdf", game.SortDate, slug.Make(game.Opponent), game.ID[:8])
	url, err := storeReport(pdfBytes, key)
	if err != nil {
		log.Printf("⚠️  Report upload failed for game %s: %v", game.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "report storage failed"})
	}

	log.Printf("📄 Report for game %s stored at %s", game.ID, url)
	return c.JSON(fiber.Map{"url": url})
}

// storeReport uploads to R2 when configured, otherwise writes under uploads/.
func storeReport(data []byte, key string) (string, error) {
	if utils.R2Enabled() {
		return utils.UploadBytesToR2(data, key, "application/pdf")
	}
	path := utils.GetUploadPath(key)
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return "/" + path, nil
}

// renderGameReport lays out the PDF. Layout stays deliberately plain: a
// header line, the box score table, the play breakdown table.
func renderGameReport(game models.Game, players []models.PlayerStat, breakdown PlayBreakdown) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Game Report - %s", game.Opponent), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("vs %s  -  %d : %d  (%s)",
		game.Opponent, game.TeamScore, game.OpponentScore, game.Result), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s  |  %s", game.Date, game.GameType), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Box score
	pdf.SetFont("Helvetica", "B", 9)
	headers := []string{"Player", "MIN", "PTS", "FGM-A", "3PM-A", "FTM-A", "OREB", "DREB", "REB", "AST", "TOV", "STL", "BLK", "PF", "+/-"}
	widths := []float64{45, 14, 12, 18, 18, 18, 13, 13, 12, 12, 12, 12, 12, 12, 12}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, p := range players {
		cells := []string{
			p.PlayerName,
			p.Minutes,
			fmt.Sprintf("%d", p.Points),
			fmt.Sprintf("%d-%d", p.FGM, p.FGA),
			fmt.Sprintf("%d-%d", p.TPM, p.TPA),
			fmt.Sprintf("%d-%d", p.FTM, p.FTA),
			fmt.Sprintf("%d", p.OffReb),
			fmt.Sprintf("%d", p.DefReb),
			fmt.Sprintf("%d", p.Rebounds),
			fmt.Sprintf("%d", p.Assists),
			fmt.Sprintf("%d", p.Turnovers),
			fmt.Sprintf("%d", p.Steals),
			fmt.Sprintf("%d", p.Blocks),
			fmt.Sprintf("%d", p.Fouls),
			fmt.Sprintf("%+d", p.PlusMinus),
		}
		align := "L"
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, align, false, 0, "")
			align = "C"
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	// Play breakdown
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Play Breakdown  (coverage %.1f%%)", breakdown.PlayCoverage), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	bHeaders := []string{"Play", "ATT", "MADE", "MISS", "PTS", "FG%", "PPA"}
	bWidths := []float64{70, 16, 16, 16, 16, 18, 18}
	for i, h := range bHeaders {
		pdf.CellFormat(bWidths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, b := range breakdown.Buckets {
		cells := []string{
			b.PlayName,
			fmt.Sprintf("%d", b.Attempts),
			fmt.Sprintf("%d", b.Made),
			fmt.Sprintf("%d", b.Missed),
			fmt.Sprintf("%d", b.Points),
			fmt.Sprintf("%.1f", b.FGPct),
			fmt.Sprintf("%.2f", b.PPA),
		}
		align := "L"
		for i, cell := range cells {
			pdf.CellFormat(bWidths[i], 6, cell, "1", 0, align, false, 0, "")
			align = "C"
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
