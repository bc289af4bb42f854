package services

import (
	"errors"
	"log"
	"path/filepath"
	"strings"

	"courtside/models"
	"courtside/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type PlayService struct {
	DB *gorm.DB
}

func NewPlayService(db *gorm.DB) *PlayService {
	return &PlayService{DB: db}
}

var allowedDiagramExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

// GetAllPlays lists plays, optionally filtered by ?type= and ?active=.
func (s *PlayService) GetAllPlays(c *fiber.Ctx) error {
	q := s.DB.Model(&models.Play{}).Order("play_type ASC, name ASC")
	if pt := c.Query("type"); pt != "" && pt != "All" {
		q = q.Where("play_type = ?", pt)
	}
	if c.Query("active") == "true" {
		q = q.Where("is_active = ?", true)
	}

	var plays []models.Play
	if err := q.Find(&plays).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(plays)
}

// GetPlayByID returns one play.
func (s *PlayService) GetPlayByID(c *fiber.Ctx) error {
	var play models.Play
	if err := s.DB.First(&play, "id = ?", c.Params("id")).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(play)
}

type playInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PlayType    string `json:"play_type"`
	IsActive    *bool  `json:"is_active"`
}

// CreatePlay adds a play. Duplicate names are rejected; events reference
// plays by id, but coaches pick them by name.
func (s *PlayService) CreatePlay(c *fiber.Ctx) error {
	var in playInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return respondError(c, validationf("play name is required"))
	}
	switch in.PlayType {
	case "":
		in.PlayType = models.PlayTypeOffense
	case models.PlayTypeOffense, models.PlayTypeDefense, models.PlayTypeSpecial:
	default:
		return respondError(c, validationf("unknown play type %q", in.PlayType))
	}

	var existing models.Play
	err := s.DB.Where("name = ?", in.Name).First(&existing).Error
	if err == nil {
		return respondError(c, validationf("play %q already exists", in.Name))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, err)
	}

	play := models.Play{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		PlayType:    in.PlayType,
		IsActive:    true,
	}
	if err := s.DB.Create(&play).Error; err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(play)
}

// UpdatePlay edits name/description/type/active flag.
func (s *PlayService) UpdatePlay(c *fiber.Ctx) error {
	var play models.Play
	if err := s.DB.First(&play, "id = ?", c.Params("id")).Error; err != nil {
		return respondError(c, err)
	}

	var in playInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		play.Name = name
	}
	if in.Description != "" {
		play.Description = in.Description
	}
	if in.PlayType != "" {
		switch in.PlayType {
		case models.PlayTypeOffense, models.PlayTypeDefense, models.PlayTypeSpecial:
			play.PlayType = in.PlayType
		default:
			return respondError(c, validationf("unknown play type %q", in.PlayType))
		}
	}
	if in.IsActive != nil {
		play.IsActive = *in.IsActive
	}

	if err := s.DB.Save(&play).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(play)
}

// DeletePlay removes a play. Historic shot/turnover events keep their rows;
// the play reference is nulled by the FK constraint, never the event.
func (s *PlayService) DeletePlay(c *fiber.Ctx) error {
	var play models.Play
	if err := s.DB.First(&play, "id = ?", c.Params("id")).Error; err != nil {
		return respondError(c, err)
	}
	if err := s.DB.Delete(&play).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": play.ID})
}

// UploadDiagram attaches a court-diagram image to a play.
func (s *PlayService) UploadDiagram(c *fiber.Ctx) error {
	var play models.Play
	if err := s.DB.First(&play, "id = ?", c.Params("id")).Error; err != nil {
		return respondError(c, err)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image file is required"})
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedDiagramExts[ext] {
		return respondError(c, validationf("unsupported image type %q", ext))
	}

	filename := slug.Make(play.Name) + "-" + uuid.NewString()[:8] + ext
	if err := utils.SaveFile(file, utils.GetUploadPath("plays/"+filename)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save image"})
	}

	play.ImageFilename = &filename
	if err := s.DB.Save(&play).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(play)
}

// SeedPlays loads the standard playbook when the table is empty. Safe to call
// on every boot.
func (s *PlayService) SeedPlays() error {
	var count int64
	if err := s.DB.Model(&models.Play{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, seed := range playbookSeed {
		play := models.Play{
			ID:          uuid.NewString(),
			Name:        seed.name,
			Description: seed.description,
			PlayType:    seed.playType,
			IsActive:    true,
		}
		if err := s.DB.Create(&play).Error; err != nil {
			return err
		}
	}
	log.Printf("✅ Seeded %d plays from the playbook", len(playbookSeed))
	return nil
}

// SeedEndpoint exposes seeding for admin use.
func (s *PlayService) SeedEndpoint(c *fiber.Ctx) error {
	if err := s.SeedPlays(); err != nil {
		return respondError(c, err)
	}
	var count int64
	s.DB.Model(&models.Play{}).Count(&count)
	return c.JSON(fiber.Map{"plays": count})
}

type playSeed struct {
	name        string
	description string
	playType    string
}

var playbookSeed = []playSeed{
	{"Pick and Roll", "Classic pick and roll with ballhandler. Screener rolls to basket or pops for shot.", models.PlayTypeOffense},
	{"Pick and Pop", "Guard uses screener who pops to mid-range/three-point line after setting screen.", models.PlayTypeOffense},
	{"Horns Twist", "Pick and roll from horns position. Guard receives screen from top of key, rolls/pops for scoring opportunity.", models.PlayTypeOffense},
	{"Spain PNR", "Guard initiates pick and roll in Spain position (wing). Ballhandler attacks middle or wing.", models.PlayTypeOffense},
	{"Dribble Handoff", "Guard executes dribble handoff with wing player. Creates driving lane or passing option.", models.PlayTypeOffense},
	{"Wing Isolation", "Isolate wing player on one side with screening action. Creates one-on-one opportunity.", models.PlayTypeOffense},
	{"High Post Entry", "Feed post player at high post. Creates passing opportunities to cutters or post scoring.", models.PlayTypeOffense},
	{"Flare Screen", "Screener sets screen to create space on perimeter for three-point shot.", models.PlayTypeOffense},
	{"Transition Offense", "Fast break with numerical advantage. Outlet pass to guards for quick movement up court.", models.PlayTypeOffense},
	{"Motion Offense", "Continuous ball and player movement with series of screens. Creates open shots through spacing.", models.PlayTypeOffense},
	{"Man-to-Man Defense", "Each defender guards assigned opponent. Emphasis on staying in front and denying space.", models.PlayTypeDefense},
	{"2-3 Zone", "Two defenders on top, three on baseline. Protects paint and discourages driving.", models.PlayTypeDefense},
	{"3-2 Zone", "Three defenders on top, two on baseline. More perimeter-oriented defense.", models.PlayTypeDefense},
	{"Full Court Press", "Defensive pressure across the whole court after a made basket. Forces rushed decisions.", models.PlayTypeDefense},
	{"Baseline Out of Bounds", "Set inbound play from the baseline. Screens free a shooter or cutter at the rim.", models.PlayTypeSpecial},
	{"Sideline Out of Bounds", "Set inbound play from the sideline, usually against pressure late in the clock.", models.PlayTypeSpecial},
}
