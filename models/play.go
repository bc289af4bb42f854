package models

import "time"

const (
	PlayTypeOffense = "Offense"
	PlayTypeDefense = "Defense"
	PlayTypeSpecial = "Special"
)

// Play is a named, reusable tactic used to tag shot and turnover events.
// Reference data: seeded from the playbook, edited rarely via admin CRUD.
type Play struct {
	ID            string  `json:"id" gorm:"primaryKey"`
	Name          string  `json:"name" gorm:"uniqueIndex;not null"`
	Description   string  `json:"description"`
	PlayType      string  `json:"play_type" gorm:"index;default:'Offense'"`
	ImageFilename *string `json:"image_filename,omitempty"`
	IsActive      bool    `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
