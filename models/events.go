package models

import "time"

const (
	ShotType2PT = "2pt"
	ShotType3PT = "3pt"
	ShotTypeFT  = "ft"
)

const (
	ShotResultMade   = "made"
	ShotResultMissed = "missed"
)

const (
	EventTurnover      = "TURNOVER"
	EventSubIn         = "SUB_IN"
	EventSubOut        = "SUB_OUT"
	EventQuarterChange = "QUARTER_CHANGE"
	EventOpponentScore = "OPPONENT_SCORE"
)

// PointValue returns the points a made shot of the given type is worth.
func PointValue(shotType string) int {
	switch shotType {
	case ShotType3PT:
		return 3
	case ShotTypeFT:
		return 1
	default:
		return 2
	}
}

// ShotEvent is one shot attempt. Written once; only the play tag may be
// assigned after creation (the tag modal resolves after the shot is logged).
// Deleting a Play nulls the reference rather than touching the event.
type ShotEvent struct {
	ID         string  `json:"id" gorm:"primaryKey"`
	GameID     string  `json:"game_id" gorm:"index;not null"`
	PlayerName string  `json:"player_name" gorm:"index;not null"`
	PlayID     *string `json:"play_id,omitempty" gorm:"index"`
	Play       *Play   `json:"play,omitempty" gorm:"foreignKey:PlayID;constraint:OnDelete:SET NULL"`

	ShotType string `json:"shot_type" gorm:"type:varchar(3);not null"` // 2pt | 3pt | ft
	Result   string `json:"result" gorm:"type:varchar(6);not null"`    // made | missed
	Points   int    `json:"points"`                                    // 0 on a miss, PointValue on a make

	// Court location, unit-square fraction. Optional; unrecorded locations stay nil.
	XLoc *float64 `json:"x_loc,omitempty"`
	YLoc *float64 `json:"y_loc,omitempty"`

	AssistBy *string `json:"assist_by,omitempty"`
	Quarter  int     `json:"quarter"`
	Clock    string  `json:"clock"` // game clock at the event, mm:ss
	Seq      int     `json:"seq" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
}

// GameEvent is one discrete non-shot occurrence. Immutable once written.
type GameEvent struct {
	ID         string  `json:"id" gorm:"primaryKey"`
	GameID     string  `json:"game_id" gorm:"index;not null"`
	EventType  string  `json:"event_type" gorm:"index;not null"`
	PlayerName *string `json:"player_name,omitempty"` // nil for team-level events
	PlayID     *string `json:"play_id,omitempty" gorm:"index"`
	Play       *Play   `json:"play,omitempty" gorm:"foreignKey:PlayID;constraint:OnDelete:SET NULL"`

	Quarter int    `json:"quarter"`
	Clock   string `json:"clock"`
	Seq     int    `json:"seq" gorm:"index"`
	Detail  string `json:"detail"` // free-form payload, e.g. "+2" for opponent score

	CreatedAt time.Time `json:"created_at"`
}
