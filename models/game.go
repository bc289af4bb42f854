// models/game.go
package models

import "time"

const (
	GameTypeSeason   = "Season"
	GameTypePlayoff  = "Playoff"
	GameTypeFriendly = "Friendly"
)

const (
	ResultWin  = "W"
	ResultLoss = "L"
	ResultTie  = "T"
)

const (
	GameSourceLive   = "LIVE"
	GameSourceImport = "IMPORT"
)

type Game struct {
	ID            string `json:"id" gorm:"primaryKey"`
	Date          string `json:"date" gorm:"not null"`   // DD/MM/YYYY for display
	SortDate      string `json:"sort_date" gorm:"index"` // YYYY-MM-DD
	Opponent      string `json:"opponent" gorm:"not null"`
	GameType      string `json:"game_type" gorm:"default:'Season'"`
	TeamScore     int    `json:"team_score"`
	OpponentScore int    `json:"opponent_score"`
	Result        string `json:"result" gorm:"type:varchar(1)"` // W | L | T
	Source        string `json:"source" gorm:"default:'IMPORT'"`

	// 🔗 Owned rows, deleting a game takes its stats and events with it
	PlayerStats []PlayerStat `json:"player_stats,omitempty" gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
	ShotEvents  []ShotEvent  `json:"shot_events,omitempty" gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
	GameEvents  []GameEvent  `json:"game_events,omitempty" gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeriveResult returns W/L/T from the final score.
func DeriveResult(teamScore, opponentScore int) string {
	switch {
	case teamScore > opponentScore:
		return ResultWin
	case teamScore < opponentScore:
		return ResultLoss
	default:
		return ResultTie
	}
}

// PlayerStat is one player's aggregate line for one game. Rows are written
// once at finalize/import and never mutated afterward.
type PlayerStat struct {
	ID         string `json:"id" gorm:"primaryKey"`
	GameID     string `json:"game_id" gorm:"index;not null"`
	PlayerName string `json:"player_name" gorm:"index;not null"`

	SecondsPlayed int    `json:"seconds_played"`
	Minutes       string `json:"minutes"` // mm:ss, derived from SecondsPlayed

	Points    int     `json:"points"`
	FGM       int     `json:"fgm"`
	FGA       int     `json:"fga"`
	FGPercent float64 `json:"fg_percent"`
	TPM       int     `json:"tpm"`
	TPA       int     `json:"tpa"`
	TPPercent float64 `json:"tp_percent"`
	FTM       int     `json:"ftm"`
	FTA       int     `json:"fta"`
	FTPercent float64 `json:"ft_percent"`

	OffReb    int `json:"oreb"`
	DefReb    int `json:"dreb"`
	Rebounds  int `json:"reb"`
	Assists   int `json:"ast"`
	Turnovers int `json:"tov"`
	Steals    int `json:"stl"`
	Blocks    int `json:"blk"`
	Fouls     int `json:"pf"`
	PlusMinus int `json:"plus_minus"`

	CreatedAt time.Time `json:"created_at"`
}
