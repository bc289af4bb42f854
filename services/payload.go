package services

import (
	"regexp"
	"strings"

	"courtside/models"
	"courtside/stats"
	"courtside/tracker"
	"courtside/utils"
)

// GamePayload is the full per-game submission: finalize from a live session,
// POST /games/import, or a payload file dropped in the ingest inbox.
type GamePayload struct {
	Date          string `json:"date"` // YYYY-MM-DD
	Opponent      string `json:"opponent"`
	GameType      string `json:"game_type"`
	TeamScore     int    `json:"team_score"`
	OpponentScore int    `json:"opponent_score"`
	Source        string `json:"source"`

	PlayerStats map[string]PlayerStatPayload `json:"player_stats"`
	Shots       []ShotPayload                `json:"shots"`
	Events      []EventPayload               `json:"events"`
}

type PlayerStatPayload struct {
	SecondsPlayed int `json:"seconds_played"`
	Points        int `json:"points"`
	FGM           int `json:"fgm"`
	FGA           int `json:"fga"`
	TPM           int `json:"tpm"`
	TPA           int `json:"tpa"`
	FTM           int `json:"ftm"`
	FTA           int `json:"fta"`
	OffReb        int `json:"oreb"`
	DefReb        int `json:"dreb"`
	Assists       int `json:"ast"`
	Turnovers     int `json:"tov"`
	Steals        int `json:"stl"`
	Blocks        int `json:"blk"`
	Fouls         int `json:"pf"`
	PlusMinus     int `json:"plus_minus"`
}

type ShotPayload struct {
	Player   string   `json:"player"`
	ShotType string   `json:"shot_type"`
	Made     bool     `json:"made"`
	Points   int      `json:"points"`
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	AssistBy *string  `json:"assist_by,omitempty"`
	PlayID   *string  `json:"play_id,omitempty"`
	Quarter  int      `json:"quarter"`
	Clock    string   `json:"clock"`
	Seq      int      `json:"seq"`
}

type EventPayload struct {
	EventType string  `json:"event_type"`
	Player    *string `json:"player,omitempty"`
	PlayID    *string `json:"play_id,omitempty"`
	Quarter   int     `json:"quarter"`
	Clock     string  `json:"clock"`
	Seq       int     `json:"seq"`
	Detail    string  `json:"detail,omitempty"`
}

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Validate checks payload invariants before anything touches the database.
// Play references are checked separately, inside the create transaction.
func (p *GamePayload) Validate() error {
	if strings.TrimSpace(p.Opponent) == "" {
		return validationf("opponent name is required")
	}
	if !isoDateRe.MatchString(p.Date) {
		return validationf("date must be YYYY-MM-DD, got %q", p.Date)
	}
	if p.TeamScore < 0 || p.OpponentScore < 0 {
		return validationf("scores cannot be negative")
	}
	switch p.GameType {
	case "", models.GameTypeSeason, models.GameTypePlayoff, models.GameTypeFriendly:
	default:
		return validationf("unknown game type %q", p.GameType)
	}

	for name, ps := range p.PlayerStats {
		if strings.TrimSpace(name) == "" {
			return validationf("player stat line with empty name")
		}
		if err := ps.validate(name); err != nil {
			return err
		}
	}

	for i, s := range p.Shots {
		if strings.TrimSpace(s.Player) == "" {
			return validationf("shot %d has no shooter", i)
		}
		switch s.ShotType {
		case models.ShotType2PT, models.ShotType3PT, models.ShotTypeFT:
		default:
			return validationf("shot %d has invalid type %q", i, s.ShotType)
		}
		want := 0
		if s.Made {
			want = models.PointValue(s.ShotType)
		}
		if s.Points != want {
			return validationf("shot %d points %d does not match %s/%v", i, s.Points, s.ShotType, s.Made)
		}
		if (s.X == nil) != (s.Y == nil) {
			return validationf("shot %d has a partial location", i)
		}
	}

	for i, e := range p.Events {
		switch e.EventType {
		case models.EventTurnover, models.EventSubIn, models.EventSubOut,
			models.EventQuarterChange, models.EventOpponentScore:
		default:
			return validationf("event %d has unknown type %q", i, e.EventType)
		}
	}
	return nil
}

func (ps *PlayerStatPayload) validate(name string) error {
	counts := map[string]int{
		"points": ps.Points, "fgm": ps.FGM, "fga": ps.FGA, "tpm": ps.TPM,
		"tpa": ps.TPA, "ftm": ps.FTM, "fta": ps.FTA, "oreb": ps.OffReb,
		"dreb": ps.DefReb, "ast": ps.Assists, "tov": ps.Turnovers,
		"stl": ps.Steals, "blk": ps.Blocks, "pf": ps.Fouls,
	}
	for stat, v := range counts {
		if v < 0 {
			return validationf("%s: %s cannot be negative", name, stat)
		}
	}
	if ps.FGM > ps.FGA || ps.TPM > ps.TPA || ps.FTM > ps.FTA {
		return validationf("%s: makes exceed attempts", name)
	}
	// Threes are a subset of field goals.
	if ps.TPM > ps.FGM || ps.TPA > ps.FGA {
		return validationf("%s: three-point line exceeds field-goal line", name)
	}
	return nil
}

// PayloadFromState converts a finalized tracker state into a submission.
func PayloadFromState(st tracker.State) GamePayload {
	p := GamePayload{
		Date:          st.Meta.Date,
		Opponent:      st.Meta.Opponent,
		GameType:      st.Meta.GameType,
		TeamScore:     st.TeamScore,
		OpponentScore: st.OpponentScore,
		Source:        models.GameSourceLive,
		PlayerStats:   make(map[string]PlayerStatPayload, len(st.Lines)),
	}

	for name, line := range st.Lines {
		// Bench players with no court time and no stats stay off the sheet.
		if *line == (tracker.PlayerLine{}) {
			continue
		}
		p.PlayerStats[utils.CanonicalName(name)] = PlayerStatPayload{
			SecondsPlayed: line.SecondsPlayed,
			Points:        line.Points,
			FGM:           line.FGM,
			FGA:           line.FGA,
			TPM:           line.TPM,
			TPA:           line.TPA,
			FTM:           line.FTM,
			FTA:           line.FTA,
			OffReb:        line.OffReb,
			DefReb:        line.DefReb,
			Assists:       line.Assists,
			Turnovers:     line.Turnovers,
			Steals:        line.Steals,
			Blocks:        line.Blocks,
			Fouls:         line.Fouls,
			PlusMinus:     line.PlusMinus,
		}
	}

	for _, e := range st.Log {
		switch e.Kind {
		case tracker.EntryShot:
			p.Shots = append(p.Shots, ShotPayload{
				Player:   utils.CanonicalName(e.Player),
				ShotType: e.ShotType,
				Made:     e.Made,
				Points:   e.Points,
				X:        e.X,
				Y:        e.Y,
				AssistBy: canonicalPtr(e.AssistBy),
				PlayID:   e.PlayID,
				Quarter:  e.Quarter,
				Clock:    e.Clock,
				Seq:      e.Seq,
			})
		case tracker.EntryTurnover:
			player := utils.CanonicalName(e.Player)
			p.Events = append(p.Events, EventPayload{
				EventType: models.EventTurnover,
				Player:    &player,
				PlayID:    e.PlayID,
				Quarter:   e.Quarter,
				Clock:     e.Clock,
				Seq:       e.Seq,
			})
		case tracker.EntrySubIn, tracker.EntrySubOut:
			player := utils.CanonicalName(e.Player)
			eventType := models.EventSubIn
			if e.Kind == tracker.EntrySubOut {
				eventType = models.EventSubOut
			}
			p.Events = append(p.Events, EventPayload{
				EventType: eventType,
				Player:    &player,
				Quarter:   e.Quarter,
				Clock:     e.Clock,
				Seq:       e.Seq,
			})
		case tracker.EntryQuarterChange:
			p.Events = append(p.Events, EventPayload{
				EventType: models.EventQuarterChange,
				Quarter:   e.Quarter,
				Clock:     e.Clock,
				Seq:       e.Seq,
				Detail:    e.Detail,
			})
		case tracker.EntryOpponentScore:
			p.Events = append(p.Events, EventPayload{
				EventType: models.EventOpponentScore,
				Quarter:   e.Quarter,
				Clock:     e.Clock,
				Seq:       e.Seq,
				Detail:    e.Detail,
			})
		}
	}
	return p
}

func canonicalPtr(name *string) *string {
	if name == nil {
		return nil
	}
	c := utils.CanonicalName(*name)
	return &c
}

// displayDate converts YYYY-MM-DD into the DD/MM/YYYY display form.
func displayDate(isoDate string) string {
	parts := strings.Split(isoDate, "-")
	if len(parts) != 3 {
		return isoDate
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}

// minutesDisplay is a tiny helper so all callers format identically.
func minutesDisplay(seconds int) string {
	return stats.FormatMinutes(seconds)
}
