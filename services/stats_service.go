package services

import (
	"sort"

	"courtside/models"
	"courtside/stats"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StatsService serves the read-only aggregation views. Rows are fetched
// through the ORM and grouped here, so the grouping logic is testable
// without a database and identical across endpoints.
type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

// UntaggedBucketName labels the group holding shots with no play reference.
const UntaggedBucketName = "Untagged"

// PlayBucket is one group in a play breakdown.
type PlayBucket struct {
	PlayID   *string `json:"play_id,omitempty"` // nil for the untagged bucket
	PlayName string  `json:"play_name"`
	Attempts int     `json:"attempts"`
	Made     int     `json:"made"`
	Missed   int     `json:"missed"`
	Points   int     `json:"points"`
	FGPct    float64 `json:"fg_pct"`
	PPA      float64 `json:"ppa"` // made per attempt
}

// PlayBreakdown is the per-game (or per-player) grouping result.
type PlayBreakdown struct {
	Buckets        []PlayBucket `json:"buckets"`
	TotalAttempts  int          `json:"total_attempts"`
	TaggedAttempts int          `json:"tagged_attempts"`
	PlayCoverage   float64      `json:"play_coverage"` // % of attempts carrying a tag
}

// buildPlayBreakdown groups shot events by play, including a distinct bucket
// for untagged attempts. Groups come back sorted by descending attempts
// (name ascending on ties, for stable output). Zero shots yields an empty
// bucket list and zero coverage, never an error.
func buildPlayBreakdown(shots []models.ShotEvent, playNames map[string]string) PlayBreakdown {
	type acc struct {
		playID *string
		name   string
		att    int
		made   int
		points int
	}
	groups := make(map[string]*acc)

	tagged := 0
	for _, shot := range shots {
		key := ""
		name := UntaggedBucketName
		var playID *string
		if shot.PlayID != nil {
			key = *shot.PlayID
			playID = shot.PlayID
			name = playNames[*shot.PlayID]
			if name == "" {
				name = "Unknown Play"
			}
			tagged++
		}
		g, ok := groups[key]
		if !ok {
			g = &acc{playID: playID, name: name}
			groups[key] = g
		}
		g.att++
		if shot.Result == models.ShotResultMade {
			g.made++
		}
		g.points += shot.Points
	}

	buckets := make([]PlayBucket, 0, len(groups))
	for _, g := range groups {
		buckets = append(buckets, PlayBucket{
			PlayID:   g.playID,
			PlayName: g.name,
			Attempts: g.att,
			Made:     g.made,
			Missed:   g.att - g.made,
			Points:   g.points,
			FGPct:    stats.Percentage(float64(g.made), float64(g.att)),
			PPA:      stats.Round(stats.SafeDivide(float64(g.made), float64(g.att), 0), 2),
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Attempts != buckets[j].Attempts {
			return buckets[i].Attempts > buckets[j].Attempts
		}
		return buckets[i].PlayName < buckets[j].PlayName
	})

	return PlayBreakdown{
		Buckets:        buckets,
		TotalAttempts:  len(shots),
		TaggedAttempts: tagged,
		PlayCoverage:   stats.Percentage(float64(tagged), float64(len(shots))),
	}
}

// PlayerRankEntry is one player's line under one play.
type PlayerRankEntry struct {
	PlayerName string  `json:"player_name"`
	Points     int     `json:"points"`
	Attempts   int     `json:"attempts"`
	Made       int     `json:"made"`
	FGPct      float64 `json:"fg_pct"`
	PPA        float64 `json:"ppa"`
}

// PlayRanking ranks every shooter under one play, best scorer first.
type PlayRanking struct {
	PlayID   string            `json:"play_id"`
	PlayName string            `json:"play_name"`
	Players  []PlayerRankEntry `json:"players"`
}

// buildPlayRankings lists, for each play attempted in the shot set, every
// player who shot under it, ranked by points (attempts, then name, break
// ties). Plays nobody attempted are omitted entirely.
func buildPlayRankings(shots []models.ShotEvent, playNames map[string]string) []PlayRanking {
	type key struct{ playID, player string }
	type acc struct {
		att    int
		made   int
		points int
	}
	byPlayer := make(map[key]*acc)
	playTotals := make(map[string]int)

	for _, shot := range shots {
		if shot.PlayID == nil {
			continue
		}
		k := key{*shot.PlayID, shot.PlayerName}
		g, ok := byPlayer[k]
		if !ok {
			g = &acc{}
			byPlayer[k] = g
		}
		g.att++
		if shot.Result == models.ShotResultMade {
			g.made++
		}
		g.points += shot.Points
		playTotals[*shot.PlayID]++
	}

	entries := make(map[string][]PlayerRankEntry)
	for k, g := range byPlayer {
		entries[k.playID] = append(entries[k.playID], PlayerRankEntry{
			PlayerName: k.player,
			Points:     g.points,
			Attempts:   g.att,
			Made:       g.made,
			FGPct:      stats.Percentage(float64(g.made), float64(g.att)),
			PPA:        stats.Round(stats.SafeDivide(float64(g.made), float64(g.att), 0), 2),
		})
	}

	rankings := make([]PlayRanking, 0, len(entries))
	for playID, players := range entries {
		sort.Slice(players, func(i, j int) bool {
			if players[i].Points != players[j].Points {
				return players[i].Points > players[j].Points
			}
			if players[i].Attempts != players[j].Attempts {
				return players[i].Attempts > players[j].Attempts
			}
			return players[i].PlayerName < players[j].PlayerName
		})
		name := playNames[playID]
		if name == "" {
			name = "Unknown Play"
		}
		rankings = append(rankings, PlayRanking{PlayID: playID, PlayName: name, Players: players})
	}
	sort.Slice(rankings, func(i, j int) bool {
		if playTotals[rankings[i].PlayID] != playTotals[rankings[j].PlayID] {
			return playTotals[rankings[i].PlayID] > playTotals[rankings[j].PlayID]
		}
		return rankings[i].PlayName < rankings[j].PlayName
	})
	return rankings
}

// playNameIndex loads id→name for every play.
func (s *StatsService) playNameIndex() (map[string]string, error) {
	var plays []models.Play
	if err := s.DB.Find(&plays).Error; err != nil {
		return nil, err
	}
	idx := make(map[string]string, len(plays))
	for _, p := range plays {
		idx[p.ID] = p.Name
	}
	return idx, nil
}

// GetGamePlayBreakdown serves GET /games/:id/plays/breakdown. A missing game
// is a 404; a game with no shots is an empty, valid breakdown.
func (s *StatsService) GetGamePlayBreakdown(c *fiber.Ctx) error {
	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		return respondError(c, err)
	}

	var shots []models.ShotEvent
	if err := s.DB.Where("game_id = ?", game.ID).Order("seq ASC").Find(&shots).Error; err != nil {
		return respondError(c, err)
	}
	names, err := s.playNameIndex()
	if err != nil {
		return respondError(c, err)
	}

	breakdown := buildPlayBreakdown(shots, names)
	return c.JSON(fiber.Map{
		"game":      game,
		"breakdown": breakdown,
	})
}

// GetPlayerPlayBreakdown serves GET /players/:name/plays/breakdown with an
// optional ?game_id= scope. Unknown players and unknown games are 404s,
// distinct from a known player with no shot events.
func (s *StatsService) GetPlayerPlayBreakdown(c *fiber.Ctx) error {
	player := c.Params("name")

	var known int64
	if err := s.DB.Model(&models.PlayerStat{}).
		Where("player_name = ?", player).Count(&known).Error; err != nil {
		return respondError(c, err)
	}
	if known == 0 {
		return respondError(c, gorm.ErrRecordNotFound)
	}

	q := s.DB.Where("player_name = ?", player)
	if gameID := c.Query("game_id"); gameID != "" {
		var game models.Game
		if err := s.DB.First(&game, "id = ?", gameID).Error; err != nil {
			return respondError(c, err)
		}
		q = q.Where("game_id = ?", gameID)
	}

	var shots []models.ShotEvent
	if err := q.Order("seq ASC").Find(&shots).Error; err != nil {
		return respondError(c, err)
	}
	names, err := s.playNameIndex()
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"player_name": player,
		"breakdown":   buildPlayBreakdown(shots, names),
	})
}

// GetPlayRankings serves GET /games/:id/plays/rankings.
func (s *StatsService) GetPlayRankings(c *fiber.Ctx) error {
	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		return respondError(c, err)
	}

	var shots []models.ShotEvent
	if err := s.DB.Where("game_id = ?", game.ID).Order("seq ASC").Find(&shots).Error; err != nil {
		return respondError(c, err)
	}
	names, err := s.playNameIndex()
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"game":     game,
		"rankings": buildPlayRankings(shots, names),
	})
}

// PlayerSeasonStats aggregates a player's lines across games.
type PlayerSeasonStats struct {
	PlayerName string  `json:"player_name"`
	Games      int     `json:"games"`
	Points     int     `json:"points"`
	Rebounds   int     `json:"rebounds"`
	Assists    int     `json:"assists"`
	Steals     int     `json:"steals"`
	Blocks     int     `json:"blocks"`
	Turnovers  int     `json:"turnovers"`
	PPG        float64 `json:"ppg"`
	RPG        float64 `json:"rpg"`
	APG        float64 `json:"apg"`
	FGPct      float64 `json:"fg_pct"`
	TPPct      float64 `json:"tp_pct"`
	FTPct      float64 `json:"ft_pct"`
	TSPct      float64 `json:"ts_pct"`
	EFGPct     float64 `json:"efg_pct"`
	Efficiency int     `json:"efficiency"`
}

// buildSeasonStats folds stat lines into one season row.
func buildSeasonStats(player string, lines []models.PlayerStat) PlayerSeasonStats {
	out := PlayerSeasonStats{PlayerName: player, Games: len(lines)}
	var fgm, fga, tpm, tpa, ftm, fta, oreb, dreb int
	for _, l := range lines {
		out.Points += l.Points
		out.Rebounds += l.Rebounds
		out.Assists += l.Assists
		out.Steals += l.Steals
		out.Blocks += l.Blocks
		out.Turnovers += l.Turnovers
		fgm += l.FGM
		fga += l.FGA
		tpm += l.TPM
		tpa += l.TPA
		ftm += l.FTM
		fta += l.FTA
		oreb += l.OffReb
		dreb += l.DefReb
	}
	games := float64(len(lines))
	out.PPG = stats.Round(stats.SafeDivide(float64(out.Points), games, 0), 1)
	out.RPG = stats.Round(stats.SafeDivide(float64(out.Rebounds), games, 0), 1)
	out.APG = stats.Round(stats.SafeDivide(float64(out.Assists), games, 0), 1)
	out.FGPct = stats.Percentage(float64(fgm), float64(fga))
	out.TPPct = stats.Percentage(float64(tpm), float64(tpa))
	out.FTPct = stats.Percentage(float64(ftm), float64(fta))
	out.TSPct = stats.TrueShootingPercent(out.Points, fga, fta)
	out.EFGPct = stats.EffectiveFGPercent(fgm, tpm, fga)
	out.Efficiency = stats.Efficiency(out.Points, out.Rebounds, out.Assists,
		out.Steals, out.Blocks, fgm, fga, ftm, fta, out.Turnovers)
	return out
}

// GetPlayerSeason serves GET /players/:name/season.
func (s *StatsService) GetPlayerSeason(c *fiber.Ctx) error {
	player := c.Params("name")

	var lines []models.PlayerStat
	if err := s.DB.Where("player_name = ?", player).Find(&lines).Error; err != nil {
		return respondError(c, err)
	}
	if len(lines) == 0 {
		return respondError(c, gorm.ErrRecordNotFound)
	}
	return c.JSON(buildSeasonStats(player, lines))
}

// TeamOverview is the season dashboard payload.
type TeamOverview struct {
	Games  int     `json:"games"`
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
	Ties   int     `json:"ties"`
	WinPct float64 `json:"win_pct"`
	PPG    float64 `json:"ppg"`
	OppPPG float64 `json:"opp_ppg"`

	Trend []TrendPoint `json:"trend"`
}

type TrendPoint struct {
	Date     string `json:"date"`
	Opponent string `json:"opponent"`
	Team     int    `json:"team_score"`
	Opp      int    `json:"opponent_score"`
	Result   string `json:"result"`
}

// GetTeamOverview serves GET /team/overview. Optional ?game_type= filter and
// ?limit= for the trend window.
func (s *StatsService) GetTeamOverview(c *fiber.Ctx) error {
	q := s.DB.Model(&models.Game{}).Order("sort_date ASC")
	if gt := c.Query("game_type"); gt != "" {
		q = q.Where("game_type = ?", gt)
	}

	var games []models.Game
	if err := q.Find(&games).Error; err != nil {
		return respondError(c, err)
	}

	overview := TeamOverview{Games: len(games), Trend: []TrendPoint{}}
	var teamPoints, oppPoints int
	for _, g := range games {
		teamPoints += g.TeamScore
		oppPoints += g.OpponentScore
		switch g.Result {
		case models.ResultWin:
			overview.Wins++
		case models.ResultLoss:
			overview.Losses++
		default:
			overview.Ties++
		}
	}
	overview.WinPct = stats.Percentage(float64(overview.Wins), float64(len(games)))
	overview.PPG = stats.Round(stats.SafeDivide(float64(teamPoints), float64(len(games)), 0), 1)
	overview.OppPPG = stats.Round(stats.SafeDivide(float64(oppPoints), float64(len(games)), 0), 1)

	trendGames := games
	if limit := c.QueryInt("limit"); limit > 0 && limit < len(games) {
		trendGames = games[len(games)-limit:]
	}
	for _, g := range trendGames {
		overview.Trend = append(overview.Trend, TrendPoint{
			Date:     g.Date,
			Opponent: g.Opponent,
			Team:     g.TeamScore,
			Opp:      g.OpponentScore,
			Result:   g.Result,
		})
	}
	return c.JSON(overview)
}
