package services

import (
	"testing"

	"courtside/models"
)

func tag(id string) *string { return &id }

func shot(player, playID string, made bool, points int) models.ShotEvent {
	s := models.ShotEvent{
		PlayerName: player,
		ShotType:   models.ShotType2PT,
		Result:     models.ShotResultMissed,
		Points:     points,
	}
	if made {
		s.Result = models.ShotResultMade
	}
	if playID != "" {
		s.PlayID = tag(playID)
	}
	return s
}

func TestBuildPlayBreakdown(t *testing.T) {
	names := map[string]string{"p1": "Pick and Roll"}
	shots := []models.ShotEvent{
		shot("Ana", "p1", true, 2),
		shot("Bea", "p1", true, 2),
		shot("Cam", "", false, 0),
	}

	b := buildPlayBreakdown(shots, names)

	if b.TotalAttempts != 3 || b.TaggedAttempts != 2 {
		t.Errorf("attempts = %d total / %d tagged, want 3 / 2", b.TotalAttempts, b.TaggedAttempts)
	}
	if b.PlayCoverage != 66.7 {
		t.Errorf("coverage = %v, want 66.7", b.PlayCoverage)
	}
	if len(b.Buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(b.Buckets))
	}

	pr := b.Buckets[0]
	if pr.PlayName != "Pick and Roll" || pr.Attempts != 2 || pr.Made != 2 ||
		pr.Points != 4 || pr.FGPct != 100 || pr.PPA != 1 {
		t.Errorf("tagged bucket = %+v", pr)
	}
	if pr.PlayID == nil || *pr.PlayID != "p1" {
		t.Errorf("tagged bucket play id = %v", pr.PlayID)
	}

	un := b.Buckets[1]
	if un.PlayName != UntaggedBucketName || un.Attempts != 1 || un.Made != 0 ||
		un.Missed != 1 || un.FGPct != 0 || un.PPA != 0 {
		t.Errorf("untagged bucket = %+v", un)
	}
	if un.PlayID != nil {
		t.Errorf("untagged bucket carries a play id: %v", *un.PlayID)
	}
}

func TestBuildPlayBreakdownEmpty(t *testing.T) {
	b := buildPlayBreakdown(nil, nil)
	if len(b.Buckets) != 0 || b.TotalAttempts != 0 || b.PlayCoverage != 0 {
		t.Errorf("empty breakdown = %+v", b)
	}
}

func TestBuildPlayBreakdownOrdering(t *testing.T) {
	names := map[string]string{"a": "Horns", "b": "Floppy", "c": "Iso"}
	shots := []models.ShotEvent{
		shot("Ana", "c", false, 0),
		shot("Ana", "a", true, 2),
		shot("Ana", "a", false, 0),
		shot("Ana", "b", false, 0),
		shot("Ana", "b", true, 2),
	}

	b := buildPlayBreakdown(shots, names)
	got := make([]string, len(b.Buckets))
	for i, bucket := range b.Buckets {
		got[i] = bucket.PlayName
	}
	// Attempts descending; equal attempts break on name ascending.
	want := []string{"Floppy", "Horns", "Iso"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bucket order = %v, want %v", got, want)
		}
	}
}

func TestBuildPlayBreakdownUnknownPlayName(t *testing.T) {
	shots := []models.ShotEvent{shot("Ana", "deleted-play", true, 2)}
	b := buildPlayBreakdown(shots, map[string]string{})
	if b.Buckets[0].PlayName != "Unknown Play" {
		t.Errorf("bucket name = %q", b.Buckets[0].PlayName)
	}
}

func TestBuildPlayRankings(t *testing.T) {
	names := map[string]string{"p1": "Pick and Roll", "p2": "Iso"}
	shots := []models.ShotEvent{
		shot("Ana", "p1", true, 2),
		shot("Ana", "p1", true, 2),
		shot("Bea", "p1", true, 2),
		shot("Bea", "p1", false, 0),
		shot("Cam", "p2", false, 0),
		shot("Ana", "", true, 2), // untagged shots never rank
	}

	rankings := buildPlayRankings(shots, names)
	if len(rankings) != 2 {
		t.Fatalf("got %d rankings, want 2", len(rankings))
	}

	// Plays come back busiest first.
	if rankings[0].PlayName != "Pick and Roll" || rankings[1].PlayName != "Iso" {
		t.Errorf("play order = [%s, %s]", rankings[0].PlayName, rankings[1].PlayName)
	}

	pr := rankings[0].Players
	if len(pr) != 2 {
		t.Fatalf("got %d players under Pick and Roll, want 2", len(pr))
	}
	if pr[0].PlayerName != "Ana" || pr[0].Points != 4 || pr[0].PPA != 1 {
		t.Errorf("top scorer = %+v", pr[0])
	}
	if pr[1].PlayerName != "Bea" || pr[1].Points != 2 || pr[1].FGPct != 50 {
		t.Errorf("runner-up = %+v", pr[1])
	}
}

func TestBuildPlayRankingsTieBreaks(t *testing.T) {
	names := map[string]string{"p1": "Horns"}
	shots := []models.ShotEvent{
		// Same points; higher volume ranks first.
		shot("Ana", "p1", true, 2),
		shot("Bea", "p1", true, 2),
		shot("Bea", "p1", false, 0),
		// Same points and attempts as Ana; name breaks the tie.
		shot("Abe", "p1", true, 2),
	}

	players := buildPlayRankings(shots, names)[0].Players
	got := make([]string, len(players))
	for i, p := range players {
		got[i] = p.PlayerName
	}
	want := []string{"Bea", "Abe", "Ana"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking order = %v, want %v", got, want)
		}
	}
}

func TestBuildPlayRankingsEmpty(t *testing.T) {
	if got := buildPlayRankings(nil, nil); len(got) != 0 {
		t.Errorf("rankings of no shots = %v", got)
	}
	// All-untagged shot sets rank nothing either.
	untagged := []models.ShotEvent{shot("Ana", "", true, 2)}
	if got := buildPlayRankings(untagged, nil); len(got) != 0 {
		t.Errorf("rankings of untagged shots = %v", got)
	}
}

func TestBuildSeasonStats(t *testing.T) {
	lines := []models.PlayerStat{
		{
			Points: 20, Rebounds: 8, Assists: 4, Steals: 2, Blocks: 1, Turnovers: 3,
			FGM: 8, FGA: 15, TPM: 2, TPA: 5, FTM: 2, FTA: 4, OffReb: 3, DefReb: 5,
		},
		{
			Points: 10, Rebounds: 4, Assists: 6, Steals: 0, Blocks: 0, Turnovers: 1,
			FGM: 4, FGA: 10, TPM: 0, TPA: 2, FTM: 2, FTA: 2, OffReb: 1, DefReb: 3,
		},
	}

	s := buildSeasonStats("Ana", lines)
	if s.Games != 2 || s.Points != 30 || s.Rebounds != 12 || s.Assists != 10 {
		t.Errorf("totals = %+v", s)
	}
	if s.PPG != 15 || s.RPG != 6 || s.APG != 5 {
		t.Errorf("per-game = PPG %v RPG %v APG %v", s.PPG, s.RPG, s.APG)
	}
	if s.FGPct != 48 { // 12/25
		t.Errorf("FG%% = %v, want 48", s.FGPct)
	}
	if s.FTPct != 66.7 { // 4/6
		t.Errorf("FT%% = %v, want 66.7", s.FTPct)
	}
	// 30 / (2 * (25 + 0.44*6)) = 54.3
	if s.TSPct != 54.3 {
		t.Errorf("TS%% = %v, want 54.3", s.TSPct)
	}
}

func TestBuildSeasonStatsNoGames(t *testing.T) {
	s := buildSeasonStats("Ana", nil)
	if s.Games != 0 || s.PPG != 0 || s.FGPct != 0 {
		t.Errorf("empty season = %+v", s)
	}
}
