package tracker

import (
	"errors"
	"testing"
	"time"

	"courtside/models"
)

var (
	testRoster   = []string{"Ana", "Bea", "Cam", "Dia", "Eva", "Fay", "Gia"}
	testStarters = []string{"Ana", "Bea", "Cam", "Dia", "Eva"}
)

func testMeta() GameMeta {
	return GameMeta{Date: "2026-03-14", Opponent: "Riverside", GameType: "Season"}
}

// newTestTracker builds a tracker on a controllable clock. Moving *now forward
// simulates wall time passing.
func newTestTracker(t *testing.T) (*Tracker, *time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	tr, err := New(testMeta(), testRoster, testStarters, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr, &now
}

func strPtr(s string) *string { return &s }

func f64Ptr(v float64) *float64 { return &v }

func TestNewRejectsBadLineups(t *testing.T) {
	if _, err := New(testMeta(), testRoster, testStarters[:4]); !errors.Is(err, ErrBadLineup) {
		t.Errorf("four starters: got %v, want ErrBadLineup", err)
	}
	bad := []string{"Ana", "Bea", "Cam", "Dia", "Nobody"}
	if _, err := New(testMeta(), testRoster, bad); !errors.Is(err, ErrBadLineup) {
		t.Errorf("starter off roster: got %v, want ErrBadLineup", err)
	}
}

func TestMadeShotFullFlow(t *testing.T) {
	tr, _ := newTestTracker(t)

	if err := tr.RecordShot("Ana", models.ShotType2PT, true); err != nil {
		t.Fatalf("RecordShot: %v", err)
	}
	if tr.Phase != PhaseAwaitingAssist {
		t.Fatalf("phase after made shot = %q, want awaiting_assist", tr.Phase)
	}
	// Counters and score land immediately, before the modal steps resolve.
	if line := tr.Lines["Ana"]; line.FGM != 1 || line.FGA != 1 || line.Points != 2 {
		t.Errorf("shooter line = %+v", *line)
	}
	if tr.TeamScore != 2 {
		t.Errorf("team score = %d, want 2", tr.TeamScore)
	}
	for _, p := range testStarters {
		if pm := tr.Lines[p].PlusMinus; pm != 2 {
			t.Errorf("%s plus-minus = %d, want 2", p, pm)
		}
	}
	if pm := tr.Lines["Fay"].PlusMinus; pm != 0 {
		t.Errorf("bench plus-minus = %d, want 0", pm)
	}

	if err := tr.ResolveAssist(strPtr("Bea")); err != nil {
		t.Fatalf("ResolveAssist: %v", err)
	}
	if tr.Lines["Bea"].Assists != 1 {
		t.Errorf("assister credited %d assists, want 1", tr.Lines["Bea"].Assists)
	}
	if tr.Phase != PhaseAwaitingLocation {
		t.Fatalf("phase after assist = %q", tr.Phase)
	}

	if err := tr.ResolveLocation(f64Ptr(0.3), f64Ptr(0.6)); err != nil {
		t.Fatalf("ResolveLocation: %v", err)
	}
	if tr.Phase != PhaseAwaitingPlayTag {
		t.Fatalf("phase after location = %q", tr.Phase)
	}
	if len(tr.Log) != 1 {
		t.Fatalf("log holds %d entries before tag, want 1", len(tr.Log))
	}

	playID := "play-123"
	if err := tr.ResolvePlayTag(&playID); err != nil {
		t.Fatalf("ResolvePlayTag: %v", err)
	}
	if tr.Phase != PhaseIdle {
		t.Fatalf("phase after tag = %q, want idle", tr.Phase)
	}

	// The tag amended the existing entry, it did not append a new one.
	if len(tr.Log) != 1 {
		t.Fatalf("log holds %d entries after tag, want 1", len(tr.Log))
	}
	e := tr.Log[0]
	if e.PlayID == nil || *e.PlayID != playID {
		t.Errorf("entry play tag = %v, want %q", e.PlayID, playID)
	}
	if e.AssistBy == nil || *e.AssistBy != "Bea" {
		t.Errorf("entry assist = %v, want Bea", e.AssistBy)
	}
	if e.Points != 2 || !e.Made || e.ShotType != models.ShotType2PT {
		t.Errorf("entry = %+v", e)
	}
}

func TestMissedShotReboundFlow(t *testing.T) {
	tr, _ := newTestTracker(t)

	if err := tr.RecordShot("Cam", models.ShotType3PT, false); err != nil {
		t.Fatalf("RecordShot: %v", err)
	}
	// A miss skips the assist step entirely.
	if tr.Phase != PhaseAwaitingLocation {
		t.Fatalf("phase after miss = %q, want awaiting_location", tr.Phase)
	}
	if line := tr.Lines["Cam"]; line.TPA != 1 || line.FGA != 1 || line.TPM != 0 || line.Points != 0 {
		t.Errorf("shooter line = %+v", *line)
	}
	if tr.TeamScore != 0 {
		t.Errorf("team score moved on a miss: %d", tr.TeamScore)
	}

	if err := tr.ResolveLocation(nil, nil); err != nil {
		t.Fatalf("ResolveLocation: %v", err)
	}
	if err := tr.ResolvePlayTag(nil); err != nil {
		t.Fatalf("ResolvePlayTag: %v", err)
	}
	if tr.Phase != PhaseAwaitingRebound {
		t.Fatalf("phase after untagged miss = %q, want awaiting_rebound", tr.Phase)
	}

	if err := tr.ResolveRebound(strPtr("Dia")); err != nil {
		t.Fatalf("ResolveRebound: %v", err)
	}
	if tr.Lines["Dia"].OffReb != 1 {
		t.Errorf("rebounder OffReb = %d, want 1", tr.Lines["Dia"].OffReb)
	}
	if tr.Phase != PhaseIdle {
		t.Fatalf("phase after rebound = %q, want idle", tr.Phase)
	}
	if e := tr.Log[0]; e.Made || e.Points != 0 || e.PlayID != nil {
		t.Errorf("miss entry = %+v", e)
	}
}

func TestFreeThrowScoresOne(t *testing.T) {
	tr, _ := newTestTracker(t)

	if err := tr.RecordShot("Eva", models.ShotTypeFT, true); err != nil {
		t.Fatalf("RecordShot: %v", err)
	}
	if line := tr.Lines["Eva"]; line.FTM != 1 || line.FTA != 1 || line.FGA != 0 || line.Points != 1 {
		t.Errorf("FT line = %+v", *line)
	}
	if tr.TeamScore != 1 {
		t.Errorf("team score = %d, want 1", tr.TeamScore)
	}
}

func TestPlayTaggingOffBypassesTagPhase(t *testing.T) {
	tr, _ := newTestTracker(t)
	tr.SetPlayTagging(false)

	if err := tr.RecordShot("Ana", models.ShotType2PT, true); err != nil {
		t.Fatalf("RecordShot: %v", err)
	}
	if err := tr.ResolveAssist(nil); err != nil {
		t.Fatalf("ResolveAssist: %v", err)
	}
	if err := tr.ResolveLocation(nil, nil); err != nil {
		t.Fatalf("ResolveLocation: %v", err)
	}
	// Made shot with tagging off goes straight back to idle, with the log
	// entry appended on the way. Counters and log must agree.
	if tr.Phase != PhaseIdle {
		t.Fatalf("phase = %q, want idle", tr.Phase)
	}
	if len(tr.Log) != 1 {
		t.Fatalf("log holds %d entries after bypass, want 1", len(tr.Log))
	}
	if tr.Lines["Ana"].FGM != 1 {
		t.Errorf("shooter FGM = %d, want 1", tr.Lines["Ana"].FGM)
	}
	if tr.Log[0].PlayID != nil {
		t.Errorf("bypassed entry carries a tag: %v", *tr.Log[0].PlayID)
	}

	// A miss with tagging off still asks about the rebound.
	if err := tr.RecordShot("Ana", models.ShotType2PT, false); err != nil {
		t.Fatalf("RecordShot miss: %v", err)
	}
	if err := tr.ResolveLocation(nil, nil); err != nil {
		t.Fatalf("ResolveLocation: %v", err)
	}
	if tr.Phase != PhaseAwaitingRebound {
		t.Fatalf("phase after bypassed miss = %q, want awaiting_rebound", tr.Phase)
	}
}

func TestLocationClamped(t *testing.T) {
	tr, _ := newTestTracker(t)

	if err := tr.RecordShot("Ana", models.ShotType2PT, false); err != nil {
		t.Fatalf("RecordShot: %v", err)
	}
	if err := tr.ResolveLocation(f64Ptr(-0.5), f64Ptr(1.7)); err != nil {
		t.Fatalf("ResolveLocation: %v", err)
	}
	e := tr.Log[0]
	if e.X == nil || *e.X != 0 || e.Y == nil || *e.Y != 1 {
		t.Errorf("clamped location = (%v, %v), want (0, 1)", e.X, e.Y)
	}
}

func TestAssistRules(t *testing.T) {
	tr, _ := newTestTracker(t)

	if err := tr.RecordShot("Ana", models.ShotType2PT, true); err != nil {
		t.Fatalf("RecordShot: %v", err)
	}
	if err := tr.ResolveAssist(strPtr("Ana")); !errors.Is(err, ErrSelfAssist) {
		t.Errorf("self assist: got %v, want ErrSelfAssist", err)
	}
	if err := tr.ResolveAssist(strPtr("Fay")); !errors.Is(err, ErrNotOnCourt) {
		t.Errorf("bench assist: got %v, want ErrNotOnCourt", err)
	}
	// Rejections leave the phase untouched, a valid resolve still works.
	if err := tr.ResolveAssist(strPtr("Bea")); err != nil {
		t.Fatalf("valid assist after rejections: %v", err)
	}
}

func TestWrongPhaseRejections(t *testing.T) {
	tr, _ := newTestTracker(t)

	if err := tr.Skip(); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("Skip while idle: got %v, want ErrWrongPhase", err)
	}
	if err := tr.ResolveAssist(nil); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("ResolveAssist while idle: got %v", err)
	}

	if err := tr.RecordShot("Ana", models.ShotType2PT, true); err != nil {
		t.Fatalf("RecordShot: %v", err)
	}
	if err := tr.RecordShot("Bea", models.ShotType2PT, true); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("shot during pending shot: got %v, want ErrWrongPhase", err)
	}
	if err := tr.RecordTurnover("Bea"); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("turnover during pending shot: got %v, want ErrWrongPhase", err)
	}
	if err := tr.Substitute("Ana", "Fay"); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("substitution during pending shot: got %v, want ErrWrongPhase", err)
	}
	if err := tr.AdvanceQuarter(); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("quarter change during pending shot: got %v, want ErrWrongPhase", err)
	}
}

func TestShotRequiresOnCourtPlayer(t *testing.T) {
	tr, _ := newTestTracker(t)

	if err := tr.RecordShot("Fay", models.ShotType2PT, true); !errors.Is(err, ErrNotOnCourt) {
		t.Errorf("bench shooter: got %v, want ErrNotOnCourt", err)
	}
	if err := tr.RecordShot("Stranger", models.ShotType2PT, true); !errors.Is(err, ErrNotOnCourt) {
		t.Errorf("unknown shooter: got %v, want ErrNotOnCourt", err)
	}
	if err := tr.RecordShot("Ana", "dunk", true); err == nil {
		t.Error("invalid shot type accepted")
	}
}

func TestTurnoverFlow(t *testing.T) {
	tr, _ := newTestTracker(t)

	if err := tr.RecordTurnover("Bea"); err != nil {
		t.Fatalf("RecordTurnover: %v", err)
	}
	// Entry lands immediately, before the tag resolves.
	if len(tr.Log) != 1 || tr.Log[0].Kind != EntryTurnover {
		t.Fatalf("log after turnover = %+v", tr.Log)
	}
	if tr.Lines["Bea"].Turnovers != 1 {
		t.Errorf("turnovers = %d, want exactly 1", tr.Lines["Bea"].Turnovers)
	}
	if tr.Phase != PhaseAwaitingPlayTag {
		t.Fatalf("phase = %q, want awaiting_play_tag", tr.Phase)
	}

	playID := "play-9"
	if err := tr.ResolvePlayTag(&playID); err != nil {
		t.Fatalf("ResolvePlayTag: %v", err)
	}
	if tr.Lines["Bea"].Turnovers != 1 {
		t.Errorf("tagging changed the counter: %d", tr.Lines["Bea"].Turnovers)
	}
	if got := tr.Log[0].PlayID; got == nil || *got != playID {
		t.Errorf("turnover tag = %v, want %q", got, playID)
	}
}

func TestTurnoverWithTaggingOff(t *testing.T) {
	tr, _ := newTestTracker(t)
	tr.SetPlayTagging(false)

	if err := tr.RecordTurnover("Bea"); err != nil {
		t.Fatalf("RecordTurnover: %v", err)
	}
	if tr.Phase != PhaseIdle {
		t.Fatalf("phase = %q, want idle", tr.Phase)
	}
	if len(tr.Log) != 1 {
		t.Fatalf("log holds %d entries, want 1", len(tr.Log))
	}
}

func TestOpponentScorePlusMinus(t *testing.T) {
	tr, _ := newTestTracker(t)

	if err := tr.RecordOpponentScore(3); err != nil {
		t.Fatalf("RecordOpponentScore: %v", err)
	}
	if tr.OpponentScore != 3 {
		t.Errorf("opponent score = %d, want 3", tr.OpponentScore)
	}
	for _, p := range testStarters {
		if pm := tr.Lines[p].PlusMinus; pm != -3 {
			t.Errorf("%s plus-minus = %d, want -3", p, pm)
		}
	}
	if pm := tr.Lines["Gia"].PlusMinus; pm != 0 {
		t.Errorf("bench plus-minus = %d, want 0", pm)
	}

	for _, pts := range []int{0, 4, -1} {
		if err := tr.RecordOpponentScore(pts); err == nil {
			t.Errorf("opponent score of %d accepted", pts)
		}
	}
}

func TestSubstitutionAndMinutes(t *testing.T) {
	tr, now := newTestTracker(t)

	if err := tr.StartClock(); err != nil {
		t.Fatalf("StartClock: %v", err)
	}
	*now = now.Add(90 * time.Second)

	if err := tr.Substitute("Eva", "Fay"); err != nil {
		t.Fatalf("Substitute: %v", err)
	}
	// The outgoing player is credited up to the swap, the incoming one starts
	// from zero.
	if got := tr.Lines["Eva"].SecondsPlayed; got != 90 {
		t.Errorf("outgoing minutes = %ds, want 90s", got)
	}
	if got := tr.Lines["Fay"].SecondsPlayed; got != 0 {
		t.Errorf("incoming minutes = %ds, want 0s", got)
	}

	*now = now.Add(30 * time.Second)
	if err := tr.StopClock(); err != nil {
		t.Fatalf("StopClock: %v", err)
	}
	if got := tr.Lines["Fay"].SecondsPlayed; got != 30 {
		t.Errorf("incoming minutes after stop = %ds, want 30s", got)
	}
	if got := tr.Lines["Eva"].SecondsPlayed; got != 90 {
		t.Errorf("benched player kept accruing: %ds", got)
	}

	// Both sub entries land in the log.
	var kinds []EntryKind
	for _, e := range tr.Log {
		kinds = append(kinds, e.Kind)
	}
	if len(kinds) != 2 || kinds[0] != EntrySubOut || kinds[1] != EntrySubIn {
		t.Errorf("log kinds = %v", kinds)
	}
}

func TestSubstitutionRules(t *testing.T) {
	tr, _ := newTestTracker(t)

	if err := tr.Substitute("Fay", "Gia"); !errors.Is(err, ErrNotOnCourt) {
		t.Errorf("bench-for-bench: got %v, want ErrNotOnCourt", err)
	}
	if err := tr.Substitute("Ana", "Bea"); err == nil {
		t.Error("swapping in an on-court player accepted")
	}
	if err := tr.Substitute("Ana", "Stranger"); !errors.Is(err, ErrNotOnRoster) {
		t.Errorf("unknown player in: got %v, want ErrNotOnRoster", err)
	}
}

func TestAdvanceQuarter(t *testing.T) {
	tr, now := newTestTracker(t)

	if err := tr.StartClock(); err != nil {
		t.Fatalf("StartClock: %v", err)
	}
	*now = now.Add(600 * time.Second)

	if err := tr.AdvanceQuarter(); err != nil {
		t.Fatalf("AdvanceQuarter: %v", err)
	}
	if tr.Quarter != 2 {
		t.Errorf("quarter = %d, want 2", tr.Quarter)
	}
	if tr.ClockRunning {
		t.Error("clock still running after quarter change")
	}
	if tr.ClockSeconds != 0 {
		t.Errorf("clock position = %d, want reset to 0", tr.ClockSeconds)
	}
	if got := tr.Lines["Ana"].SecondsPlayed; got != 600 {
		t.Errorf("minutes lost at quarter change: %ds, want 600s", got)
	}
	last := tr.Log[len(tr.Log)-1]
	if last.Kind != EntryQuarterChange || last.Quarter != 1 {
		t.Errorf("quarter entry = %+v", last)
	}
}

func TestClockStartStopGuards(t *testing.T) {
	tr, _ := newTestTracker(t)

	if err := tr.StopClock(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("stop while stopped: got %v, want ErrNotRunning", err)
	}
	if err := tr.StartClock(); err != nil {
		t.Fatalf("StartClock: %v", err)
	}
	if err := tr.StartClock(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("double start: got %v, want ErrAlreadyStarted", err)
	}
}

func TestAdjustStat(t *testing.T) {
	tr, _ := newTestTracker(t)

	if err := tr.AdjustStat("Ana", StatSteals, 1); err != nil {
		t.Fatalf("AdjustStat: %v", err)
	}
	if tr.Lines["Ana"].Steals != 1 {
		t.Errorf("steals = %d, want 1", tr.Lines["Ana"].Steals)
	}

	// Decrements that would go negative are silent no-ops.
	if err := tr.AdjustStat("Ana", StatBlocks, -1); err != nil {
		t.Fatalf("AdjustStat decrement: %v", err)
	}
	if tr.Lines["Ana"].Blocks != 0 {
		t.Errorf("blocks = %d, want 0 after no-op decrement", tr.Lines["Ana"].Blocks)
	}

	// Bench players can be corrected too.
	if err := tr.AdjustStat("Gia", StatFouls, 2); err != nil {
		t.Fatalf("AdjustStat bench: %v", err)
	}
	if tr.Lines["Gia"].Fouls != 2 {
		t.Errorf("bench fouls = %d, want 2", tr.Lines["Gia"].Fouls)
	}

	if err := tr.AdjustStat("Ana", "points", 2); !errors.Is(err, ErrUnknownStat) {
		t.Errorf("unknown stat: got %v, want ErrUnknownStat", err)
	}
	if err := tr.AdjustStat("Stranger", StatSteals, 1); !errors.Is(err, ErrNotOnRoster) {
		t.Errorf("unknown player: got %v, want ErrNotOnRoster", err)
	}
}

func TestFinalizeResolvesPendingAndKeepsState(t *testing.T) {
	tr, now := newTestTracker(t)

	if err := tr.StartClock(); err != nil {
		t.Fatalf("StartClock: %v", err)
	}
	*now = now.Add(120 * time.Second)

	// Leave a shot half-resolved, then finalize.
	if err := tr.RecordShot("Ana", models.ShotType2PT, false); err != nil {
		t.Fatalf("RecordShot: %v", err)
	}
	st := tr.Finalize()

	if st.Phase != PhaseIdle || st.Pending != nil {
		t.Errorf("finalized phase = %q, pending = %+v", st.Phase, st.Pending)
	}
	if st.ClockRunning {
		t.Error("finalized state has a running clock")
	}
	if len(st.Log) != 1 {
		t.Errorf("pending shot not flushed to log: %d entries", len(st.Log))
	}
	if got := st.Lines["Ana"].SecondsPlayed; got != 120 {
		t.Errorf("finalized minutes = %ds, want 120s", got)
	}

	// The live tracker keeps its state so a failed submission can retry.
	if tr.Phase != PhaseIdle || len(tr.Log) != 1 {
		t.Errorf("tracker state lost after finalize: phase %q, %d entries", tr.Phase, len(tr.Log))
	}

	// The returned state is a copy, not a view.
	st.Lines["Ana"].Points = 99
	if tr.Lines["Ana"].Points == 99 {
		t.Error("finalized state aliases live state")
	}
}

func TestResumeRoundTrip(t *testing.T) {
	tr, _ := newTestTracker(t)

	if err := tr.RecordShot("Ana", models.ShotType2PT, true); err != nil {
		t.Fatalf("RecordShot: %v", err)
	}
	st := tr.Clone()

	resumed := Resume(st)
	if resumed.Phase != PhaseAwaitingAssist {
		t.Errorf("resumed phase = %q, want awaiting_assist", resumed.Phase)
	}
	if err := resumed.ResolveAssist(strPtr("Bea")); err != nil {
		t.Fatalf("resumed tracker cannot continue the workflow: %v", err)
	}
}

func TestSequenceNumbersAreMonotonic(t *testing.T) {
	tr, _ := newTestTracker(t)

	actions := []func() error{
		func() error { return tr.RecordTurnover("Ana") },
		func() error { return tr.Skip() },
		func() error { return tr.RecordOpponentScore(2) },
		func() error { return tr.Substitute("Ana", "Fay") },
	}
	for i, fn := range actions {
		if err := fn(); err != nil {
			t.Fatalf("action %d: %v", i, err)
		}
	}

	for i := 1; i < len(tr.Log); i++ {
		if tr.Log[i].Seq <= tr.Log[i-1].Seq {
			t.Fatalf("seq not increasing at %d: %d then %d", i, tr.Log[i-1].Seq, tr.Log[i].Seq)
		}
	}
}
