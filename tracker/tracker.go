// Package tracker implements the live-game tracking state machine: it turns a
// stream of bench-side inputs (shots, turnovers, substitutions, clock and
// quarter changes) into an ordered event log plus running per-player
// aggregates. The modal workflow around a shot attempt (assist, court
// location, play tag, rebound) is modeled as explicit phases with a single
// pending action, so the sequence is testable without a UI.
package tracker

import (
	"errors"
	"fmt"
	"time"

	"courtside/models"
	"courtside/stats"

	"github.com/google/uuid"
)

// Phase is the tracker's position in the shot/turnover workflow.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseAwaitingAssist   Phase = "awaiting_assist"
	PhaseAwaitingLocation Phase = "awaiting_location"
	PhaseAwaitingPlayTag  Phase = "awaiting_play_tag"
	PhaseAwaitingRebound  Phase = "awaiting_rebound"
)

var (
	ErrWrongPhase     = errors.New("tracker: action not valid in current phase")
	ErrNotOnCourt     = errors.New("tracker: player is not on the court")
	ErrNotOnRoster    = errors.New("tracker: player is not on the roster")
	ErrBadLineup      = errors.New("tracker: lineup must hold exactly five roster players")
	ErrUnknownStat    = errors.New("tracker: unknown stat key")
	ErrSelfAssist     = errors.New("tracker: shooter cannot assist their own shot")
	ErrAlreadyStarted = errors.New("tracker: clock already running")
	ErrNotRunning     = errors.New("tracker: clock is not running")
)

// EntryKind tags event-log entries.
type EntryKind string

const (
	EntryShot          EntryKind = "shot"
	EntryTurnover      EntryKind = "turnover"
	EntrySubIn         EntryKind = "sub_in"
	EntrySubOut        EntryKind = "sub_out"
	EntryQuarterChange EntryKind = "quarter_change"
	EntryOpponentScore EntryKind = "opponent_score"
)

// LogEntry is one record in the session's event log. Entries are appended in
// occurrence order and, except for the play tag, never modified afterward.
type LogEntry struct {
	ID       string    `json:"id"`
	Kind     EntryKind `json:"kind"`
	Player   string    `json:"player,omitempty"`
	ShotType string    `json:"shot_type,omitempty"`
	Made     bool      `json:"made,omitempty"`
	Points   int       `json:"points"`
	X        *float64  `json:"x,omitempty"`
	Y        *float64  `json:"y,omitempty"`
	AssistBy *string   `json:"assist_by,omitempty"`
	PlayID   *string   `json:"play_id,omitempty"`
	Quarter  int       `json:"quarter"`
	Clock    string    `json:"clock"`
	Seq      int       `json:"seq"`
	Detail   string    `json:"detail,omitempty"`
}

// PlayerLine is the running aggregate for one player.
type PlayerLine struct {
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

// Pending is the one in-flight modal action. Exactly one of the shot or
// turnover workflows can be pending; a tagged kind replaces the
// several-nullable-fields pattern that made the old tracker easy to desync.
type Pending struct {
	Kind     EntryKind `json:"kind"` // EntryShot or EntryTurnover
	EntryID  string    `json:"entry_id,omitempty"`
	Player   string    `json:"player"`
	ShotType string    `json:"shot_type,omitempty"`
	Made     bool      `json:"made,omitempty"`
	AssistBy *string   `json:"assist_by,omitempty"`
	X        *float64  `json:"x,omitempty"`
	Y        *float64  `json:"y,omitempty"`
}

// GameMeta describes the game being tracked.
type GameMeta struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Opponent string `json:"opponent"`
	GameType string `json:"game_type"`
}

// State is the full serializable tracker state: everything needed to resume a
// session after a crash or to take a snapshot.
type State struct {
	Meta    GameMeta               `json:"meta"`
	Roster  []string               `json:"roster"`
	OnCourt []string               `json:"on_court"`
	Lines   map[string]*PlayerLine `json:"lines"`
	Log     []LogEntry             `json:"log"`

	Quarter        int        `json:"quarter"`
	ClockSeconds   int        `json:"clock_seconds"` // elapsed within the quarter
	ClockRunning   bool       `json:"clock_running"`
	ClockStartedAt *time.Time `json:"clock_started_at,omitempty"`

	TeamScore     int `json:"team_score"`
	OpponentScore int `json:"opponent_score"`

	PlayTagging bool     `json:"play_tagging"`
	Phase       Phase    `json:"phase"`
	Pending     *Pending `json:"pending,omitempty"`
	Seq         int      `json:"seq"`
}

// Tracker drives a single live session. Not safe for concurrent use; the
// session layer serializes access (one bench, one writer).
type Tracker struct {
	State
	now func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New starts a session with the given roster and starting five.
func New(meta GameMeta, roster []string, starters []string, opts ...Option) (*Tracker, error) {
	if len(starters) != 5 {
		return nil, ErrBadLineup
	}
	onRoster := make(map[string]bool, len(roster))
	for _, p := range roster {
		onRoster[p] = true
	}
	lines := make(map[string]*PlayerLine, len(roster))
	for _, p := range roster {
		lines[p] = &PlayerLine{}
	}
	for _, p := range starters {
		if !onRoster[p] {
			return nil, fmt.Errorf("%w: starter %q", ErrBadLineup, p)
		}
	}

	t := &Tracker{
		State: State{
			Meta:        meta,
			Roster:      append([]string(nil), roster...),
			OnCourt:     append([]string(nil), starters...),
			Lines:       lines,
			Quarter:     1,
			PlayTagging: true,
			Phase:       PhaseIdle,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Resume rebuilds a Tracker from persisted state.
func Resume(st State, opts ...Option) *Tracker {
	t := &Tracker{State: st, now: time.Now}
	if t.Phase == "" {
		t.Phase = PhaseIdle
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Clone returns a deep copy of the current state.
func (t *Tracker) Clone() State {
	st := t.State
	st.Roster = append([]string(nil), t.Roster...)
	st.OnCourt = append([]string(nil), t.OnCourt...)
	st.Log = append([]LogEntry(nil), t.Log...)
	st.Lines = make(map[string]*PlayerLine, len(t.Lines))
	for name, line := range t.Lines {
		cp := *line
		st.Lines[name] = &cp
	}
	if t.Pending != nil {
		cp := *t.Pending
		st.Pending = &cp
	}
	if t.ClockStartedAt != nil {
		ts := *t.ClockStartedAt
		st.ClockStartedAt = &ts
	}
	return st
}

func (t *Tracker) onCourt(player string) bool {
	for _, p := range t.OnCourt {
		if p == player {
			return true
		}
	}
	return false
}

func (t *Tracker) line(player string) *PlayerLine {
	if l, ok := t.Lines[player]; ok {
		return l
	}
	l := &PlayerLine{}
	t.Lines[player] = l
	return l
}

// clockString renders the current game-clock position.
func (t *Tracker) clockString() string {
	secs := t.ClockSeconds
	if t.ClockRunning && t.ClockStartedAt != nil {
		secs += int(t.now().Sub(*t.ClockStartedAt).Seconds())
	}
	return stats.FormatMinutes(secs)
}

// foldClock credits elapsed playing time to the on-court five and advances
// the clock position. No-op when the clock is stopped.
func (t *Tracker) foldClock() {
	if !t.ClockRunning || t.ClockStartedAt == nil {
		return
	}
	now := t.now()
	elapsed := int(now.Sub(*t.ClockStartedAt).Seconds())
	if elapsed > 0 {
		t.ClockSeconds += elapsed
		for _, p := range t.OnCourt {
			t.line(p).SecondsPlayed += elapsed
		}
	}
	t.ClockStartedAt = &now
}

func (t *Tracker) append(e LogEntry) string {
	t.Seq++
	e.ID = uuid.NewString()
	e.Seq = t.Seq
	e.Quarter = t.Quarter
	e.Clock = t.clockString()
	t.Log = append(t.Log, e)
	return e.ID
}

// entryByID finds a log entry by the identifier captured at append time.
// Tag write-back goes through here, never through "the last entry".
func (t *Tracker) entryByID(id string) *LogEntry {
	for i := range t.Log {
		if t.Log[i].ID == id {
			return &t.Log[i]
		}
	}
	return nil
}

// StartClock starts the game clock.
func (t *Tracker) StartClock() error {
	if t.ClockRunning {
		return ErrAlreadyStarted
	}
	now := t.now()
	t.ClockRunning = true
	t.ClockStartedAt = &now
	return nil
}

// StopClock stops the game clock, folding elapsed time into player minutes.
// A checkpoint for the snapshot layer.
func (t *Tracker) StopClock() error {
	if !t.ClockRunning {
		return ErrNotRunning
	}
	t.foldClock()
	t.ClockRunning = false
	t.ClockStartedAt = nil
	return nil
}

// SetPlayTagging flips the play-tag toggle. When off, the tag phase is
// bypassed and tags resolve to none.
func (t *Tracker) SetPlayTagging(on bool) {
	t.PlayTagging = on
}

// RecordShot begins the shot workflow for an on-court player. The shooter's
// attempt/make counters, points and the lineup's plus-minus update
// immediately; the log entry is appended once the location step resolves.
func (t *Tracker) RecordShot(player, shotType string, made bool) error {
	if t.Phase != PhaseIdle {
		return ErrWrongPhase
	}
	if !t.onCourt(player) {
		return ErrNotOnCourt
	}
	switch shotType {
	case models.ShotType2PT, models.ShotType3PT, models.ShotTypeFT:
	default:
		return fmt.Errorf("tracker: invalid shot type %q", shotType)
	}

	line := t.line(player)
	switch shotType {
	case models.ShotType3PT:
		line.TPA++
		line.FGA++
	case models.ShotTypeFT:
		line.FTA++
	default:
		line.FGA++
	}

	if made {
		points := models.PointValue(shotType)
		switch shotType {
		case models.ShotType3PT:
			line.TPM++
			line.FGM++
		case models.ShotTypeFT:
			line.FTM++
		default:
			line.FGM++
		}
		line.Points += points
		t.TeamScore += points
		for _, p := range t.OnCourt {
			t.line(p).PlusMinus += points
		}
	}

	t.Pending = &Pending{
		Kind:     EntryShot,
		Player:   player,
		ShotType: shotType,
		Made:     made,
	}
	if made {
		t.Phase = PhaseAwaitingAssist
	} else {
		t.Phase = PhaseAwaitingLocation
	}
	return nil
}

// ResolveAssist credits the assisting player, or records no assist when nil.
func (t *Tracker) ResolveAssist(player *string) error {
	if t.Phase != PhaseAwaitingAssist || t.Pending == nil {
		return ErrWrongPhase
	}
	if player != nil {
		if *player == t.Pending.Player {
			return ErrSelfAssist
		}
		if !t.onCourt(*player) {
			return ErrNotOnCourt
		}
		t.line(*player).Assists++
		t.Pending.AssistBy = player
	}
	t.Phase = PhaseAwaitingLocation
	return nil
}

// clamp01 pins a coordinate into the unit square.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ResolveLocation records the court location (unit-square fractions, clamped)
// or skips it when both are nil. This is the point where the log entry is
// appended, before the play-tag phase, so a later tag amends this entry.
func (t *Tracker) ResolveLocation(x, y *float64) error {
	if t.Phase != PhaseAwaitingLocation || t.Pending == nil {
		return ErrWrongPhase
	}
	if x != nil && y != nil {
		cx, cy := clamp01(*x), clamp01(*y)
		t.Pending.X = &cx
		t.Pending.Y = &cy
	}

	points := 0
	if t.Pending.Made {
		points = models.PointValue(t.Pending.ShotType)
	}
	t.Pending.EntryID = t.append(LogEntry{
		Kind:     EntryShot,
		Player:   t.Pending.Player,
		ShotType: t.Pending.ShotType,
		Made:     t.Pending.Made,
		Points:   points,
		X:        t.Pending.X,
		Y:        t.Pending.Y,
		AssistBy: t.Pending.AssistBy,
	})

	if t.PlayTagging {
		t.Phase = PhaseAwaitingPlayTag
		return nil
	}
	return t.resolvePlayTagBypassed()
}

// ResolvePlayTag writes the tag back into the entry appended at the location
// step, resolved by its identifier. nil records the shot as untagged.
func (t *Tracker) ResolvePlayTag(playID *string) error {
	if t.Phase != PhaseAwaitingPlayTag || t.Pending == nil {
		return ErrWrongPhase
	}
	if playID != nil {
		if e := t.entryByID(t.Pending.EntryID); e != nil {
			e.PlayID = playID
		}
	}
	t.afterTag()
	return nil
}

// resolvePlayTagBypassed advances past the tag phase without showing it, used
// when the toggle is off. Only reachable from ResolveLocation, after the log
// entry has been appended.
func (t *Tracker) resolvePlayTagBypassed() error {
	if t.Pending == nil || t.Pending.EntryID == "" {
		return ErrWrongPhase
	}
	t.afterTag()
	return nil
}

func (t *Tracker) afterTag() {
	if t.Pending.Kind == EntryShot && !t.Pending.Made {
		t.Phase = PhaseAwaitingRebound
		return
	}
	t.Pending = nil
	t.Phase = PhaseIdle
}

// ResolveRebound attributes the board after a missed team shot to an
// on-court teammate (an offensive rebound), or to nobody when nil.
func (t *Tracker) ResolveRebound(player *string) error {
	if t.Phase != PhaseAwaitingRebound || t.Pending == nil {
		return ErrWrongPhase
	}
	if player != nil {
		if !t.onCourt(*player) {
			return ErrNotOnCourt
		}
		t.line(*player).OffReb++
	}
	t.Pending = nil
	t.Phase = PhaseIdle
	return nil
}

// Skip resolves whatever step is pending with a null value. The workflow can
// always move forward; no state waits indefinitely on a choice.
func (t *Tracker) Skip() error {
	switch t.Phase {
	case PhaseAwaitingAssist:
		return t.ResolveAssist(nil)
	case PhaseAwaitingLocation:
		return t.ResolveLocation(nil, nil)
	case PhaseAwaitingPlayTag:
		return t.ResolvePlayTag(nil)
	case PhaseAwaitingRebound:
		return t.ResolveRebound(nil)
	default:
		return ErrWrongPhase
	}
}

// RecordTurnover logs a turnover for an on-court player. The entry is
// appended immediately; the tag phase follows when the toggle is on.
func (t *Tracker) RecordTurnover(player string) error {
	if t.Phase != PhaseIdle {
		return ErrWrongPhase
	}
	if !t.onCourt(player) {
		return ErrNotOnCourt
	}
	t.line(player).Turnovers++

	entryID := t.append(LogEntry{
		Kind:   EntryTurnover,
		Player: player,
	})
	if t.PlayTagging {
		t.Pending = &Pending{Kind: EntryTurnover, EntryID: entryID, Player: player}
		t.Phase = PhaseAwaitingPlayTag
	}
	return nil
}

// RecordOpponentScore adds opponent points and debits the on-court five's
// plus-minus symmetrically.
func (t *Tracker) RecordOpponentScore(points int) error {
	if t.Phase != PhaseIdle {
		return ErrWrongPhase
	}
	if points < 1 || points > 3 {
		return fmt.Errorf("tracker: invalid opponent points %d", points)
	}
	t.OpponentScore += points
	for _, p := range t.OnCourt {
		t.line(p).PlusMinus -= points
	}
	t.append(LogEntry{
		Kind:   EntryOpponentScore,
		Points: points,
		Detail: fmt.Sprintf("+%d", points),
	})
	return nil
}

// Substitute swaps a bench player in for an on-court player. A checkpoint
// for the snapshot layer.
func (t *Tracker) Substitute(out, in string) error {
	if t.Phase != PhaseIdle {
		return ErrWrongPhase
	}
	if !t.onCourt(out) {
		return ErrNotOnCourt
	}
	if t.onCourt(in) {
		return fmt.Errorf("tracker: %q is already on the court", in)
	}
	if _, ok := t.Lines[in]; !ok {
		return ErrNotOnRoster
	}

	// Credit the outgoing player's minutes up to this moment.
	t.foldClock()

	for i, p := range t.OnCourt {
		if p == out {
			t.OnCourt[i] = in
			break
		}
	}
	t.append(LogEntry{Kind: EntrySubOut, Player: out})
	t.append(LogEntry{Kind: EntrySubIn, Player: in})
	return nil
}

// AdvanceQuarter closes the current quarter. Stops the clock and resets its
// position. A checkpoint for the snapshot layer.
func (t *Tracker) AdvanceQuarter() error {
	if t.Phase != PhaseIdle {
		return ErrWrongPhase
	}
	t.foldClock()
	t.ClockRunning = false
	t.ClockStartedAt = nil
	t.append(LogEntry{
		Kind:   EntryQuarterChange,
		Detail: fmt.Sprintf("end of Q%d", t.Quarter),
	})
	t.Quarter++
	t.ClockSeconds = 0
	return nil
}

// Stat keys accepted by AdjustStat.
const (
	StatSteals = "stl"
	StatBlocks = "blk"
	StatFouls  = "pf"
	StatOffReb = "oreb"
	StatDefReb = "dreb"
)

// AdjustStat applies a manual +/- correction to a simple counter. Decrements
// that would push a counter below zero are no-ops, so a double-tapped undo
// cannot corrupt a line.
func (t *Tracker) AdjustStat(player, stat string, delta int) error {
	if _, ok := t.Lines[player]; !ok {
		return ErrNotOnRoster
	}
	line := t.line(player)
	var target *int
	switch stat {
	case StatSteals:
		target = &line.Steals
	case StatBlocks:
		target = &line.Blocks
	case StatFouls:
		target = &line.Fouls
	case StatOffReb:
		target = &line.OffReb
	case StatDefReb:
		target = &line.DefReb
	default:
		return ErrUnknownStat
	}
	if *target+delta < 0 {
		return nil // spurious decrement, ignore
	}
	*target += delta
	return nil
}

// Finalize closes out the session: any pending modal step resolves to null,
// the clock stops, and the final state is returned for submission. The
// tracker itself keeps its state; a failed submission stays resumable.
func (t *Tracker) Finalize() State {
	for t.Phase != PhaseIdle {
		if err := t.Skip(); err != nil {
			break
		}
	}
	if t.ClockRunning {
		t.foldClock()
		t.ClockRunning = false
		t.ClockStartedAt = nil
	}
	return t.Clone()
}
