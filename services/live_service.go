package services

import (
	"errors"
	"log"
	"sync"
	"time"

	"courtside/localstore"
	"courtside/tracker"

	"github.com/gofiber/fiber/v2"
)

// LiveService keeps the registry of in-progress tracking sessions. Each
// session is independently locked; the service only coordinates lookup and
// lifecycle. Local persistence makes sessions survive process restarts: an
// unknown id is retried against the local store before 404ing.
type LiveService struct {
	mu       sync.Mutex
	sessions map[string]*tracker.Session

	store *localstore.Store
	games *GameService
}

func NewLiveService(store *localstore.Store, games *GameService) *LiveService {
	return &LiveService{
		sessions: make(map[string]*tracker.Session),
		store:    store,
		games:    games,
	}
}

type createSessionInput struct {
	Date        string   `json:"date"` // YYYY-MM-DD
	Opponent    string   `json:"opponent"`
	GameType    string   `json:"game_type"`
	Roster      []string `json:"roster"`
	Starters    []string `json:"starters"`
	PlayTagging *bool    `json:"play_tagging"`
}

// CreateSession starts tracking a new game.
func (s *LiveService) CreateSession(c *fiber.Ctx) error {
	var in createSessionInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if in.Opponent == "" {
		return respondError(c, validationf("opponent name is required"))
	}
	if !isoDateRe.MatchString(in.Date) {
		return respondError(c, validationf("date must be YYYY-MM-DD, got %q", in.Date))
	}
	if len(in.Roster) == 0 {
		return respondError(c, validationf("roster is required"))
	}

	meta := tracker.GameMeta{Date: in.Date, Opponent: in.Opponent, GameType: in.GameType}
	session, err := tracker.NewSession(s.store, meta, in.Roster, in.Starters)
	if err != nil {
		return respondError(c, validationf("%v", err))
	}
	if in.PlayTagging != nil {
		err := session.Mutate(func(t *tracker.Tracker) error {
			t.SetPlayTagging(*in.PlayTagging)
			return nil
		})
		if err != nil {
			log.Printf("⚠️  Failed to persist play-tagging toggle for %s: %v", session.ID, err)
		}
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	log.Printf("🏀 Live session %s started vs %s", session.ID, in.Opponent)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session_id": session.ID,
		"state":      session.StateCopy(),
	})
}

// session finds a registered session, falling back to the local store so a
// restarted process can resume interrupted games.
func (s *LiveService) session(id string) (*tracker.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	sess, err := tracker.LoadSession(s.store, id)
	if err != nil {
		return nil, err
	}
	s.sessions[id] = sess
	log.Printf("♻️  Resumed live session %s from local storage", id)
	return sess, nil
}

func (s *LiveService) respondSessionErr(c *fiber.Ctx, err error) error {
	if errors.Is(err, localstore.ErrNotFound) || errors.Is(err, tracker.ErrSnapshotNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	return respondError(c, err)
}

// GetSession returns the current state.
func (s *LiveService) GetSession(c *fiber.Ctx) error {
	sess, err := s.session(c.Params("id"))
	if err != nil {
		return s.respondSessionErr(c, err)
	}
	return c.JSON(fiber.Map{"session_id": sess.ID, "state": sess.StateCopy()})
}

// Action envelope: one POST per bench input. The type selects the tracker
// transition; unused fields stay empty.
type actionInput struct {
	Type string `json:"type"`

	Player   string   `json:"player,omitempty"`
	ShotType string   `json:"shot_type,omitempty"`
	Made     bool     `json:"made,omitempty"`
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	PlayID   *string  `json:"play_id,omitempty"`
	Assist   *string  `json:"assist,omitempty"`
	Rebound  *string  `json:"rebound,omitempty"`
	Points   int      `json:"points,omitempty"`
	Out      string   `json:"out,omitempty"`
	In       string   `json:"in,omitempty"`
	Stat     string   `json:"stat,omitempty"`
	Delta    int      `json:"delta,omitempty"`
	On       bool     `json:"on,omitempty"`
}

// Action applies one tracking action. Clock stops, quarter advances and
// substitutions are checkpoints: they push a recovery snapshot on top of the
// usual synchronous persist.
func (s *LiveService) Action(c *fiber.Ctx) error {
	sess, err := s.session(c.Params("id"))
	if err != nil {
		return s.respondSessionErr(c, err)
	}

	var in actionInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	switch in.Type {
	case "shot":
		err = sess.Mutate(func(t *tracker.Tracker) error { return t.RecordShot(in.Player, in.ShotType, in.Made) })
	case "assist":
		err = sess.Mutate(func(t *tracker.Tracker) error { return t.ResolveAssist(in.Assist) })
	case "location":
		err = sess.Mutate(func(t *tracker.Tracker) error { return t.ResolveLocation(in.X, in.Y) })
	case "play_tag":
		err = sess.Mutate(func(t *tracker.Tracker) error { return t.ResolvePlayTag(in.PlayID) })
	case "rebound":
		err = sess.Mutate(func(t *tracker.Tracker) error { return t.ResolveRebound(in.Rebound) })
	case "skip":
		err = sess.Mutate(func(t *tracker.Tracker) error { return t.Skip() })
	case "turnover":
		err = sess.Mutate(func(t *tracker.Tracker) error { return t.RecordTurnover(in.Player) })
	case "opponent_score":
		err = sess.Mutate(func(t *tracker.Tracker) error { return t.RecordOpponentScore(in.Points) })
	case "adjust":
		err = sess.Mutate(func(t *tracker.Tracker) error { return t.AdjustStat(in.Player, in.Stat, in.Delta) })
	case "play_tagging":
		err = sess.Mutate(func(t *tracker.Tracker) error { t.SetPlayTagging(in.On); return nil })
	case "clock_start":
		err = sess.Mutate(func(t *tracker.Tracker) error { return t.StartClock() })
	case "clock_stop":
		err = sess.MutateCheckpoint(tracker.ReasonClockStop, func(t *tracker.Tracker) error { return t.StopClock() })
	case "quarter":
		err = sess.MutateCheckpoint(tracker.ReasonQuarter, func(t *tracker.Tracker) error { return t.AdvanceQuarter() })
	case "substitution":
		err = sess.MutateCheckpoint(tracker.ReasonSubstitution, func(t *tracker.Tracker) error { return t.Substitute(in.Out, in.In) })
	default:
		return respondError(c, validationf("unknown action type %q", in.Type))
	}
	if err != nil {
		return respondError(c, validationf("%v", err))
	}

	return c.JSON(fiber.Map{"state": sess.StateCopy()})
}

// ListSnapshots returns the recovery history, most recent first.
func (s *LiveService) ListSnapshots(c *fiber.Ctx) error {
	sess, err := s.session(c.Params("id"))
	if err != nil {
		return s.respondSessionErr(c, err)
	}
	return c.JSON(fiber.Map{"snapshots": sess.Snapshots()})
}

// RestoreSnapshot replaces live state with a snapshot. Destructive, so the
// caller must send {"confirm": true}; there is no merge path.
func (s *LiveService) RestoreSnapshot(c *fiber.Ctx) error {
	sess, err := s.session(c.Params("id"))
	if err != nil {
		return s.respondSessionErr(c, err)
	}

	var in struct {
		Confirm bool `json:"confirm"`
	}
	if err := c.BodyParser(&in); err != nil || !in.Confirm {
		return respondError(c, validationf("restore must be confirmed"))
	}

	if err := sess.Restore(c.Params("snapshot_id")); err != nil {
		return s.respondSessionErr(c, err)
	}
	log.Printf("⏪ Session %s restored snapshot %s", sess.ID, c.Params("snapshot_id"))
	return c.JSON(fiber.Map{"state": sess.StateCopy()})
}

// Finalize submits the session as a persisted game. The submission is
// all-or-nothing: on failure local state and snapshots are untouched and the
// session stays open for a retry.
func (s *LiveService) Finalize(c *fiber.Ctx) error {
	sess, err := s.session(c.Params("id"))
	if err != nil {
		return s.respondSessionErr(c, err)
	}

	payload := PayloadFromState(sess.Finalize())
	game, err := s.games.CreateFromPayload(&payload)
	if err != nil {
		log.Printf("⚠️  Finalize failed for session %s: %v (session kept for retry)", sess.ID, err)
		return respondError(c, err)
	}

	if err := sess.Discard(); err != nil {
		log.Printf("⚠️  Failed to clear local state for %s: %v", sess.ID, err)
	}
	s.mu.Lock()
	delete(s.sessions, sess.ID)
	s.mu.Unlock()

	log.Printf("✅ Session %s finalized as game %s", sess.ID, game.ID)
	return c.Status(fiber.StatusCreated).JSON(game)
}

// CloseStale snapshots and evicts sessions idle past the cutoff. Local state
// stays on disk, so a stale session can still be resumed later.
func (s *LiveService) CloseStale(idleCutoff time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	closed := 0
	now := time.Now()
	for id, sess := range s.sessions {
		if now.Sub(sess.IdleSince()) < idleCutoff {
			continue
		}
		// Final snapshot before eviction, so the abandoned game is recoverable.
		err := sess.MutateCheckpoint(tracker.ReasonShutdown, func(t *tracker.Tracker) error {
			if t.ClockRunning {
				return t.StopClock()
			}
			return nil
		})
		if err != nil {
			log.Printf("[Sweeper] Failed to snapshot session %s before eviction: %v", id, err)
		}
		sess.Close()
		delete(s.sessions, id)
		closed++
		log.Printf("[Sweeper] Closed idle session %s", id)
	}
	return closed
}
