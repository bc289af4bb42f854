package tracker

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"courtside/localstore"

	"github.com/google/uuid"
)

// ErrSnapshotNotFound is returned when a restore targets an unknown snapshot.
var ErrSnapshotNotFound = errors.New("tracker: snapshot not found")

func liveKey(id string) string     { return "live:" + id }
func snapshotKey(id string) string { return "snapshots:" + id }

// ringRecord is the persisted shape of the snapshot history.
type ringRecord struct {
	Snapshots  []Snapshot `json:"snapshots"`
	LastPushAt time.Time  `json:"last_push_at"`
}

// Session binds one live Tracker to its local persistence: the
// continuously-overwritten live-state record, the bounded snapshot history,
// and the detached interval timer. All mutation goes through Mutate /
// MutateCheckpoint so state on disk never lags state in memory.
type Session struct {
	ID string

	mu           sync.Mutex
	tr           *Tracker
	ring         *SnapshotRing
	store        *localstore.Store
	lastActivity time.Time

	stopTimer chan struct{}
	timerOnce sync.Once
}

// NewSession starts a session and persists its initial state.
func NewSession(store *localstore.Store, meta GameMeta, roster, starters []string, opts ...Option) (*Session, error) {
	tr, err := New(meta, roster, starters, opts...)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:           uuid.NewString(),
		tr:           tr,
		ring:         NewSnapshotRing(tr.now),
		store:        store,
		lastActivity: tr.now(),
		stopTimer:    make(chan struct{}),
	}
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	s.startTimer()
	return s, nil
}

// LoadSession resumes an interrupted session from local storage.
func LoadSession(store *localstore.Store, id string, opts ...Option) (*Session, error) {
	var st State
	if err := store.Get(liveKey(id), &st); err != nil {
		return nil, err
	}
	tr := Resume(st, opts...)

	var rec ringRecord
	switch err := store.Get(snapshotKey(id), &rec); {
	case err == nil:
	case errors.Is(err, localstore.ErrNotFound):
		// fine, no snapshots yet
	default:
		return nil, err
	}

	s := &Session{
		ID:           id,
		tr:           tr,
		ring:         ResumeRing(rec.Snapshots, rec.LastPushAt, tr.now),
		store:        store,
		lastActivity: tr.now(),
		stopTimer:    make(chan struct{}),
	}
	s.startTimer()
	return s, nil
}

// persistLocked writes live state and snapshot history. Callers hold mu.
func (s *Session) persistLocked() error {
	if err := s.store.Set(liveKey(s.ID), s.tr.State); err != nil {
		return fmt.Errorf("failed to persist live state: %w", err)
	}
	rec := ringRecord{Snapshots: s.ring.Snapshots, LastPushAt: s.ring.LastPushAt}
	if err := s.store.Set(snapshotKey(s.ID), rec); err != nil {
		return fmt.Errorf("failed to persist snapshots: %w", err)
	}
	return nil
}

// Mutate runs a tracking action and persists the result synchronously.
func (s *Session) Mutate(fn func(*Tracker) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.tr); err != nil {
		return err
	}
	s.lastActivity = s.tr.now()
	return s.persistLocked()
}

// MutateCheckpoint is Mutate plus a checkpoint snapshot push on success.
func (s *Session) MutateCheckpoint(reason string, fn func(*Tracker) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.tr); err != nil {
		return err
	}
	s.ring.Push(s.tr.Clone(), reason)
	s.lastActivity = s.tr.now()
	return s.persistLocked()
}

// StateCopy returns a deep copy of current state for read endpoints.
func (s *Session) StateCopy() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr.Clone()
}

// Snapshots lists the recovery history, most recent first.
func (s *Session) Snapshots() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Snapshot(nil), s.ring.Snapshots...)
}

// Restore replaces live state with the chosen snapshot. Replacement is total;
// nothing from the current state survives. The snapshot history is kept so a
// restore can itself be undone from another snapshot.
func (s *Session) Restore(snapshotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.ring.Find(snapshotID)
	if snap == nil {
		return ErrSnapshotNotFound
	}
	now := s.tr.now
	s.tr = Resume(snap.State, WithClock(now))
	s.lastActivity = now()
	return s.persistLocked()
}

// Finalize closes out the tracker and returns the final state. Local state is
// deliberately left on disk; if submission fails the session is resumable.
func (s *Session) Finalize() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.tr.Finalize()
	if err := s.persistLocked(); err != nil {
		log.Printf("[Live] failed to persist finalized state for %s: %v", s.ID, err)
	}
	return st
}

// Discard stops the timer and clears the session's local records. Called
// after a confirmed successful submission.
func (s *Session) Discard() error {
	s.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Remove(liveKey(s.ID)); err != nil {
		return err
	}
	return s.store.Remove(snapshotKey(s.ID))
}

// IdleSince reports the last mutating action.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Close cancels the interval timer. Safe to call more than once.
func (s *Session) Close() {
	s.timerOnce.Do(func() { close(s.stopTimer) })
}

// startTimer runs the detached interval snapshotter. Ticks only matter while
// the game clock runs, and the ring's debounce drops ticks that land inside
// the interval after a checkpoint push.
func (s *Session) startTimer() {
	go func() {
		ticker := time.NewTicker(SnapshotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopTimer:
				return
			case <-ticker.C:
				s.mu.Lock()
				if s.tr.ClockRunning {
					if s.ring.Push(s.tr.Clone(), ReasonInterval) {
						if err := s.persistLocked(); err != nil {
							log.Printf("[Live] interval snapshot persist failed for %s: %v", s.ID, err)
						}
					}
				}
				s.mu.Unlock()
			}
		}
	}()
}
