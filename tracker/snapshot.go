package tracker

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot push reasons.
const (
	ReasonClockStop    = "clock_stop"
	ReasonQuarter      = "quarter_advance"
	ReasonSubstitution = "substitution"
	ReasonInterval     = "interval"
	ReasonShutdown     = "shutdown"
)

// SnapshotCapacity bounds the rolling history kept for manual recovery.
const SnapshotCapacity = 3

// SnapshotInterval is the wall-clock period for timer-driven pushes while the
// game clock runs.
const SnapshotInterval = 30 * time.Second

// Snapshot is a timestamped full copy of in-progress state.
type Snapshot struct {
	ID      string    `json:"id"`
	TakenAt time.Time `json:"taken_at"`
	Reason  string    `json:"reason"`
	State   State     `json:"state"`
}

// SnapshotRing holds the bounded, most-recent-first snapshot history. All
// pushes, checkpoint and timer alike, go through the single Push function; the
// timer path is debounced against the last push so a checkpoint inside the
// interval suppresses the next tick.
type SnapshotRing struct {
	Snapshots  []Snapshot `json:"snapshots"`
	LastPushAt time.Time  `json:"last_push_at"`

	now func() time.Time
}

// NewSnapshotRing returns an empty ring. now may be nil for wall clock.
func NewSnapshotRing(now func() time.Time) *SnapshotRing {
	if now == nil {
		now = time.Now
	}
	return &SnapshotRing{now: now}
}

// ResumeRing rehydrates a persisted ring.
func ResumeRing(snapshots []Snapshot, lastPush time.Time, now func() time.Time) *SnapshotRing {
	r := NewSnapshotRing(now)
	r.Snapshots = snapshots
	r.LastPushAt = lastPush
	return r
}

// Push stores a snapshot of st. Interval-triggered pushes are dropped when
// any push already happened within SnapshotInterval; checkpoint pushes always
// land. Oldest entries fall off past capacity. Returns whether a snapshot was
// actually taken.
func (r *SnapshotRing) Push(st State, reason string) bool {
	now := r.now()
	if reason == ReasonInterval && now.Sub(r.LastPushAt) < SnapshotInterval {
		return false
	}

	snap := Snapshot{
		ID:      uuid.NewString(),
		TakenAt: now,
		Reason:  reason,
		State:   st,
	}
	// Most-recent-first, strict FIFO eviction at capacity.
	r.Snapshots = append([]Snapshot{snap}, r.Snapshots...)
	if len(r.Snapshots) > SnapshotCapacity {
		r.Snapshots = r.Snapshots[:SnapshotCapacity]
	}
	r.LastPushAt = now
	return true
}

// Find returns the snapshot with the given id, or nil.
func (r *SnapshotRing) Find(id string) *Snapshot {
	for i := range r.Snapshots {
		if r.Snapshots[i].ID == id {
			return &r.Snapshots[i]
		}
	}
	return nil
}
