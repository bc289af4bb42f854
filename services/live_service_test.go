package services

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"courtside/localstore"
	"courtside/tracker"

	"github.com/gofiber/fiber/v2"
)

var liveTestRoster = []string{"Ana", "Bea", "Cam", "Dia", "Eva", "Fay"}

func newTestLiveService(t *testing.T) (*LiveService, *localstore.Store) {
	t.Helper()
	store, err := localstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("localstore.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewLiveService(store, NewGameService(nil)), store
}

func registerTestSession(t *testing.T, svc *LiveService, store *localstore.Store) *tracker.Session {
	t.Helper()
	meta := tracker.GameMeta{Date: "2026-03-14", Opponent: "Riverside", GameType: "Season"}
	sess, err := tracker.NewSession(store, meta, liveTestRoster, liveTestRoster[:5])
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(sess.Close)
	svc.mu.Lock()
	svc.sessions[sess.ID] = sess
	svc.mu.Unlock()
	return sess
}

func TestCloseStaleLeavesShutdownSnapshot(t *testing.T) {
	svc, store := newTestLiveService(t)
	sess := registerTestSession(t, svc, store)

	err := sess.Mutate(func(tr *tracker.Tracker) error { return tr.StartClock() })
	if err != nil {
		t.Fatalf("StartClock: %v", err)
	}

	if n := svc.CloseStale(0); n != 1 {
		t.Fatalf("CloseStale evicted %d sessions, want 1", n)
	}
	svc.mu.Lock()
	_, registered := svc.sessions[sess.ID]
	svc.mu.Unlock()
	if registered {
		t.Error("evicted session still registered")
	}

	// The abandoned game stays recoverable: a final snapshot with the clock
	// stopped is on disk.
	loaded, err := tracker.LoadSession(store, sess.ID)
	if err != nil {
		t.Fatalf("LoadSession after eviction: %v", err)
	}
	defer loaded.Close()

	snaps := loaded.Snapshots()
	if len(snaps) != 1 {
		t.Fatalf("got %d snapshots after eviction, want 1", len(snaps))
	}
	if snaps[0].Reason != tracker.ReasonShutdown {
		t.Errorf("snapshot reason = %q, want %q", snaps[0].Reason, tracker.ReasonShutdown)
	}
	if snaps[0].State.ClockRunning {
		t.Error("shutdown snapshot captured a running clock")
	}
}

func TestCreateSessionPersistsPlayTaggingToggle(t *testing.T) {
	svc, store := newTestLiveService(t)

	app := fiber.New()
	app.Post("/live/sessions", svc.CreateSession)

	body := `{
		"date": "2026-03-14",
		"opponent": "Riverside",
		"roster": ["Ana", "Bea", "Cam", "Dia", "Eva", "Fay"],
		"starters": ["Ana", "Bea", "Cam", "Dia", "Eva"],
		"play_tagging": false
	}`
	req := httptest.NewRequest("POST", "/live/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var out struct {
		SessionID string        `json:"session_id"`
		State     tracker.State `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.State.PlayTagging {
		t.Error("response state has play tagging on")
	}

	// The toggle reached disk, not just memory.
	var persisted tracker.State
	if err := store.Get("live:"+out.SessionID, &persisted); err != nil {
		t.Fatalf("Get persisted state: %v", err)
	}
	if persisted.PlayTagging {
		t.Error("persisted state has play tagging on")
	}
}
