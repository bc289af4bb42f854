// workers/ingest_worker.go
package workers

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"courtside/services"
)

// IngestWorker polls an inbox directory for finalized-game payload files
// (the same JSON shape the finalize/import endpoints accept, produced by
// offline tracking devices) and imports them through the validated create
// path. Processed files move to done/, rejects to failed/.
type IngestWorker struct {
	games    *services.GameService
	inboxDir string
	interval time.Duration
}

func NewIngestWorker(games *services.GameService, inboxDir string) *IngestWorker {
	return &IngestWorker{
		games:    games,
		inboxDir: inboxDir,
		interval: 30 * time.Second,
	}
}

// Start runs the polling loop until ctx is canceled.
func (w *IngestWorker) Start(ctx context.Context) {
	for _, sub := range []string{"", "done", "failed"} {
		if err := os.MkdirAll(filepath.Join(w.inboxDir, sub), os.ModePerm); err != nil {
			log.Printf("[Ingest] Failed to create inbox dirs: %v", err)
			return
		}
	}
	log.Printf("[Ingest] Watching %s every %s", w.inboxDir, w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("[Ingest] Stopping")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *IngestWorker) sweep() {
	entries, err := os.ReadDir(w.inboxDir)
	if err != nil {
		log.Printf("[Ingest] Failed to read inbox: %v", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		w.processFile(entry.Name())
	}
}

func (w *IngestWorker) processFile(name string) {
	path := filepath.Join(w.inboxDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[Ingest] Failed to read %s: %v", name, err)
		return
	}

	var payload services.GamePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("[Ingest] %s is not valid JSON: %v", name, err)
		w.move(path, "failed")
		return
	}

	game, err := w.games.CreateFromPayload(&payload)
	if err != nil {
		log.Printf("[Ingest] Import of %s rejected: %v", name, err)
		w.move(path, "failed")
		return
	}

	log.Printf("[Ingest] Imported %s as game %s", name, game.ID)
	w.move(path, "done")
}

func (w *IngestWorker) move(path, sub string) {
	dest := filepath.Join(w.inboxDir, sub, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		log.Printf("[Ingest] Failed to move %s to %s: %v", path, sub, err)
	}
}
