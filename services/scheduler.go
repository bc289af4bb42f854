// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSessionSweeper periodically snapshots and evicts live sessions with no
// bench activity. Evicted sessions keep their local state and can be resumed.
func (s *LiveService) StartSessionSweeper(idleCutoff time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			if n := s.CloseStale(idleCutoff); n > 0 {
				log.Printf("[Sweeper] Evicted %d idle session(s)", n)
			}
		}),
	)
}
