package jobs

import (
	"log"
	"time"

	"cargoquote-backend/internal/storage"
)

// SweepJob periodically discards expired sessions. Expiry is also enforced
// lazily on store access; the sweep just keeps memory and tables tidy.
type SweepJob struct {
	store    storage.Store
	interval time.Duration
	stop     chan struct{}
}

// NewSweepJob creates a sweep job with the given interval.
func NewSweepJob(store storage.Store, interval time.Duration) *SweepJob {
	return &SweepJob{
		store:    store,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (j *SweepJob) Start() {
	log.Printf("Starting session sweep job (every %v)", j.interval)
	go j.run()
}

// Stop halts the sweep loop.
func (j *SweepJob) Stop() {
	close(j.stop)
	log.Println("Stopping session sweep job...")
}

func (j *SweepJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stop:
			return
		case <-ticker.C:
			if removed := j.store.Sweep(time.Now()); removed > 0 {
				log.Printf("Swept %d expired session(s)", removed)
			}
		}
	}
}
