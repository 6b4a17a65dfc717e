package storage

import (
	"errors"
	"sync"
	"time"

	"cargoquote-backend/internal/models"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Store is the keyed, expiring session storage. Implementations garbage
// collect expired entries lazily on Get and in bulk via Sweep.
type Store interface {
	Get(sessionID string) (*models.Session, error)
	Save(session *models.Session) error
	Delete(sessionID string) error
	// Sweep discards entries expired as of now and returns how many.
	Sweep(now time.Time) int
	// Count reports the number of live sessions (for the health endpoint).
	Count() int
}

// KeyMutex serializes work per session key so overlapping requests for the
// same conversation cannot race each other. Distinct keys do not contend.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyMutex creates an empty keyed mutex set.
func NewKeyMutex() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*lockEntry)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *KeyMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
