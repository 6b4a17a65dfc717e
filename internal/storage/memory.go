package storage

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"cargoquote-backend/internal/models"
)

// MemoryStore keeps sessions in an expiring in-memory cache. Suitable for a
// single instance; state does not survive a restart.
type MemoryStore struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewMemoryStore creates an in-memory store with the given session TTL.
// Expired entries are dropped lazily on Get and in bulk by Sweep; no
// background janitor is started here.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(ttl, 0),
		ttl:   ttl,
	}
}

func (m *MemoryStore) Get(sessionID string) (*models.Session, error) {
	v, found := m.cache.Get(sessionID)
	if !found {
		return nil, ErrNotFound
	}
	return v.(*models.Session), nil
}

func (m *MemoryStore) Save(session *models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = m.ttl
	}
	m.cache.Set(session.ID, session, ttl)
	return nil
}

func (m *MemoryStore) Delete(sessionID string) error {
	m.cache.Delete(sessionID)
	return nil
}

func (m *MemoryStore) Sweep(_ time.Time) int {
	before := m.cache.ItemCount()
	m.cache.DeleteExpired()
	return before - m.cache.ItemCount()
}

func (m *MemoryStore) Count() int {
	return m.cache.ItemCount()
}
