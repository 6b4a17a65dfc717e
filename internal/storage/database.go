package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"cargoquote-backend/internal/models"
)

// SessionRecord is the persisted form of a session: the dialog state is an
// opaque JSON blob, expiry is a queryable column.
type SessionRecord struct {
	SessionID string    `gorm:"primaryKey;size:128"`
	State     []byte    `gorm:"type:jsonb"`
	ExpiresAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName keeps the table name explicit.
func (SessionRecord) TableName() string {
	return "dialog_sessions"
}

// DatabaseStore persists sessions in PostgreSQL via gorm.
type DatabaseStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDatabaseStore creates a database-backed session store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db, now: time.Now}
}

func (s *DatabaseStore) Get(sessionID string) (*models.Session, error) {
	var rec SessionRecord
	err := s.db.First(&rec, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}

	// Lazy expiry: a stale row behaves exactly like a missing one.
	if rec.ExpiresAt.Before(s.now()) {
		_ = s.db.Delete(&SessionRecord{}, "session_id = ?", sessionID).Error
		return nil, ErrNotFound
	}

	var session models.Session
	if err := json.Unmarshal(rec.State, &session); err != nil {
		return nil, fmt.Errorf("session state corrupted: %w", err)
	}
	return &session, nil
}

func (s *DatabaseStore) Save(session *models.Session) error {
	state, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session state encode: %w", err)
	}

	rec := SessionRecord{
		SessionID: session.ID,
		State:     state,
		ExpiresAt: session.ExpiresAt,
	}
	return s.db.Save(&rec).Error
}

func (s *DatabaseStore) Delete(sessionID string) error {
	return s.db.Delete(&SessionRecord{}, "session_id = ?", sessionID).Error
}

func (s *DatabaseStore) Sweep(now time.Time) int {
	res := s.db.Delete(&SessionRecord{}, "expires_at < ?", now)
	return int(res.RowsAffected)
}

func (s *DatabaseStore) Count() int {
	var n int64
	s.db.Model(&SessionRecord{}).Where("expires_at >= ?", s.now()).Count(&n)
	return int(n)
}
