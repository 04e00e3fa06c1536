package storage

import "plusauto-intel/models"

// SessionStore is the append-only record store for intelligence sessions.
// Save is atomic per session; a session is written exactly once and can be
// retrieved later by its unique ID.
type SessionStore interface {
	Save(session *models.IntelligenceSession) error
	Get(sessionID string) (*models.IntelligenceSession, error)
	Close() error
}
