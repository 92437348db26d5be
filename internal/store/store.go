// Package store provides session snapshot persistence interfaces and implementations.
package store

import (
	"context"
	"fmt"
	"time"

	apperrors "bsm-engine/internal/errors"
	"bsm-engine/internal/models"
)

// ErrNoSnapshot is returned by Load when a session has never been saved.
var ErrNoSnapshot = fmt.Errorf("no snapshot saved for session: %w", apperrors.ErrState)

// SnapshotStore defines the interface for session persistence.
// Implementations must be safe for concurrent use.
type SnapshotStore interface {
	// Save replaces the snapshot of a session.
	Save(ctx context.Context, sessionID string, snap models.Snapshot) error
	// Load returns the last saved snapshot, or ErrNoSnapshot.
	Load(ctx context.Context, sessionID string) (models.Snapshot, error)
	// List returns a summary of every stored session, newest first.
	List(ctx context.Context, filter SessionFilter) ([]SessionSummary, error)
	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Lifecycle
	Close() error
}

// SessionFilter represents filters for listing sessions.
type SessionFilter struct {
	Since time.Time
	Limit int
}

// SessionSummary describes a stored session without its path data.
type SessionSummary struct {
	SessionID string    `json:"session_id"`
	SavedAt   time.Time `json:"saved_at"`
	HasPath   bool      `json:"has_path"`
	Steps     int       `json:"steps"`
}

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open creates the store selected by driver. path is ignored for the memory driver.
func Open(driver, path string) (SnapshotStore, error) {
	switch driver {
	case DriverSQLite:
		return NewSQLiteStore(path)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, apperrors.NewValidationError("store.driver", driver, "must be sqlite or memory")
	}
}

func validSessionID(sessionID string) error {
	if sessionID == "" {
		return apperrors.NewValidationError("session", sessionID, "must not be empty")
	}
	return nil
}

func summarize(snap models.Snapshot) SessionSummary {
	s := SessionSummary{SessionID: snap.SessionID, SavedAt: snap.SavedAt}
	if snap.Path != nil {
		s.HasPath = true
		s.Steps = snap.Path.Steps()
	}
	return s
}
