package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bsm-engine/internal/models"
)

// MemoryStore implements SnapshotStore in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]models.Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]models.Snapshot)}
}

// Save stores a copy of snap under sessionID.
func (m *MemoryStore) Save(ctx context.Context, sessionID string, snap models.Snapshot) error {
	if err := validSessionID(sessionID); err != nil {
		return err
	}
	snap.SessionID = sessionID
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now()
	}
	snap.SavedAt = snap.SavedAt.UTC()
	snap.Path = clonePath(snap.Path)

	m.mu.Lock()
	m.snapshots[sessionID] = snap
	m.mu.Unlock()
	return nil
}

// Load returns a copy of the stored snapshot.
func (m *MemoryStore) Load(ctx context.Context, sessionID string) (models.Snapshot, error) {
	if err := validSessionID(sessionID); err != nil {
		return models.Snapshot{}, err
	}

	m.mu.RLock()
	snap, ok := m.snapshots[sessionID]
	m.mu.RUnlock()
	if !ok {
		return models.Snapshot{}, fmt.Errorf("%w: %s", ErrNoSnapshot, sessionID)
	}
	snap.Path = clonePath(snap.Path)
	return snap, nil
}

// List returns stored sessions, newest first.
func (m *MemoryStore) List(ctx context.Context, filter SessionFilter) ([]SessionSummary, error) {
	m.mu.RLock()
	sessions := make([]SessionSummary, 0, len(m.snapshots))
	for _, snap := range m.snapshots {
		if !filter.Since.IsZero() && snap.SavedAt.Before(filter.Since) {
			continue
		}
		sessions = append(sessions, summarize(snap))
	}
	m.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].SavedAt.Equal(sessions[j].SavedAt) {
			return sessions[i].SavedAt.After(sessions[j].SavedAt)
		}
		return sessions[i].SessionID < sessions[j].SessionID
	})
	if filter.Limit > 0 && len(sessions) > filter.Limit {
		sessions = sessions[:filter.Limit]
	}
	return sessions, nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if err := validSessionID(sessionID); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.snapshots, sessionID)
	m.mu.Unlock()
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

func withPathCopy(snap models.Snapshot) models.Snapshot {
	snap.Path = clonePath(snap.Path)
	return snap
}

func clonePath(p *models.PricePath) *models.PricePath {
	if p == nil {
		return nil
	}
	c := *p
	c.Times = append([]float64(nil), p.Times...)
	c.Spots = append([]float64(nil), p.Spots...)
	return &c
}
