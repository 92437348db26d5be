package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "bsm-engine/internal/errors"
	"bsm-engine/internal/models"
)

// SQLiteStore implements SnapshotStore using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	retry RetryConfig
	mu    sync.RWMutex
	cache map[string]models.Snapshot
}

// NewSQLiteStore creates a new SQLite-based snapshot store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.NewStoreError("open", "", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:    db,
		retry: DefaultRetryConfig(),
		cache: make(map[string]models.Snapshot),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, apperrors.NewStoreError("init schema", "", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- One row per session; the snapshot column holds the JSON document
	CREATE TABLE IF NOT EXISTS snapshots (
		session_id TEXT PRIMARY KEY,
		snapshot TEXT NOT NULL,
		steps INTEGER NOT NULL DEFAULT -1,
		saved_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_saved_at ON snapshots(saved_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save saves the snapshot of a session, replacing any previous one.
func (s *SQLiteStore) Save(ctx context.Context, sessionID string, snap models.Snapshot) error {
	if err := validSessionID(sessionID); err != nil {
		return err
	}
	snap.SessionID = sessionID
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now()
	}
	snap.SavedAt = snap.SavedAt.UTC()

	doc, err := json.Marshal(snap)
	if err != nil {
		return apperrors.NewStoreError("encode", sessionID, err)
	}
	steps := -1
	if snap.Path != nil {
		steps = snap.Path.Steps()
	}

	err = retryBusy(ctx, s.retry, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO snapshots (session_id, snapshot, steps, saved_at)
			VALUES (?, ?, ?, ?)
		`, sessionID, string(doc), steps, snap.SavedAt)
		return err
	})
	if err != nil {
		return apperrors.NewStoreError("save", sessionID, err)
	}

	s.mu.Lock()
	s.cache[sessionID] = withPathCopy(snap)
	s.mu.Unlock()

	return nil
}

// Load retrieves the last snapshot of a session.
func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (models.Snapshot, error) {
	if err := validSessionID(sessionID); err != nil {
		return models.Snapshot{}, err
	}

	s.mu.RLock()
	if snap, ok := s.cache[sessionID]; ok {
		s.mu.RUnlock()
		return withPathCopy(snap), nil
	}
	s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx, `
		SELECT snapshot FROM snapshots WHERE session_id = ?
	`, sessionID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Snapshot{}, fmt.Errorf("%w: %s", ErrNoSnapshot, sessionID)
	}
	if err != nil {
		return models.Snapshot{}, apperrors.NewStoreError("load", sessionID, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		return models.Snapshot{}, apperrors.NewStoreError("decode", sessionID, err)
	}

	s.mu.Lock()
	s.cache[sessionID] = withPathCopy(snap)
	s.mu.Unlock()

	return snap, nil
}

// List returns stored sessions, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter SessionFilter) ([]SessionSummary, error) {
	query := "SELECT session_id, steps, saved_at FROM snapshots WHERE 1=1"
	args := []interface{}{}

	if !filter.Since.IsZero() {
		query += " AND saved_at >= ?"
		args = append(args, filter.Since.UTC())
	}

	query += " ORDER BY saved_at DESC, session_id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("list", "", err)
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.SessionID, &sum.Steps, &sum.SavedAt); err != nil {
			return nil, apperrors.NewStoreError("list", "", err)
		}
		sum.HasPath = sum.Steps >= 0
		if !sum.HasPath {
			sum.Steps = 0
		}
		sessions = append(sessions, sum)
	}

	return sessions, rows.Err()
}

// Delete removes a session.
func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	if err := validSessionID(sessionID); err != nil {
		return err
	}

	err := retryBusy(ctx, s.retry, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE session_id = ?`, sessionID)
		return err
	})
	if err != nil {
		return apperrors.NewStoreError("delete", sessionID, err)
	}

	s.mu.Lock()
	delete(s.cache, sessionID)
	s.mu.Unlock()

	return nil
}
