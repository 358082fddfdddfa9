package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the TriageStore interface
type SQLiteStore struct {
	db          *sql.DB
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteStore creates a new SQLite triage store
func NewSQLiteStore(dbPath string, logger *zap.Logger, cleanupFreq, retention time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS done_messages (
			message_id TEXT PRIMARY KEY,
			marked_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index on marked_at for the retention sweep
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_marked_at ON done_messages(marked_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	s := &SQLiteStore{
		db:          db,
		logger:      logger,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if retention > 0 && cleanupFreq > 0 {
		go s.startSweepTask()
	}

	return s, nil
}

// MarkDone records a message as handled
func (s *SQLiteStore) MarkDone(ctx context.Context, messageID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO done_messages (message_id, marked_at)
		VALUES (?, ?)
	`, messageID, time.Now().UTC().Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to insert done mark: %w", err)
	}

	return nil
}

// MarkUndone moves a message back to active
func (s *SQLiteStore) MarkUndone(ctx context.Context, messageID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM done_messages
		WHERE message_id = ?
	`, messageID)

	if err != nil {
		return fmt.Errorf("failed to delete done mark: %w", err)
	}

	return nil
}

// IsDone reports whether a message has been handled
func (s *SQLiteStore) IsDone(ctx context.Context, messageID string) (bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT message_id FROM done_messages
		WHERE message_id = ?
	`, messageID).Scan(&id)

	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to query done mark: %w", err)
	}

	return true, nil
}

// DoneIDs lists handled message IDs, most recently marked first
func (s *SQLiteStore) DoneIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id FROM done_messages
		ORDER BY marked_at DESC, message_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list done marks: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan done mark: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate done marks: %w", err)
	}

	return ids, nil
}

// Clear forgets all handled messages
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM done_messages`)
	if err != nil {
		return fmt.Errorf("failed to clear done marks: %w", err)
	}

	return nil
}

// sweep removes marks older than the retention window
func (s *SQLiteStore) sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.retention).Format(time.RFC3339)

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM done_messages
		WHERE marked_at <= ?
	`, cutoff)

	if err != nil {
		return fmt.Errorf("failed to sweep aged marks: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during sweep", zap.Error(err))
	} else {
		s.logger.Debug("Swept aged done marks", zap.Int64("removed", rowsAffected))
	}

	return nil
}

// startSweepTask starts a background task to drop aged marks
func (s *SQLiteStore) startSweepTask() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.sweep(context.Background()); err != nil {
				s.logger.Error("Failed to sweep done marks", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}

// Close stops the background sweep task and closes the database
func (s *SQLiteStore) Close() error {
	close(s.stopCh)
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close SQLite database: %w", err)
	}
	return nil
}
