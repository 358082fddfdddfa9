package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

const mysqlTimeLayout = "2006-01-02 15:04:05"

// MySQLStore is a MySQL implementation of the TriageStore interface
type MySQLStore struct {
	db          *sql.DB
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLStore creates a new MySQL triage store
func NewMySQLStore(dsn string, logger *zap.Logger, cleanupFreq, retention time.Duration) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS done_messages (
			message_id VARCHAR(255) PRIMARY KEY,
			marked_at TIMESTAMP,
			INDEX idx_marked_at (marked_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	s := &MySQLStore{
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
func (s *MySQLStore) MarkDone(ctx context.Context, messageID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO done_messages (message_id, marked_at)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE
			marked_at = VALUES(marked_at)
	`, messageID, time.Now().UTC().Format(mysqlTimeLayout))

	if err != nil {
		return fmt.Errorf("failed to insert done mark: %w", err)
	}

	return nil
}

// MarkUndone moves a message back to active
func (s *MySQLStore) MarkUndone(ctx context.Context, messageID string) error {
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
func (s *MySQLStore) IsDone(ctx context.Context, messageID string) (bool, error) {
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
func (s *MySQLStore) DoneIDs(ctx context.Context) ([]string, error) {
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
func (s *MySQLStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM done_messages`)
	if err != nil {
		return fmt.Errorf("failed to clear done marks: %w", err)
	}

	return nil
}

// sweep removes marks older than the retention window
func (s *MySQLStore) sweep(ctx context.Context) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM done_messages
		WHERE marked_at <= ?
	`, time.Now().UTC().Add(-s.retention).Format(mysqlTimeLayout))

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
func (s *MySQLStore) startSweepTask() {
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
func (s *MySQLStore) Close() error {
	close(s.stopCh)
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close MySQL database: %w", err)
	}
	return nil
}
