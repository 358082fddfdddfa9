package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the TriageStore
// interface. Done marks live only for the process lifetime.
type MemoryStore struct {
	marks       map[string]time.Time
	mu          sync.RWMutex
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMemoryStore creates a new in-memory triage store. A zero
// retention keeps marks until cleared; otherwise a background sweep
// drops marks older than the retention window.
func NewMemoryStore(logger *zap.Logger, cleanupFreq, retention time.Duration) *MemoryStore {
	s := &MemoryStore{
		marks:       make(map[string]time.Time),
		logger:      logger,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if retention > 0 && cleanupFreq > 0 {
		go s.startSweepTask()
	}

	return s
}

// MarkDone records a message as handled
func (s *MemoryStore) MarkDone(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.marks[messageID] = time.Now()
	return nil
}

// MarkUndone moves a message back to active
func (s *MemoryStore) MarkUndone(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.marks, messageID)
	return nil
}

// IsDone reports whether a message has been handled
func (s *MemoryStore) IsDone(ctx context.Context, messageID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.marks[messageID]
	return ok, nil
}

// DoneIDs lists handled message IDs, most recently marked first
func (s *MemoryStore) DoneIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.marks))
	for id := range s.marks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := s.marks[ids[i]], s.marks[ids[j]]
		if ti.Equal(tj) {
			return ids[i] < ids[j]
		}
		return ti.After(tj)
	})
	return ids, nil
}

// Clear forgets all handled messages
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.marks = make(map[string]time.Time)
	return nil
}

// sweep removes marks older than the retention window
func (s *MemoryStore) sweep(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.retention)
	removed := 0

	for id, markedAt := range s.marks {
		if markedAt.Before(cutoff) {
			delete(s.marks, id)
			removed++
		}
	}

	s.logger.Debug("Swept aged done marks", zap.Int("removed", removed))
	return nil
}

// startSweepTask starts a background task to drop aged marks
func (s *MemoryStore) startSweepTask() {
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

// Close stops the background sweep task
func (s *MemoryStore) Close() error {
	close(s.stopCh)
	return nil
}
