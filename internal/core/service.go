package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// TriageService is the core service for inbox triage. It pulls records
// from a message source, scores and classifies them, and overlays the
// done-state kept in the triage store.
type TriageService struct {
	source     MessageSource
	scorer     *Scorer
	classifier *Classifier
	store      TriageStore
	logger     *zap.Logger
}

// NewTriageService creates a new triage service
func NewTriageService(
	source MessageSource,
	scorer *Scorer,
	classifier *Classifier,
	store TriageStore,
	logger *zap.Logger,
) *TriageService {
	return &TriageService{
		source:     source,
		scorer:     scorer,
		classifier: classifier,
		store:      store,
		logger:     logger,
	}
}

// TriageInbox queries the message source and scores every returned
// record. When hideDone is set, messages already marked done are
// dropped from the result; otherwise they are included with the Done
// flag set. Store failures degrade to treating messages as active.
func (s *TriageService) TriageInbox(ctx context.Context, opts QueryOptions, hideDone bool) ([]ScoredMessage, error) {
	started := time.Now()

	records, err := s.source.QueryMessages(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query message store: %w", err)
	}

	scored := make([]ScoredMessage, 0, len(records))
	for _, record := range records {
		msg := s.scoreRecord(record)

		done, err := s.store.IsDone(ctx, record.ID)
		if err != nil {
			s.logger.Warn("Failed to read done state, treating message as active",
				zap.String("message_id", record.ID),
				zap.Error(err))
			done = false
		}
		if done && hideDone {
			continue
		}
		msg.Done = done

		scored = append(scored, msg)
	}

	s.logger.Info("Triaged inbox",
		zap.Int("fetched", len(records)),
		zap.Int("returned", len(scored)),
		zap.Bool("hide_done", hideDone),
		zap.Duration("elapsed", time.Since(started)))

	return scored, nil
}

// ScoreRecord scores and classifies a single record without consulting
// the source or the store
func (s *TriageService) ScoreRecord(record MessageRecord) ScoredMessage {
	return s.scoreRecord(record)
}

func (s *TriageService) scoreRecord(record MessageRecord) ScoredMessage {
	result := s.scorer.Score(record)
	return ScoredMessage{
		Record:   record,
		Result:   result,
		Category: s.classifier.Classify(result.TotalScore),
	}
}

// MarkDone records a message as handled
func (s *TriageService) MarkDone(ctx context.Context, messageID string) error {
	if err := s.store.MarkDone(ctx, messageID); err != nil {
		return fmt.Errorf("failed to mark message done: %w", err)
	}
	s.logger.Info("Marked message done", zap.String("message_id", messageID))
	return nil
}

// MarkUndone moves a message back to active
func (s *TriageService) MarkUndone(ctx context.Context, messageID string) error {
	if err := s.store.MarkUndone(ctx, messageID); err != nil {
		return fmt.Errorf("failed to unmark message: %w", err)
	}
	s.logger.Info("Unmarked message", zap.String("message_id", messageID))
	return nil
}

// DoneIDs lists all handled message IDs
func (s *TriageService) DoneIDs(ctx context.Context) ([]string, error) {
	ids, err := s.store.DoneIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list done messages: %w", err)
	}
	return ids, nil
}

// ClearDone forgets all handled messages
func (s *TriageService) ClearDone(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear done messages: %w", err)
	}
	s.logger.Info("Cleared done messages")
	return nil
}
