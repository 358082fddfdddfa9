package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeSource struct {
	records []MessageRecord
	err     error
	gotOpts QueryOptions
}

func (f *fakeSource) QueryMessages(ctx context.Context, opts QueryOptions) ([]MessageRecord, error) {
	f.gotOpts = opts
	return f.records, f.err
}

func (f *fakeSource) Accounts(ctx context.Context) ([]string, error)  { return nil, nil }
func (f *fakeSource) Mailboxes(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeSource) Close() error                                    { return nil }

type fakeStore struct {
	done      map[string]bool
	isDoneErr error
}

func (f *fakeStore) MarkDone(ctx context.Context, id string) error {
	if f.done == nil {
		f.done = make(map[string]bool)
	}
	f.done[id] = true
	return nil
}

func (f *fakeStore) MarkUndone(ctx context.Context, id string) error {
	delete(f.done, id)
	return nil
}

func (f *fakeStore) IsDone(ctx context.Context, id string) (bool, error) {
	if f.isDoneErr != nil {
		return false, f.isDoneErr
	}
	return f.done[id], nil
}

func (f *fakeStore) DoneIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.done))
	for id := range f.done {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeStore) Clear(ctx context.Context) error {
	f.done = make(map[string]bool)
	return nil
}

func (f *fakeStore) Close() error { return nil }

func newTestService(source MessageSource, store TriageStore) *TriageService {
	scorer := NewScorer(ScoringConfig{TrustedDomains: []string{"trusted.com"}})
	classifier := NewClassifier(ClassifierConfig{
		ActionThreshold: DefaultActionThreshold,
		FYIThreshold:    DefaultFYIThreshold,
	})
	return NewTriageService(source, scorer, classifier, store, zap.NewNop())
}

func TestTriageInboxScoresAndClassifies(t *testing.T) {
	source := &fakeSource{records: []MessageRecord{
		{
			ID:            "1",
			SenderAddress: "colleague@trusted.com",
			Subject:       "Can you review this?",
			PreviewText:   "Can you review this by Friday?",
			ReceivedAt:    time.Now(),
		},
		{
			ID:            "2",
			SenderAddress: "noreply@newsletter.co",
			Subject:       "Weekly digest",
			PreviewText:   "unsubscribe",
		},
	}}
	service := newTestService(source, &fakeStore{})

	messages, err := service.TriageInbox(context.Background(), QueryOptions{Limit: 10}, false)
	if err != nil {
		t.Fatalf("TriageInbox() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0].Category != CategoryAction {
		t.Errorf("message 1 category = %s, want ACTION", messages[0].Category)
	}
	if messages[1].Category != CategoryIgnore {
		t.Errorf("message 2 category = %s, want IGNORE", messages[1].Category)
	}
	if source.gotOpts.Limit != 10 {
		t.Errorf("source got limit %d, want 10", source.gotOpts.Limit)
	}
}

func TestTriageInboxDoneOverlay(t *testing.T) {
	source := &fakeSource{records: []MessageRecord{
		{ID: "a", SenderAddress: "x@trusted.com"},
		{ID: "b", SenderAddress: "y@trusted.com"},
	}}
	store := &fakeStore{done: map[string]bool{"a": true}}
	service := newTestService(source, store)

	// Visible: done messages carry the flag.
	messages, err := service.TriageInbox(context.Background(), QueryOptions{}, false)
	if err != nil {
		t.Fatalf("TriageInbox() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if !messages[0].Done || messages[1].Done {
		t.Errorf("done flags = %v/%v, want true/false", messages[0].Done, messages[1].Done)
	}

	// Hidden: done messages are dropped.
	messages, err = service.TriageInbox(context.Background(), QueryOptions{}, true)
	if err != nil {
		t.Fatalf("TriageInbox() error = %v", err)
	}
	if len(messages) != 1 || messages[0].Record.ID != "b" {
		t.Errorf("hide-done returned %v, want only message b", messages)
	}
}

func TestTriageInboxStoreFailureDegrades(t *testing.T) {
	source := &fakeSource{records: []MessageRecord{{ID: "a", SenderAddress: "x@trusted.com"}}}
	store := &fakeStore{isDoneErr: errors.New("store offline")}
	service := newTestService(source, store)

	messages, err := service.TriageInbox(context.Background(), QueryOptions{}, true)
	if err != nil {
		t.Fatalf("TriageInbox() error = %v, want store failure tolerated", err)
	}
	if len(messages) != 1 || messages[0].Done {
		t.Errorf("got %v, want one active message", messages)
	}
}

func TestTriageInboxSourceFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("database locked")}
	service := newTestService(source, &fakeStore{})

	_, err := service.TriageInbox(context.Background(), QueryOptions{}, false)
	if err == nil {
		t.Fatal("TriageInbox() error = nil, want source failure surfaced")
	}
}

func TestServiceDoneLifecycle(t *testing.T) {
	store := &fakeStore{}
	service := newTestService(&fakeSource{}, store)
	ctx := context.Background()

	if err := service.MarkDone(ctx, "m1"); err != nil {
		t.Fatalf("MarkDone() error = %v", err)
	}
	ids, err := service.DoneIDs(ctx)
	if err != nil {
		t.Fatalf("DoneIDs() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "m1" {
		t.Errorf("DoneIDs() = %v, want [m1]", ids)
	}

	if err := service.MarkUndone(ctx, "m1"); err != nil {
		t.Fatalf("MarkUndone() error = %v", err)
	}
	ids, _ = service.DoneIDs(ctx)
	if len(ids) != 0 {
		t.Errorf("DoneIDs() = %v, want empty", ids)
	}

	service.MarkDone(ctx, "m2")
	if err := service.ClearDone(ctx); err != nil {
		t.Fatalf("ClearDone() error = %v", err)
	}
	ids, _ = service.DoneIDs(ctx)
	if len(ids) != 0 {
		t.Errorf("DoneIDs() after clear = %v, want empty", ids)
	}
}
