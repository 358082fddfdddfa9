package core

import (
	"context"
)

// QueryOptions narrow a message-store query. Zero values mean no
// filtering; a zero Limit lets the source apply its own default.
type QueryOptions struct {
	Limit      int
	SinceDays  int
	UnreadOnly bool
	Mailbox    string
	Account    string
}

// MessageSource defines the interface for reading a mail client's
// local message store
type MessageSource interface {
	// QueryMessages returns records matching the options, newest first
	QueryMessages(ctx context.Context, opts QueryOptions) ([]MessageRecord, error)

	// Accounts lists the store's account identities
	Accounts(ctx context.Context) ([]string, error)

	// Mailboxes lists the store's mailbox names
	Mailboxes(ctx context.Context) ([]string, error)

	// Close releases the underlying store handle
	Close() error
}

// TriageStore defines the interface for persisting which messages the
// user has already dealt with
type TriageStore interface {
	// MarkDone records a message as handled
	MarkDone(ctx context.Context, messageID string) error

	// MarkUndone moves a message back to active
	MarkUndone(ctx context.Context, messageID string) error

	// IsDone reports whether a message has been handled
	IsDone(ctx context.Context, messageID string) (bool, error)

	// DoneIDs lists all handled message IDs
	DoneIDs(ctx context.Context) ([]string, error)

	// Clear forgets all handled messages
	Clear(ctx context.Context) error

	// Close releases the store
	Close() error
}
