package core

import (
	"time"
)

// MessageRecord represents a single email message as read from a mail store.
// Records are constructed by a message source and are read-only to scoring.
type MessageRecord struct {
	ID            string
	SenderAddress string
	Subject       string
	PreviewText   string
	IsUnread      bool
	ReceivedAt    time.Time
	MailboxPath   string
	Account       string
}

// Signal is a single named contribution to a message's score
type Signal struct {
	Name   string
	Points int
}

// ScoreResult represents the outcome of one scoring pass over a message.
// Signals are kept in detector evaluation order.
type ScoreResult struct {
	TotalScore int
	Signals    []Signal
}

// Category is the triage band a scored message falls into
type Category string

const (
	CategoryAction Category = "ACTION"
	CategoryFYI    Category = "FYI"
	CategoryIgnore Category = "IGNORE"
)

// Description returns a short human explanation of the category
func (c Category) Description() string {
	switch c {
	case CategoryAction:
		return "Needs a response or action from you"
	case CategoryFYI:
		return "Worth reading, no action required"
	case CategoryIgnore:
		return "Newsletter, notification, or bulk mail"
	default:
		return "Unknown category"
	}
}

// ScoredMessage pairs a record with its score and derived category
type ScoredMessage struct {
	Record   MessageRecord
	Result   ScoreResult
	Category Category
	Done     bool
}
