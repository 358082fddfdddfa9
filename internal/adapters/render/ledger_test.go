package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/mail-triage/internal/core"
)

func sampleMessages() []core.ScoredMessage {
	return []core.ScoredMessage{
		{
			Record: core.MessageRecord{
				ID:            "1",
				SenderAddress: "boss@company.com",
				Subject:       "Can you review this?",
				ReceivedAt:    time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC),
				MailboxPath:   "INBOX",
			},
			Result: core.ScoreResult{
				TotalScore: 65,
				Signals: []core.Signal{
					{Name: "direct_sender", Points: 20},
					{Name: "trusted_domain", Points: 10},
					{Name: "contains_question", Points: 15},
					{Name: "action_phrase_content", Points: 20},
				},
			},
			Category: core.CategoryAction,
		},
		{
			Record: core.MessageRecord{
				ID:            "2",
				SenderAddress: "noreply@newsletter.co",
				Subject:       "Weekly digest roundup",
				ReceivedAt:    time.Date(2026, 8, 19, 7, 0, 0, 0, time.UTC),
				MailboxPath:   "INBOX",
			},
			Result: core.ScoreResult{
				TotalScore: 0,
				Signals: []core.Signal{
					{Name: "bulk_sender", Points: -30},
					{Name: "newsletter_subject", Points: -20},
					{Name: "has_unsubscribe", Points: -40},
				},
			},
			Category: core.CategoryIgnore,
		},
	}
}

func TestLedgerRenderMessages(t *testing.T) {
	var buf bytes.Buffer
	r := NewLedgerRenderer()

	err := r.RenderMessages(&buf, sampleMessages(), false)
	require.NoError(t, err)

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4, "header, rule, two rows")

	assert.Contains(t, lines[0], "DATE")
	assert.Contains(t, lines[0], "SCORE")
	assert.Contains(t, lines[2], "2026-08-20")
	assert.Contains(t, lines[2], "company.com")
	assert.Contains(t, lines[2], "ACTION")
	assert.Contains(t, lines[3], "IGNORE")
	assert.NotContains(t, out, "Signals:")
}

func TestLedgerRenderMessagesExplain(t *testing.T) {
	var buf bytes.Buffer
	r := NewLedgerRenderer()

	err := r.RenderMessages(&buf, sampleMessages(), true)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Signals:")
	// Breakdown is sorted by magnitude, largest first.
	assert.Contains(t, out, "has_unsubscribe(-40), bulk_sender(-30), newsletter_subject(-20)")
}

func TestLedgerRenderMessagesEmpty(t *testing.T) {
	var buf bytes.Buffer
	r := NewLedgerRenderer()

	require.NoError(t, r.RenderMessages(&buf, nil, false))
	assert.Contains(t, buf.String(), "No emails found")
}

func TestLedgerRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewLedgerRenderer()

	require.NoError(t, r.RenderSummary(&buf, sampleMessages()))

	out := buf.String()
	assert.Contains(t, out, "Total emails: 2")
	assert.Contains(t, out, "ACTION:    1 ( 50.0%)")
	assert.Contains(t, out, "FYI:       0 (  0.0%)")
	assert.Contains(t, out, "IGNORE:    1 ( 50.0%)")
}

func TestLedgerRenderMessage(t *testing.T) {
	var buf bytes.Buffer
	r := NewLedgerRenderer()
	msg := sampleMessages()[0]
	msg.Record.PreviewText = "Can you review this by Friday?"

	require.NoError(t, r.RenderMessage(&buf, msg))

	out := buf.String()
	assert.Contains(t, out, "From:     boss@company.com")
	assert.Contains(t, out, "Subject:  Can you review this?")
	assert.Contains(t, out, "Score:    65 (ACTION)")
	assert.Contains(t, out, "direct_sender")
	assert.Contains(t, out, "Can you review this by Friday?")
}

func TestSortSignalsByMagnitude(t *testing.T) {
	signals := []core.Signal{
		{Name: "direct_sender", Points: 20},
		{Name: "has_unsubscribe", Points: -40},
		{Name: "trusted_domain", Points: 10},
		{Name: "action_required_subject", Points: 35},
	}

	sorted := SortSignals(signals)

	wantOrder := []string{"has_unsubscribe", "action_required_subject", "direct_sender", "trusted_domain"}
	for i, want := range wantOrder {
		assert.Equal(t, want, sorted[i].Name, "position %d", i)
	}

	// Input order is untouched.
	assert.Equal(t, "direct_sender", signals[0].Name)
}

func TestSortSignalsStableOnTies(t *testing.T) {
	signals := []core.Signal{
		{Name: "contains_question", Points: 15},
		{Name: "general_meeting_mention", Points: 15},
		{Name: "mentions_name", Points: 15},
	}

	sorted := SortSignals(signals)
	assert.Equal(t, "contains_question", sorted[0].Name)
	assert.Equal(t, "general_meeting_mention", sorted[1].Name)
	assert.Equal(t, "mentions_name", sorted[2].Name)
}

func TestFormatSender(t *testing.T) {
	tests := []struct {
		sender string
		maxLen int
		want   string
	}{
		{"boss@company.com", 25, "company.com"},
		{"Boss Person <boss@company.com>", 25, "Boss Person <boss@comp..."},
		{"", 25, "Unknown"},
		{"short@a.io", 25, "a.io"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSender(tt.sender, tt.maxLen), "sender %q", tt.sender)
	}
}

func TestTruncateDisplay(t *testing.T) {
	assert.Equal(t, "short", truncateDisplay("short", 10))
	assert.Equal(t, "exactlyten", truncateDisplay("exactlyten", 10))
	assert.Equal(t, "toolong...", truncateDisplay("toolongvalue", 10))
}
