package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/mikey/mail-triage/internal/core"
)

// LedgerRenderer writes scored messages as a fixed-width table, one
// row per message
type LedgerRenderer struct{}

// NewLedgerRenderer creates a new ledger renderer
func NewLedgerRenderer() *LedgerRenderer {
	return &LedgerRenderer{}
}

// RenderMessages writes the ledger table. With explain set, each row
// is followed by its signal breakdown.
func (r *LedgerRenderer) RenderMessages(w io.Writer, messages []core.ScoredMessage, explain bool) error {
	if len(messages) == 0 {
		_, err := fmt.Fprintln(w, "No emails found matching criteria.")
		return err
	}

	header := fmt.Sprintf("%-12s | %-25s | %-35s | %5s | %-7s | %-15s",
		"DATE", "FROM", "SUBJECT", "SCORE", "CLASS", "MAILBOX")
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", len(header))); err != nil {
		return err
	}

	for _, m := range messages {
		row := fmt.Sprintf("%-12s | %-25s | %-35s | %5d | %-7s | %-15s",
			formatDate(m.Record.ReceivedAt),
			formatSender(m.Record.SenderAddress, 25),
			formatText(m.Record.Subject, 35),
			m.Result.TotalScore,
			m.Category,
			formatText(m.Record.MailboxPath, 15))
		if _, err := fmt.Fprintln(w, row); err != nil {
			return err
		}

		if explain {
			if _, err := fmt.Fprintf(w, "  └─ Signals: %s\n\n", FormatSignals(m.Result.Signals)); err != nil {
				return err
			}
		}
	}

	return nil
}

// RenderSummary writes category counts and percentages
func (r *LedgerRenderer) RenderSummary(w io.Writer, messages []core.ScoredMessage) error {
	if len(messages) == 0 {
		_, err := fmt.Fprintln(w, "No emails to summarize.")
		return err
	}

	var action, fyi, ignore int
	for _, m := range messages {
		switch m.Category {
		case core.CategoryAction:
			action++
		case core.CategoryFYI:
			fyi++
		case core.CategoryIgnore:
			ignore++
		}
	}

	total := len(messages)
	pct := func(n int) float64 { return float64(n) / float64(total) * 100 }

	_, err := fmt.Fprintf(w, "\nSummary:\n  Total emails: %d\n  ACTION:  %3d (%5.1f%%)\n  FYI:     %3d (%5.1f%%)\n  IGNORE:  %3d (%5.1f%%)\n",
		total, action, pct(action), fyi, pct(fyi), ignore, pct(ignore))
	return err
}

// RenderMessage writes one message with its full signal breakdown and
// preview text
func (r *LedgerRenderer) RenderMessage(w io.Writer, m core.ScoredMessage) error {
	status := "active"
	if m.Done {
		status = "done"
	}

	fields := []struct {
		label string
		value string
	}{
		{"From", m.Record.SenderAddress},
		{"Subject", m.Record.Subject},
		{"Date", formatDateTime(m.Record.ReceivedAt)},
		{"Mailbox", m.Record.MailboxPath},
		{"Account", m.Record.Account},
		{"Status", status},
		{"Score", fmt.Sprintf("%d (%s)", m.Result.TotalScore, m.Category)},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-9s %s\n", f.label+":", f.value); err != nil {
			return err
		}
	}

	if len(m.Result.Signals) > 0 {
		if _, err := fmt.Fprintln(w, "Signals:"); err != nil {
			return err
		}
		for _, s := range SortSignals(m.Result.Signals) {
			if _, err := fmt.Fprintf(w, "  %-32s %+d\n", s.Name, s.Points); err != nil {
				return err
			}
		}
	}

	if preview := strings.TrimSpace(m.Record.PreviewText); preview != "" {
		if _, err := fmt.Fprintf(w, "Preview:\n  %s\n", preview); err != nil {
			return err
		}
	}

	return nil
}

// SortSignals returns a copy ordered by magnitude, largest first.
// Equal magnitudes keep their evaluation order.
func SortSignals(signals []core.Signal) []core.Signal {
	sorted := make([]core.Signal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return abs(sorted[i].Points) > abs(sorted[j].Points)
	})
	return sorted
}

// FormatSignals renders a breakdown like "has_unsubscribe(-40),
// is_reply(+10)"
func FormatSignals(signals []core.Signal) string {
	parts := make([]string, 0, len(signals))
	for _, s := range SortSignals(signals) {
		parts = append(parts, fmt.Sprintf("%s(%+d)", s.Name, s.Points))
	}
	return strings.Join(parts, ", ")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("2006-01-02 15:04")
}

// formatSender shows just the domain when it fits, which keeps the
// column readable for long corporate addresses
func formatSender(sender string, maxLen int) string {
	if sender == "" {
		return "Unknown"
	}
	if at := strings.LastIndex(sender, "@"); at >= 0 && !strings.Contains(sender, " ") {
		domain := strings.TrimSpace(sender[at+1:])
		if domain != "" && len(domain) <= maxLen {
			return domain
		}
	}
	return truncateDisplay(sender, maxLen)
}

func formatText(text string, maxLen int) string {
	return truncateDisplay(strings.Join(strings.Fields(text), " "), maxLen)
}

func truncateDisplay(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
