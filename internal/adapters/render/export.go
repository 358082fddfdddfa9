package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/mikey/mail-triage/internal/core"
)

// WriteBriefing writes a self-contained plain-text block for one
// message, suitable for pasting into other tools
func WriteBriefing(w io.Writer, m core.ScoredMessage) error {
	date := "Unknown"
	if !m.Record.ReceivedAt.IsZero() {
		date = m.Record.ReceivedAt.Format("02/01/2006 15:04")
	}

	subject := m.Record.Subject
	if subject == "" {
		subject = "No subject"
	}
	sender := m.Record.SenderAddress
	if sender == "" {
		sender = "Unknown"
	}

	if _, err := fmt.Fprintf(w, "I received this email:\n\nFrom: %s\nTo: Me\nDate: %s\nSubject: %s\n\nClassification: %s (Score: %d)\n",
		sender, date, subject, m.Category, m.Result.TotalScore); err != nil {
		return err
	}

	if len(m.Result.Signals) > 0 {
		if _, err := fmt.Fprintln(w, "\nScoring Signals:"); err != nil {
			return err
		}
		for _, s := range SortSignals(m.Result.Signals) {
			if _, err := fmt.Fprintf(w, "  - %s: %+d\n", s.Name, s.Points); err != nil {
				return err
			}
		}
	}

	content := strings.TrimSpace(m.Record.PreviewText)
	if content == "" {
		content = "No content available"
	}
	_, err := fmt.Fprintf(w, "\n---\n\n%s\n\n---\n", content)
	return err
}
