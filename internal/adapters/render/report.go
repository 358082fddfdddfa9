package render

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mikey/mail-triage/internal/core"
	"gopkg.in/yaml.v3"
)

// messageReport is the serialized form of a scored message
type messageReport struct {
	ID       string         `json:"id" yaml:"id"`
	Date     string         `json:"date,omitempty" yaml:"date,omitempty"`
	From     string         `json:"from" yaml:"from"`
	Subject  string         `json:"subject" yaml:"subject"`
	Preview  string         `json:"preview,omitempty" yaml:"preview,omitempty"`
	Mailbox  string         `json:"mailbox,omitempty" yaml:"mailbox,omitempty"`
	Account  string         `json:"account,omitempty" yaml:"account,omitempty"`
	Unread   bool           `json:"unread" yaml:"unread"`
	Score    int            `json:"score" yaml:"score"`
	Category string         `json:"category" yaml:"category"`
	Done     bool           `json:"done" yaml:"done"`
	Signals  []signalReport `json:"signals" yaml:"signals"`
}

type signalReport struct {
	Name   string `json:"name" yaml:"name"`
	Points int    `json:"points" yaml:"points"`
}

func buildReport(m core.ScoredMessage) messageReport {
	signals := make([]signalReport, 0, len(m.Result.Signals))
	for _, s := range SortSignals(m.Result.Signals) {
		signals = append(signals, signalReport{Name: s.Name, Points: s.Points})
	}

	var date string
	if !m.Record.ReceivedAt.IsZero() {
		date = m.Record.ReceivedAt.Format(time.RFC3339)
	}

	return messageReport{
		ID:       m.Record.ID,
		Date:     date,
		From:     m.Record.SenderAddress,
		Subject:  m.Record.Subject,
		Preview:  m.Record.PreviewText,
		Mailbox:  m.Record.MailboxPath,
		Account:  m.Record.Account,
		Unread:   m.Record.IsUnread,
		Score:    m.Result.TotalScore,
		Category: string(m.Category),
		Done:     m.Done,
		Signals:  signals,
	}
}

func buildReports(messages []core.ScoredMessage) []messageReport {
	reports := make([]messageReport, 0, len(messages))
	for _, m := range messages {
		reports = append(reports, buildReport(m))
	}
	return reports
}

// JSONRenderer writes scored messages as indented JSON
type JSONRenderer struct{}

// NewJSONRenderer creates a new JSON renderer
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// RenderMessages writes the full report list. Signals are always
// included; the explain flag only affects the table form.
func (r *JSONRenderer) RenderMessages(w io.Writer, messages []core.ScoredMessage, explain bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(buildReports(messages)); err != nil {
		return fmt.Errorf("failed to encode json report: %w", err)
	}
	return nil
}

// RenderSummary is a no-op; counts are derivable from the report
func (r *JSONRenderer) RenderSummary(w io.Writer, messages []core.ScoredMessage) error {
	return nil
}

// RenderMessage writes a single report object
func (r *JSONRenderer) RenderMessage(w io.Writer, m core.ScoredMessage) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(buildReport(m)); err != nil {
		return fmt.Errorf("failed to encode json report: %w", err)
	}
	return nil
}

// YAMLRenderer writes scored messages as a YAML document
type YAMLRenderer struct{}

// NewYAMLRenderer creates a new YAML renderer
func NewYAMLRenderer() *YAMLRenderer {
	return &YAMLRenderer{}
}

// RenderMessages writes the full report list
func (r *YAMLRenderer) RenderMessages(w io.Writer, messages []core.ScoredMessage, explain bool) error {
	data, err := yaml.Marshal(buildReports(messages))
	if err != nil {
		return fmt.Errorf("failed to encode yaml report: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// RenderSummary is a no-op; counts are derivable from the report
func (r *YAMLRenderer) RenderSummary(w io.Writer, messages []core.ScoredMessage) error {
	return nil
}

// RenderMessage writes a single report document
func (r *YAMLRenderer) RenderMessage(w io.Writer, m core.ScoredMessage) error {
	data, err := yaml.Marshal(buildReport(m))
	if err != nil {
		return fmt.Errorf("failed to encode yaml report: %w", err)
	}
	_, err = w.Write(data)
	return err
}
