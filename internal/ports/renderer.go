package ports

import (
	"io"

	"github.com/mikey/mail-triage/internal/core"
)

// Renderer defines the interface for writing triage results
type Renderer interface {
	// RenderMessages writes the scored message list
	RenderMessages(w io.Writer, messages []core.ScoredMessage, explain bool) error

	// RenderSummary writes category counts for the list
	RenderSummary(w io.Writer, messages []core.ScoredMessage) error

	// RenderMessage writes a single message in detail
	RenderMessage(w io.Writer, message core.ScoredMessage) error
}
