package factory

import (
	"fmt"

	"github.com/mikey/mail-triage/internal/adapters/render"
	"github.com/mikey/mail-triage/internal/ports"
	"go.uber.org/zap"
)

// RendererFactory creates output renderers
type RendererFactory struct {
	logger *zap.Logger
}

// NewRendererFactory creates a new renderer factory
func NewRendererFactory(logger *zap.Logger) *RendererFactory {
	return &RendererFactory{
		logger: logger,
	}
}

// CreateRenderer creates a renderer for the requested output format
func (f *RendererFactory) CreateRenderer(format string) (ports.Renderer, error) {
	switch format {
	case "table", "":
		return render.NewLedgerRenderer(), nil
	case "json":
		return render.NewJSONRenderer(), nil
	case "yaml":
		return render.NewYAMLRenderer(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
