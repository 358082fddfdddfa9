package factory

import (
	"fmt"

	"github.com/mikey/mail-triage/internal/adapters/mailstore"
	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
	"go.uber.org/zap"
)

// SourceFactory creates message sources based on configuration
type SourceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger) *SourceFactory {
	return &SourceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMessageSource creates a message source based on the
// configuration. With mail.client set to auto, Apple Mail is tried
// before Outlook.
func (f *SourceFactory) CreateMessageSource() (core.MessageSource, error) {
	client := f.cfg.GetString("mail.client")
	dbPath := f.cfg.GetString("mail.db_path")

	switch client {
	case "applemail":
		return mailstore.NewAppleMailSource(dbPath, f.logger)
	case "outlook":
		return mailstore.NewOutlookSource(dbPath, f.logger)
	case "file":
		text := NewTextProcessorFactory(f.logger).CreateTextProcessor()
		return mailstore.NewFileSource(dbPath, text, f.logger)
	case "auto", "":
		// An explicit path cannot be probed unambiguously; both
		// clients store SQLite.
		if dbPath != "" {
			return nil, fmt.Errorf("mail.client must be set when mail.db_path is provided")
		}
		if source, err := mailstore.NewAppleMailSource("", f.logger); err == nil {
			f.logger.Info("Auto-detected Apple Mail database")
			return source, nil
		}
		if source, err := mailstore.NewOutlookSource("", f.logger); err == nil {
			f.logger.Info("Auto-detected Outlook database")
			return source, nil
		}
		return nil, fmt.Errorf("no mail database found; set mail.client and mail.db_path explicitly")
	default:
		return nil, fmt.Errorf("unsupported mail client: %s", client)
	}
}
