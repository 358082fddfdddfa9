package di

import (
	"fmt"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/analyze"
	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/factory"
	"github.com/mikey/mail-triage/internal/logging"
	"github.com/mikey/mail-triage/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	return provideComponents(container)
}

// BuildContainerWith registers an already loaded configuration and
// logger, which the CLI sets up before commands run
func BuildContainerWith(cfg *config.Config, logger *zap.Logger) (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() *zap.Logger { return logger }); err != nil {
		return nil, err
	}

	return provideComponents(container)
}

func provideComponents(container *dig.Container) (*dig.Container, error) {
	// Register factories
	if err := container.Provide(factory.NewSourceFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewRendererFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register message source
	if err := container.Provide(func(f *factory.SourceFactory) (core.MessageSource, error) {
		return f.CreateMessageSource()
	}); err != nil {
		return nil, err
	}

	// Register triage store
	if err := container.Provide(func(f *factory.StoreFactory) (core.TriageStore, error) {
		return f.CreateTriageStore()
	}); err != nil {
		return nil, err
	}

	// Register scoring configuration
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.ScoringConfig {
		scoring := cfg.GetScoring()
		if len(scoring.TrustedDomains) > 0 {
			logger.Info("Loaded trusted domains", zap.Strings("domains", scoring.TrustedDomains))
		}
		return core.ScoringConfig{
			UserName:           scoring.UserName,
			TrustedDomains:     scoring.TrustedDomains,
			BulkSenderPatterns: scoring.BulkSenderPatterns,
			PreviewMaxLen:      scoring.PreviewMaxLen,
		}
	}); err != nil {
		return nil, err
	}

	// Register classifier thresholds
	if err := container.Provide(func(cfg *config.Config) (core.ClassifierConfig, error) {
		classify := cfg.GetClassify()
		classifierCfg := core.ClassifierConfig{
			ActionThreshold: classify.ActionThreshold,
			FYIThreshold:    classify.FYIThreshold,
		}
		if err := classifierCfg.Validate(); err != nil {
			return core.ClassifierConfig{}, fmt.Errorf("invalid classify thresholds: %w", err)
		}
		return classifierCfg, nil
	}); err != nil {
		return nil, err
	}

	// Register scorer and classifier
	if err := container.Provide(core.NewScorer); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewClassifier); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(core.NewTriageService); err != nil {
		return nil, err
	}

	// Register corpus analyzer
	if err := container.Provide(analyze.NewAnalyzer); err != nil {
		return nil, err
	}

	return container, nil
}
