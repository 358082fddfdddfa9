// Package cli implements the mail-triage command tree. The root
// command loads configuration, applies flag overrides, and builds the
// dependency container; subcommands resolve what they need from it.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/di"
	"github.com/mikey/mail-triage/internal/logging"
)

// Global flags and state
var (
	cfgFile  string
	verbose  bool
	jsonLog  bool
	client   string
	dbPath   string
	userName string

	appCfg       *config.Config
	appLogger    *zap.Logger
	appContainer *dig.Container
)

var rootCmd = &cobra.Command{
	Use:   "mail-triage",
	Short: "Deterministic inbox triage for local mail stores",
	Long: `mail-triage reads message metadata from a local mail client database
(Apple Mail or Outlook for Mac), scores each message with a fixed
signal table, and classifies it as ACTION, FYI, or IGNORE.

Scoring is fully deterministic: the same message and configuration
always produce the same score, and every score comes with the list of
signals that produced it (see the triage --why flag).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Commands that never touch mail data run without setup.
		switch cmd.Name() {
		case "version", "help", "completion", "init":
			return nil
		}

		var err error
		if cfgFile != "" {
			appCfg, err = config.NewFromFile(cfgFile)
		} else {
			appCfg, err = config.New()
		}
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		appLogger, err = logging.InitConsoleLogger(verbose, jsonLog)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		applyFlagOverrides(appCfg)

		appContainer, err = di.BuildContainerWith(appCfg, appLogger)
		if err != nil {
			return fmt.Errorf("failed to build dependency container: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appLogger != nil {
			appLogger.Sync()
		}
	},
}

// applyFlagOverrides writes flag values over the loaded configuration
// so everything built from it sees them
func applyFlagOverrides(cfg *config.Config) {
	v := cfg.GetViper()
	if client != "" {
		v.Set("mail.client", client)
	}
	if dbPath != "" {
		v.Set("mail.db_path", dbPath)
	}
	if userName != "" {
		v.Set("scoring.user_name", userName)
	}
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ~/.mail-triage, /etc/mail-triage)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&client, "client", "", "mail client (auto, applemail, outlook, file)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "explicit path to the mail client database")
	rootCmd.PersistentFlags().StringVar(&userName, "user-name", "", "your name, for detecting personal mentions")

	rootCmd.AddCommand(newTriageCommand())
	rootCmd.AddCommand(newAccountsCommand())
	rootCmd.AddCommand(newMailboxesCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newDoneCommand())
	rootCmd.AddCommand(newShowCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand())
}

// closeSource closes a message source, logging rather than failing
func closeSource(source core.MessageSource, logger *zap.Logger) {
	if err := source.Close(); err != nil {
		logger.Warn("Failed to close message source", zap.Error(err))
	}
}

// closeStore closes a triage store, logging rather than failing
func closeStore(store core.TriageStore, logger *zap.Logger) {
	if err := store.Close(); err != nil {
		logger.Warn("Failed to close triage store", zap.Error(err))
	}
}

// parseCategory validates a category filter value
func parseCategory(value string) (core.Category, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case string(core.CategoryAction):
		return core.CategoryAction, nil
	case string(core.CategoryFYI):
		return core.CategoryFYI, nil
	case string(core.CategoryIgnore):
		return core.CategoryIgnore, nil
	default:
		return "", fmt.Errorf("unknown category %q (expected ACTION, FYI, or IGNORE)", value)
	}
}
