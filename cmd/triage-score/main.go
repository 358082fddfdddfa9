package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mikey/mail-triage/internal/adapters/mailstore"
	"github.com/mikey/mail-triage/internal/adapters/render"
	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/logging"
	"github.com/mikey/mail-triage/internal/utils"
	"go.uber.org/zap"
)

var (
	// Scoring flags
	userName       = flag.String("user-name", "", "Your name, for detecting personal mentions")
	trustedDomains = flag.String("trusted-domains", "", "Comma-separated list of trusted sender domains")
	bulkPatterns   = flag.String("bulk-patterns", "", "Comma-separated bulk sender patterns (empty uses built-ins)")
	previewMaxLen  = flag.Int("preview-max-len", core.DefaultPreviewMaxLen, "Maximum preview length used for scoring")

	// Classification flags
	actionThreshold = flag.Int("action-threshold", core.DefaultActionThreshold, "Minimum score for ACTION")
	fyiThreshold    = flag.Int("fyi-threshold", core.DefaultFYIThreshold, "Minimum score for FYI")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	if *configFile != "" {
		cfg, err = config.NewFromFile(*configFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		// Create config from command line flags
		cfg = createConfigFromFlags()
	}

	scoring := cfg.GetScoring()
	classify := cfg.GetClassify()

	classifierCfg := core.ClassifierConfig{
		ActionThreshold: classify.ActionThreshold,
		FYIThreshold:    classify.FYIThreshold,
	}
	if err := classifierCfg.Validate(); err != nil {
		logger.Fatal("Invalid classify thresholds", zap.Error(err))
	}

	scorer := core.NewScorer(core.ScoringConfig{
		UserName:           scoring.UserName,
		TrustedDomains:     scoring.TrustedDomains,
		BulkSenderPatterns: scoring.BulkSenderPatterns,
		PreviewMaxLen:      scoring.PreviewMaxLen,
	})
	classifier := core.NewClassifier(classifierCfg)

	// Read email from file or stdin
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	// Parse email
	record, err := mailstore.ParseMessage(emailReader)
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}
	record.PreviewText = utils.NewTextProcessor(logger).SanitizeUTF8(record.PreviewText)

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", record.SenderAddress)
	fmt.Printf("Subject: %s\n", record.Subject)
	if !record.ReceivedAt.IsZero() {
		fmt.Printf("Date: %s\n", record.ReceivedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("Body length: %d bytes\n", len(record.PreviewText))
	fmt.Printf("\n")

	// Score email
	fmt.Printf("=== Analysis ===\n")
	fmt.Printf("Trusted domains: %d configured\n", len(scoring.TrustedDomains))
	fmt.Printf("Action threshold: %d\n", classify.ActionThreshold)
	fmt.Printf("FYI threshold: %d\n", classify.FYIThreshold)

	startTime := time.Now()
	result := scorer.Score(record)
	category := classifier.Classify(result.TotalScore)
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Score: %d\n", result.TotalScore)
	fmt.Printf("Category: %s (%s)\n", category, category.Description())
	if len(result.Signals) > 0 {
		fmt.Printf("Signals: %s\n", render.FormatSignals(result.Signals))
	} else {
		fmt.Printf("Signals: none fired\n")
	}
	fmt.Printf("Processing time: %v\n", duration)
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("scoring.user_name", *userName)
	v.Set("scoring.trusted_domains", splitList(*trustedDomains))
	v.Set("scoring.bulk_sender_patterns", splitList(*bulkPatterns))
	v.Set("scoring.preview_max_len", *previewMaxLen)

	v.Set("classify.action_threshold", *actionThreshold)
	v.Set("classify.fyi_threshold", *fyiThreshold)

	return config.NewFromViper(v)
}

// splitList splits a comma-separated flag value, dropping empty parts
func splitList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
