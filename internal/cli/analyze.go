package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mikey/mail-triage/internal/analyze"
	"github.com/mikey/mail-triage/internal/core"
)

// Analyze command flags
var (
	analyzeLimit   int
	analyzeSince   int
	analyzeMailbox string
	analyzeAccount string
	analyzeOutput  string
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze scoring patterns over a message corpus",
		Long: `Analyze scores a larger slice of the mailbox and reports category
and score distributions, the most frequent sender domains and signals,
and threshold tuning recommendations.`,
		RunE: runAnalyze,
	}

	cmd.Flags().IntVarP(&analyzeLimit, "limit", "n", 500, "maximum number of messages to analyze")
	cmd.Flags().IntVar(&analyzeSince, "since", 0, "only messages from the last N days")
	cmd.Flags().StringVar(&analyzeMailbox, "mailbox", "", "filter by mailbox name")
	cmd.Flags().StringVar(&analyzeAccount, "account", "", "filter by account")
	cmd.Flags().StringVarP(&analyzeOutput, "output", "o", "text", "output format (text, json, yaml)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	return appContainer.Invoke(func(
		source core.MessageSource,
		analyzer *analyze.Analyzer,
		logger *zap.Logger,
	) error {
		defer closeSource(source, logger)

		records, err := source.QueryMessages(cmd.Context(), core.QueryOptions{
			Limit:     analyzeLimit,
			SinceDays: analyzeSince,
			Mailbox:   analyzeMailbox,
			Account:   analyzeAccount,
		})
		if err != nil {
			return err
		}

		report := analyzer.Analyze(records)
		w := cmd.OutOrStdout()

		switch analyzeOutput {
		case "text", "":
			return analyze.WriteReport(w, report)
		case "json":
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		case "yaml":
			data, err := yaml.Marshal(report)
			if err != nil {
				return err
			}
			_, err = w.Write(data)
			return err
		default:
			return fmt.Errorf("unsupported output format: %s", analyzeOutput)
		}
	})
}
