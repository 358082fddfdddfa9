package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/factory"
)

// Triage command flags
var (
	triageLimit      int
	triageSince      int
	triageUnreadOnly bool
	triageMailbox    string
	triageAccount    string
	triageCategory   string
	triageWhy        bool
	triageHideDone   bool
	triageOutput     string
)

func newTriageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Score and classify recent messages as a ledger",
		Long: `Triage queries the mail store, scores every message, and prints a
ledger sorted newest first. Messages marked done stay visible unless
--hide-done is set.

Examples:
  # The 20 most recent messages
  mail-triage triage

  # Unread messages from the last 3 days, with signal breakdowns
  mail-triage triage --since 3 --unread-only --why

  # Only what needs a reply, as JSON
  mail-triage triage --category ACTION --output json`,
		RunE: runTriage,
	}

	cmd.Flags().IntVarP(&triageLimit, "limit", "n", 20, "maximum number of messages")
	cmd.Flags().IntVar(&triageSince, "since", 0, "only messages from the last N days")
	cmd.Flags().BoolVar(&triageUnreadOnly, "unread-only", false, "only unread messages")
	cmd.Flags().StringVar(&triageMailbox, "mailbox", "", "filter by mailbox name")
	cmd.Flags().StringVar(&triageAccount, "account", "", "filter by account")
	cmd.Flags().StringVar(&triageCategory, "category", "", "filter by category (ACTION, FYI, IGNORE)")
	cmd.Flags().BoolVar(&triageWhy, "why", false, "show the signal breakdown under each row")
	cmd.Flags().BoolVar(&triageHideDone, "hide-done", false, "hide messages marked done")
	cmd.Flags().StringVarP(&triageOutput, "output", "o", "table", "output format (table, json, yaml)")

	return cmd
}

func runTriage(cmd *cobra.Command, args []string) error {
	var categoryFilter core.Category
	if triageCategory != "" {
		parsed, err := parseCategory(triageCategory)
		if err != nil {
			return err
		}
		categoryFilter = parsed
	}

	return appContainer.Invoke(func(
		service *core.TriageService,
		source core.MessageSource,
		store core.TriageStore,
		renderers *factory.RendererFactory,
		logger *zap.Logger,
	) error {
		defer closeSource(source, logger)
		defer closeStore(store, logger)

		renderer, err := renderers.CreateRenderer(triageOutput)
		if err != nil {
			return err
		}

		opts := core.QueryOptions{
			Limit:      triageLimit,
			SinceDays:  triageSince,
			UnreadOnly: triageUnreadOnly,
			Mailbox:    triageMailbox,
			Account:    triageAccount,
		}
		messages, err := service.TriageInbox(cmd.Context(), opts, triageHideDone)
		if err != nil {
			return err
		}

		if categoryFilter != "" {
			filtered := messages[:0]
			for _, m := range messages {
				if m.Category == categoryFilter {
					filtered = append(filtered, m)
				}
			}
			messages = filtered
		}

		w := cmd.OutOrStdout()
		if err := renderer.RenderMessages(w, messages, triageWhy); err != nil {
			return err
		}
		return renderer.RenderSummary(w, messages)
	})
}
