package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/adapters/render"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/factory"
)

// Show command flags
var (
	showSearchLimit int
	showExport      bool
	showOutput      string
	showOutFile     string
)

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <message-id>",
		Short: "Show one message with its score breakdown",
		Long: `Show looks a message up by ID among the most recent messages and
prints its metadata, signal breakdown, and preview text. With
--export, the output is a self-contained briefing block for pasting
into other tools.`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}

	cmd.Flags().IntVar(&showSearchLimit, "search-limit", 500, "how many recent messages to search for the ID")
	cmd.Flags().BoolVar(&showExport, "export", false, "print an export briefing instead of the detail view")
	cmd.Flags().StringVarP(&showOutput, "output", "o", "table", "output format (table, json, yaml)")
	cmd.Flags().StringVar(&showOutFile, "out", "", "write to a file instead of stdout")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	messageID := args[0]

	return appContainer.Invoke(func(
		service *core.TriageService,
		source core.MessageSource,
		store core.TriageStore,
		renderers *factory.RendererFactory,
		logger *zap.Logger,
	) error {
		defer closeSource(source, logger)
		defer closeStore(store, logger)

		records, err := source.QueryMessages(cmd.Context(), core.QueryOptions{Limit: showSearchLimit})
		if err != nil {
			return err
		}

		var found *core.MessageRecord
		for i := range records {
			if records[i].ID == messageID {
				found = &records[i]
				break
			}
		}
		if found == nil {
			return fmt.Errorf("message %s not found in the %d most recent messages", messageID, showSearchLimit)
		}

		message := service.ScoreRecord(*found)
		done, err := store.IsDone(cmd.Context(), messageID)
		if err != nil {
			logger.Warn("Failed to check done state", zap.String("message_id", messageID), zap.Error(err))
		}
		message.Done = done

		var w io.Writer = cmd.OutOrStdout()
		if showOutFile != "" {
			f, err := os.Create(showOutFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		if showExport {
			return render.WriteBriefing(w, message)
		}

		renderer, err := renderers.CreateRenderer(showOutput)
		if err != nil {
			return err
		}
		return renderer.RenderMessage(w, message)
	})
}
