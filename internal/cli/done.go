package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
)

func newDoneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done",
		Short: "Manage the processed-message marks",
		Long: `Done marks persist across runs in the triage store. Marked messages
stay in the ledger until triage is run with --hide-done.`,
	}

	cmd.AddCommand(newDoneListCommand())
	cmd.AddCommand(newDoneMarkCommand())
	cmd.AddCommand(newDoneUnmarkCommand())
	cmd.AddCommand(newDoneClearCommand())

	return cmd
}

func newDoneListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List message IDs marked done, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return appContainer.Invoke(func(store core.TriageStore, logger *zap.Logger) error {
				defer closeStore(store, logger)

				ids, err := store.DoneIDs(cmd.Context())
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No messages marked done.")
					return nil
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
}

func newDoneMarkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mark <message-id>...",
		Short: "Mark messages as processed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return appContainer.Invoke(func(store core.TriageStore, logger *zap.Logger) error {
				defer closeStore(store, logger)

				for _, id := range args {
					if err := store.MarkDone(cmd.Context(), id); err != nil {
						return fmt.Errorf("failed to mark %s done: %w", id, err)
					}
					logger.Info("Marked message done", zap.String("message_id", id))
				}
				return nil
			})
		},
	}
}

func newDoneUnmarkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unmark <message-id>...",
		Short: "Remove the processed mark from messages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return appContainer.Invoke(func(store core.TriageStore, logger *zap.Logger) error {
				defer closeStore(store, logger)

				for _, id := range args {
					if err := store.MarkUndone(cmd.Context(), id); err != nil {
						return fmt.Errorf("failed to unmark %s: %w", id, err)
					}
					logger.Info("Unmarked message", zap.String("message_id", id))
				}
				return nil
			})
		},
	}
}

func newDoneClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every processed mark",
		RunE: func(cmd *cobra.Command, args []string) error {
			return appContainer.Invoke(func(store core.TriageStore, logger *zap.Logger) error {
				defer closeStore(store, logger)

				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cleared all done marks.")
				return nil
			})
		},
	}
}
