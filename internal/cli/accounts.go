package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
)

func newAccountsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List mail accounts found in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return appContainer.Invoke(func(source core.MessageSource, logger *zap.Logger) error {
				defer closeSource(source, logger)

				accounts, err := source.Accounts(cmd.Context())
				if err != nil {
					return err
				}
				if len(accounts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No accounts found.")
					return nil
				}
				for _, account := range accounts {
					fmt.Fprintln(cmd.OutOrStdout(), account)
				}
				return nil
			})
		},
	}
}

func newMailboxesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mailboxes",
		Short: "List mailboxes found in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return appContainer.Invoke(func(source core.MessageSource, logger *zap.Logger) error {
				defer closeSource(source, logger)

				boxes, err := source.Mailboxes(cmd.Context())
				if err != nil {
					return err
				}
				if len(boxes) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No mailboxes found.")
					return nil
				}
				for _, box := range boxes {
					fmt.Fprintln(cmd.OutOrStdout(), box)
				}
				return nil
			})
		},
	}
}
