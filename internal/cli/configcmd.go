package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config command flags
var (
	configInitPath  string
	configInitForce bool
)

const defaultConfigYAML = `# mail-triage configuration
mail:
  # auto, applemail, outlook, or file
  client: auto
  # explicit database path; required for the file client
  db_path: ""

scoring:
  # your name, for the mentions_name signal
  user_name: ""
  # exact domains whose senders get a trust bonus
  trusted_domains: []
  # empty uses the built-in bulk sender patterns
  bulk_sender_patterns: []
  preview_max_len: 300

classify:
  action_threshold: 60
  fyi_threshold: 30

store:
  # memory, sqlite, or mysql
  type: sqlite
  # empty defaults to ~/.mail-triage/triage.db
  sqlite_path: ""
  mysql_dsn: "user:password@tcp(localhost:3306)/mail_triage"
  cleanup_frequency: 24h
  # 0 keeps done marks forever
  retention_days: 0

logging:
  level: info
  format: console
`

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and bootstrap configuration",
	}

	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configInitPath
			if path == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("failed to resolve home directory: %w", err)
				}
				path = filepath.Join(home, ".mail-triage", "config.yaml")
			}

			if _, err := os.Stat(path); err == nil && !configInitForce {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(defaultConfigYAML), 0644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&configInitPath, "path", "", "where to write the config (default ~/.mail-triage/config.yaml)")
	cmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(appCfg.GetViper().AllSettings())
			if err != nil {
				return fmt.Errorf("failed to encode configuration: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
