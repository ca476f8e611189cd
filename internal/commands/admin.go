package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sheikh-saqib/personal-banking-ledger/internal/config"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/storage"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the ledger schema in the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := storage.Open(ctx, a.cfg.Storage, a.logger)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer closeQuietly(a.logger, "store", store)

			m, ok := store.(storage.Migrator)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s storage has no schema\n", a.cfg.Storage.Driver)
				return nil
			}
			if err := m.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s storage\n", a.cfg.Storage.Driver)
			return nil
		},
	}
}

func newConfigCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a default ledger.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "ledger.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
