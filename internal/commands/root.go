package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sheikh-saqib/personal-banking-ledger/internal/buildinfo"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/config"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/events"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/logging"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/storage"
)

// app holds what every subcommand shares once the root has loaded config.
type app struct {
	configPath string
	envFile    string
	cfg        *config.Config
	logger     *slog.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "ledger",
		Short:   "Personal banking ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to ledger.yaml")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the config")

	rootCmd.AddCommand(
		newServeCommand(a),
		newMigrateCommand(a),
		newConfigCommand(),
		newAccountCommand(a),
		newDepositCommand(a),
		newWithdrawCommand(a),
		newTransferCommand(a),
		newBalanceCommand(a),
		newOwnerCommand(a),
		newHistoryCommand(a),
	)

	return rootCmd
}

func (a *app) load() error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, cfg.Log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// openLedger opens the configured store and event sink and returns a Ledger
// over them. The returned close func releases both.
func (a *app) openLedger(ctx context.Context) (*ledger.Ledger, func(), error) {
	store, err := storage.Open(ctx, a.cfg.Storage, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	publisher, err := events.Open(ctx, a.cfg.Events)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("opening events: %w", err)
	}

	opts := []ledger.Option{ledger.WithLogger(a.logger)}
	if publisher != nil {
		opts = append(opts, ledger.WithPublisher(publisher))
	}

	closeAll := func() {
		if publisher != nil {
			closeQuietly(a.logger, "publisher", publisher)
		}
		closeQuietly(a.logger, "store", store)
	}
	return ledger.NewLedger(store, opts...), closeAll, nil
}

type closer interface{ Close() error }

func closeQuietly(logger *slog.Logger, what string, c closer) {
	if err := c.Close(); err != nil {
		logger.Warn("close failed", "what", what, "error", err)
	}
}
