package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/sheikh-saqib/personal-banking-ledger/internal/models"
)

func newAccountCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newAccountCreateCommand(a))
	return cmd
}

func newAccountCreateCommand(a *app) *cobra.Command {
	var initial string

	cmd := &cobra.Command{
		Use:   "create <account-id> <owner name>",
		Short: "Open an account",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAccountID(args[0])
			if err != nil {
				return err
			}
			owner := strings.Join(args[1:], " ")
			amount, err := parseAmount(initial)
			if err != nil {
				return err
			}

			l, closeLedger, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLedger()

			acct, err := l.CreateAccount(cmd.Context(), id, owner, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "opened account %d for %s with balance %s\n",
				acct.AccountID, acct.OwnerName, acct.Balance.StringFixed(models.MoneyPlaces))
			return nil
		},
	}

	cmd.Flags().StringVar(&initial, "initial", "0", "opening deposit")

	return cmd
}

func newDepositCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <account-id> <amount>",
		Short: "Deposit money into an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, amount, err := parseMove(args)
			if err != nil {
				return err
			}
			l, closeLedger, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLedger()

			receipt, err := l.Deposit(cmd.Context(), id, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s; balance %s\n",
				receipt.Record, receipt.Account.Balance.StringFixed(models.MoneyPlaces))
			return nil
		},
	}
}

func newWithdrawCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <account-id> <amount>",
		Short: "Withdraw money from an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, amount, err := parseMove(args)
			if err != nil {
				return err
			}
			l, closeLedger, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLedger()

			receipt, err := l.Withdraw(cmd.Context(), id, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s; balance %s\n",
				receipt.Record, receipt.Account.Balance.StringFixed(models.MoneyPlaces))
			return nil
		},
	}
}

func newTransferCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <from-account-id> <to-account-id> <amount>",
		Short: "Move money between two accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseAccountID(args[0])
			if err != nil {
				return err
			}
			to, err := parseAccountID(args[1])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			l, closeLedger, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLedger()

			receipt, err := l.Transfer(cmd.Context(), from, to, amount)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s; balance %s\n", receipt.Out, receipt.From.Balance.StringFixed(models.MoneyPlaces))
			fmt.Fprintf(out, "%s; balance %s\n", receipt.In, receipt.To.Balance.StringFixed(models.MoneyPlaces))
			return nil
		},
	}
}

func newBalanceCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Print an account's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAccountID(args[0])
			if err != nil {
				return err
			}
			l, closeLedger, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLedger()

			balance, err := l.GetBalance(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), balance.StringFixed(models.MoneyPlaces))
			return nil
		},
	}
}

func newOwnerCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "owner <account-id>",
		Short: "Print an account's owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAccountID(args[0])
			if err != nil {
				return err
			}
			l, closeLedger, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLedger()

			owner, err := l.GetOwner(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), owner)
			return nil
		},
	}
}

func newHistoryCommand(a *app) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history <account-id>",
		Short: "Print an account's transactions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAccountID(args[0])
			if err != nil {
				return err
			}
			l, closeLedger, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLedger()

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			n := 0
			for rec, err := range l.GetHistory(cmd.Context(), id) {
				if err != nil {
					return err
				}
				if limit > 0 && n == limit {
					break
				}
				n++
				if asJSON {
					if err := enc.Encode(rec); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "%d\t%s\t%s\n", rec.ID, rec.Timestamp.Format(models.TimestampLayout), rec)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many records (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per line")

	return cmd
}

func parseMove(args []string) (int64, decimal.Decimal, error) {
	id, err := parseAccountID(args[0])
	if err != nil {
		return 0, decimal.Zero, err
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		return 0, decimal.Zero, err
	}
	return id, amount, nil
}

func parseAccountID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid account id %q", s)
	}
	return id, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, models.ErrInvalidAmount)
	}
	return d, nil
}
