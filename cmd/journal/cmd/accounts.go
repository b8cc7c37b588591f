package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"trade-journal-go/internal/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	accountName        string
	accountCurrency    string
	accountBalance     float64
	accountBroker      string
	accountType        string
	accountDescription string

	depositAmount string
	depositDate   string
	depositNotes  string
)

func init() {
	accountCreateCmd.Flags().StringVar(&accountName, "name", "", "account name")
	accountCreateCmd.Flags().StringVar(&accountCurrency, "currency", "USD", "currency code (USD, EUR, GBP, ...)")
	accountCreateCmd.Flags().Float64Var(&accountBalance, "balance", 0, "initial balance")
	accountCreateCmd.Flags().StringVar(&accountBroker, "broker", "", "broker name")
	accountCreateCmd.Flags().StringVar(&accountType, "type", "", "account type")
	accountCreateCmd.Flags().StringVar(&accountDescription, "description", "", "free-form description")
	_ = accountCreateCmd.MarkFlagRequired("name")
	_ = accountCreateCmd.MarkFlagRequired("balance")

	accountDepositCmd.Flags().StringVar(&depositAmount, "amount", "", "deposit amount")
	accountDepositCmd.Flags().StringVar(&depositDate, "date", "", "deposit date (YYYY-MM-DD, default today)")
	accountDepositCmd.Flags().StringVar(&depositNotes, "notes", "", "notes")
	_ = accountDepositCmd.MarkFlagRequired("amount")

	for _, c := range []*cobra.Command{accountListCmd, accountShowCmd, accountCreateCmd, accountDepositsCmd, accountDepositCmd} {
		c.PreRunE = requireSession
		accountsCmd.AddCommand(c)
	}
	rootCmd.AddCommand(accountsCmd)
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage trading accounts",
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your trading accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := accountsView.Fetch(cmd.Context(), func(ctx context.Context) ([]services.Account, error) {
			return accounts.List(ctx)
		})
		if err != nil {
			cached, ok := cachedAccounts()
			if !ok {
				return err
			}
			fmt.Fprintf(os.Stderr, "warning: %v (showing cached data)\n", err)
			list = cached
		} else {
			storeAccountsSnapshot(list)
		}

		printAccounts(list)
		return nil
	},
}

var accountShowCmd = &cobra.Command{
	Use:   "show <account-id>",
	Short: "Show one account with its deposits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid account id %q", args[0])
		}

		account, err := accounts.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", account.Name, account.Currency)
		fmt.Printf("  balance:  %.2f (initial %.2f)\n", account.CurrentBalance, account.InitialBalance)
		if account.Broker != "" {
			fmt.Printf("  broker:   %s\n", account.Broker)
		}
		if account.Description != "" {
			fmt.Printf("  notes:    %s\n", account.Description)
		}
		return nil
	},
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a trading account",
	RunE: func(cmd *cobra.Command, args []string) error {
		account, err := accounts.Create(cmd.Context(), services.AccountCreate{
			Name:           accountName,
			Currency:       accountCurrency,
			InitialBalance: accountBalance,
			Broker:         accountBroker,
			AccountType:    accountType,
			Description:    accountDescription,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created account %d: %s (%s %.2f)\n",
			account.ID, account.Name, account.Currency, account.CurrentBalance)
		return nil
	},
}

var accountDepositsCmd = &cobra.Command{
	Use:   "deposits <account-id>",
	Short: "List the deposits of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid account id %q", args[0])
		}

		deposits, err := accounts.Deposits(cmd.Context(), id)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATE\tAMOUNT\tNOTES")
		for _, d := range deposits {
			fmt.Fprintf(w, "%d\t%s\t%.2f\t%s\n", d.ID, d.Date.Format("2006-01-02"), d.Amount, d.Notes)
		}
		return w.Flush()
	},
}

var accountDepositCmd = &cobra.Command{
	Use:   "deposit <account-id>",
	Short: "Record a deposit into an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid account id %q", args[0])
		}

		amount, err := strconv.ParseFloat(depositAmount, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", depositAmount)
		}

		date := time.Now()
		if depositDate != "" {
			date, err = time.Parse("2006-01-02", depositDate)
			if err != nil {
				return fmt.Errorf("invalid date %q, want YYYY-MM-DD", depositDate)
			}
		}

		deposit, err := accounts.CreateDeposit(cmd.Context(), id, services.DepositCreate{
			Amount: amount,
			Date:   date,
			Notes:  depositNotes,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Recorded deposit %d: %.2f on %s\n",
			deposit.ID, deposit.Amount, deposit.Date.Format("2006-01-02"))
		return nil
	},
}

func printAccounts(list []services.Account) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCURRENCY\tBALANCE\tBROKER")
	for _, a := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\n", a.ID, a.Name, a.Currency, a.CurrentBalance, a.Broker)
	}
	_ = w.Flush()
}

func storeAccountsSnapshot(list []services.Account) {
	if snapshots == nil {
		return
	}
	key, ok := userCacheKey()
	if !ok {
		return
	}
	if err := snapshots.Put("accounts", key, list); err != nil {
		log.Warn("Failed to store accounts snapshot", zap.Error(err))
	}
}

func cachedAccounts() ([]services.Account, bool) {
	if snapshots == nil {
		return nil, false
	}
	key, ok := userCacheKey()
	if !ok {
		return nil, false
	}
	var list []services.Account
	if _, err := snapshots.Get("accounts", key, &list); err != nil {
		return nil, false
	}
	return list, true
}
