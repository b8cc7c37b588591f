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
	tradeListAccount int64

	tradeAccount   int64
	tradePair      string
	tradeSize      string
	tradeDirection string
	tradeEntry     string
	tradeStop      string
	tradeTarget    string
	tradeDate      string

	closeExit    string
	closeOutcome string
	closeDate    string
)

func init() {
	tradeListCmd.Flags().Int64Var(&tradeListAccount, "account", 0, "restrict to one account")

	tradeNewCmd.Flags().Int64Var(&tradeAccount, "account", 0, "account id")
	tradeNewCmd.Flags().StringVar(&tradePair, "pair", "", "currency pair, e.g. EURUSD")
	tradeNewCmd.Flags().StringVar(&tradeSize, "size", "", "position size")
	tradeNewCmd.Flags().StringVar(&tradeDirection, "direction", "", "LONG or SHORT")
	tradeNewCmd.Flags().StringVar(&tradeEntry, "entry", "", "entry price")
	tradeNewCmd.Flags().StringVar(&tradeStop, "stop", "", "stop loss price (optional)")
	tradeNewCmd.Flags().StringVar(&tradeTarget, "target", "", "take profit price (optional)")
	tradeNewCmd.Flags().StringVar(&tradeDate, "date", "", "open date (RFC3339, default now)")
	for _, f := range []string{"account", "pair", "size", "direction", "entry"} {
		_ = tradeNewCmd.MarkFlagRequired(f)
	}

	tradeCloseCmd.Flags().StringVar(&closeExit, "exit", "", "exit price")
	tradeCloseCmd.Flags().StringVar(&closeOutcome, "outcome", "", "WIN or LOSS")
	tradeCloseCmd.Flags().StringVar(&closeDate, "date", "", "close date (RFC3339, default now)")
	_ = tradeCloseCmd.MarkFlagRequired("exit")
	_ = tradeCloseCmd.MarkFlagRequired("outcome")

	for _, c := range []*cobra.Command{tradeListCmd, tradeShowCmd, tradeNewCmd, tradeCloseCmd} {
		c.PreRunE = requireSession
		tradesCmd.AddCommand(c)
	}
	rootCmd.AddCommand(tradesCmd)
}

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "Record and review trades",
}

var tradeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trades, across all accounts or one",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope := "all"
		fetch := func(ctx context.Context) ([]services.Trade, error) {
			return trades.ListAll(ctx)
		}
		if tradeListAccount != 0 {
			scope = strconv.FormatInt(tradeListAccount, 10)
			fetch = func(ctx context.Context) ([]services.Trade, error) {
				return trades.ListByAccount(ctx, tradeListAccount)
			}
		}

		list, err := tradesView.Fetch(cmd.Context(), fetch)
		if err != nil {
			cached, ok := cachedTrades(scope)
			if !ok {
				return err
			}
			fmt.Fprintf(os.Stderr, "warning: %v (showing cached data)\n", err)
			list = cached
		} else {
			storeTradesSnapshot(scope, list)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPAIR\tDIR\tSIZE\tENTRY\tSTOP\tTARGET\tR/R\tSTATUS\tOPENED")
		for _, t := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%.5f\t%s\t%s\t%s\t%s\t%s\n",
				t.ID, t.CurrencyPair, t.Direction, t.PositionSize, t.EntryPrice,
				optionalFloat(t.StopLoss), optionalFloat(t.TakeProfit), optionalFloat(t.RiskReward),
				t.Status, t.DateOpen.Format("2006-01-02"))
		}
		return w.Flush()
	},
}

var tradeShowCmd = &cobra.Command{
	Use:   "show <trade-id>",
	Short: "Show one trade in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid trade id %q", args[0])
		}

		t, err := trades.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Printf("%s %s %.2f @ %.5f (%s)\n", t.Direction, t.CurrencyPair, t.PositionSize, t.EntryPrice, t.Status)
		fmt.Printf("  opened:      %s\n", t.DateOpen.Format(time.RFC3339))
		fmt.Printf("  stop loss:   %s\n", optionalFloat(t.StopLoss))
		fmt.Printf("  take profit: %s\n", optionalFloat(t.TakeProfit))
		fmt.Printf("  risk/reward: %s\n", optionalFloat(t.RiskReward))
		if t.Status == services.StatusClosed {
			closed := "-"
			if t.DateClosed != nil {
				closed = t.DateClosed.Format(time.RFC3339)
			}
			fmt.Printf("  closed:      %s @ %s\n", closed, optionalFloat(t.ExitPrice))
			if t.Outcome != nil {
				fmt.Printf("  outcome:     %s\n", *t.Outcome)
			}
			fmt.Printf("  profit:      %s (%s%%)\n", optionalFloat(t.ProfitAmount), optionalFloat(t.ProfitPercentage))
		}
		return nil
	},
}

var tradeNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Open a new trade",
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := strconv.ParseFloat(tradeSize, 64)
		if err != nil {
			return fmt.Errorf("invalid size %q", tradeSize)
		}
		entry, err := strconv.ParseFloat(tradeEntry, 64)
		if err != nil {
			return fmt.Errorf("invalid entry price %q", tradeEntry)
		}
		stop, err := parseOptionalPrice(tradeStop, "stop")
		if err != nil {
			return err
		}
		target, err := parseOptionalPrice(tradeTarget, "target")
		if err != nil {
			return err
		}

		opened := time.Now().UTC()
		if tradeDate != "" {
			opened, err = time.Parse(time.RFC3339, tradeDate)
			if err != nil {
				return fmt.Errorf("invalid date %q, want RFC3339", tradeDate)
			}
		}

		payload := services.TradeCreate{
			CurrencyPair: tradePair,
			PositionSize: size,
			Direction:    services.Direction(tradeDirection),
			EntryPrice:   entry,
			StopLoss:     stop,
			TakeProfit:   target,
			DateOpen:     opened,
		}

		t, err := trades.Create(cmd.Context(), tradeAccount, payload)
		if err != nil {
			return err
		}
		fmt.Printf("Opened trade %d: %s %s @ %.5f", t.ID, t.Direction, t.CurrencyPair, t.EntryPrice)
		if rr := t.RiskReward; rr != nil {
			fmt.Printf(" (1:%.2g)", *rr)
		}
		fmt.Println()
		return nil
	},
}

var tradeCloseCmd = &cobra.Command{
	Use:   "close <trade-id>",
	Short: "Close an open trade",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid trade id %q", args[0])
		}
		exit, err := strconv.ParseFloat(closeExit, 64)
		if err != nil {
			return fmt.Errorf("invalid exit price %q", closeExit)
		}

		closed := time.Now().UTC()
		if closeDate != "" {
			closed, err = time.Parse(time.RFC3339, closeDate)
			if err != nil {
				return fmt.Errorf("invalid date %q, want RFC3339", closeDate)
			}
		}

		t, err := trades.Close(cmd.Context(), id, services.TradeClose{
			ExitPrice:  exit,
			DateClosed: closed,
			Outcome:    services.Outcome(closeOutcome),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Closed trade %d: %s at %s\n", t.ID, t.CurrencyPair, optionalFloat(t.ExitPrice))
		return nil
	},
}

// parseOptionalPrice turns an optional price flag into a pointer; empty
// input stays nil so the wire payload carries an explicit null.
func parseOptionalPrice(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s price %q", name, raw)
	}
	return &v, nil
}

// tradesCacheKey prefixes the list scope ("all" or an account id) with the
// user's key so trade snapshots, like account snapshots, never leak across
// logins on the same machine.
func tradesCacheKey(scope string) (string, bool) {
	user, ok := userCacheKey()
	if !ok {
		return "", false
	}
	return user + "/" + scope, true
}

func storeTradesSnapshot(scope string, list []services.Trade) {
	if snapshots == nil {
		return
	}
	key, ok := tradesCacheKey(scope)
	if !ok {
		return
	}
	if err := snapshots.Put("trades", key, list); err != nil {
		log.Warn("Failed to store trades snapshot", zap.Error(err))
	}
}

func cachedTrades(scope string) ([]services.Trade, bool) {
	if snapshots == nil {
		return nil, false
	}
	key, ok := tradesCacheKey(scope)
	if !ok {
		return nil, false
	}
	var list []services.Trade
	if _, err := snapshots.Get("trades", key, &list); err != nil {
		return nil, false
	}
	return list, true
}
