package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"trade-journal-go/internal/services"

	"github.com/spf13/cobra"
)

var (
	goalPeriod       string
	goalStart        string
	goalEnd          string
	goalProfit       string
	goalTrades       string
	goalWinRate      string
	goalOtherTargets string
	goalNotes        string

	editPeriod  string
	editStart   string
	editEnd     string
	editProfit  string
	editTrades  string
	editWinRate string
	editNotes   string
)

func init() {
	goalAddCmd.Flags().StringVar(&goalPeriod, "period", "MONTHLY", "WEEKLY, MONTHLY or YEARLY")
	goalAddCmd.Flags().StringVar(&goalStart, "start", "", "start date (YYYY-MM-DD)")
	goalAddCmd.Flags().StringVar(&goalEnd, "end", "", "end date (YYYY-MM-DD)")
	goalAddCmd.Flags().StringVar(&goalProfit, "profit-target", "", "profit target (optional)")
	goalAddCmd.Flags().StringVar(&goalTrades, "trades-target", "", "number of trades target (optional)")
	goalAddCmd.Flags().StringVar(&goalWinRate, "win-rate-target", "", "win rate target in percent (optional)")
	goalAddCmd.Flags().StringVar(&goalOtherTargets, "other", "", "free-form targets")
	goalAddCmd.Flags().StringVar(&goalNotes, "notes", "", "notes")
	_ = goalAddCmd.MarkFlagRequired("start")
	_ = goalAddCmd.MarkFlagRequired("end")

	goalEditCmd.Flags().StringVar(&editPeriod, "period", "", "WEEKLY, MONTHLY or YEARLY")
	goalEditCmd.Flags().StringVar(&editStart, "start", "", "start date (YYYY-MM-DD)")
	goalEditCmd.Flags().StringVar(&editEnd, "end", "", "end date (YYYY-MM-DD)")
	goalEditCmd.Flags().StringVar(&editProfit, "profit-target", "", "profit target")
	goalEditCmd.Flags().StringVar(&editTrades, "trades-target", "", "number of trades target")
	goalEditCmd.Flags().StringVar(&editWinRate, "win-rate-target", "", "win rate target in percent")
	goalEditCmd.Flags().StringVar(&editNotes, "notes", "", "notes")

	for _, c := range []*cobra.Command{goalListCmd, goalAddCmd, goalEditCmd, goalDeleteCmd} {
		c.PreRunE = requireSession
		goalsCmd.AddCommand(c)
	}
	rootCmd.AddCommand(goalsCmd)
}

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Set and review trading goals",
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := goals.List(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPERIOD\tFROM\tTO\tPROFIT\tTRADES\tWIN%")
		for _, g := range list {
			tradesTarget := "-"
			if g.TradesTarget != nil {
				tradesTarget = strconv.Itoa(*g.TradesTarget)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				g.ID, g.PeriodType,
				g.StartDate.Format("2006-01-02"), g.EndDate.Format("2006-01-02"),
				optionalFloat(g.ProfitTarget), tradesTarget, optionalFloat(g.WinRateTarget))
		}
		return w.Flush()
	},
}

var goalAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Set a new goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		profit, err := parseOptionalPrice(goalProfit, "profit-target")
		if err != nil {
			return err
		}
		winRate, err := parseOptionalPrice(goalWinRate, "win-rate-target")
		if err != nil {
			return err
		}

		var tradesTarget *int
		if goalTrades != "" {
			n, err := strconv.Atoi(goalTrades)
			if err != nil {
				return fmt.Errorf("invalid trades-target %q", goalTrades)
			}
			tradesTarget = &n
		}

		g, err := goals.Create(cmd.Context(), services.GoalCreate{
			PeriodType:    services.PeriodType(goalPeriod),
			StartDate:     goalStart,
			EndDate:       goalEnd,
			ProfitTarget:  profit,
			TradesTarget:  tradesTarget,
			WinRateTarget: winRate,
			OtherTargets:  goalOtherTargets,
			Notes:         goalNotes,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created goal %d (%s, %s to %s)\n",
			g.ID, g.PeriodType, g.StartDate.Format("2006-01-02"), g.EndDate.Format("2006-01-02"))
		return nil
	},
}

var goalEditCmd = &cobra.Command{
	Use:   "edit <goal-id>",
	Short: "Change fields of an existing goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid goal id %q", args[0])
		}

		// Only flags the user actually set travel in the payload; the
		// server leaves the rest untouched.
		var payload services.GoalUpdate
		if cmd.Flags().Changed("period") {
			p := services.PeriodType(editPeriod)
			payload.PeriodType = &p
		}
		if cmd.Flags().Changed("start") {
			payload.StartDate = &editStart
		}
		if cmd.Flags().Changed("end") {
			payload.EndDate = &editEnd
		}
		if cmd.Flags().Changed("profit-target") {
			v, err := parseOptionalPrice(editProfit, "profit-target")
			if err != nil {
				return err
			}
			payload.ProfitTarget = v
		}
		if cmd.Flags().Changed("trades-target") {
			n, err := strconv.Atoi(editTrades)
			if err != nil {
				return fmt.Errorf("invalid trades-target %q", editTrades)
			}
			payload.TradesTarget = &n
		}
		if cmd.Flags().Changed("win-rate-target") {
			v, err := parseOptionalPrice(editWinRate, "win-rate-target")
			if err != nil {
				return err
			}
			payload.WinRateTarget = v
		}
		if cmd.Flags().Changed("notes") {
			payload.Notes = &editNotes
		}

		g, err := goals.Update(cmd.Context(), id, payload)
		if err != nil {
			return err
		}
		fmt.Printf("Updated goal %d (%s, %s to %s)\n",
			g.ID, g.PeriodType, g.StartDate.Format("2006-01-02"), g.EndDate.Format("2006-01-02"))
		return nil
	},
}

var goalDeleteCmd = &cobra.Command{
	Use:   "delete <goal-id>",
	Short: "Delete a goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid goal id %q", args[0])
		}
		if err := goals.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted goal %d\n", id)
		return nil
	},
}
