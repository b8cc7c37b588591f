package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	analysisCmd.PreRunE = requireSession
	rootCmd.AddCommand(analysisCmd)
}

var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Show the server-computed performance overview",
	RunE: func(cmd *cobra.Command, args []string) error {
		overview, err := analysis.Overview(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Trades:        %d (%d wins, %d losses, %d open)\n",
			overview.TotalTrades, overview.WinCount, overview.LossCount, overview.OpenCount)
		fmt.Printf("Win rate:      %.1f%%\n", overview.WinRate)
		fmt.Printf("Avg profit:    %.2f\n", overview.AvgProfit)
		fmt.Printf("Avg loss:      %.2f\n", overview.AvgLoss)
		fmt.Printf("Avg R/R:       %.2f\n", overview.AvgRiskReward)
		fmt.Printf("Best trade:    %.2f\n", overview.LargestProfit)
		fmt.Printf("Worst trade:   %.2f\n", overview.LargestLoss)
		return nil
	},
}
