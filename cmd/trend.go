package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Igor-Kaminski/round-table-bot/internal/aggregator"
	"github.com/Igor-Kaminski/round-table-bot/internal/report"
)

var (
	trendLimit int
	trendChart string
)

var trendCmd = &cobra.Command{
	Use:   "trend <name|handle|#id>",
	Short: "Recent games of a player, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().IntVarP(&trendLimit, "limit", "n", 10, fmt.Sprintf("number of games (1-%d)", aggregator.MaxHistory))
	trendCmd.Flags().StringVar(&trendChart, "chart", "", "also write a PNG chart of damage/min and KDA to this file")
}

func runTrend(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.findPlayer(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	rows, err := a.agg.History(cmd.Context(), p.ID, trendLimit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("no matches found")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n%s — last %d games\n\n", p.Name, len(rows))
	report.PrintHistory(os.Stdout, rows)

	if trendChart == "" {
		return nil
	}
	f, err := os.Create(trendChart)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	if err := report.TrendChart(f, p.Name, rows); err != nil {
		f.Close()
		os.Remove(trendChart)
		return fmt.Errorf("render chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\nChart written to %s\n", trendChart)
	return nil
}
