package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Igor-Kaminski/round-table-bot/internal/aggregator"
	"github.com/Igor-Kaminski/round-table-bot/internal/report"
)

var (
	champsSort  string
	champsLimit int
)

var champsCmd = &cobra.Command{
	Use:   "champs <name|handle|#id>",
	Short: "Per-champion breakdown for one player",
	Args:  cobra.ExactArgs(1),
	RunE:  runChamps,
}

func init() {
	champsCmd.Flags().StringVar(&champsSort, "sort", aggregator.SortGames, "sort by games, kda or winrate")
	champsCmd.Flags().IntVarP(&champsLimit, "limit", "n", 0, "show at most N champions (0 = all)")
}

func runChamps(cmd *cobra.Command, args []string) error {
	switch champsSort {
	case aggregator.SortGames, aggregator.SortKDA, aggregator.SortWinrate:
	default:
		return fmt.Errorf("unknown sort %q (valid: games, kda, winrate)", champsSort)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.findPlayer(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	lines, err := a.agg.ChampionStats(cmd.Context(), p.ID, champsSort)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Fprintf(os.Stdout, "No games found for %s\n", p.Name)
		return nil
	}
	if champsLimit > 0 && len(lines) > champsLimit {
		lines = lines[:champsLimit]
	}
	fmt.Fprintf(os.Stdout, "\n%s — champions by %s\n\n", p.Name, champsSort)
	report.PrintChampionTable(os.Stdout, lines)
	return nil
}
