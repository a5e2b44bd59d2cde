package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Igor-Kaminski/round-table-bot/internal/leaderboard"
	"github.com/Igor-Kaminski/round-table-bot/internal/model"
	"github.com/Igor-Kaminski/round-table-bot/internal/report"
)

var (
	lbLimit      int
	lbBottom     bool
	lbChampion   string
	lbRole       string
	lbMinGames   int
	lbLinkedOnly bool
)

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard <stat>",
	Aliases: []string{"lb"},
	Short:   "Rank players by a stat",
	Long: fmt.Sprintf(`Rank players by one stat over their stored games.

Stats: %s

A healing stat with neither --champion nor --role only counts support games.`,
		strings.Join(leaderboard.StatNames(), ", ")),
	Args: cobra.ExactArgs(1),
	RunE: runLeaderboard,
}

var championsCmd = &cobra.Command{
	Use:   "champions <stat>",
	Short: "Rank champions by a stat",
	Args:  cobra.ExactArgs(1),
	RunE:  runChampions,
}

func init() {
	for _, c := range []*cobra.Command{leaderboardCmd, championsCmd} {
		c.Flags().IntVarP(&lbLimit, "limit", "n", 0, "entries to show (default from config)")
		c.Flags().BoolVar(&lbBottom, "bottom", false, "show the lowest values first")
		c.Flags().StringVar(&lbRole, "role", "", "only games on champions of this role")
		c.Flags().IntVar(&lbMinGames, "min-games", 0, "minimum games to be listed (default from config)")
	}
	leaderboardCmd.Flags().StringVar(&lbChampion, "champion", "", "only games on champions whose name contains this text")
	leaderboardCmd.Flags().BoolVar(&lbLinkedOnly, "linked", false, "only players linked to a handle")
}

func boardQuery(stat string) (leaderboard.Query, error) {
	key, err := leaderboard.ParseStatKey(stat)
	if err != nil {
		return leaderboard.Query{}, err
	}
	return leaderboard.Query{
		Stat:       key,
		Limit:      lbLimit,
		Bottom:     lbBottom,
		Champion:   lbChampion,
		Role:       lbRole,
		MinGames:   lbMinGames,
		LinkedOnly: lbLinkedOnly,
	}, nil
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	q, err := boardQuery(args[0])
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.board.Players(cmd.Context(), q)
	if err != nil {
		return err
	}
	printBoard("Players", q, entries)
	return nil
}

func runChampions(cmd *cobra.Command, args []string) error {
	q, err := boardQuery(args[0])
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.board.Champions(cmd.Context(), q)
	if err != nil {
		return err
	}
	printBoard("Champions", q, entries)
	return nil
}

func printBoard(subject string, q leaderboard.Query, entries []model.RankedEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "No entries match.")
		return
	}
	order := "top"
	if q.Bottom {
		order = "bottom"
	}
	fmt.Fprintf(os.Stdout, "\n%s — %s %d by %s\n\n", subject, order, len(entries), q.Stat.Label())
	report.PrintLeaderboard(os.Stdout, q.Stat.Label(), entries)
}
