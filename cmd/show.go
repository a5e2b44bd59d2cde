package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Igor-Kaminski/round-table-bot/internal/report"
)

var showPlayer string

var showCmd = &cobra.Command{
	Use:   "show <match-id>",
	Short: "Show a stored match",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPlayer, "player", "", "highlight this player's row")
}

func runShow(cmd *cobra.Command, args []string) error {
	matchID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid match id %q: %w", args[0], err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	m, recs, err := a.db.GetMatch(cmd.Context(), matchID)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if m == nil {
		fmt.Fprintf(os.Stderr, "No match %d stored\n", matchID)
		return nil
	}

	var focus int64
	if showPlayer != "" {
		p, err := a.findPlayer(cmd.Context(), showPlayer)
		if err != nil {
			return err
		}
		focus = p.ID
	}
	report.PrintMatchSummary(os.Stdout, *m)
	report.PrintMatchTable(os.Stdout, recs, focus)
	return nil
}
