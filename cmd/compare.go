package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Igor-Kaminski/round-table-bot/internal/report"
)

var compareCmd = &cobra.Command{
	Use:   "compare <player> <other>",
	Short: "Win rate of a player with and against another",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	pa, err := a.findPlayer(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	pb, err := a.findPlayer(cmd.Context(), args[1])
	if err != nil {
		return err
	}
	if pa.ID == pb.ID {
		return errors.New("compare needs two different players")
	}

	m, err := a.agg.Compare(cmd.Context(), pa.ID, pb.ID)
	if err != nil {
		return err
	}
	if m.WithGames+m.AgainstGames == 0 {
		fmt.Fprintf(os.Stdout, "%s and %s have not played in the same match.\n", pa.Name, pb.Name)
		return nil
	}
	fmt.Fprintln(os.Stdout)
	report.PrintMatchup(os.Stdout, pa.Name, pb.Name, m)
	return nil
}
