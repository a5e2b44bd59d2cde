package cmd

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
	"github.com/Igor-Kaminski/round-table-bot/internal/report"
)

var playersLinked bool

var whoisCmd = &cobra.Command{
	Use:   "whois <name|alias|handle>",
	Short: "Show which player a name, alias or handle belongs to",
	Args:  cobra.ExactArgs(1),
	RunE:  runWhois,
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List every known player",
	Args:  cobra.NoArgs,
	RunE:  runPlayers,
}

func init() {
	playersCmd.Flags().BoolVar(&playersLinked, "linked", false, "only players linked to a handle")
}

func runWhois(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.findPlayer(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	report.PrintIdentities(os.Stdout, []model.PlayerIdentity{*p})
	return nil
}

func runPlayers(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	all, err := a.db.ListPlayers(cmd.Context())
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	if playersLinked {
		all = lo.Filter(all, func(p model.PlayerIdentity, _ int) bool { return p.Linked() })
	}
	if len(all) == 0 {
		fmt.Fprintln(os.Stdout, "No players stored yet.")
		return nil
	}
	report.PrintIdentities(os.Stdout, all)
	return nil
}
