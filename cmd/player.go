package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Igor-Kaminski/round-table-bot/internal/report"
)

var (
	playerChamps []string
	playerRole   string
)

// playerCmd prints aggregate stats for one or more players.
var playerCmd = &cobra.Command{
	Use:   "player <name|handle|#id> [<name|handle|#id>...]",
	Short: "Aggregate stats for one or more players",
	Long: `Print totals, per-minute rates and per-game averages over every stored game
of each player. --champ and --role narrow the games considered; when both are
given, games on any of the listed champions or on any champion of the role
count.

Without a filter, healing is averaged over support games only.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlayer,
}

func init() {
	playerCmd.Flags().StringSliceVar(&playerChamps, "champ", nil, "only games on these champions (repeatable)")
	playerCmd.Flags().StringVar(&playerRole, "role", "", "only games on champions of this role")
}

func runPlayer(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := a.filterFrom(playerChamps, playerRole)
	if err != nil {
		return err
	}
	for _, who := range args {
		p, err := a.findPlayer(cmd.Context(), who)
		if err != nil {
			return err
		}
		stats, err := a.agg.PlayerStats(cmd.Context(), p.ID, f)
		if err != nil {
			return err
		}
		if stats == nil {
			scope := ""
			if !f.Empty() {
				scope = " matching " + describeFilter(playerChamps, playerRole)
			}
			fmt.Fprintf(os.Stderr, "No games found for %s%s\n", p.Name, scope)
			continue
		}
		report.PrintPlayerStats(os.Stdout, p.Name, *stats)
	}
	return nil
}

func describeFilter(champs []string, role string) string {
	var parts []string
	if len(champs) > 0 {
		parts = append(parts, strings.Join(champs, "/"))
	}
	if role != "" {
		parts = append(parts, "role "+role)
	}
	return strings.Join(parts, " or ")
}
