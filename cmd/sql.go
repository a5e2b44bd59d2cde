package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Igor-Kaminski/round-table-bot/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a read-only SQL query against the stats database",
	Long: `Run a SELECT (or WITH) query against the stats database and print results as a table.

Schema overview:
  matches(match_id, grouping_num, duration_min, region, map, team1_score,
    team2_score, ingested_at)
  players(player_id, primary_name, name_key, external_handle)
  player_aliases(player_id, alias, alias_key, position)
  player_match_records(id, match_id, player_id, team, champion, build_label,
    credits, kills, deaths, assists, damage, taken, objective_time,
    shielding, healing, self_healing)

name_key and alias_key hold case-folded names.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	cols, rows, err := a.db.QueryRaw(cmd.Context(), query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}
	report.PrintRows(os.Stdout, cols, rows)
	return nil
}
